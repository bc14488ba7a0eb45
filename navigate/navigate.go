// Package navigate derives where the presentation layer should take the
// user after a query: a specific tool, or a category to browse.
package navigate

import (
	"strings"

	"github.com/vinayprograms/toolrouter/catalog"
	"github.com/vinayprograms/toolrouter/retrieval"
)

// DefaultLandingCategory is the home view. Browsing it is never suggested.
const DefaultLandingCategory = "Dashboard"

const maxTargets = 3

// Target is one navigation suggestion.
type Target struct {
	Category    string `json:"category"`
	Tool        string `json:"tool,omitempty"` // empty: open the category only
	Description string `json:"description"`
}

// HasTool reports whether the target opens a specific tool.
func (t Target) HasTool() bool {
	return t.Tool != ""
}

// Resolver maps retrieval results to navigation targets.
type Resolver struct {
	landing string
}

// NewResolver returns a resolver. An empty landing category selects
// DefaultLandingCategory.
func NewResolver(landing string) *Resolver {
	if strings.TrimSpace(landing) == "" {
		landing = DefaultLandingCategory
	}
	return &Resolver{landing: landing}
}

// Resolve inspects the top three matches in rank order. A match with a
// navigation tool yields a tool target; one without yields a category
// target unless its category is the landing view.
func (r *Resolver) Resolve(matches []retrieval.ScoredMatch) []Target {
	if len(matches) > maxTargets {
		matches = matches[:maxTargets]
	}

	var targets []Target
	for _, m := range matches {
		rec := m.Record
		switch {
		case rec.HasNavigationTool():
			targets = append(targets, Target{
				Category:    rec.NavigationCategory,
				Tool:        rec.NavigationTool,
				Description: rec.ShortDescription,
			})
		case rec.NavigationCategory != r.landing:
			targets = append(targets, Target{
				Category:    rec.NavigationCategory,
				Description: "Browse " + rec.NavigationCategory + " category",
			})
		}
	}
	return targets
}

// Validate checks that t points at something in cat and returns it with
// the catalog's spelling. A category-only target must name a known
// navigation category.
func (r *Resolver) Validate(cat *catalog.Catalog, t Target) (Target, bool) {
	if !t.HasTool() {
		for _, c := range cat.Categories() {
			if strings.EqualFold(c, t.Category) {
				t.Category = c
				return t, true
			}
		}
		return Target{}, false
	}

	rec, ok := cat.Find(t.Category, t.Tool)
	if !ok {
		return Target{}, false
	}
	out := Target{
		Category:    rec.NavigationCategory,
		Tool:        rec.NavigationTool,
		Description: rec.ShortDescription,
	}
	if out.Tool == "" {
		out.Tool = rec.Name
	}
	return out, true
}
