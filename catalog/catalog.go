// Package catalog holds the immutable tool catalog and synonym table the
// router matches queries against, together with loaders for TOML and YAML
// catalog files and a fuzzy suggestion index.
package catalog

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/toolrouter/errors"
)

// ToolRecord is one catalog entry. Records are values; the catalog hands
// out copies so callers can never mutate shared state.
type ToolRecord struct {
	Name               string   `toml:"name" yaml:"name" json:"name"`
	Category           string   `toml:"category" yaml:"category" json:"category"`
	Description        string   `toml:"description" yaml:"description" json:"description"`
	Keywords           []string `toml:"keywords" yaml:"keywords" json:"keywords"`
	NavigationCategory string   `toml:"navigation_category" yaml:"navigation_category" json:"navigation_category"`
	NavigationTool     string   `toml:"navigation_tool,omitempty" yaml:"navigation_tool,omitempty" json:"navigation_tool,omitempty"` // empty: open the category only
	ShortDescription   string   `toml:"short_description" yaml:"short_description" json:"short_description"`
}

// HasNavigationTool reports whether the record names a specific sub-tool.
func (r ToolRecord) HasNavigationTool() bool {
	return r.NavigationTool != ""
}

func (r ToolRecord) clone() ToolRecord {
	r.Keywords = append([]string(nil), r.Keywords...)
	return r
}

// Catalog is an ordered, immutable collection of tool records. Insertion
// order is significant: it breaks ranking ties.
type Catalog struct {
	records    []ToolRecord
	categories []string
}

// New validates records and builds a catalog from a private copy of them.
// Names must be non-empty and unique within their category; every record
// needs a navigation category.
func New(records []ToolRecord) (*Catalog, error) {
	c := &Catalog{records: make([]ToolRecord, 0, len(records))}
	seen := make(map[string]int)
	seenCategory := make(map[string]bool)

	for i, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("catalog record %d has no name", i))
		}
		if strings.TrimSpace(r.NavigationCategory) == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("catalog record %q has no navigation category", r.Name))
		}
		key := strings.ToLower(r.Category) + "\x00" + strings.ToLower(r.Name)
		if prev, dup := seen[key]; dup {
			return nil, errors.InvalidInput(fmt.Sprintf("catalog record %d duplicates %q in category %q (first at %d)", i, r.Name, r.Category, prev))
		}
		seen[key] = i

		if !seenCategory[r.NavigationCategory] {
			seenCategory[r.NavigationCategory] = true
			c.categories = append(c.categories, r.NavigationCategory)
		}
		c.records = append(c.records, r.clone())
	}
	return c, nil
}

// MustNew is New that panics on invalid input. Intended for literals in
// tests and examples.
func MustNew(records []ToolRecord) *Catalog {
	c, err := New(records)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	return len(c.records)
}

// At returns a copy of the i-th record.
func (c *Catalog) At(i int) ToolRecord {
	return c.records[i].clone()
}

// Records returns copies of all records in insertion order.
func (c *Catalog) Records() []ToolRecord {
	out := make([]ToolRecord, len(c.records))
	for i, r := range c.records {
		out[i] = r.clone()
	}
	return out
}

// Categories returns the distinct navigation categories in first-seen order.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Find locates a record by navigation category and tool. An empty tool
// matches the first record of the category. Comparison ignores case.
func (c *Catalog) Find(category, tool string) (ToolRecord, bool) {
	for _, r := range c.records {
		if !strings.EqualFold(r.NavigationCategory, category) {
			continue
		}
		if tool == "" || strings.EqualFold(r.NavigationTool, tool) || strings.EqualFold(r.Name, tool) {
			return r.clone(), true
		}
	}
	return ToolRecord{}, false
}

// HasCategory reports whether any record navigates to category.
func (c *Catalog) HasCategory(category string) bool {
	for _, cat := range c.categories {
		if strings.EqualFold(cat, category) {
			return true
		}
	}
	return false
}
