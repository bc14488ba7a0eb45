package compose

import (
	"fmt"
	"strings"

	"github.com/vinayprograms/toolrouter/retrieval"
)

// FallbackKind identifies which templated answer replaced a generated one.
type FallbackKind string

const (
	FallbackNone     FallbackKind = ""
	FallbackMatches  FallbackKind = "matches"
	FallbackGreeting FallbackKind = "greeting"
	FallbackGeneric  FallbackKind = "generic"
)

type fallbackKey struct {
	hasMatches bool
	greeting   bool
}

// FallbackTable selects the template from (hasLocalMatches, isGreeting).
var FallbackTable = map[fallbackKey]FallbackKind{
	{hasMatches: true, greeting: false}:  FallbackMatches,
	{hasMatches: true, greeting: true}:   FallbackMatches,
	{hasMatches: false, greeting: true}:  FallbackGreeting,
	{hasMatches: false, greeting: false}: FallbackGeneric,
}

// SelectFallback returns the template kind for the given situation.
func SelectFallback(hasMatches, greeting bool) FallbackKind {
	return FallbackTable[fallbackKey{hasMatches: hasMatches, greeting: greeting}]
}

var greetingWords = map[string]bool{"hi": true, "hello": true, "hey": true, "greetings": true}

// IsGreeting reports whether any word of query is a greeting. Words are
// matched whole, so "this" or "they" do not count.
func IsGreeting(query string) bool {
	for _, tok := range retrieval.Tokenize(query) {
		if greetingWords[tok] {
			return true
		}
	}
	return false
}

// Fallback renders the templated answer for query. It never returns an
// empty string.
func (c *Composer) Fallback(query string, matches []retrieval.ScoredMatch) (string, FallbackKind) {
	kind := SelectFallback(len(matches) > 0, IsGreeting(query))
	p := c.cfg.Persona

	switch kind {
	case FallbackMatches:
		return matchesAnswer(query, matches) + p.creatorLine(), kind
	case FallbackGreeting:
		return fmt.Sprintf("**Hello! Welcome to %s!**\n\n"+
			"I'm your personal toolkit guide.\n\n"+
			"**Try asking me:**\n"+
			"- 'Show me AI tools'\n"+
			"- 'I need to edit images'\n"+
			"- 'Help with data analysis'", p.product()) + p.creatorLine(), kind
	default:
		return fmt.Sprintf("**I'm here to help you navigate %s!**\n\n"+
			"**Try being more specific about what you want to do:**\n"+
			"- Generate, create, edit, analyze...\n"+
			"- Or browse categories to discover features", p.product()) + p.creatorLine(), kind
	}
}

func matchesAnswer(query string, matches []retrieval.ScoredMatch) string {
	top := matches
	if len(top) > 2 {
		top = top[:2]
	}
	names := make([]string, len(top))
	for i, m := range top {
		names[i] = m.Record.Name
	}
	tools := strings.Join(names, " and ")
	category := matches[0].Record.NavigationCategory

	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "generate") || strings.Contains(q, "create"):
		return fmt.Sprintf("Perfect! I found exactly what you need: **%s**.\n\n"+
			"**How to access:** Go to **%s** category from the main menu.", tools, category)
	case strings.Contains(q, "edit") || strings.Contains(q, "modify"):
		return fmt.Sprintf("Great! For editing and modifications, you'll want **%s**.\n\n"+
			"**Navigation:** Click **%s** in the category dropdown.", tools, category)
	default:
		return fmt.Sprintf("Found it! **%s** in the **%s** section will help you.\n\n"+
			"**Access:** Select **%s** from the categories menu.", tools, category, category)
	}
}
