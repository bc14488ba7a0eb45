// Package strategy decides how a query should be answered: from the local
// catalog, from an external web or news lookup, or from both. It is a
// zero-cost heuristic classifier with no LLM calls, just term matching.
package strategy

import "strings"

// Kind is the lookup path chosen for a query.
type Kind string

const (
	Local  Kind = "local"
	Web    Kind = "web"
	News   Kind = "news"
	Hybrid Kind = "hybrid"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// NeedsLocal reports whether the catalog should be searched.
func (k Kind) NeedsLocal() bool {
	return k == Local || k == Hybrid
}

// NeedsWeb reports whether a web-style external lookup is required.
func (k Kind) NeedsWeb() bool {
	return k == Web || k == Hybrid
}

// NeedsNews reports whether a news-style external lookup is required.
func (k Kind) NeedsNews() bool {
	return k == News
}

// Default term sets. Terms are matched as substrings of the lowercase query.
var (
	DefaultNewsTerms = []string{
		"news", "breaking", "headlines", "trending", "current events",
		"latest updates", "what happened", "recent developments",
		"today news", "breaking news", "news about", "current news", "latest news",
	}

	DefaultWebTerms = []string{
		"current", "latest", "recent", "today", "now", "this week", "this month",
		"what is happening", "2024", "2025", "price", "weather", "update", "status",
	}

	DefaultLocalTerms = []string{
		"how to", "tool", "navigate", "find tool", "show me", "help with",
		"what tools", "category", "features",
	}
)

// Decision is a classification with the evidence behind it.
type Decision struct {
	Kind  Kind
	News  int
	Web   int
	Local int
}

// Classifier maps queries to a Kind. It is immutable and safe for
// concurrent use.
type Classifier struct {
	news  []string
	web   []string
	local []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithNewsTerms replaces the news term set.
func WithNewsTerms(terms ...string) Option {
	return func(c *Classifier) { c.news = normalizeTerms(terms) }
}

// WithWebTerms replaces the web term set.
func WithWebTerms(terms ...string) Option {
	return func(c *Classifier) { c.web = normalizeTerms(terms) }
}

// WithLocalTerms replaces the local term set.
func WithLocalTerms(terms ...string) Option {
	return func(c *Classifier) { c.local = normalizeTerms(terms) }
}

// WithExtraLocalTerms adds terms, such as the product or creator name, that
// mark a question about the catalog itself.
func WithExtraLocalTerms(terms ...string) Option {
	return func(c *Classifier) {
		c.local = normalizeTerms(append(append([]string(nil), c.local...), terms...))
	}
}

// NewClassifier returns a classifier over the default term sets.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		news:  normalizeTerms(DefaultNewsTerms),
		web:   normalizeTerms(DefaultWebTerms),
		local: normalizeTerms(DefaultLocalTerms),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the lookup path for query.
func (c *Classifier) Classify(query string) Kind {
	return c.Explain(query).Kind
}

// Explain scores query against each term set and applies the decision
// order: news wins when present and not outnumbered by web terms, then the
// larger of web and local, and hybrid on a tie (including no matches).
func (c *Classifier) Explain(query string) Decision {
	lower := strings.ToLower(query)
	d := Decision{
		News:  countMatches(lower, c.news),
		Web:   countMatches(lower, c.web),
		Local: countMatches(lower, c.local),
	}

	switch {
	case d.News > 0 && d.News >= d.Web:
		d.Kind = News
	case d.Web > d.Local:
		d.Kind = Web
	case d.Local > d.Web:
		d.Kind = Local
	default:
		d.Kind = Hybrid
	}
	return d
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			n++
		}
	}
	return n
}

// normalizeTerms lower-cases, trims and de-duplicates terms, dropping
// blanks. A blank term would match every query.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
