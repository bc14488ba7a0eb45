// Package compose turns local matches and external lookups into the final
// answer text. When the generative service fails, a templated answer is
// chosen from a fixed decision table, so the caller always gets text.
package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vinayprograms/toolrouter/llm"
	"github.com/vinayprograms/toolrouter/logging"
	"github.com/vinayprograms/toolrouter/lookup"
	"github.com/vinayprograms/toolrouter/retrieval"
	"github.com/vinayprograms/toolrouter/strategy"
)

const (
	maxLocalContext    = 3
	maxExternalContext = 2
)

// Config controls prompt size and the generation budget.
type Config struct {
	LocalContext int // Matches described to the model, at most 3
	WebSnippet   int // Characters kept from a web result
	NewsSnippet  int // Characters kept from a news result
	MaxTokens    int
	Timeout      time.Duration
	Model        string
	Persona      Persona
}

// DefaultConfig returns the standard composer settings.
func DefaultConfig() Config {
	return Config{
		LocalContext: 2,
		WebSnippet:   300,
		NewsSnippet:  400,
		MaxTokens:    600,
		Timeout:      30 * time.Second,
		Persona:      DefaultPersona(),
	}
}

// Input is everything known about a query when the answer is composed.
type Input struct {
	Query    string
	Strategy strategy.Kind
	Matches  []retrieval.ScoredMatch
	External []lookup.Result
}

// Output is the composed answer.
type Output struct {
	Text      string
	Generated bool         // false when a template was used
	Fallback  FallbackKind // set when Generated is false
	Err       error        // generator failure behind a fallback
}

// Composer builds answers. It is safe for concurrent use.
type Composer struct {
	gen    llm.Generator
	cfg    Config
	logger *logging.Logger
}

// NewComposer creates a composer. Zero config fields take defaults.
func NewComposer(gen llm.Generator, cfg Config, logger *logging.Logger) *Composer {
	def := DefaultConfig()
	if cfg.LocalContext <= 0 {
		cfg.LocalContext = def.LocalContext
	}
	if cfg.LocalContext > maxLocalContext {
		cfg.LocalContext = maxLocalContext
	}
	if cfg.WebSnippet <= 0 {
		cfg.WebSnippet = def.WebSnippet
	}
	if cfg.NewsSnippet <= 0 {
		cfg.NewsSnippet = def.NewsSnippet
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Persona == (Persona{}) {
		cfg.Persona = def.Persona
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Composer{gen: gen, cfg: cfg, logger: logger.WithComponent("compose")}
}

// Compose asks the generator for an answer and falls back to a template
// on any failure.
func (c *Composer) Compose(ctx context.Context, in Input) Output {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	text, err := c.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:    c.Prompt(in),
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
	})
	text = strings.TrimSpace(text)
	if err == nil && text != "" {
		return Output{
			Text:      c.cfg.Persona.attribute(in.Query, text),
			Generated: true,
		}
	}

	fallback, kind := c.Fallback(in.Query, in.Matches)
	c.logger.ComposeFallback(string(kind), err)
	return Output{Text: fallback, Fallback: kind, Err: err}
}

// Prompt renders the generation prompt for in.
func (c *Composer) Prompt(in Input) string {
	product := c.cfg.Persona.product()

	var b strings.Builder
	fmt.Fprintf(&b, "You are an assistant for %s with access to both local tool knowledge and real-time news and web information.\n\n", product)
	fmt.Fprintf(&b, "User Query: %s\n\n", in.Query)

	if local := c.LocalContext(in.Matches); local != "" {
		fmt.Fprintf(&b, "Local %s Knowledge:\n%s\n", product, local)
	}
	if external := c.externalContext(in.Strategy, in.External); external != "" {
		b.WriteString("Current News & Updates:\n")
		b.WriteString(external)
	}

	b.WriteString("Provide a response that:\n" +
		"1. Directly addresses the user's question\n" +
		"2. Recommends the most relevant tools when applicable\n" +
		"3. Clearly indicates when using real-time information vs local knowledge\n" +
		"4. Gives clear navigation instructions\n" +
		"5. Stays concise\n\n")
	fmt.Fprintf(&b, "Strategy used: %s\n\nResponse:", in.Strategy)
	return b.String()
}

// LocalContext describes the top matches for the prompt.
func (c *Composer) LocalContext(matches []retrieval.ScoredMatch) string {
	if len(matches) > c.cfg.LocalContext {
		matches = matches[:c.cfg.LocalContext]
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		rec := m.Record
		nav := "Go to " + rec.NavigationCategory
		if rec.HasNavigationTool() {
			nav += " → " + rec.NavigationTool
		}
		parts = append(parts, fmt.Sprintf("Tool: %s\nCategory: %s\nDescription: %s\nNavigation: %s\n",
			rec.Name, rec.NavigationCategory, rec.Description, nav))
	}
	return strings.Join(parts, "\n")
}

func (c *Composer) externalContext(kind strategy.Kind, results []lookup.Result) string {
	label, limit := "Current Information", c.cfg.WebSnippet
	if kind == strategy.News {
		label, limit = "Breaking News", c.cfg.NewsSnippet
	}

	var b strings.Builder
	used := 0
	for _, r := range results {
		if used == maxExternalContext {
			break
		}
		if !r.OK() {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n\n", label, Truncate(r.Text, limit))
		used++
	}
	return b.String()
}

// Truncate shortens s to at most n runes, adding "..." when it cuts.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n < 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
