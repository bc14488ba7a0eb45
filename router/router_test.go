package router

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vinayprograms/toolrouter/catalog"
	"github.com/vinayprograms/toolrouter/compose"
	"github.com/vinayprograms/toolrouter/config"
	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/llm"
	"github.com/vinayprograms/toolrouter/lookup"
	"github.com/vinayprograms/toolrouter/metrics"
	"github.com/vinayprograms/toolrouter/strategy"
	"github.com/vinayprograms/toolrouter/telemetry"
)

// scriptedGenerator answers lookup prompts and compose prompts separately.
type scriptedGenerator struct {
	lookupText  string
	lookupErr   error
	composeText string
	composeErr  error

	lookups  atomic.Int32
	composes atomic.Int32
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	if strings.Contains(req.Prompt, "Strategy used:") {
		g.composes.Add(1)
		return g.composeText, g.composeErr
	}
	g.lookups.Add(1)
	return g.lookupText, g.lookupErr
}

func newEngine(t *testing.T, gen llm.Generator, opts ...Option) *Engine {
	t.Helper()
	e, err := New(nil, gen, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestRespond_Strategies(t *testing.T) {
	tests := []struct {
		query       string
		strategy    strategy.Kind
		topMatch    string
		lookupKind  lookup.Kind
		lookupCalls int32
	}{
		{"how to use the text counter tool", strategy.Local, "Text Counter", "", 0},
		{"breaking news about elections", strategy.News, "", lookup.News, 1},
		{"current stock price", strategy.Web, "", lookup.Web, 1},
		{"who made this", strategy.Hybrid, "Creator Portfolio", lookup.Web, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			gen := &scriptedGenerator{lookupText: "fresh facts", composeText: "Here you go."}
			resp := newEngine(t, gen).Respond(context.Background(), tt.query)

			if resp.Strategy != tt.strategy {
				t.Fatalf("Strategy = %s, want %s", resp.Strategy, tt.strategy)
			}
			if resp.RequestID == "" || resp.Query != tt.query || resp.Elapsed <= 0 {
				t.Errorf("metadata = %+v", resp)
			}
			if !resp.Generated || !strings.HasPrefix(resp.Text, "Here you go.") {
				t.Errorf("Text = %q, Generated = %v", resp.Text, resp.Generated)
			}

			if tt.topMatch == "" {
				if len(resp.Matches) != 0 {
					t.Errorf("%s strategy should not search the catalog", tt.strategy)
				}
			} else if len(resp.Matches) == 0 || resp.Matches[0].Record.Name != tt.topMatch {
				t.Errorf("top match = %+v, want %s", resp.Matches, tt.topMatch)
			}

			if gen.lookups.Load() != tt.lookupCalls {
				t.Errorf("lookup calls = %d, want %d", gen.lookups.Load(), tt.lookupCalls)
			}
			if tt.lookupKind == "" {
				if resp.External != nil {
					t.Errorf("unexpected external result %+v", resp.External)
				}
			} else if resp.External == nil || resp.External.Kind != tt.lookupKind || !resp.External.OK() {
				t.Errorf("External = %+v, want kind %s", resp.External, tt.lookupKind)
			}
		})
	}
}

func TestRespond_LocalTargets(t *testing.T) {
	gen := &scriptedGenerator{composeText: "Use Text Counter."}
	resp := newEngine(t, gen).Respond(context.Background(), "how to use the text counter tool")

	if len(resp.Targets) == 0 || len(resp.Targets) > 3 {
		t.Fatalf("Targets = %+v", resp.Targets)
	}
	if resp.Targets[0].Category != "Text Tools" || resp.Targets[0].Tool != "Text Counter" {
		t.Errorf("first target = %+v", resp.Targets[0])
	}
}

func TestRespond_LookupFailureStillAnswers(t *testing.T) {
	gen := &scriptedGenerator{
		lookupErr:   errors.Timeout("deadline exceeded"),
		composeText: "I could not reach live data, but here is what I know.",
	}
	resp := newEngine(t, gen).Respond(context.Background(), "current stock price")

	if resp.External == nil || resp.External.OK() {
		t.Fatalf("External = %+v, want failure", resp.External)
	}
	if resp.External.Failure.Err.Code() != errors.ErrCodeTimeout {
		t.Errorf("failure code = %s", resp.External.Failure.Err.Code())
	}
	if !resp.Generated || resp.Text == "" {
		t.Errorf("composition should still succeed: %+v", resp)
	}
}

func TestRespond_EverythingFails(t *testing.T) {
	tests := []struct {
		query    string
		fallback compose.FallbackKind
	}{
		{"hello", compose.FallbackGreeting},
		{"zzyzx", compose.FallbackGeneric},
		{"how to use the text counter tool", compose.FallbackMatches},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			gen := llm.NewMockGenerator("")
			gen.SetError(errors.New(errors.ErrCodeUnavailable, "service down"))
			resp := newEngine(t, gen).Respond(context.Background(), tt.query)

			if resp.Generated || resp.Fallback != tt.fallback {
				t.Errorf("Fallback = %q, want %q", resp.Fallback, tt.fallback)
			}
			if strings.TrimSpace(resp.Text) == "" {
				t.Error("response text must never be empty")
			}
		})
	}
}

func TestRespond_CachesLookups(t *testing.T) {
	gen := &scriptedGenerator{lookupText: "rates are up", composeText: "ok"}
	e := newEngine(t, gen)

	first := e.Respond(context.Background(), "current interest rates")
	second := e.Respond(context.Background(), "Current  interest rates")

	if first.External.FromCache || !second.External.FromCache {
		t.Errorf("FromCache = %v then %v", first.External.FromCache, second.External.FromCache)
	}
	if gen.lookups.Load() != 1 {
		t.Errorf("lookup calls = %d, want 1", gen.lookups.Load())
	}
	if stats := e.CacheStats(); stats.Hits != 1 {
		t.Errorf("CacheStats = %+v", stats)
	}
}

func TestRespond_Suggestions(t *testing.T) {
	gen := &scriptedGenerator{lookupText: "n/a", composeText: "ok"}
	resp := newEngine(t, gen).Respond(context.Background(), "pasword")

	if resp.Strategy != strategy.Hybrid || len(resp.Matches) != 0 {
		t.Fatalf("Strategy = %s, matches = %d", resp.Strategy, len(resp.Matches))
	}
	found := false
	for _, s := range resp.Suggestions {
		if s == "Password Generator" {
			found = true
		}
	}
	if !found {
		t.Errorf("Suggestions = %v, want Password Generator", resp.Suggestions)
	}
}

func TestRespond_CancelledContext(t *testing.T) {
	gen := &llm.MockGenerator{GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", errors.Wrap(err, "generate")
		}
		return "unexpected", nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := newEngine(t, gen).Respond(ctx, "current weather update")
	if resp.External == nil || resp.External.OK() {
		t.Errorf("External = %+v, want failure", resp.External)
	}
	if resp.Text == "" || resp.Generated {
		t.Errorf("cancelled query should fall back: %+v", resp)
	}
}

func TestRespond_RecoversFromPanic(t *testing.T) {
	gen := &llm.MockGenerator{GenerateFunc: func(ctx context.Context, req llm.GenerateRequest) (string, error) {
		panic("generator exploded")
	}}
	resp := newEngine(t, gen).Respond(context.Background(), "how to use the text counter tool")
	if resp.Text == "" || resp.Generated || resp.Fallback != compose.FallbackGeneric {
		t.Errorf("panic should degrade to the generic answer: %+v", resp)
	}
}

func TestRespond_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPrometheus(reg)
	gen := &scriptedGenerator{lookupText: "news body", composeText: "ok"}
	e := newEngine(t, gen, WithMetrics(m))

	e.Respond(context.Background(), "breaking news today")
	e.Respond(context.Background(), "breaking news today")

	count, err := testutil.GatherAndCount(reg, "toolrouter_queries_total", "toolrouter_lookups_total", "toolrouter_compose_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	// queries{news}, lookups{news,ok}, lookups{news,hit}, compose{generated}
	if count != 4 {
		t.Errorf("series = %d, want 4", count)
	}
}

func TestRespond_Tracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	tracer := telemetry.NewTracerFromProvider(tp, "router-test", false)

	gen := &scriptedGenerator{lookupText: "x", composeText: "ok"}
	newEngine(t, gen, WithTracer(tracer)).Respond(context.Background(), "current stock price")

	names := map[string]bool{}
	for _, s := range exporter.GetSpans() {
		names[s.Name] = true
	}
	for _, want := range []string{"router.respond", "lookup.web"} {
		if !names[want] {
			t.Errorf("missing span %q in %v", want, names)
		}
	}
}

func TestNew_Options(t *testing.T) {
	cat := catalog.MustNew([]catalog.ToolRecord{{
		Name:               "Unit Converter",
		Category:           "utility",
		Description:        "Convert units",
		Keywords:           []string{"convert", "units"},
		NavigationCategory: "Utilities",
		NavigationTool:     "Unit Converter",
		ShortDescription:   "Convert between units",
	}})
	syn := catalog.NewSynonymTable(nil)
	gen := &scriptedGenerator{composeText: "ok"}
	cache := lookup.NewCache(4, 0)

	e := newEngine(t, gen,
		WithCatalog(cat, syn),
		WithCache(cache),
		WithClassifier(strategy.NewClassifier(strategy.WithLocalTerms("convert"))),
	)
	resp := e.Respond(context.Background(), "convert units")
	if resp.Strategy != strategy.Local || len(resp.Matches) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if e.Catalog().Len() != 1 {
		t.Error("custom catalog not used")
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil, nil); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("nil generator: %v", err)
	}

	cfg := config.Default()
	cfg.Catalog.Path = "does-not-exist.toml"
	if _, err := New(cfg, llm.NewMockGenerator("x")); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing catalog: %v", err)
	}
}

func TestOpen(t *testing.T) {
	e := newEngine(t, llm.NewMockGenerator("x"))

	target, err := e.Open("image tools", "image resizer")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if target.Category != "Image Tools" || target.Tool != "Image Resizer" {
		t.Errorf("target = %+v", target)
	}

	if _, err := e.Open("Image Tools", "Teleporter"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown tool: %v", err)
	}
}

func TestWeightsFromConfig(t *testing.T) {
	w := weightsFromConfig(config.RetrievalConfig{NameContainsQuery: 99})
	if w.NameContainsQuery != 99 || w.TermInKeyword != 10 {
		t.Errorf("weights = %+v", w)
	}
}
