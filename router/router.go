// Package router answers free-text questions about a tool catalog.
//
// Each query is classified, matched against the catalog and, when the
// strategy calls for it, enriched with an external web or news lookup.
// The composed answer always has text: external failures and generator
// failures degrade to templated answers instead of errors.
package router

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vinayprograms/toolrouter/catalog"
	"github.com/vinayprograms/toolrouter/compose"
	"github.com/vinayprograms/toolrouter/config"
	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/llm"
	"github.com/vinayprograms/toolrouter/logging"
	"github.com/vinayprograms/toolrouter/lookup"
	"github.com/vinayprograms/toolrouter/metrics"
	"github.com/vinayprograms/toolrouter/navigate"
	"github.com/vinayprograms/toolrouter/retrieval"
	"github.com/vinayprograms/toolrouter/strategy"
	"github.com/vinayprograms/toolrouter/telemetry"
)

// Response is everything produced for one query.
type Response struct {
	RequestID   string
	Query       string
	Text        string
	Strategy    strategy.Kind
	Matches     []retrieval.ScoredMatch
	Targets     []navigate.Target
	External    *lookup.Result // nil when no lookup was needed
	Suggestions []string       // fuzzy name suggestions when nothing matched
	Generated   bool
	Fallback    compose.FallbackKind
	Elapsed     time.Duration
}

// Engine wires the routing pipeline together. It is safe for concurrent
// use; the lookup cache is the only shared mutable state.
type Engine struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	synonyms   *catalog.SynonymTable
	index      *catalog.Index
	retriever  *retrieval.Retriever
	classifier *strategy.Classifier
	lookups    *lookup.Service
	cache      *lookup.Cache
	composer   *compose.Composer
	resolver   *navigate.Resolver
	logger     *logging.Logger
	metrics    metrics.Metrics
	tracer     *telemetry.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCatalog replaces the configured catalog.
func WithCatalog(cat *catalog.Catalog, syn *catalog.SynonymTable) Option {
	return func(e *Engine) {
		e.catalog = cat
		e.synonyms = syn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer. The global tracer is used otherwise.
func WithTracer(t *telemetry.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// WithClassifier replaces the classifier built from config.
func WithClassifier(c *strategy.Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithCache shares a lookup cache between engines.
func WithCache(c *lookup.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// New builds an engine. A nil cfg uses config.Default(). gen serves both
// external lookups and answer composition.
func New(cfg *config.Config, gen llm.Generator, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if gen == nil {
		return nil, errors.InvalidConfig("router needs a generator")
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	if e.metrics == nil {
		e.metrics = metrics.NewNoop()
	}
	if e.tracer == nil {
		e.tracer = telemetry.GetTracer()
	}

	if e.catalog == nil {
		if cfg.Catalog.Path != "" {
			cat, syn, err := catalog.Load(cfg.Catalog.Path)
			if err != nil {
				return nil, err
			}
			e.catalog, e.synonyms = cat, syn
		} else {
			e.catalog, e.synonyms = catalog.Default()
		}
	}

	index, err := catalog.NewIndex(e.catalog)
	if err != nil {
		return nil, errors.Wrap(err, "building suggestion index")
	}
	e.index = index

	e.retriever = retrieval.New(e.catalog, e.synonyms, retrieval.WithWeights(weightsFromConfig(cfg.Retrieval)))

	persona := compose.Persona{
		Product:      cfg.Persona.Product,
		Creator:      cfg.Persona.Creator,
		AboutSection: cfg.Persona.AboutSection,
	}
	if e.classifier == nil {
		e.classifier = strategy.NewClassifier(classifierOptions(cfg.Strategy, persona)...)
	}

	if e.cache == nil {
		e.cache = lookup.NewCache(cfg.Lookup.CacheCapacity, cfg.Lookup.CacheTTL)
	}
	e.lookups = lookup.NewService(gen,
		lookup.WithConfig(lookup.Config{
			WebMaxTokens:  cfg.Lookup.WebMaxTokens,
			NewsMaxTokens: cfg.Lookup.NewsMaxTokens,
			Timeout:       cfg.Lookup.Timeout,
			Model:         cfg.Lookup.Profile,
		}),
		lookup.WithCache(e.cache),
		lookup.WithLogger(e.logger),
		lookup.WithTracer(e.tracer),
	)

	e.composer = compose.NewComposer(gen, compose.Config{
		LocalContext: cfg.Compose.LocalContext,
		WebSnippet:   cfg.Compose.WebSnippet,
		NewsSnippet:  cfg.Compose.NewsSnippet,
		MaxTokens:    cfg.Compose.MaxTokens,
		Timeout:      cfg.Compose.Timeout,
		Model:        cfg.Compose.Profile,
		Persona:      persona,
	}, e.logger)

	e.resolver = navigate.NewResolver(cfg.Navigation.LandingCategory)
	return e, nil
}

func weightsFromConfig(rc config.RetrievalConfig) retrieval.Weights {
	w := retrieval.DefaultWeights
	pick := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	pick(&w.NameContainsQuery, rc.NameContainsQuery)
	pick(&w.TermInKeyword, rc.TermInKeyword)
	pick(&w.KeywordInQuery, rc.KeywordInQuery)
	pick(&w.DescriptionToken, rc.DescriptionToken)
	pick(&w.ShortDescription, rc.ShortDescription)
	pick(&w.Category, rc.Category)
	return w
}

func classifierOptions(sc config.StrategyConfig, persona compose.Persona) []strategy.Option {
	var opts []strategy.Option
	if len(sc.NewsTerms) > 0 {
		opts = append(opts, strategy.WithNewsTerms(sc.NewsTerms...))
	}
	if len(sc.WebTerms) > 0 {
		opts = append(opts, strategy.WithWebTerms(sc.WebTerms...))
	}
	if len(sc.LocalTerms) > 0 {
		opts = append(opts, strategy.WithLocalTerms(sc.LocalTerms...))
	}
	extra := append(persona.Terms(), sc.ExtraLocalTerms...)
	return append(opts, strategy.WithExtraLocalTerms(extra...))
}

// Respond answers query. It never fails: the worst outcome is a generic
// templated answer with no navigation targets.
func (e *Engine) Respond(ctx context.Context, query string) (resp *Response) {
	start := time.Now()
	resp = &Response{RequestID: uuid.NewString(), Query: query}
	logger := e.logger.WithComponent("router").WithTraceID(resp.RequestID)

	ctx, span := e.tracer.StartQuerySpan(ctx, resp.RequestID)
	defer func() {
		if r := recover(); r != nil {
			perr := errors.RecoverPanic(r)
			logger.Error("respond panicked", map[string]interface{}{"error": perr.Error()})
			text, kind := e.composer.Fallback(query, nil)
			resp.Text, resp.Fallback, resp.Generated = text, kind, false
			resp.Matches, resp.Targets = nil, nil
		}
		resp.Elapsed = time.Since(start)
		e.metrics.ObserveQuery(string(resp.Strategy), resp.Elapsed)
		e.metrics.SetCacheEntries(e.cache.Len())
		logger.QueryComplete(string(resp.Strategy), len(resp.Matches), resp.Elapsed)
		e.tracer.EndQuerySpan(span, telemetry.QuerySpanOptions{
			RequestID: resp.RequestID,
			Strategy:  string(resp.Strategy),
			Matches:   len(resp.Matches),
			Fallback:  string(resp.Fallback),
			Query:     query,
		})
	}()

	logger.QueryStart(query)
	decision := e.classifier.Explain(query)
	resp.Strategy = decision.Kind
	logger.StrategyChosen(string(decision.Kind), decision.News, decision.Web, decision.Local)

	if decision.Kind.NeedsLocal() {
		resp.Matches = e.retriever.Retrieve(query)
		if len(resp.Matches) > 0 {
			logger.Retrieved(len(resp.Matches), resp.Matches[0].Record.Name, resp.Matches[0].Score)
		} else {
			logger.Retrieved(0, "", 0)
		}
	}

	var external []lookup.Result
	if kind, ok := lookupKind(decision.Kind); ok {
		res := e.lookups.Lookup(ctx, kind, query)
		e.metrics.ObserveLookup(string(kind), lookupOutcome(res))
		resp.External = &res
		external = append(external, res)
	}

	out := e.composer.Compose(ctx, compose.Input{
		Query:    query,
		Strategy: decision.Kind,
		Matches:  resp.Matches,
		External: external,
	})
	resp.Text, resp.Generated, resp.Fallback = out.Text, out.Generated, out.Fallback
	if out.Generated {
		e.metrics.ObserveCompose(metrics.ComposeGenerated)
	} else {
		e.metrics.ObserveCompose(string(out.Fallback))
	}

	resp.Targets = e.resolver.Resolve(resp.Matches)

	if decision.Kind.NeedsLocal() && len(resp.Matches) == 0 {
		suggestions, err := e.index.Suggest(query, e.cfg.Catalog.SuggestLimit)
		if err != nil {
			logger.Warn("suggest failed", map[string]interface{}{"error": err.Error()})
		}
		resp.Suggestions = suggestions
	}
	return resp
}

func lookupKind(k strategy.Kind) (lookup.Kind, bool) {
	switch {
	case k.NeedsNews():
		return lookup.News, true
	case k.NeedsWeb():
		return lookup.Web, true
	}
	return "", false
}

func lookupOutcome(r lookup.Result) string {
	switch {
	case r.FromCache:
		return metrics.OutcomeHit
	case r.OK():
		return metrics.OutcomeOK
	default:
		return metrics.OutcomeError
	}
}

// Open validates a navigation target chosen by the presentation layer and
// returns it with catalog spelling.
func (e *Engine) Open(category, tool string) (navigate.Target, error) {
	t, ok := e.resolver.Validate(e.catalog, navigate.Target{Category: category, Tool: tool})
	if !ok {
		return navigate.Target{}, errors.NotFound("no such navigation target",
			errors.WithMetadata("category", category),
			errors.WithMetadata("tool", tool))
	}
	return t, nil
}

// Catalog returns the catalog in use.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// CacheStats reports lookup cache activity.
func (e *Engine) CacheStats() lookup.CacheStats {
	return e.cache.Stats()
}

// Close releases the suggestion index.
func (e *Engine) Close() error {
	return e.index.Close()
}
