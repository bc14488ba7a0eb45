// Package lookup fetches current web and news information through the
// generative-text service and remembers successful answers.
//
// A lookup never returns an error. Timeouts, transport faults and empty
// output become a failed Result carrying a message that is safe to show
// to the user, with the structured error attached for logging.
package lookup

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/llm"
	"github.com/vinayprograms/toolrouter/logging"
	"github.com/vinayprograms/toolrouter/telemetry"
)

// Kind selects the lookup prompt and output budget.
type Kind string

const (
	Web  Kind = "web"
	News Kind = "news"
)

// Source tags recorded on successful results.
const (
	SourceWeb  = "Web Search"
	SourceNews = "News Search"
)

// Valid reports whether k is a known lookup kind.
func (k Kind) Valid() bool {
	return k == Web || k == News
}

// Failure explains why a lookup produced no text.
type Failure struct {
	Message string        // Safe to show to the user
	Err     *errors.Error // Underlying cause
}

// Result is the outcome of one lookup.
type Result struct {
	Kind       Kind
	Query      string
	Text       string
	Source     string
	CapturedAt time.Time
	FromCache  bool
	Failure    *Failure
}

// OK reports whether the lookup produced usable text.
func (r Result) OK() bool {
	return r.Failure == nil && r.Text != ""
}

// Config holds lookup budgets.
type Config struct {
	WebMaxTokens  int
	NewsMaxTokens int
	Timeout       time.Duration
	Model         string // Provider profile; empty selects the default
}

// DefaultConfig returns the standard budgets.
func DefaultConfig() Config {
	return Config{
		WebMaxTokens:  800,
		NewsMaxTokens: 1000,
		Timeout:       30 * time.Second,
	}
}

func (c Config) maxTokens(kind Kind) int {
	if kind == News {
		return c.NewsMaxTokens
	}
	return c.WebMaxTokens
}

// Service performs cached lookups. It is safe for concurrent use.
type Service struct {
	gen    llm.Generator
	cfg    Config
	cache  *Cache
	group  singleflight.Group
	logger *logging.Logger
	tracer *telemetry.Tracer
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets budgets. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		if cfg.WebMaxTokens > 0 {
			s.cfg.WebMaxTokens = cfg.WebMaxTokens
		}
		if cfg.NewsMaxTokens > 0 {
			s.cfg.NewsMaxTokens = cfg.NewsMaxTokens
		}
		if cfg.Timeout > 0 {
			s.cfg.Timeout = cfg.Timeout
		}
		s.cfg.Model = cfg.Model
	}
}

// WithCache shares a cache between services.
func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent("lookup") }
}

// WithTracer sets the tracer. The global tracer is used otherwise.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// NewService creates a lookup service backed by gen.
func NewService(gen llm.Generator, opts ...Option) *Service {
	s := &Service{
		gen:    gen,
		cfg:    DefaultConfig(),
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache(DefaultCacheCapacity, 0)
	}
	return s
}

// Cache returns the backing cache.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Web looks up general current information about query.
func (s *Service) Web(ctx context.Context, query string) Result {
	return s.Lookup(ctx, Web, query)
}

// News looks up current news about query.
func (s *Service) News(ctx context.Context, query string) Result {
	return s.Lookup(ctx, News, query)
}

// Lookup returns a cached result for (kind, query) when one exists and
// otherwise asks the generator, bounded by the configured timeout.
// Concurrent misses for the same key share one generator call.
func (s *Service) Lookup(ctx context.Context, kind Kind, query string) Result {
	tracer := s.tracer
	if tracer == nil {
		tracer = telemetry.GetTracer()
	}
	ctx, span := tracer.StartLookupSpan(ctx, string(kind))

	if !kind.Valid() {
		err := errors.Unsupported("unknown lookup kind", errors.WithMetadata("kind", string(kind)))
		res := s.failed(kind, query, err)
		tracer.EndLookupSpan(span, telemetry.LookupSpanOptions{Kind: string(kind)}, err)
		return res
	}

	key := CacheKey(kind, query)
	if cached, ok := s.cache.Get(key); ok {
		cached.FromCache = true
		cached.Query = query
		s.logger.CacheHit(string(kind), query)
		tracer.EndLookupSpan(span, telemetry.LookupSpanOptions{
			Kind: string(kind), FromCache: true, Text: cached.Text,
		}, nil)
		return cached
	}

	var (
		res    Result
		shared bool
	)
	err := ctx.Err()
	if err == nil {
		// The flight is shared, so it must not die with whichever caller
		// started it. s.cfg.Timeout still bounds it.
		ch := s.group.DoChan(key, func() (interface{}, error) {
			return s.fetch(context.WithoutCancel(ctx), kind, query, key)
		})
		select {
		case out := <-ch:
			shared = out.Shared
			if out.Err != nil {
				err = out.Err
			} else {
				res = out.Val.(Result)
				res.Query = query
			}
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	if err != nil {
		res = s.failed(kind, query, err)
	}
	tracer.EndLookupSpan(span, telemetry.LookupSpanOptions{
		Kind: string(kind), Coalesced: shared, Text: res.Text,
	}, failureErr(res))
	return res
}

func (s *Service) fetch(ctx context.Context, kind Kind, query, key string) (res Result, err error) {
	// fetch runs on a singleflight goroutine where a panic would take
	// down the process.
	defer func() {
		if r := recover(); r != nil {
			err = errors.RecoverPanic(r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := s.now()
	text, err := s.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:    buildPrompt(kind, query),
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.maxTokens(kind),
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.EmptyOutput("lookup returned no text")
	}
	s.logger.LookupDone(string(kind), s.now().Sub(start), err)
	if err != nil {
		return Result{}, err
	}

	res = Result{
		Kind:       kind,
		Query:      query,
		Text:       strings.TrimSpace(text),
		Source:     sourceFor(kind),
		CapturedAt: s.now(),
	}
	s.cache.Put(key, res)
	return res, nil
}

func (s *Service) failed(kind Kind, query string, err error) Result {
	return Result{
		Kind:       kind,
		Query:      query,
		CapturedAt: s.now(),
		Failure: &Failure{
			Message: failureMessage(kind, query),
			Err:     errors.Wrap(err, "lookup "+string(kind), errors.WithQuery(query)),
		},
	}
}

func failureErr(r Result) error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure.Err
}

func sourceFor(kind Kind) string {
	if kind == News {
		return SourceNews
	}
	return SourceWeb
}

// CacheKey builds the cache key for (kind, query). Queries differing only
// in case or whitespace share a key.
func CacheKey(kind Kind, query string) string {
	return string(kind) + ":" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
