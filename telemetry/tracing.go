// OpenTelemetry tracing for query handling.
package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Tracer wraps OpenTelemetry tracing with router-specific helpers.
type Tracer struct {
	tracer trace.Tracer
	debug  bool // When true, include prompts and responses in span attributes
}

var (
	globalTracer *Tracer
	tracerMu     sync.RWMutex
)

// SetGlobalTracer sets the global tracer instance.
func SetGlobalTracer(t *Tracer) {
	tracerMu.Lock()
	defer tracerMu.Unlock()
	globalTracer = t
}

// GetTracer returns the global tracer, or a no-op tracer if not set.
func GetTracer() *Tracer {
	tracerMu.RLock()
	defer tracerMu.RUnlock()
	if globalTracer == nil {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer("")}
	}
	return globalTracer
}

// NewTracer creates a tracer backed by the global OpenTelemetry provider.
func NewTracer(name string, debug bool) *Tracer {
	return &Tracer{
		tracer: otel.Tracer(name),
		debug:  debug,
	}
}

// NewTracerFromProvider creates a tracer from an explicit provider.
func NewTracerFromProvider(tp trace.TracerProvider, name string, debug bool) *Tracer {
	return &Tracer{
		tracer: tp.Tracer(name),
		debug:  debug,
	}
}

// SetDebug enables or disables debug mode.
func (t *Tracer) SetDebug(debug bool) {
	t.debug = debug
}

// Debug returns whether debug mode is enabled.
func (t *Tracer) Debug() bool {
	return t.debug
}

// StartSpan starts a new span with the given name.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// EndSpan records err (if any) and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Query Spans ---

// QuerySpanOptions describes a finished query.
type QuerySpanOptions struct {
	RequestID string
	Strategy  string
	Matches   int
	Fallback  string
	Query     string // Only included if debug=true
}

// StartQuerySpan starts the root span for one query.
func (t *Tracer) StartQuerySpan(ctx context.Context, requestID string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "router.respond", trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(attribute.String("router.request_id", requestID))
	return ctx, span
}

// EndQuerySpan annotates and ends a query span.
func (t *Tracer) EndQuerySpan(span trace.Span, opts QuerySpanOptions) {
	attrs := []attribute.KeyValue{
		attribute.String("router.strategy", opts.Strategy),
		attribute.Int("router.matches", opts.Matches),
	}
	if opts.Fallback != "" {
		attrs = append(attrs, attribute.String("router.fallback", opts.Fallback))
	}
	if t.debug && opts.Query != "" {
		attrs = append(attrs, attribute.String("router.query", truncate(opts.Query, 1000)))
	}
	span.SetAttributes(attrs...)
	EndSpan(span, nil)
}

// --- Lookup Spans ---

// LookupSpanOptions describes an external lookup.
type LookupSpanOptions struct {
	Kind      string
	FromCache bool
	Coalesced bool
	Text      string // Only included if debug=true
}

// StartLookupSpan starts a span for an external lookup.
func (t *Tracer) StartLookupSpan(ctx context.Context, kind string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "lookup."+kind, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String("lookup.kind", kind))
	return ctx, span
}

// EndLookupSpan ends a lookup span with attributes.
func (t *Tracer) EndLookupSpan(span trace.Span, opts LookupSpanOptions, err error) {
	span.SetAttributes(
		attribute.Bool("lookup.cache_hit", opts.FromCache),
		attribute.Bool("lookup.coalesced", opts.Coalesced),
	)
	if t.debug && opts.Text != "" {
		span.SetAttributes(attribute.String("lookup.text", truncate(opts.Text, 4000)))
	}
	EndSpan(span, err)
}

// --- Completion Spans ---

// CompletionSpanOptions describes one call to a generative-text service.
type CompletionSpanOptions struct {
	Provider  string
	Model     string
	Stop      string
	TokensIn  int
	TokensOut int
	Prompt    string // Only included if debug=true
	Text      string // Only included if debug=true
}

// StartCompletionSpan starts a client span for a provider call.
func (t *Tracer) StartCompletionSpan(ctx context.Context, provider string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, "llm.complete", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("llm.provider", provider))
	return ctx, span
}

// EndCompletionSpan annotates and ends a completion span.
func (t *Tracer) EndCompletionSpan(span trace.Span, opts CompletionSpanOptions, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("llm.model", opts.Model),
		attribute.Int("llm.tokens.input", opts.TokensIn),
		attribute.Int("llm.tokens.output", opts.TokensOut),
	}
	if opts.Stop != "" {
		attrs = append(attrs, attribute.String("llm.stop_reason", opts.Stop))
	}
	if t.debug {
		if opts.Prompt != "" {
			attrs = append(attrs, attribute.String("llm.prompt", truncate(opts.Prompt, 4000)))
		}
		if opts.Text != "" {
			attrs = append(attrs, attribute.String("llm.text", truncate(opts.Text, 4000)))
		}
	}
	span.SetAttributes(attrs...)
	EndSpan(span, err)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
