package llm

import (
	"context"

	"github.com/vinayprograms/toolrouter/telemetry"
)

type tracedProvider struct {
	next Provider
	name string
}

// WithTracing records an llm.complete span around every call to p. The
// global tracer is looked up per call so tracing can be enabled after
// providers are built.
func WithTracing(p Provider, name string) Provider {
	return &tracedProvider{next: p, name: name}
}

func (tp *tracedProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartCompletionSpan(ctx, tp.name)

	out, err := tp.next.Complete(ctx, req)

	opts := telemetry.CompletionSpanOptions{Provider: tp.name, Prompt: req.Prompt}
	if out != nil {
		opts.Model = out.Model
		opts.Stop = string(out.Stop)
		opts.TokensIn = out.TokensIn
		opts.TokensOut = out.TokensOut
		opts.Text = out.Text
	}
	tracer.EndCompletionSpan(span, opts, err)
	return out, err
}
