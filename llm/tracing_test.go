package llm

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vinayprograms/toolrouter/errors"
	"github.com/vinayprograms/toolrouter/telemetry"
)

func TestWithTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	telemetry.SetGlobalTracer(telemetry.NewTracerFromProvider(tp, "llm-test", true))
	t.Cleanup(func() { telemetry.SetGlobalTracer(nil) })

	mock := NewMockProvider()
	mock.SetText("Image Resizer")
	mock.SetStop(StopLength)
	p := WithTracing(mock, "mock")

	out, err := p.Complete(context.Background(), CompletionRequest{Prompt: "shrink a photo"})
	if err != nil || out.Text != "Image Resizer" {
		t.Fatalf("Complete = %v, %v", out, err)
	}

	mock.SetError(errors.New(errors.ErrCodeUnavailable, "down"))
	if _, err := p.Complete(context.Background(), CompletionRequest{Prompt: "again"}); err == nil {
		t.Fatal("expected error to pass through")
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	want := map[string]string{
		"llm.provider":    "mock",
		"llm.model":       "mock",
		"llm.stop_reason": "length",
		"llm.prompt":      "shrink a photo",
		"llm.text":        "Image Resizer",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("%s = %q, want %q", k, attrs[k], v)
		}
	}
	if spans[1].Status.Description == "" {
		t.Error("failed call should mark the span as an error")
	}
}
