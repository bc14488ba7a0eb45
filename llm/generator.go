package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/vinayprograms/toolrouter/errors"
)

// GenerateRequest is a single prompt sent to the generative service.
type GenerateRequest struct {
	Prompt    string
	Model     string // Provider profile; empty selects the default
	MaxTokens int
}

// Generator is the prompt-in, text-out contract used by lookups and
// response composition. Implementations return an error for timeouts,
// transport failures and empty output.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req GenerateRequest) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	return f(ctx, req)
}

// ProviderGenerator adapts a ProviderFactory to Generator.
type ProviderGenerator struct {
	factory ProviderFactory
}

// NewGenerator returns a Generator that resolves GenerateRequest.Model
// through factory.
func NewGenerator(factory ProviderFactory) *ProviderGenerator {
	return &ProviderGenerator{factory: factory}
}

// Generate implements Generator.
func (g *ProviderGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	provider, err := g.factory.GetProvider(req.Model)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrCodeInvalidConfig, "resolving provider")
	}

	out, err := provider.Complete(ctx, CompletionRequest{
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		// Context errors surface as TIMEOUT/CANCELED; provider errors keep their code.
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "generate")
		}
		return "", errors.Wrap(err, "generate")
	}

	// Text cut off by the output budget is still a usable answer.
	text := strings.TrimSpace(out.Text)
	if text == "" {
		msg := "generator returned no text"
		if out.Stop == StopFiltered {
			msg = "generator output was filtered"
		}
		return "", errors.EmptyOutput(msg, errors.WithMetadata("stop_reason", string(out.Stop)))
	}
	return text, nil
}

// --- Mock Generator for Testing ---

// MockGenerator records requests and replays a canned answer or error.
// It is safe for concurrent use.
type MockGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []GenerateRequest

	// GenerateFunc, when set, replaces the canned behavior.
	GenerateFunc func(ctx context.Context, req GenerateRequest) (string, error)
}

// NewMockGenerator returns a generator that answers with text.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{text: text}
}

// SetText changes the canned answer.
func (m *MockGenerator) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// SetError makes subsequent calls fail with err.
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every request seen so far.
func (m *MockGenerator) Requests() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn, text, err := m.GenerateFunc, m.text, m.err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.EmptyOutput("generator returned no text")
	}
	return text, nil
}
