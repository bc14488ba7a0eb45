// Package llm adapts generative-text services to the router. A Provider
// sends one prompt and returns one completion; Generator layers profile
// selection and output checks on top for the lookup and compose stages.
package llm

import (
	"context"
	"sync"
	"time"

	"github.com/vinayprograms/toolrouter/errors"
)

// StopReason is why a service stopped producing text, normalized across
// providers.
type StopReason string

const (
	StopComplete StopReason = "complete" // Natural end of the answer
	StopLength   StopReason = "length"   // Output budget reached; text is truncated
	StopFiltered StopReason = "filtered" // Safety or content filter
	StopUnknown  StopReason = ""
)

// CompletionRequest is one prompt for a provider.
type CompletionRequest struct {
	System    string // Optional instructions sent separately from the prompt
	Prompt    string
	MaxTokens int // Zero uses the provider's configured budget
}

// Completion is a provider's answer.
type Completion struct {
	Text      string
	Stop      StopReason
	TokensIn  int
	TokensOut int
	Model     string
}

// Provider is a generative-text service.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// ProviderConfig holds configuration for NewProvider.
type ProviderConfig struct {
	Provider    string      `json:"provider"` // google, anthropic, openai, groq, mistral, xai, openrouter, ollama, lmstudio, openai-compat
	Model       string      `json:"model"`
	APIKey      string      `json:"api_key"`
	MaxTokens   int         `json:"max_tokens"`
	BaseURL     string      `json:"base_url"` // Custom endpoint for OpenAI-compatible servers
	RetryConfig RetryConfig `json:"retry"`
}

// RetryConfig holds retry settings for provider calls.
type RetryConfig struct {
	MaxRetries  int           `json:"max_retries"`  // Default 5
	MaxBackoff  time.Duration `json:"max_backoff"`  // Default 60s
	InitBackoff time.Duration `json:"init_backoff"` // Default 1s
}

// Validate reports the first missing setting.
func (c *ProviderConfig) Validate() error {
	if c.Provider == "" {
		return errors.InvalidConfig("provider is required")
	}
	return checkSettings(c.Provider, c.APIKey, c.Model, c.MaxTokens)
}

// checkSettings is shared by Validate and the provider constructors.
func checkSettings(provider, apiKey, model string, maxTokens int) error {
	opt := errors.WithProvider(provider)
	switch {
	case model == "":
		return errors.InvalidConfig("model is required", opt)
	case apiKey == "" && !isLocalProvider(provider):
		return errors.New(errors.ErrCodeUnauthorized, "api key is required", opt)
	case maxTokens <= 0:
		return errors.InvalidConfig("max_tokens is required", opt)
	}
	return nil
}

func isLocalProvider(name string) bool {
	switch name {
	case "ollama", "ollama-local", "lmstudio":
		return true
	}
	return false
}

// ProviderFactory resolves a profile name to a provider. The empty
// profile is the default provider.
type ProviderFactory interface {
	GetProvider(profile string) (Provider, error)
}

// SingleProviderFactory serves every profile with one provider.
type SingleProviderFactory struct {
	provider Provider
}

// NewSingleProviderFactory creates a factory that always returns p.
func NewSingleProviderFactory(p Provider) *SingleProviderFactory {
	return &SingleProviderFactory{provider: p}
}

// GetProvider returns the single provider regardless of profile.
func (f *SingleProviderFactory) GetProvider(profile string) (Provider, error) {
	return f.provider, nil
}

// MapProviderFactory selects providers by profile name, with a default
// for the empty profile.
type MapProviderFactory struct {
	Default  Provider
	Profiles map[string]Provider
}

// GetProvider returns the named provider, or the default for "".
func (f *MapProviderFactory) GetProvider(profile string) (Provider, error) {
	if profile == "" {
		if f.Default == nil {
			return nil, errors.InvalidConfig("no default provider configured")
		}
		return f.Default, nil
	}
	p, ok := f.Profiles[profile]
	if !ok {
		return nil, errors.InvalidConfig("unknown provider profile", errors.WithMetadata("profile", profile))
	}
	return p, nil
}

// --- Mock Provider for Testing ---

// MockProvider replays a canned completion. It is safe for concurrent use.
type MockProvider struct {
	mu          sync.Mutex
	text        string
	stop        StopReason
	tokensIn    int
	tokensOut   int
	lastRequest *CompletionRequest
	err         error
	callCount   int

	// CompleteFunc, when set, replaces the canned behavior.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// NewMockProvider creates a mock that completes with empty text.
func NewMockProvider() *MockProvider {
	return &MockProvider{stop: StopComplete}
}

// SetText sets the completion text.
func (p *MockProvider) SetText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
}

// SetStop sets the stop reason.
func (p *MockProvider) SetStop(stop StopReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stop = stop
}

// SetTokenCounts sets the token counts.
func (p *MockProvider) SetTokenCounts(in, out int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokensIn = in
	p.tokensOut = out
}

// SetError makes subsequent calls fail with err.
func (p *MockProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// LastRequest returns the most recent request, or nil.
func (p *MockProvider) LastRequest() *CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// CallCount returns the number of Complete calls.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callCount
}

// Complete implements Provider.
func (p *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	p.mu.Lock()
	p.callCount++
	p.lastRequest = &req
	fn, err := p.CompleteFunc, p.err
	out := &Completion{
		Text:      p.text,
		Stop:      p.stop,
		TokensIn:  p.tokensIn,
		TokensOut: p.tokensOut,
		Model:     "mock",
	}
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
