package llm

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/vinayprograms/toolrouter/errors"
)

func TestMockProvider_Complete(t *testing.T) {
	provider := NewMockProvider()
	provider.SetText("Hello from the service")
	provider.SetTokenCounts(3, 4)

	out, err := provider.Complete(context.Background(), CompletionRequest{Prompt: "Hello"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "Hello from the service" || out.Stop != StopComplete {
		t.Errorf("out = %+v", out)
	}
	if out.TokensIn != 3 || out.TokensOut != 4 {
		t.Errorf("tokens = %d/%d", out.TokensIn, out.TokensOut)
	}
	if provider.CallCount() != 1 {
		t.Errorf("CallCount() = %d", provider.CallCount())
	}
	if provider.LastRequest().Prompt != "Hello" {
		t.Error("LastRequest() not recorded")
	}
}

func TestMockProvider_Error(t *testing.T) {
	provider := NewMockProvider()
	provider.SetError(stderrors.New("boom"))
	if _, err := provider.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Error("expected error")
	}
}

func TestMockProvider_CompleteFunc(t *testing.T) {
	provider := NewMockProvider()
	provider.CompleteFunc = func(ctx context.Context, req CompletionRequest) (*Completion, error) {
		return &Completion{Text: req.Prompt + "!"}, nil
	}
	out, _ := provider.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if out.Text != "hi!" {
		t.Errorf("Text = %q", out.Text)
	}
}

func TestStopReasonMapping(t *testing.T) {
	tests := []struct {
		name string
		got  StopReason
		want StopReason
	}{
		{"anthropic end_turn", anthropicStop("end_turn"), StopComplete},
		{"anthropic max_tokens", anthropicStop("max_tokens"), StopLength},
		{"anthropic refusal", anthropicStop("refusal"), StopFiltered},
		{"anthropic tool_use", anthropicStop("tool_use"), StopUnknown},
		{"openai stop", openAIStop("stop"), StopComplete},
		{"openai length", openAIStop("length"), StopLength},
		{"openai content_filter", openAIStop("content_filter"), StopFiltered},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestBudget(t *testing.T) {
	if budget(0, 600) != 600 || budget(800, 600) != 800 {
		t.Error("budget should prefer the requested value")
	}
}

func TestProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		want errors.ErrorCode // Empty when valid
	}{
		{"valid", ProviderConfig{Provider: "google", Model: "gemini-1.5-flash", APIKey: "k", MaxTokens: 1000}, ""},
		{"missing provider", ProviderConfig{Model: "m", APIKey: "k", MaxTokens: 1}, errors.ErrCodeInvalidConfig},
		{"missing model", ProviderConfig{Provider: "google", APIKey: "k", MaxTokens: 1}, errors.ErrCodeInvalidConfig},
		{"missing key", ProviderConfig{Provider: "openai", Model: "gpt-4o", MaxTokens: 1}, errors.ErrCodeUnauthorized},
		{"local needs no key", ProviderConfig{Provider: "ollama", Model: "llama3", MaxTokens: 1}, ""},
		{"missing max tokens", ProviderConfig{Provider: "google", Model: "m", APIKey: "k"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestSingleProviderFactory(t *testing.T) {
	p := NewMockProvider()
	f := NewSingleProviderFactory(p)
	for _, profile := range []string{"", "fast", "anything"} {
		got, err := f.GetProvider(profile)
		if err != nil || got != p {
			t.Errorf("GetProvider(%q) = %v, %v", profile, got, err)
		}
	}
}

func TestMapProviderFactory(t *testing.T) {
	def, fast := NewMockProvider(), NewMockProvider()
	f := &MapProviderFactory{Default: def, Profiles: map[string]Provider{"fast": fast}}

	if got, _ := f.GetProvider(""); got != def {
		t.Error("empty profile should return default")
	}
	if got, _ := f.GetProvider("fast"); got != fast {
		t.Error("named profile not resolved")
	}
	if _, err := f.GetProvider("slow"); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("unknown profile: %v", err)
	}
	if _, err := (&MapProviderFactory{}).GetProvider(""); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("missing default: %v", err)
	}
}

func TestInferProviderFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"claude-3-5-sonnet-20241022", "anthropic"},
		{"gpt-4o", "openai"},
		{"o3-mini", "openai"},
		{"gemini-1.5-flash", "google"},
		{"Gemma-2", "google"},
		{"llama-3.1-70b", "groq"},
		{"mistral-large", "mistral"},
		{"grok-2", "xai"},
		{"unknown-model", ""},
	}
	for _, tt := range tests {
		if got := InferProviderFromModel(tt.model); got != tt.want {
			t.Errorf("InferProviderFromModel(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      ProviderConfig
		wantType string
		wantErr  bool
	}{
		{"google", ProviderConfig{Provider: "google", Model: "gemini-1.5-flash", APIKey: "k", MaxTokens: 100}, "google", false},
		{"anthropic inferred", ProviderConfig{Model: "claude-3-haiku", APIKey: "k", MaxTokens: 100}, "anthropic", false},
		{"openai", ProviderConfig{Provider: "openai", Model: "gpt-4o", APIKey: "k", MaxTokens: 100}, "openai", false},
		{"groq via openai sdk", ProviderConfig{Provider: "groq", Model: "llama3", APIKey: "k", MaxTokens: 100}, "openai", false},
		{"ollama local alias", ProviderConfig{Provider: "ollama-local", Model: "llama3", MaxTokens: 100}, "openai", false},
		{"compat needs base url", ProviderConfig{Provider: "openai-compat", Model: "m", APIKey: "k", MaxTokens: 100}, "", true},
		{"compat with base url", ProviderConfig{Provider: "litellm", Model: "m", APIKey: "k", MaxTokens: 100, BaseURL: "http://localhost:4000"}, "openai", false},
		{"unknown model", ProviderConfig{Model: "mystery", APIKey: "k", MaxTokens: 100}, "", true},
		{"unsupported", ProviderConfig{Provider: "acme", Model: "m", APIKey: "k", MaxTokens: 100}, "", true},
		{"missing key", ProviderConfig{Provider: "anthropic", Model: "claude-3-haiku", MaxTokens: 100}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewProvider() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var got string
			switch p.(type) {
			case *GoogleProvider:
				got = "google"
				p.(*GoogleProvider).Close()
			case *AnthropicProvider:
				got = "anthropic"
			case *OpenAIProvider:
				got = "openai"
			}
			if got != tt.wantType {
				t.Errorf("provider type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestProviderCreation_RequiredFields(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{Model: "claude", MaxTokens: 1}); !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("anthropic without key: %v", err)
	}
	if _, err := NewGoogleProvider(GoogleConfig{APIKey: "k", MaxTokens: 1}); err == nil {
		t.Error("google: expected error without model")
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o"}); err == nil {
		t.Error("openai: expected error without max tokens")
	}
}
