package llm

import (
	"strings"

	"github.com/vinayprograms/toolrouter/errors"
)

// Default endpoints for OpenAI-compatible providers.
var compatBaseURLs = map[string]string{
	"groq":       "https://api.groq.com/openai/v1",
	"mistral":    "https://api.mistral.ai/v1",
	"xai":        "https://api.x.ai/v1",
	"openrouter": "https://openrouter.ai/api/v1",
	"ollama":     "http://localhost:11434/v1",
	"lmstudio":   "http://localhost:1234/v1",
}

// NewProvider builds the provider cfg names. An empty Provider is
// inferred from the model name. Providers holding a client connection
// implement io.Closer.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	if cfg.Provider == "" && cfg.Model != "" {
		cfg.Provider = InferProviderFromModel(cfg.Model)
		if cfg.Provider == "" {
			return nil, errors.InvalidConfig("cannot determine provider from model; set provider explicitly",
				errors.WithMetadata("model", cfg.Model))
		}
	}
	if cfg.Provider == "ollama-local" {
		cfg.Provider = "ollama"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "google":
		return NewGoogleProvider(GoogleConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Retry:     cfg.RetryConfig,
		})

	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Retry:     cfg.RetryConfig,
		})

	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Retry:     cfg.RetryConfig,
		})

	case "groq", "mistral", "xai", "openrouter", "ollama", "lmstudio":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = compatBaseURLs[cfg.Provider]
		}
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      baseURL,
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			ProviderName: cfg.Provider,
			Retry:        cfg.RetryConfig,
		})

	case "openai-compat", "litellm":
		if cfg.BaseURL == "" {
			return nil, errors.InvalidConfig("base_url is required", errors.WithProvider(cfg.Provider))
		}
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			MaxTokens:    cfg.MaxTokens,
			ProviderName: cfg.Provider,
			Retry:        cfg.RetryConfig,
		})

	default:
		return nil, errors.Unsupported("unsupported provider", errors.WithProvider(cfg.Provider))
	}
}

// InferProviderFromModel returns the provider name based on model name patterns.
func InferProviderFromModel(model string) string {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gpt-"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "chatgpt"):
		return "openai"
	case strings.HasPrefix(model, "gemini"),
		strings.HasPrefix(model, "gemma"):
		return "google"
	case strings.HasPrefix(model, "llama"):
		return "groq"
	case strings.HasPrefix(model, "mistral"),
		strings.HasPrefix(model, "mixtral"),
		strings.HasPrefix(model, "codestral"):
		return "mistral"
	case strings.HasPrefix(model, "grok"):
		return "xai"
	}
	return ""
}
