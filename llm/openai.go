package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider completes prompts with the OpenAI chat completions API.
// With a BaseURL it also serves any OpenAI-compatible endpoint (Groq,
// Mistral, OpenRouter, Ollama, LM Studio, LiteLLM).
type OpenAIProvider struct {
	client    *openai.Client
	name      string
	model     string
	maxTokens int
	retry     RetryConfig
}

// OpenAIConfig configures OpenAIProvider.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	ProviderName string // Used in errors; defaults to "openai"
	Retry        RetryConfig
}

// NewOpenAIProvider creates an OpenAI or OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	name := cfg.ProviderName
	if name == "" {
		name = "openai"
	}
	if err := checkSettings(name, cfg.APIKey, cfg.Model, cfg.MaxTokens); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = name // local servers ignore the key but the SDK sends one
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client:    &client,
		name:      name,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		retry:     cfg.Retry,
	}, nil
}

// Complete implements Provider.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(p.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(budget(req.MaxTokens, p.maxTokens))),
	}

	var resp *openai.ChatCompletion
	err := withRetry(ctx, p.retry, p.name, func() error {
		var err error
		resp, err = p.client.Chat.Completions.New(ctx, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Completion{
		Model:     resp.Model,
		TokensIn:  int(resp.Usage.PromptTokens),
		TokensOut: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		out.Text = choice.Message.Content
		out.Stop = openAIStop(string(choice.FinishReason))
	}
	return out, nil
}

func openAIStop(reason string) StopReason {
	switch reason {
	case "stop":
		return StopComplete
	case "length":
		return StopLength
	case "content_filter":
		return StopFiltered
	}
	return StopUnknown
}
