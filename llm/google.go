package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vinayprograms/toolrouter/errors"
)

// GoogleProvider completes prompts with the Gemini API.
type GoogleProvider struct {
	client    *genai.Client
	modelName string
	maxTokens int
	retry     RetryConfig
}

// GoogleConfig configures GoogleProvider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Retry     RetryConfig
}

// NewGoogleProvider creates a Gemini provider. Call Close when done.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if err := checkSettings("google", cfg.APIKey, cfg.Model, cfg.MaxTokens); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInvalidConfig, "creating gemini client",
			errors.WithProvider("google"))
	}

	return &GoogleProvider{
		client:    client,
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
		retry:     cfg.Retry,
	}, nil
}

// Close closes the underlying client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

// Complete implements Provider. Each call configures its own
// GenerativeModel so concurrent requests never share settings.
func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	model := p.client.GenerativeModel(p.modelName)
	maxTokens := int32(budget(req.MaxTokens, p.maxTokens))
	model.MaxOutputTokens = &maxTokens
	if req.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, p.retry, "google", func() error {
		var err error
		resp, err = model.GenerateContent(ctx, genai.Text(req.Prompt))
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Completion{Model: p.modelName}
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		out.Stop = googleStop(candidate.FinishReason)
		if candidate.Content != nil {
			var text strings.Builder
			for _, part := range candidate.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
			out.Text = text.String()
		}
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

func googleStop(reason genai.FinishReason) StopReason {
	switch reason {
	case genai.FinishReasonStop:
		return StopComplete
	case genai.FinishReasonMaxTokens:
		return StopLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return StopFiltered
	}
	return StopUnknown
}
