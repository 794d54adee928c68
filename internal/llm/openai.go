package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/mathrouter/mathrouter/internal/config"
)

// OpenAI talks to OpenAI and OpenAI-compatible endpoints such as Groq.
type OpenAI struct {
	client *openai.Client
	cfg    config.LLMConfig
}

func NewOpenAI(cfg config.LLMConfig) (*OpenAI, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	var client *openai.Client
	switch cfg.Provider {
	case config.LLMProviderAzure:
		client = openai.NewClient(
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
			option.WithMaxRetries(cfg.MaxRetries),
		)
	default: // "openai", "groq"
		client = openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(withTrailingSlash(cfg.Endpoint)),
			option.WithMaxRetries(cfg.MaxRetries),
		)
	}

	return &OpenAI{
		client: client,
		cfg:    cfg,
	}, nil
}

func (o *OpenAI) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (*Response, error) {
	options := &Options{
		Model:       o.cfg.Model,
		Temperature: o.cfg.Temperature,
		MaxTokens:   o.cfg.MaxTokens,
	}
	for _, opt := range opts {
		opt(options)
	}

	resp, err := o.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(options.Model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(userPrompt),
			}),
			Temperature: openai.F(options.Temperature),
			MaxTokens:   openai.F(options.MaxTokens),
		},
	)
	if err != nil {
		return nil, classify("chat completion", err)
	}

	response := &Response{
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		response.Content = resp.Choices[0].Message.Content
	}
	if strings.TrimSpace(response.Content) == "" {
		return nil, &ProviderError{Code: CodeEmpty, Message: "model returned no content"}
	}

	return response, nil
}

// WithTrailingSlash keeps relative paths like "chat/completions" under the base path.
func withTrailingSlash(endpoint string) string {
	if endpoint == "" || strings.HasSuffix(endpoint, "/") {
		return endpoint
	}
	return endpoint + "/"
}
