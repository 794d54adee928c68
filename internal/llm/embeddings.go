package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mathrouter/mathrouter/internal/config"
)

// Embedder produces vectors through the OpenAI embeddings API.
type Embedder struct {
	client *openai.Client
	cfg    config.EmbeddingConfig
}

func NewEmbedder(cfg config.EmbeddingConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(withTrailingSlash(cfg.Endpoint)),
		option.WithMaxRetries(1),
	)
	return &Embedder{client: client, cfg: cfg}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	params := openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings(texts)),
		Model: openai.F(openai.EmbeddingModel(e.cfg.Model)),
	}
	if e.cfg.Dimensions > 0 {
		params.Dimensions = openai.F(int64(e.cfg.Dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, classify("embedding", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, &ProviderError{
			Code:    CodeEmpty,
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, &ProviderError{Code: CodeFailed, Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}
