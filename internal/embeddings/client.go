package embeddings

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"todoscan/internal/config"
)

// Client embeds text with an OpenAI-compatible embeddings endpoint.
type Client struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewClient(cfg config.OpenAI, logger *log.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set")
	}

	ocfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		ocfg.BaseURL = cfg.BaseURL
		logger.Debug("Using custom API endpoint", "base_url", cfg.BaseURL)
	}

	model := openai.SmallEmbedding3
	if cfg.EmbeddingModel != "" {
		model = openai.EmbeddingModel(cfg.EmbeddingModel)
		logger.Debug("Using embedding model", "model", cfg.EmbeddingModel)
	}

	return &Client{
		client: openai.NewClientWithConfig(ocfg),
		model:  model,
	}
}

// Model returns the embedding model in use.
func (c *Client) Model() string {
	return string(c.model)
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch returns one vector per text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}
	results := make([][]float32, len(resp.Data))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(results) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		results[data.Index] = data.Embedding
	}
	return results, nil
}
