package providers

import (
	"context"
	"fmt"

	"github.com/havenmind/agent-service/internal/config"
	"github.com/havenmind/agent-service/internal/services/moderation"
	"github.com/havenmind/agent-service/internal/services/providers/openai"
)

// ModerationClassifier adapts the OpenAI moderations endpoint to the
// moderation.Classifier interface. Moderation always runs on OpenAI
// regardless of which completion provider is configured.
type ModerationClassifier struct {
	client *openai.Client
}

// NewModerationClassifier creates a moderation classifier.
func NewModerationClassifier(cfg config.ProviderConfig) (*ModerationClassifier, error) {
	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   "omni-moderation-latest",
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation classifier: %w", err)
	}
	return &ModerationClassifier{client: client}, nil
}

// Classify scores the text against the provider's harm categories.
func (c *ModerationClassifier) Classify(ctx context.Context, text string) (*moderation.Classification, error) {
	flagged, scores, err := c.client.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	return &moderation.Classification{Flagged: flagged, Scores: scores}, nil
}

// EmbeddingClient adapts the OpenAI embeddings endpoint to the
// embeddings.Embedder interface.
type EmbeddingClient struct {
	client *openai.Client
	model  string
}

// NewEmbeddingClient creates an embedding client.
func NewEmbeddingClient(cfg config.ProviderConfig) (*EmbeddingClient, error) {
	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.EmbeddingModel,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	return &EmbeddingClient{client: client, model: cfg.EmbeddingModel}, nil
}

// Embed returns the embedding vector for the text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.client.Embed(ctx, c.model, text)
}
