package providers

import (
	"context"
	"fmt"

	"github.com/havenmind/agent-service/internal/config"
	"github.com/havenmind/agent-service/internal/services/providers/anthropic"
	"github.com/havenmind/agent-service/internal/services/providers/openai"
)

// Factory creates provider clients based on configuration.
type Factory struct{}

// NewFactory creates a new provider factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateCompletionClient creates the completion client for the configured
// provider type.
func (f *Factory) CreateCompletionClient(cfg config.ProviderConfig) (CompletionClient, error) {
	switch Type(cfg.Type) {
	case TypeOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIKey,
			Model:       cfg.OpenAIModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return &openAIAdapter{client}, nil
	case TypeAnthropic:
		client, err := anthropic.NewClient(anthropic.Config{
			APIKey:      cfg.AnthropicKey,
			Model:       cfg.AnthropicModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create anthropic client: %w", err)
		}
		return &anthropicAdapter{client}, nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}

// openAIAdapter adapts openai.Client to the CompletionClient interface.
type openAIAdapter struct {
	client *openai.Client
}

func (a *openAIAdapter) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	messages := make([]openai.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, openai.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.Message{Role: "user", Content: req.UserMessage})
	return a.client.Complete(ctx, req.SystemPrompt, messages)
}

func (a *openAIAdapter) Close() error {
	return a.client.Close()
}

// anthropicAdapter adapts anthropic.Client to the CompletionClient interface.
type anthropicAdapter struct {
	client *anthropic.Client
}

func (a *anthropicAdapter) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	messages := make([]anthropic.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, anthropic.Message{Role: "user", Content: req.UserMessage})
	return a.client.Complete(ctx, req.SystemPrompt, messages)
}

func (a *anthropicAdapter) Close() error {
	return a.client.Close()
}
