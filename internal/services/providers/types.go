// Package providers provides the language-model client interfaces and factory.
package providers

import "context"

// Type represents a language-model provider backend.
type Type string

const (
	// TypeOpenAI represents the OpenAI chat completions backend.
	TypeOpenAI Type = "openai"
	// TypeAnthropic represents the Anthropic messages backend.
	TypeAnthropic Type = "anthropic"
)

// ChatMessage is one turn handed to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-agnostic completion call.
type CompletionRequest struct {
	// SystemPrompt sets the model's instructions.
	SystemPrompt string

	// History contains prior turns, oldest first. Optional.
	History []ChatMessage

	// UserMessage is the current user turn.
	UserMessage string
}

// CompletionClient is the single interface all providers implement.
// The provider is selected once per deployment from configuration.
type CompletionClient interface {
	// Complete invokes the model and returns the generated text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// Close releases any resources held by the client.
	Close() error
}
