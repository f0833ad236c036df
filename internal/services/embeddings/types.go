// Package embeddings computes and stores vector embeddings for completed
// exchanges, off the response path.
package embeddings

import "context"

// Embedder is the external embedding provider.
type Embedder interface {
	// Embed returns the embedding vector for the text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexJob is a request to index both sides of one completed exchange.
type IndexJob struct {
	ConversationID string `json:"conversationId"`
	UserText       string `json:"userText"`
	AgentText      string `json:"agentText"`
}
