// Package vectorstore defines the vector store client interface.
package vectorstore

import (
	"context"

	"github.com/havenmind/agent-service/internal/domain/models"
)

// QueryFilter narrows a similarity query.
type QueryFilter struct {
	// ConversationID restricts matches to one conversation when set.
	ConversationID string
}

// Match is one similarity query result. Distance follows the cosine
// distance convention; similarity = 1 - distance/2.
type Match struct {
	Record   models.EmbeddingRecord
	Distance float64
}

// Similarity converts the match distance to a similarity in [0,1].
func (m Match) Similarity() float64 {
	return 1 - m.Distance/2
}

// Client defines the interface for vector store operations.
type Client interface {
	// Upsert stores an embedding record under the given id.
	Upsert(ctx context.Context, id string, record *models.EmbeddingRecord) error

	// QueryNear returns up to limit records nearest to the vector,
	// optionally filtered.
	QueryNear(ctx context.Context, vector []float32, limit int, filter *QueryFilter) ([]Match, error)

	// Ping checks if the vector store is reachable.
	Ping(ctx context.Context) error

	// Close releases client resources.
	Close() error
}
