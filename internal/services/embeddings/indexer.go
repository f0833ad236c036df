package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/havenmind/agent-service/internal/core/store"
	"github.com/havenmind/agent-service/internal/core/vectorstore"
	"github.com/havenmind/agent-service/internal/domain/models"
)

// Indexer embeds both sides of completed exchanges and stores them in
// the vector store for later semantic retrieval. Writes are best-effort:
// a failure never invalidates the message write that already succeeded.
type Indexer struct {
	embedder Embedder
	vectors  vectorstore.Client
	messages store.MessagesCollection
	queue    *JobQueue
}

// NewIndexer creates a new Indexer with a background queue of the given size.
func NewIndexer(embedder Embedder, vectors vectorstore.Client, messages store.MessagesCollection, queueSize int) *Indexer {
	indexer := &Indexer{
		embedder: embedder,
		vectors:  vectors,
		messages: messages,
	}
	indexer.queue = NewJobQueue(queueSize, indexer.processJob)
	return indexer
}

// Start starts the background workers.
func (i *Indexer) Start(workerCount int) {
	i.queue.Start(workerCount)
}

// Stop drains and stops the background workers.
func (i *Indexer) Stop() {
	i.queue.Stop()
}

// EnqueueTurn schedules indexing of one completed exchange. Returns
// immediately; the caller's response is never delayed by indexing.
func (i *Indexer) EnqueueTurn(conversationID, userText, agentText string) {
	i.queue.Enqueue(&IndexJob{
		ConversationID: conversationID,
		UserText:       userText,
		AgentText:      agentText,
	})
}

// processJob embeds and stores every chunk of both sides of the exchange.
func (i *Indexer) processJob(ctx context.Context, job *IndexJob) error {
	// Turn index from message count at storage time; both messages of
	// the exchange were already persisted, so the index is monotonically
	// non-decreasing per conversation.
	count, err := i.messages.CountByConversation(ctx, job.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to derive turn index: %w", err)
	}
	turnIndex := int(count)

	sides := []struct {
		speaker string
		text    string
	}{
		{string(models.SenderUser), job.UserText},
		{string(models.SenderAgent), job.AgentText},
	}

	for _, side := range sides {
		cleaned := scrub(side.text)
		if cleaned == "" {
			continue
		}
		for _, textChunk := range chunk(cleaned) {
			vector, err := i.embedder.Embed(ctx, textChunk)
			if err != nil {
				return fmt.Errorf("failed to embed %s chunk: %w", side.speaker, err)
			}

			record := &models.EmbeddingRecord{
				ConversationID: job.ConversationID,
				TurnIndex:      turnIndex,
				Speaker:        side.speaker,
				TextChunk:      textChunk,
				Vector:         vector,
				Timestamp:      time.Now().UTC(),
			}
			if err := i.vectors.Upsert(ctx, uuid.NewString(), record); err != nil {
				return fmt.Errorf("failed to store %s embedding: %w", side.speaker, err)
			}
		}
	}

	return nil
}
