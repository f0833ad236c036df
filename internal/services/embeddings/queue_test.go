package embeddings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobQueue_ProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	var processed []string

	queue := NewJobQueue(10, func(ctx context.Context, job *IndexJob) error {
		mu.Lock()
		defer mu.Unlock()
		processed = append(processed, job.ConversationID)
		return nil
	})
	queue.Start(2)

	queue.Enqueue(&IndexJob{ConversationID: "conv-1"})
	queue.Enqueue(&IndexJob{ConversationID: "conv-2"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 2
	}, time.Second, 10*time.Millisecond)

	queue.Stop()
}

func TestJobQueue_SwallowsWorkerErrors(t *testing.T) {
	var mu sync.Mutex
	count := 0

	queue := NewJobQueue(10, func(ctx context.Context, job *IndexJob) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return errors.New("embedding backend down")
	})
	queue.Start(1)

	queue.Enqueue(&IndexJob{ConversationID: "conv-1"})
	queue.Enqueue(&IndexJob{ConversationID: "conv-2"})

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, time.Second, 10*time.Millisecond)

	queue.Stop()
}

func TestJobQueue_DropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	queue := NewJobQueue(1, func(ctx context.Context, job *IndexJob) error {
		<-block
		return nil
	})
	queue.Start(1)

	// One in flight, one buffered, the rest are dropped without blocking.
	for i := 0; i < 10; i++ {
		queue.Enqueue(&IndexJob{ConversationID: "conv"})
	}
	assert.LessOrEqual(t, queue.QueueSize(), 1)

	close(block)
	queue.Stop()
}

func TestJobQueue_StartIsIdempotent(t *testing.T) {
	queue := NewJobQueue(1, func(ctx context.Context, job *IndexJob) error {
		return nil
	})
	queue.Start(1)
	queue.Start(1)
	queue.Stop()
}
