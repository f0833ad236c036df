package embeddings

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// JobQueue manages a queue of index jobs processed by background workers.
// Job failures are logged and swallowed: indexing is best-effort and must
// never affect the request that enqueued it.
type JobQueue struct {
	jobs       chan *IndexJob
	workerFunc func(ctx context.Context, job *IndexJob) error
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	mu         sync.Mutex
}

// NewJobQueue creates a new job queue with the specified buffer size and
// worker function.
func NewJobQueue(bufferSize int, workerFunc func(ctx context.Context, job *IndexJob) error) *JobQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		jobs:       make(chan *IndexJob, bufferSize),
		workerFunc: workerFunc,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start starts the job queue workers.
func (q *JobQueue) Start(workerCount int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return
	}
	q.started = true

	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// worker processes jobs from the queue.
func (q *JobQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			if err := q.workerFunc(q.ctx, job); err != nil {
				log.Warn().
					Err(err).
					Str("conversation_id", job.ConversationID).
					Msg("index job failed")
			}
		}
	}
}

// Enqueue adds a job to the queue without blocking. A full queue drops
// the job: indexing is best-effort.
func (q *JobQueue) Enqueue(job *IndexJob) {
	select {
	case q.jobs <- job:
	default:
		log.Warn().
			Str("conversation_id", job.ConversationID).
			Msg("index queue full, dropping job")
	}
}

// Stop stops the job queue gracefully.
func (q *JobQueue) Stop() {
	q.cancel()
	close(q.jobs)
	q.wg.Wait()
}

// QueueSize returns the current number of jobs in the queue.
func (q *JobQueue) QueueSize() int {
	return len(q.jobs)
}
