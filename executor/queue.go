package executor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// requestQueue buffers requests for background execution. A single
// worker goroutine drains it in FIFO order at the batch throttle rate.
// Shutdown is signaled through the closing flag rather than by watching
// another goroutine's liveness; close drains whatever is still pending.
type requestQueue struct {
	exec *Executor

	mu      sync.Mutex
	cond    *sync.Cond
	pending []queuedRequest
	closing bool

	done chan struct{}
}

type queuedRequest struct {
	id  string
	op  string
	req Request
}

func newRequestQueue(exec *Executor) *requestQueue {
	q := &requestQueue{
		exec: exec,
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.worker()

	return q
}

// enqueue appends req without blocking the caller.
func (q *requestQueue) enqueue(op string, req Request) {
	item := queuedRequest{id: uuid.NewString(), op: op, req: req}

	q.mu.Lock()
	if q.closing {
		q.mu.Unlock()
		log.Warn().
			Str("request_id", item.id).
			Str("operation", op).
			Msg("Queue closed, dropping request")
		return
	}
	q.pending = append(q.pending, item)
	q.mu.Unlock()

	q.cond.Signal()

	log.Debug().
		Str("request_id", item.id).
		Str("operation", op).
		Msg("Request enqueued")
}

// close stops intake and waits for the worker to finish the remaining
// queue.
func (q *requestQueue) close() {
	q.mu.Lock()
	if q.closing {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closing = true
	q.mu.Unlock()

	q.cond.Broadcast()
	<-q.done
}

func (q *requestQueue) worker() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closing {
			q.cond.Wait()
		}
		if len(q.pending) == 0 {
			q.mu.Unlock()
			log.Debug().Msg("Queue worker stopped")
			return
		}
		item := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.process(item)
	}
}

func (q *requestQueue) process(item queuedRequest) {
	// Background context: queued work submitted before close is always
	// attempted, including during the shutdown drain.
	ctx := context.Background()

	log.Debug().
		Str("request_id", item.id).
		Str("operation", item.op).
		Msg("Executing queued request")

	if _, err := q.exec.run(ctx, item.op, item.req, q.exec.batch, true); err != nil {
		q.exec.onQueueError(item.id, err)
	}
}
