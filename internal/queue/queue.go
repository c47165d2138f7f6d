package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mariusnicorescu85/uk-property-investment/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler consumes one batch of refresh records.
type Handler func([]*models.RefreshRecord) error

// RefreshQueue buffers refresh-record batches between the request path and
// the database writers. Pushes never block: a full buffer rejects the batch
// instead of stalling a request.
type RefreshQueue struct {
	logger   *logrus.Logger
	items    chan []*models.RefreshRecord
	mu       sync.RWMutex
	closed   bool
	handlers []Handler
	workers  sync.WaitGroup
}

// NewRefreshQueue creates a queue buffering up to bufferSize batches.
func NewRefreshQueue(bufferSize int, logger *logrus.Logger) *RefreshQueue {
	return &RefreshQueue{
		logger: logger,
		items:  make(chan []*models.RefreshRecord, bufferSize),
	}
}

// Push enqueues one batch. The read lock spans the send so a concurrent
// Close cannot close the channel mid-push.
func (q *RefreshQueue) Push(records []*models.RefreshRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- records:
		q.logger.WithField("batch_size", len(records)).Debug("Queued refresh batch")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe registers a handler for every queued batch. Handlers added after
// Start apply from the next batch onward.
func (q *RefreshQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start launches one consumer goroutine. Call it once per desired worker.
// Each consumer takes whole batches off the buffer, so the records of one
// refresh are never split across workers.
func (q *RefreshQueue) Start() {
	q.workers.Add(1)
	go func() {
		defer q.workers.Done()
		for batch := range q.items {
			q.deliver(batch)
		}
	}()
}

func (q *RefreshQueue) deliver(batch []*models.RefreshRecord) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Refresh batch handler failed")
		}
	}
}

// Close rejects further pushes, lets the consumers drain what is already
// buffered, and returns once they are done. Batches still buffered when no
// consumer was ever started are dropped.
func (q *RefreshQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	q.workers.Wait()
	return nil
}

// Len reports the number of buffered batches.
func (q *RefreshQueue) Len() int {
	return len(q.items)
}

// IsClosed reports whether the queue has stopped accepting batches.
func (q *RefreshQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
