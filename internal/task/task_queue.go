package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// TaskQueue is a fixed-capacity Source. A batch sizes it to the number of
// names it resolves, so Enqueue never blocks.
type TaskQueue struct {
	mu     sync.Mutex
	ch     chan Task
	closed bool
	logger *slog.Logger
}

var _ Source = (*TaskQueue)(nil)

func NewTaskQueue(capacity int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		ch:     make(chan Task, capacity),
		logger: logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue adds t without blocking. It fails with ErrQueueFull once capacity
// is reached and with ErrQueueClosed after Close.
func (q *TaskQueue) Enqueue(t Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- t:
		q.logger.Debug("task enqueued",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.Int("pending", len(q.ch)))
		return nil
	default:
		return fmt.Errorf("%w: capacity %d", ErrQueueFull, cap(q.ch))
	}
}

// Close stops intake. Queued tasks can still be drained. Safe to call twice.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

func (q *TaskQueue) Tasks() <-chan Task { return q.ch }

// Pending reports how many tasks are waiting for a worker.
func (q *TaskQueue) Pending() int { return len(q.ch) }
