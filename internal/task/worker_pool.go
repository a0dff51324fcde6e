package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool runs tasks from a Source on a fixed number of goroutines.
type WorkerPool struct {
	source      Source
	workerCount int
	wg          sync.WaitGroup

	// ctx is cancelled by Stop to end the workers early.
	ctx    context.Context
	cancel context.CancelFunc

	logger       *slog.Logger
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig sizes a WorkerPool. A WorkerCount below one means one.
type WorkerPoolConfig struct {
	WorkerCount int
}

func NewWorkerPool(source Source, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "worker_pool"))

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		logger.Warn("invalid worker count, using one worker", slog.Int("requested", config.WorkerCount))
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		source:      source,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler replaces the default of logging failed tasks.
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. Tasks execute with taskCtx; cancelling it does
// not stop the workers, which keep draining the queue until it is closed or
// Stop is called.
func (p *WorkerPool) Start(taskCtx context.Context) {
	p.logger.Debug("starting workers", slog.Int("workers", p.workerCount))
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(taskCtx, i)
	}
}

// Wait blocks until every worker has exited, which happens once the queue
// is closed and drained.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
	p.cancel()
}

// Stop signals the workers to exit after their current task and waits for them.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Debug("worker pool stopped")
}

func (p *WorkerPool) worker(taskCtx context.Context, id int) {
	defer p.wg.Done()

	tasks := p.source.Tasks()
	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-tasks:
			if !ok {
				return
			}
			p.execute(taskCtx, id, t)
		}
	}
}

func (p *WorkerPool) execute(ctx context.Context, workerID int, t Task) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		err = t.Execute(ctx)
	}()

	if err == nil {
		return
	}
	if p.errorHandler != nil {
		p.errorHandler(t, err)
		return
	}
	p.logger.Error("task failed",
		slog.Int("worker_id", workerID),
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()),
		slog.String("error", err.Error()))
}
