package queue

import (
	"context"
	"log/slog"
	"sync"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
)

const localBacklog = 256

// LocalDispatcher runs jobs on a fixed pool of goroutines in this
// process.
type LocalDispatcher struct {
	runner Runner
	logger *slog.Logger
	jobs   chan models.RunJob

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func NewLocalDispatcher(runner Runner, concurrency int, logger *slog.Logger) *LocalDispatcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &LocalDispatcher{
		runner: runner,
		logger: logger,
		jobs:   make(chan models.RunJob, localBacklog),
		ctx:    ctx,
		cancel: cancel,
	}
	for range concurrency {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *LocalDispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		metrics.QueueDepth.Dec()
		_ = runSafely(d.ctx, d.runner, job, d.logger)
	}
}

// Submit enqueues job. It blocks only while the backlog is full.
func (d *LocalDispatcher) Submit(ctx context.Context, job models.RunJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.jobs <- job:
		metrics.QueueDepth.Inc()
		d.logger.Info("queue.submitted", "run_id", job.RunID, "backend", "local")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones. If ctx ends
// first, in-flight runs are cancelled.
func (d *LocalDispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
