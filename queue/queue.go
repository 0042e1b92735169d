// Package queue schedules pipeline runs away from the request that
// triggered them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newsletter-backend/models"
)

// ErrClosed is returned by Submit after shutdown started.
var ErrClosed = errors.New("dispatcher closed")

// Runner executes one run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, job models.RunJob) (*models.RunResult, error)
}

// Dispatcher accepts jobs for asynchronous execution. Submit returning
// nil means the job is scheduled, not that it ran.
type Dispatcher interface {
	Submit(ctx context.Context, job models.RunJob) error
	Shutdown(ctx context.Context) error
}

// runSafely executes a job and converts a panic into an error so one bad
// run cannot take a worker down.
func runSafely(ctx context.Context, runner Runner, job models.RunJob, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
		if err != nil {
			logger.Error("queue.run_failed", "run_id", job.RunID, "error", err)
		}
	}()
	_, err = runner.Run(ctx, job)
	return err
}
