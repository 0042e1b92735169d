package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"newsletter-backend/models"
)

// DefaultQueueKey is the Redis list holding pending runs.
const DefaultQueueKey = "newsletter:runs"

// NewRedisClient creates a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// RedisQueue is a Dispatcher backed by a Redis list. Jobs are consumed
// by Worker, usually in a separate process.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisQueue(client *redis.Client, key string, logger *slog.Logger) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key, logger: logger}
}

func (q *RedisQueue) Submit(ctx context.Context, job models.RunJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue run %s: %w", job.RunID, err)
	}
	q.logger.Info("queue.submitted", "run_id", job.RunID, "backend", "redis")
	return nil
}

// Dequeue waits up to timeout for the oldest job. It returns nil, nil
// when nothing arrived in time.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.RunJob, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res is [key, value]
	var job models.RunJob
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Shutdown closes the client.
func (q *RedisQueue) Shutdown(context.Context) error {
	return q.client.Close()
}

// Worker drains a RedisQueue with a fixed number of consumers.
type Worker struct {
	queue       *RedisQueue
	runner      Runner
	concurrency int
	pollTimeout time.Duration
	logger      *slog.Logger
}

func NewWorker(q *RedisQueue, runner Runner, concurrency int, logger *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		queue:       q,
		runner:      runner,
		concurrency: concurrency,
		pollTimeout: 5 * time.Second,
		logger:      logger,
	}
}

// Run consumes until ctx is cancelled. A run in progress is allowed to
// finish; no retries happen here.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := range w.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx, i)
		}()
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, id int) {
	log := w.logger.With("consumer", id)
	for ctx.Err() == nil {
		job, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("queue.dequeue_failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}
		_ = runSafely(context.WithoutCancel(ctx), w.runner, *job, log)
	}
}
