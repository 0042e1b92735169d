// Command worker consumes queued newsletter runs from Redis.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"newsletter-backend/bootstrap"
	"newsletter-backend/config"
	"newsletter-backend/logger"
	"newsletter-backend/queue"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, lg)
	if err != nil {
		log.Fatal("bootstrap:", err)
	}
	if app.Queue == nil {
		log.Fatal("worker: REDIS_URL is required")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := app.Queue.Ping(pingCtx); err != nil {
		cancel()
		log.Fatal("worker: redis ping: ", err)
	}
	cancel()

	lg.Info("worker.started", "concurrency", cfg.WorkerConcurrency, "store", app.Store.Backend())
	queue.NewWorker(app.Queue, app.Pipeline, cfg.WorkerConcurrency, lg).Run(ctx)

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()
	_ = app.Queue.Shutdown(closeCtx)
	_ = app.Close(closeCtx)
	lg.Info("worker.stopped")
}
