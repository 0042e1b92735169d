// Package bootstrap builds the long-lived clients and services from
// configuration. Both the API server and the queue worker use it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newsletter-backend/config"
	"newsletter-backend/pipeline"
	"newsletter-backend/queue"
	"newsletter-backend/services"
	"newsletter-backend/store"
)

// App owns every shared handle for the lifetime of the process.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Queue    *queue.RedisQueue
}

// New wires the app. A configured but unreachable database falls back
// to the in-memory store; a bad Redis URL is an error.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	app.Store = openStore(ctx, cfg, logger)
	if err := seedPresets(ctx, cfg, app.Store, logger); err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		client, err := queue.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		app.Queue = queue.NewRedisQueue(client, queue.DefaultQueueKey, logger)
		if app.Store.Backend() == "memory" {
			// the API and the worker are separate processes
			logger.Warn("store.not_shared", "reason", "REDIS_URL is set but runs are kept in process memory; the API will not see worker updates")
		}
	}

	renderer, err := services.NewTemplateRenderer(cfg.MJMLTemplatePath, cfg.MJMLBinary, cfg.RenderTimeout, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("providers.resolved",
		"newsapi", cfg.NewsAPIEnabled(),
		"firecrawl", cfg.FirecrawlEnabled(),
		"mailjet", cfg.MailjetEnabled(),
	)

	httpClient := services.NewHTTPClient(cfg.HTTPConnectTimeout, cfg.HTTPReadTimeout)
	llmClient := services.NewHTTPClient(cfg.HTTPConnectTimeout, cfg.LLMTimeout)
	imageClient := services.NewHTTPClient(cfg.HTTPConnectTimeout, cfg.ImageTimeout)

	collector := services.NewContentSourceService(logger,
		services.NewNewsAPISource(httpClient, services.NewsAPIEverythingURL, cfg.NewsAPIKey, logger),
		services.NewRSSSource(httpClient, logger),
		services.NewFirecrawlSource(httpClient, cfg.FirecrawlServerURL, cfg.FirecrawlAPIKey, logger),
	)

	app.Pipeline = pipeline.New(pipeline.Deps{
		Collector: collector,
		Generator: services.NewLLMService(llmClient, cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, logger),
		Images:    services.NewImageService(imageClient, services.UnsplashSearchURL, cfg.UnsplashAccessKey, logger),
		Renderer:  renderer,
		Email: services.NewMailjetService(httpClient, services.MailjetConfig{
			BaseURL:       cfg.MailjetBaseURL,
			APIKey:        cfg.MailjetAPIKey,
			APISecret:     cfg.MailjetAPISecret,
			SenderName:    cfg.MailjetSenderName,
			SenderEmail:   cfg.MailjetSenderEmail,
			ContactListID: cfg.MailjetContactListID,
		}, logger),
		Store:       app.Store,
		Logger:      logger,
		WindowHours: cfg.WindowHours,
		MaxSections: cfg.MaxSections,
	})

	return app, nil
}

// Dispatcher returns the Redis queue when configured, otherwise an
// in-process pool running the pipeline.
func (a *App) Dispatcher() queue.Dispatcher {
	if a.Queue != nil {
		return a.Queue
	}
	return queue.NewLocalDispatcher(a.Pipeline, a.Config.WorkerConcurrency, a.Logger)
}

// Close releases the store. The Redis client is closed by the
// dispatcher that owns it.
func (a *App) Close(ctx context.Context) error {
	return a.Store.Close(ctx)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) store.Store {
	if cfg.MongoURI == "" {
		logger.Warn("store.memory_fallback", "reason", "MONGODB_URI not set")
		return store.NewMemoryStore()
	}
	s, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Warn("store.memory_fallback", "reason", err.Error())
		return store.NewMemoryStore()
	}
	logger.Info("store.initialised", "backend", s.Backend(), "database", cfg.MongoDatabase)
	return s
}

func seedPresets(ctx context.Context, cfg config.Config, s store.Store, logger *slog.Logger) error {
	if cfg.TopicPresetsFile == "" {
		return nil
	}
	presets, err := config.LoadTopicPresets(cfg.TopicPresetsFile)
	if err != nil {
		return fmt.Errorf("seed topic presets: %w", err)
	}
	var errs []error
	for _, p := range presets {
		if _, err := s.UpsertTopicPreset(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	logger.Info("store.presets_seeded", "count", len(presets)-len(errs))
	return errors.Join(errs...)
}
