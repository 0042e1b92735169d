// Package pipeline runs one newsletter generation end to end.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
	"newsletter-backend/services"
	"newsletter-backend/store"
)

type Collector interface {
	Collect(ctx context.Context, topics []string, windowHours int, feeds []string) ([]models.ArticleCandidate, error)
}

type SectionGenerator interface {
	GenerateSections(ctx context.Context, articles []models.ArticleCandidate, maxSections int) ([]models.NewsletterSection, error)
}

type ImageFetcher interface {
	Fetch(ctx context.Context, query string) (*models.ImageAsset, error)
}

type Renderer interface {
	Render(ctx context.Context, sections []models.NewsletterSection, hero *models.ImageAsset, metadata map[string]string) (string, string, error)
}

type DraftSender interface {
	CreateDraft(ctx context.Context, subject, preheader, html, text string) (models.EmailDraft, error)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Collector   Collector
	Generator   SectionGenerator
	Images      ImageFetcher
	Renderer    Renderer
	Email       DraftSender
	Store       store.Store
	Logger      *slog.Logger
	WindowHours int
	MaxSections int
}

// Pipeline sequences collect, generate, image, render, persist and
// deliver for one run.
type Pipeline struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) *Pipeline {
	if deps.WindowHours <= 0 {
		deps.WindowHours = services.DefaultWindowHours
	}
	if deps.MaxSections <= 0 {
		deps.MaxSections = services.DefaultMaxSections
	}
	return &Pipeline{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// Run executes job. The run is marked running first, completed when all
// stages succeed, and failed with the error text otherwise; the error is
// returned to the caller as well.
func (p *Pipeline) Run(ctx context.Context, job models.RunJob) (*models.RunResult, error) {
	log := p.deps.Logger.With("run_id", job.RunID)

	if _, err := p.deps.Store.RecordRun(ctx, models.Run{ID: job.RunID, Status: models.RunRunning, Topics: job.Topics}); err != nil {
		log.Error("pipeline.record_failed", "error", err)
		metrics.RunsTotal.WithLabelValues(string(models.RunFailed)).Inc()
		return nil, fmt.Errorf("record run: %w", err)
	}
	log.Info("pipeline.start", "topics", job.Topics)

	result, err := p.executeSafely(ctx, job)
	if err != nil {
		log.Error("pipeline.failed", "error", err)
		// the run context may already be done; the status must still land
		if uerr := p.deps.Store.UpdateRunStatus(context.WithoutCancel(ctx), job.RunID, models.RunFailed, err.Error()); uerr != nil {
			log.Error("pipeline.status_update_failed", "error", uerr)
		}
		metrics.RunsTotal.WithLabelValues(string(models.RunFailed)).Inc()
		return nil, err
	}

	if err := p.deps.Store.UpdateRunStatus(ctx, job.RunID, models.RunCompleted, "Draft created"); err != nil {
		log.Error("pipeline.status_update_failed", "error", err)
		metrics.RunsTotal.WithLabelValues(string(models.RunFailed)).Inc()
		return nil, fmt.Errorf("mark run completed: %w", err)
	}
	metrics.RunsTotal.WithLabelValues(string(models.RunCompleted)).Inc()
	log.Info("pipeline.completed", "sections", len(result.Sections))
	return result, nil
}

// executeSafely turns a panicking stage into an ordinary failure so the
// run is still marked failed.
func (p *Pipeline) executeSafely(ctx context.Context, job models.RunJob) (result *models.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return p.execute(ctx, job)
}

func (p *Pipeline) execute(ctx context.Context, job models.RunJob) (*models.RunResult, error) {
	windowHours := job.WindowHours
	if windowHours <= 0 {
		windowHours = p.deps.WindowHours
	}

	var articles []models.ArticleCandidate
	if err := stage("collect", func() (err error) {
		articles, err = p.deps.Collector.Collect(ctx, job.Topics, windowHours, job.RSSFeeds)
		return err
	}); err != nil {
		return nil, err
	}

	var sections []models.NewsletterSection
	if err := stage("generate", func() (err error) {
		sections, err = p.deps.Generator.GenerateSections(ctx, articles, p.deps.MaxSections)
		return err
	}); err != nil {
		return nil, err
	}

	var hero *models.ImageAsset
	if err := stage("image", func() (err error) {
		hero, err = p.deps.Images.Fetch(ctx, heroQuery(job))
		return err
	}); err != nil {
		return nil, err
	}

	var markup, html string
	if err := stage("render", func() (err error) {
		markup, html, err = p.deps.Renderer.Render(ctx, sections, hero, map[string]string{
			"generated_at": p.now().Format("January 02, 2006"),
			"title":        orDefault(job.Title, models.DefaultNewsletterTitle),
			"preheader":    job.Preheader,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if err := stage("persist", func() error {
		return p.deps.Store.SaveDraft(ctx, models.Draft{
			RunID:    job.RunID,
			Hero:     hero,
			Sections: sections,
			HTML:     html,
			MJML:     markup,
		})
	}); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	var email models.EmailDraft
	if err := stage("deliver", func() (err error) {
		email, err = p.deps.Email.CreateDraft(ctx, orDefault(job.Subject, models.DefaultNewsletterTitle), job.Preheader, html, services.HTMLToText(html))
		return err
	}); err != nil {
		return nil, err
	}

	return &models.RunResult{
		RunID:    job.RunID,
		Sections: sections,
		Hero:     hero,
		HTML:     html,
		MJML:     markup,
		Email:    email,
	}, nil
}

func stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}

func heroQuery(job models.RunJob) string {
	if job.HeroQuery != "" {
		return job.HeroQuery
	}
	if len(job.Topics) > 0 && job.Topics[0] != "" {
		return job.Topics[0]
	}
	return models.DefaultHeroQuery
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
