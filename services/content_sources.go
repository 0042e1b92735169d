package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
	"newsletter-backend/utils"
)

// DefaultWindowHours is the lookback used when a run does not set one.
const DefaultWindowHours = 72

var errMissingURL = errors.New("item has no url")

// SourceQuery is what every provider receives for one collection.
type SourceQuery struct {
	Topics      []string
	WindowStart time.Time
	Feeds       []string
}

// Source is one upstream provider of article candidates.
type Source interface {
	Name() models.SourceName
	// Enabled is resolved once at construction from configuration.
	Enabled() bool
	Fetch(ctx context.Context, q SourceQuery) ([]models.ArticleCandidate, error)
}

// ContentSourceService queries every configured provider and merges
// their candidates into one deduplicated sequence.
type ContentSourceService struct {
	sources []Source
	logger  *slog.Logger
	now     func() time.Time
}

// NewContentSourceService keeps sources in the given order. That order
// decides which version of a duplicated URL survives.
func NewContentSourceService(logger *slog.Logger, sources ...Source) *ContentSourceService {
	return &ContentSourceService{
		sources: sources,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Collect fetches from all enabled providers concurrently, concatenates
// their results in provider order and removes duplicate URLs.
func (s *ContentSourceService) Collect(ctx context.Context, topics []string, windowHours int, feeds []string) ([]models.ArticleCandidate, error) {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	q := SourceQuery{
		Topics:      utils.Dedupe(topics, normalizeTerm),
		WindowStart: s.now().Add(-time.Duration(windowHours) * time.Hour),
		Feeds:       utils.Dedupe(feeds, strings.TrimSpace),
	}

	// one slot per provider so completion order cannot change the merge
	results := make([][]models.ArticleCandidate, len(s.sources))
	var g errgroup.Group
	for i, src := range s.sources {
		if !src.Enabled() {
			s.logger.Warn(fmt.Sprintf("content_sources.%s.disabled", src.Name()), "reason", disabledReason("missing credentials"))
			continue
		}
		g.Go(func() error {
			items, err := fetchSafely(ctx, src, q)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				metrics.SourceErrorsTotal.WithLabelValues(string(src.Name()), "fetch").Inc()
				s.logger.Error(fmt.Sprintf("content_sources.%s.error", src.Name()), "error", err)
				return nil
			}
			metrics.CandidatesTotal.WithLabelValues(string(src.Name())).Add(float64(len(items)))
			results[i] = items
			return nil
		})
	}
	// provider failures are absorbed above; only cancellation reaches here
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect candidates: %w", err)
	}

	var articles []models.ArticleCandidate
	for _, items := range results {
		articles = append(articles, items...)
	}

	deduped, err := utils.DedupeByKey(articles, nil, "url")
	if err != nil {
		return nil, err
	}
	metrics.DuplicatesDropped.Observe(float64(len(articles) - len(deduped)))
	s.logger.Info("content_sources.collected", "count", len(deduped), "original", len(articles))
	return deduped, nil
}

// normalizeTerm is the identity of a search topic: case and surrounding
// space do not make a new query.
func normalizeTerm(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}

// disabledReason marks a provider skipped for lack of configuration.
func disabledReason(reason string) error {
	return fmt.Errorf("%w: %s", models.ErrUpstreamUnavailable, reason)
}

func fetchSafely(ctx context.Context, src Source, q SourceQuery) (items []models.ArticleCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", src.Name(), r)
		}
	}()
	return src.Fetch(ctx, q)
}

// adaptEach converts upstream items one by one. An item that fails to
// convert, or panics while converting, is logged and skipped.
func adaptEach[T any](logger *slog.Logger, source models.SourceName, items []T, adapt func(T) (models.ArticleCandidate, error)) []models.ArticleCandidate {
	out := make([]models.ArticleCandidate, 0, len(items))
	for i, item := range items {
		c, err := safeAdapt(item, adapt)
		if err != nil {
			metrics.SourceErrorsTotal.WithLabelValues(string(source), "item").Inc()
			logger.Warn("content_sources.item_skipped", "source", source, "index", i, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

func safeAdapt[T any](item T, adapt func(T) (models.ArticleCandidate, error)) (c models.ArticleCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return adapt(item)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp returns raw as UTC, or now when raw is empty or not a
// recognised timestamp. Layouts without a zone are read as UTC.
func parseTimestamp(raw string, now time.Time) time.Time {
	if raw == "" {
		return now.UTC()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return now.UTC()
}

func titleOr(title *string) string {
	if title == nil || *title == "" {
		return models.UntitledArticle
	}
	return *title
}
