package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
)

// RSSSource parses the feed locations supplied with a run. It needs no
// credential, so it is always enabled.
type RSSSource struct {
	client *http.Client
	logger *slog.Logger
	strip  *bluemonday.Policy
	now    func() time.Time
}

func NewRSSSource(client *http.Client, logger *slog.Logger) *RSSSource {
	return &RSSSource{
		client: client,
		logger: logger,
		strip:  bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

func (s *RSSSource) Name() models.SourceName { return models.SourceRSS }

func (s *RSSSource) Enabled() bool { return true }

// Fetch parses every feed. A feed that cannot be fetched or parsed is
// logged and skipped.
func (s *RSSSource) Fetch(ctx context.Context, q SourceQuery) ([]models.ArticleCandidate, error) {
	var out []models.ArticleCandidate
	for _, loc := range q.Feeds {
		feed, err := s.parse(ctx, loc)
		if err != nil {
			metrics.SourceErrorsTotal.WithLabelValues(string(s.Name()), "feed").Inc()
			s.logger.Error("content_sources.rss.error", "feed", loc, "error", err)
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, adaptEach(s.logger, s.Name(), feed.Items, func(item *gofeed.Item) (models.ArticleCandidate, error) {
			return s.adapt(loc, item)
		})...)
	}
	return out, nil
}

func (s *RSSSource) parse(ctx context.Context, loc string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.Client = s.client

	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return fp.ParseURLWithContext(loc, ctx)
	}

	f, err := os.Open(strings.TrimPrefix(loc, "file://"))
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return fp.Parse(f)
}

func (s *RSSSource) adapt(loc string, item *gofeed.Item) (models.ArticleCandidate, error) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		return models.ArticleCandidate{}, errMissingURL
	}
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = models.UntitledArticle
	}
	published := s.now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	}
	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	return models.ArticleCandidate{
		Title:       title,
		URL:         link,
		Source:      models.SourceRSS,
		PublishedAt: published,
		Summary:     models.StringPtr(s.plainText(summary)),
		ImageURL:    feedImage(item),
		Raw:         map[string]any{"feed": loc, "entry": item.GUID},
	}, nil
}

func (s *RSSSource) plainText(raw string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s.strip.Sanitize(raw))), " ")
}

func feedImage(item *gofeed.Item) *string {
	if item.Image != nil && item.Image.URL != "" {
		return models.StringPtr(item.Image.URL)
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return models.StringPtr(enc.URL)
		}
	}
	return nil
}
