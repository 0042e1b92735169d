package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
)

// NewsAPIEverythingURL is the keyword search endpoint of NewsAPI.
const NewsAPIEverythingURL = "https://newsapi.org/v2/everything"

const newsAPIPageSize = 50

type newsAPIResponse struct {
	Status   string            `json:"status"`
	Articles []json.RawMessage `json:"articles"`
}

type newsAPIArticle struct {
	Title       *string `json:"title"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"publishedAt"`
	Description *string `json:"description"`
	URLToImage  *string `json:"urlToImage"`
}

// NewsAPISource issues one time-windowed query per topic.
type NewsAPISource struct {
	client   *http.Client
	endpoint string
	apiKey   string
	logger   *slog.Logger
	now      func() time.Time
}

func NewNewsAPISource(client *http.Client, endpoint, apiKey string, logger *slog.Logger) *NewsAPISource {
	return &NewsAPISource{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *NewsAPISource) Name() models.SourceName { return models.SourceNewsAPI }

func (s *NewsAPISource) Enabled() bool { return s.apiKey != "" }

// Fetch queries every topic. A failing topic is logged and skipped.
func (s *NewsAPISource) Fetch(ctx context.Context, q SourceQuery) ([]models.ArticleCandidate, error) {
	var out []models.ArticleCandidate
	for _, topic := range q.Topics {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		items, err := s.fetchTopic(ctx, topic, q.WindowStart)
		if err != nil {
			metrics.SourceErrorsTotal.WithLabelValues(string(s.Name()), "topic").Inc()
			s.logger.Error("content_sources.newsapi.error", "topic", topic, "error", err)
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, items...)
	}
	return out, nil
}

func (s *NewsAPISource) fetchTopic(ctx context.Context, topic string, start time.Time) ([]models.ArticleCandidate, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("from", start.UTC().Format(time.RFC3339))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprint(newsAPIPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &statusError{status: resp.StatusCode, body: readBody(resp)}
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	return adaptEach(s.logger, s.Name(), payload.Articles, s.adapt), nil
}

func (s *NewsAPISource) adapt(raw json.RawMessage) (models.ArticleCandidate, error) {
	var a newsAPIArticle
	if err := json.Unmarshal(raw, &a); err != nil {
		return models.ArticleCandidate{}, err
	}
	if a.URL == "" {
		return models.ArticleCandidate{}, errMissingURL
	}
	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	return models.ArticleCandidate{
		Title:       titleOr(a.Title),
		URL:         a.URL,
		Source:      models.SourceNewsAPI,
		PublishedAt: parseTimestamp(a.PublishedAt, s.now()),
		Summary:     nonEmpty(a.Description),
		ImageURL:    nonEmpty(a.URLToImage),
		Raw:         rawMap,
	}, nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
