package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsletter-backend/metrics"
	"newsletter-backend/models"
)

const firecrawlResultLimit = 5

type firecrawlRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type firecrawlResponse struct {
	Results []json.RawMessage `json:"results"`
}

type firecrawlResult struct {
	Title       *string `json:"title"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"published_at"`
	Snippet     *string `json:"snippet"`
}

// FirecrawlSource runs a capped search per topic against a Firecrawl
// compatible server.
type FirecrawlSource struct {
	client    *http.Client
	serverURL string
	apiKey    string
	logger    *slog.Logger
	now       func() time.Time
}

func NewFirecrawlSource(client *http.Client, serverURL, apiKey string, logger *slog.Logger) *FirecrawlSource {
	return &FirecrawlSource{
		client:    client,
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *FirecrawlSource) Name() models.SourceName { return models.SourceFirecrawl }

func (s *FirecrawlSource) Enabled() bool { return s.apiKey != "" && s.serverURL != "" }

// Fetch searches each topic; non-success responses are logged and the
// remaining topics still run.
func (s *FirecrawlSource) Fetch(ctx context.Context, q SourceQuery) ([]models.ArticleCandidate, error) {
	var out []models.ArticleCandidate
	for _, topic := range q.Topics {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		items, err := s.search(ctx, topic)
		if err != nil {
			metrics.SourceErrorsTotal.WithLabelValues(string(s.Name()), "topic").Inc()
			s.logger.Error("content_sources.firecrawl.error", "topic", topic, "error", err)
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, items...)
	}
	return out, nil
}

func (s *FirecrawlSource) search(ctx context.Context, topic string) ([]models.ArticleCandidate, error) {
	body, err := json.Marshal(firecrawlRequest{Query: topic, Limit: firecrawlResultLimit})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &statusError{status: resp.StatusCode, body: readBody(resp)}
	}

	var payload firecrawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode firecrawl response: %w", err)
	}
	return adaptEach(s.logger, s.Name(), payload.Results, s.adapt), nil
}

func (s *FirecrawlSource) adapt(raw json.RawMessage) (models.ArticleCandidate, error) {
	var r firecrawlResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.ArticleCandidate{}, err
	}
	if r.URL == "" {
		return models.ArticleCandidate{}, errMissingURL
	}
	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	return models.ArticleCandidate{
		Title:       titleOr(r.Title),
		URL:         r.URL,
		Source:      models.SourceFirecrawl,
		PublishedAt: parseTimestamp(r.PublishedAt, s.now()),
		Summary:     nonEmpty(r.Snippet),
		Raw:         rawMap,
	}, nil
}
