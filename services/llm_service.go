package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsletter-backend/models"
)

const (
	DefaultMaxSections = 5
	// maxPromptArticles caps how many candidates are sent to the model.
	maxPromptArticles = 20
	defaultTone       = "conversational"
)

var sectionsSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":          map[string]any{"type": "string"},
					"hook":           map[string]any{"type": "string"},
					"summary":        map[string]any{"type": "string"},
					"call_to_action": map[string]any{"type": "string"},
					"keywords":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"source_url":     map[string]any{"type": "string", "format": "uri"},
				},
				"required": []string{"title", "summary", "call_to_action", "keywords", "source_url", "hook"},
			},
		},
	},
	"required": []string{"sections"},
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type promptArticle struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Summary     *string `json:"summary"`
	PublishedAt string  `json:"published_at"`
}

// LLMService turns candidates into newsletter sections through an
// OpenRouter compatible chat completion endpoint. Without a key, or when
// the model call fails, it falls back to FallbackSections.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	tone    string
	logger  *slog.Logger
}

func NewLLMService(client *http.Client, baseURL, apiKey, model string, logger *slog.Logger) *LLMService {
	return &LLMService{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		tone:    defaultTone,
		logger:  logger,
	}
}

// GenerateSections never fails on provider errors; it only returns an
// error when ctx is done.
func (s *LLMService) GenerateSections(ctx context.Context, articles []models.ArticleCandidate, maxSections int) ([]models.NewsletterSection, error) {
	if maxSections <= 0 {
		maxSections = DefaultMaxSections
	}
	if s.apiKey == "" {
		s.logger.Warn("llm.fallback", "reason", "missing OPENROUTER_API_KEY")
		return FallbackSections(articles, maxSections), nil
	}

	sections, err := s.complete(ctx, articles, maxSections)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("generate sections: %w", ctxErr)
		}
		s.logger.Error("llm.error", "error", err)
		return FallbackSections(articles, maxSections), nil
	}
	return sections, nil
}

func (s *LLMService) complete(ctx context.Context, articles []models.ArticleCandidate, maxSections int) ([]models.NewsletterSection, error) {
	payload := make([]promptArticle, 0, min(len(articles), maxPromptArticles))
	for _, a := range articles[:min(len(articles), maxPromptArticles)] {
		payload = append(payload, promptArticle{
			Title:       a.Title,
			URL:         a.URL,
			Summary:     a.Summary,
			PublishedAt: a.PublishedAt.Format(time.RFC3339),
		})
	}

	userPrompt, err := json.Marshal(map[string]any{
		"tone":          s.tone,
		"max_sections":  maxSections,
		"articles":      payload,
		"output_schema": sectionsSchema,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an editorial assistant who creates a concise tech newsletter. " +
				"Return JSON that strictly matches the `sections` schema."},
			{Role: "user", Content: string(userPrompt)},
		},
		Temperature: 0.4,
		ResponseFormat: map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "newsletter_sections",
				"schema": sectionsSchema,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "newsletter-manager")
	req.Header.Set("X-Title", "Automated Newsletter Platform")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &statusError{status: resp.StatusCode, body: readBody(resp)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode llm response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("llm response has no choices")
	}

	var parsed struct {
		Sections []models.NewsletterSection `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	for i := range parsed.Sections {
		if parsed.Sections[i].Keywords == nil {
			parsed.Sections[i].Keywords = []string{}
		}
	}
	return parsed.Sections, nil
}

// FallbackSections builds sections from the first maxSections candidates
// without a model.
func FallbackSections(articles []models.ArticleCandidate, maxSections int) []models.NewsletterSection {
	n := min(len(articles), maxSections)
	sections := make([]models.NewsletterSection, 0, n)
	for _, a := range articles[:n] {
		sections = append(sections, models.NewsletterSection{
			Title:        a.Title,
			Hook:         a.SummaryOr(fmt.Sprintf("Why %s matters", a.Title)),
			Summary:      a.SummaryOr("Summary unavailable."),
			CallToAction: fmt.Sprintf("Read the full story on %s.", a.Source),
			Keywords:     []string{string(a.Source)},
			SourceURL:    a.URL,
		})
	}
	return sections
}
