package models

import "time"

// SourceName tags which provider surfaced a candidate.
type SourceName string

const (
	SourceNewsAPI   SourceName = "newsapi"
	SourceRSS       SourceName = "rss"
	SourceFirecrawl SourceName = "firecrawl"
)

// UntitledArticle is used when an upstream item carries no title.
const UntitledArticle = "Untitled"

// ArticleCandidate is one article found by any source, before editorial
// transformation. URL is its identity.
type ArticleCandidate struct {
	Title       string         `bson:"title" json:"title"`
	URL         string         `bson:"url" json:"url"`
	Source      SourceName     `bson:"source" json:"source"`
	PublishedAt time.Time      `bson:"published_at" json:"published_at"`
	Summary     *string        `bson:"summary,omitempty" json:"summary,omitempty"`
	ImageURL    *string        `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Raw         map[string]any `bson:"-" json:"-"`
}

// SummaryOr returns the summary, or def when the candidate has none.
func (a ArticleCandidate) SummaryOr(def string) string {
	if a.Summary == nil || *a.Summary == "" {
		return def
	}
	return *a.Summary
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
