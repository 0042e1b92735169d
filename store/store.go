// Package store persists topic presets, runs and drafts.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"newsletter-backend/models"
)

// Store is implemented by MongoStore and MemoryStore; which one is used
// is decided once at startup from configuration.
type Store interface {
	ListTopicPresets(ctx context.Context) ([]models.TopicPreset, error)
	UpsertTopicPreset(ctx context.Context, preset models.TopicPreset) (models.TopicPreset, error)

	// RecordRun inserts the run or, if a run with the same id exists,
	// updates its status, topics and message keeping created_at.
	RecordRun(ctx context.Context, run models.Run) (models.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus, message string) error
	// LatestRuns returns runs newest first.
	LatestRuns(ctx context.Context, limit int) ([]models.Run, error)

	// SaveDraft appends a draft; drafts are never updated.
	SaveDraft(ctx context.Context, draft models.Draft) error
	// LatestDraft returns nil when nothing was saved yet.
	LatestDraft(ctx context.Context) (*models.Draft, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Backend() string
}

func prepareRun(run models.Run, now time.Time) models.Run {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	return run
}

func preparePreset(p models.TopicPreset, now time.Time) models.TopicPreset {
	if p.ID == "" {
		p.ID = presetID(p)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return p
}

// presetID is the slug of the name, or a hash of the name when the name
// has no ASCII letters or digits to slug.
func presetID(p models.TopicPreset) string {
	if slug := p.Slug(); slug != "" {
		return slug
	}
	sum := sha256.Sum256([]byte(strings.TrimSpace(p.Name)))
	return "preset-" + hex.EncodeToString(sum[:6])
}
