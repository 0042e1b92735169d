package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsletter-backend/models"
)

// MemoryStore keeps everything in process. It backs local runs and tests
// when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]models.TopicPreset
	order   []string
	runs    map[string]models.Run
	drafts  []models.Draft
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		presets: map[string]models.TopicPreset{},
		runs:    map[string]models.Run{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Backend() string { return "memory" }

func (m *MemoryStore) ListTopicPresets(_ context.Context) ([]models.TopicPreset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.TopicPreset, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.presets[id])
	}
	return out, nil
}

func (m *MemoryStore) UpsertTopicPreset(_ context.Context, preset models.TopicPreset) (models.TopicPreset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	preset = preparePreset(preset, m.now())
	if existing, ok := m.presets[preset.ID]; ok {
		preset.CreatedAt = existing.CreatedAt
	} else {
		m.order = append(m.order, preset.ID)
	}
	m.presets[preset.ID] = preset
	return preset, nil
}

func (m *MemoryStore) RecordRun(_ context.Context, run models.Run) (models.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run = prepareRun(run, m.now())
	if existing, ok := m.runs[run.ID]; ok {
		run.CreatedAt = existing.CreatedAt
		if run.Topics == nil {
			run.Topics = existing.Topics
		}
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *MemoryStore) UpdateRunStatus(_ context.Context, runID string, status models.RunStatus, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	run.Status = status
	run.Message = message
	run.UpdatedAt = m.now()
	m.runs[runID] = run
	return nil
}

func (m *MemoryStore) LatestRuns(_ context.Context, limit int) ([]models.Run, error) {
	m.mu.RLock()
	out := make([]models.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, draft models.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = m.now()
	}
	m.drafts = append(m.drafts, draft)
	return nil
}

func (m *MemoryStore) LatestDraft(_ context.Context) (*models.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.drafts) == 0 {
		return nil, nil
	}
	d := m.drafts[len(m.drafts)-1]
	return &d, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close(context.Context) error { return nil }
