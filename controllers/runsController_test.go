package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-backend/logger"
	"newsletter-backend/models"
	"newsletter-backend/queue"
	"newsletter-backend/store"
)

type refusingDispatcher struct{}

func (refusingDispatcher) Submit(context.Context, models.RunJob) error { return queue.ErrClosed }
func (refusingDispatcher) Shutdown(context.Context) error            { return nil }

// brokenStore fails every read and write.
type brokenStore struct{ *store.MemoryStore }

var errDown = fmt.Errorf("%w: connection refused", models.ErrPersistenceUnavailable)

func (brokenStore) RecordRun(context.Context, models.Run) (models.Run, error) {
	return models.Run{}, errDown
}
func (brokenStore) LatestRuns(context.Context, int) ([]models.Run, error) { return nil, errDown }
func (brokenStore) LatestDraft(context.Context) (*models.Draft, error)  { return nil, errDown }
func (brokenStore) Ping(context.Context) error                          { return errDown }
func (brokenStore) Backend() string                                     { return "mongodb" }
func (brokenStore) ListTopicPresets(context.Context) ([]models.TopicPreset, error) {
	return nil, errDown
}

func serve(handler gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	handler(c)
	return w
}

func TestTriggerRun_SubmitFailureMarksRunFailed(t *testing.T) {
	st := store.NewMemoryStore()
	rc := NewRunsController(st, refusingDispatcher{}, 0, logger.Discard())
	rc.newID = func() string { return "fixed-id" }

	w := serve(rc.TriggerRun, http.MethodPost, `{"topics":["ai"]}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	runs, err := st.LatestRuns(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "fixed-id", runs[0].ID)
	assert.Equal(t, models.RunFailed, runs[0].Status)
	assert.Equal(t, queue.ErrClosed.Error(), runs[0].Message)
}

func TestHandlers_StoreFailures(t *testing.T) {
	st := brokenStore{store.NewMemoryStore()}
	rc := NewRunsController(st, refusingDispatcher{}, 10, logger.Discard())
	tc := NewTopicsController(st)

	for name, h := range map[string]gin.HandlerFunc{
		"trigger": rc.TriggerRun,
		"list":    rc.ListRuns,
		"latest":  rc.LatestDraft,
		"topics":  tc.ListTopics,
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(h, http.MethodPost, `{"topics":["ai"]}`)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Body.String(), "persistence unavailable")
		})
	}
}

func TestHealthCheck_StoreDown(t *testing.T) {
	w := serve(NewHealthController(brokenStore{store.NewMemoryStore()}).HealthCheck, http.MethodGet, "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","database":"disconnected","backend":"mongodb"}`, w.Body.String())
}

func TestRespondError(t *testing.T) {
	w := serve(func(c *gin.Context) {
		respondError(c, fmt.Errorf("%w: bad", models.ErrInvalidArgument))
	}, http.MethodGet, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(func(c *gin.Context) { respondError(c, errors.New("other")) }, http.MethodGet, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"other"}`, w.Body.String())
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 10, parseLimit("", 10))
	assert.Equal(t, 3, parseLimit("3", 10))
	assert.Equal(t, 10, parseLimit("0", 10))
	assert.Equal(t, 10, parseLimit("-4", 10))
	assert.Equal(t, 10, parseLimit("abc", 10))
}
