package controllers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/models"
	"newsletter-backend/queue"
	"newsletter-backend/store"
)

type RunsController struct {
	store      store.Store
	dispatcher queue.Dispatcher
	listLimit  int
	logger     *slog.Logger
	newID      func() string
}

func NewRunsController(s store.Store, d queue.Dispatcher, listLimit int, logger *slog.Logger) *RunsController {
	if listLimit <= 0 {
		listLimit = 10
	}
	return &RunsController{
		store:      s,
		dispatcher: d,
		listLimit:  listLimit,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

type draftResponse struct {
	RunID    string                     `json:"run_id"`
	Hero     *models.ImageAsset         `json:"hero"`
	Sections []models.NewsletterSection `json:"sections"`
	HTML     string                     `json:"html"`
}

// POST /runs
// records a queued run and hands it to the dispatcher; never waits for it
func (rc *RunsController) TriggerRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := models.NewRunJob(rc.newID(), req)
	ctx := c.Request.Context()
	if _, err := rc.store.RecordRun(ctx, models.Run{ID: job.RunID, Status: models.RunQueued, Topics: job.Topics}); err != nil {
		respondError(c, fmt.Errorf("record run: %w", err))
		return
	}

	if err := rc.dispatcher.Submit(ctx, job); err != nil {
		rc.logger.Error("runs.submit_failed", "run_id", job.RunID, "error", err)
		_ = rc.store.UpdateRunStatus(ctx, job.RunID, models.RunFailed, err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.RunResponse{RunID: job.RunID, Status: models.RunQueued})
}

// GET /runs?limit=10
func (rc *RunsController) ListRuns(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), rc.listLimit)
	runs, err := rc.store.LatestRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// GET /runs/latest
func (rc *RunsController) LatestDraft(c *gin.Context) {
	draft, err := rc.store.LatestDraft(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	sections := draft.Sections
	if sections == nil {
		sections = []models.NewsletterSection{}
	}
	c.JSON(http.StatusOK, draftResponse{
		RunID:    draft.RunID,
		Hero:     draft.Hero,
		Sections: sections,
		HTML:     draft.HTML,
	})
}

// utilities
func parseLimit(s string, def int) int {
	n := def
	if s == "" {
		return n
	}
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	if err == nil && v > 0 {
		n = v
	}
	return n
}
