package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter-backend/models"
	"newsletter-backend/store"
)

type TopicsController struct {
	store store.Store
}

func NewTopicsController(s store.Store) *TopicsController {
	return &TopicsController{store: s}
}

// GET /topics
func (tc *TopicsController) ListTopics(c *gin.Context) {
	presets, err := tc.store.ListTopicPresets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presets)
}

// POST /topics
func (tc *TopicsController) UpsertTopic(c *gin.Context) {
	var preset models.TopicPreset
	if err := c.ShouldBindJSON(&preset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(preset.Topics) == 0 {
		respondError(c, fmt.Errorf("%w: topics list cannot be empty", models.ErrInvalidArgument))
		return
	}

	saved, err := tc.store.UpsertTopicPreset(c.Request.Context(), preset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
