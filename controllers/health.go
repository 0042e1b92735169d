package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsletter-backend/store"
)

// HealthCheckResponse represents the health check response structure
type HealthCheckResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Backend  string `json:"backend,omitempty"`
}

type HealthController struct {
	store store.Store
}

func NewHealthController(s store.Store) *HealthController {
	return &HealthController{store: s}
}

// HealthCheck reports whether the store answers a ping.
func (h *HealthController) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "connected"
	if err := h.store.Ping(ctx); err != nil {
		dbStatus = "disconnected"
	}

	status := http.StatusOK
	response := HealthCheckResponse{
		Status:   "ok",
		Database: dbStatus,
		Backend:  h.store.Backend(),
	}

	if dbStatus != "connected" {
		status = http.StatusServiceUnavailable
		response.Status = "unavailable"
	}

	c.JSON(status, response)
}

// Ready is a liveness check that does not touch dependencies.
func (h *HealthController) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Root identifies the service.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Newsletter automation backend"})
}
