package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"newsletter-backend/models"
)

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrInvalidArgument) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
