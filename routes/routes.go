package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsletter-backend/controllers"
)

// Controllers groups the handlers the router mounts.
type Controllers struct {
	Health *controllers.HealthController
	Runs   *controllers.RunsController
	Topics *controllers.TopicsController
}

// SetupRoutes mounts every endpoint. An empty allowedOrigins list allows
// any origin without credentials.
func SetupRoutes(router *gin.Engine, ctl Controllers, allowedOrigins []string) {
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/", controllers.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	health := router.Group("/health")
	{
		health.GET("", ctl.Health.HealthCheck)
		health.GET("/ready", ctl.Health.Ready)
	}

	runs := router.Group("/runs")
	{
		runs.POST("", ctl.Runs.TriggerRun)
		runs.GET("", ctl.Runs.ListRuns)
		runs.GET("/latest", ctl.Runs.LatestDraft)
	}

	topics := router.Group("/topics")
	{
		topics.GET("", ctl.Topics.ListTopics)
		topics.POST("", ctl.Topics.UpsertTopic)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
