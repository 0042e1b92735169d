package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"newsletter-backend/bootstrap"
	"newsletter-backend/config"
	"newsletter-backend/controllers"
	"newsletter-backend/logger"
	"newsletter-backend/routes"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Create a context that listens for the interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, lg)
	if err != nil {
		log.Fatal("bootstrap:", err)
	}
	dispatcher := app.Dispatcher()

	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, routes.Controllers{
		Health: controllers.NewHealthController(app.Store),
		Runs:   controllers.NewRunsController(app.Store, dispatcher, cfg.RunsListLimit, lg),
		Topics: controllers.NewTopicsController(app.Store),
	}, cfg.CORSAllowedOrigins)

	// Create a server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Initializing the server in a goroutine so that
	// it won't block the graceful shutdown handling
	go func() {
		lg.Info("server.listening", "addr", srv.Addr, "store", app.Store.Backend())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Listen for the interrupt signal
	<-ctx.Done()

	// Restore default behavior on the interrupt signal
	stop()
	lg.Info("server.shutting_down")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// queued runs get longer than requests to drain
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelDrain()
	if err := dispatcher.Shutdown(drainCtx); err != nil {
		lg.Warn("dispatcher.shutdown", "error", err)
	}
	if err := app.Close(drainCtx); err != nil {
		lg.Warn("store.close", "error", err)
	}

	lg.Info("server.exited")
}
