package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskhive/taskhive/internal/config"
	"github.com/taskhive/taskhive/internal/handler"
	"github.com/taskhive/taskhive/internal/middleware"
	"github.com/taskhive/taskhive/internal/model"
	"github.com/taskhive/taskhive/internal/pkg/logger"
	"github.com/taskhive/taskhive/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 2. Build the service registry (explicit dependency table)
	registry, err := service.NewRegistry(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	idempotencyStore := middleware.NewInMemIdempotencyStore()

	// 3. Handlers
	adminHandler := handler.NewAdminHandler(registry.Admin, registry)
	auditHandler := handler.NewAuditHandler(registry.Audit)
	eventsHandler := handler.NewEventsHandler(registry.Stream)

	// 4. Router
	r := gin.New()
	r.Use(gin.Recovery())
	// RequestLogger sits outside ErrorHandler so the completion record sees
	// the status the error handler actually wrote.
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	// Liveness probe, unauthenticated by design
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "taskhive"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Admin API
	admin := r.Group("/admin/v1")
	admin.Use(middleware.AuthMiddleware(cfg))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.Use(middleware.RateLimitMiddleware(cfg.RateLimit))
	admin.Use(middleware.ReadOnlyMiddleware(cfg.Server.ReadOnly))
	admin.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		admin.GET("/dashboard",
			middleware.AuditView(registry.Audit, middleware.StaticResource("dashboard", "main")),
			adminHandler.Dashboard)
		admin.GET("/users", adminHandler.ListUsers)
		admin.POST("/users/:id/moderate",
			middleware.AuditUpdate(registry.Audit, middleware.ParamResource("user", "id")),
			adminHandler.ModerateUser)
		admin.GET("/verifications/pending", adminHandler.PendingVerifications)
		admin.POST("/verifications/:id/process",
			middleware.AuditUpdate(registry.Audit, middleware.ParamResource("verification", "id")),
			adminHandler.ProcessVerification)
		admin.GET("/analytics",
			middleware.AuditView(registry.Audit, middleware.StaticResource("analytics", "platform")),
			adminHandler.Analytics)
		admin.GET("/disputes", adminHandler.ListDisputes)
		admin.GET("/health",
			middleware.AuditView(registry.Audit, middleware.StaticResource("health", "report")),
			adminHandler.Health)
		admin.GET("/audit", auditHandler.List)
		admin.GET("/events", eventsHandler.Stream)
	}

	// 5. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("taskhive admin gateway started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	registry.Close()

	logger.Info("server exiting")
}
