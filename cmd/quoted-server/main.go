package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/quotehub/quoted/pkg/quoted/auth"
	"github.com/quotehub/quoted/pkg/quoted/config"
	"github.com/quotehub/quoted/pkg/quoted/database"
	"github.com/quotehub/quoted/pkg/quoted/logging"
	"github.com/quotehub/quoted/pkg/quoted/middleware"
	"github.com/quotehub/quoted/pkg/quoted/models"
	"github.com/quotehub/quoted/pkg/quoted/quotes"
	"github.com/quotehub/quoted/pkg/quoted/store"
)

func main() {
	// Config file path from environment or default
	cfg, err := config.Load(os.Getenv("QUOTED_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})

	// Connect to database and run auto-migrations
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database migrations completed", slog.String("path", cfg.Database.Path))

	// Secrets are read once at startup; the auth service holding them is
	// immutable for the process lifetime.
	signingSecret, err := config.ReadSecret(cfg.Auth.SecretFile)
	if err != nil {
		logger.Error("Failed to read signing secret", slog.String("error", err.Error()))
		os.Exit(1)
	}
	regSecret, err := config.ReadSecret(cfg.Auth.RegSecretFile)
	if err != nil {
		logger.Error("Failed to read registration secret", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authService := auth.NewService([]byte(signingSecret), regSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	// Set up gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())

	// Health check and metrics endpoints
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "quoted",
		})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	// Auth route (public, issues tokens)
	authHandler := auth.NewHandler(authService)
	authHandler.RegisterRoutes(r.Group("/auth"))

	// Quote routes: reads are public, mutations require a valid token
	api := r.Group("/api/v1")
	protected := api.Group("", auth.RequireToken(authService))
	quotesHandler := quotes.NewHandler(store.New(db), logger)
	quotesHandler.RegisterRoutes(api, protected)

	logger.Info("Starting quoted server", slog.String("addr", cfg.Addr()))
	if err := r.Run(cfg.Addr()); err != nil {
		logger.Error("Server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
