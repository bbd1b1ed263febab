package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/events"
	"github.com/civicpulse/backend/internal/logger"
	"github.com/civicpulse/backend/internal/metrics"
	"github.com/civicpulse/backend/internal/middleware"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/civicpulse/backend/internal/repository/memory"
	"github.com/civicpulse/backend/internal/repository/postgres"
	"github.com/civicpulse/backend/internal/routes"
	"github.com/civicpulse/backend/internal/seed"
	"github.com/civicpulse/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Initialize(cfg.LogLevel, cfg.LogDir)
	if envErr != nil {
		logger.Warn("No .env file found, using environment variables", nil)
	}
	metrics.Register()

	store, conn := openStore(&cfg)

	publisher := newPublisher(&cfg)
	defer publisher.Close()

	media, err := storage.NewLocalMediaStore(cfg.MediaDir, cfg.MediaBaseURL)
	if err != nil {
		logger.Fatal("Failed to prepare media storage", map[string]interface{}{
			"dir":   cfg.MediaDir,
			"error": err.Error(),
		})
	}

	// Seed with initial data if in development
	if cfg.IsDevelopment() || cfg.StoreDriver == "memory" {
		seedStore(store, cfg.SeedFile)
	}

	// Setup graceful shutdown
	stopChan := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		logger.Warn("Received shutdown signal", nil)
		close(stopChan)
	}()

	// Set Gin mode
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router without default middleware
	r := gin.New()

	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// Use our custom logging middleware instead of gin.Default()
	r.Use(middleware.CustomLoggerMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigin))
	r.Use(gin.Recovery())

	// Setup routes
	routes.SetupRoutes(r, routes.Dependencies{
		Config:    &cfg,
		Store:     store,
		DB:        conn,
		Publisher: publisher,
		Media:     media,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	logger.Info("Starting CivicPulse backend server", map[string]interface{}{
		"port":     cfg.Port,
		"gin_mode": gin.Mode(),
		"store":    cfg.StoreDriver,
	})

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for shutdown signal
	<-stopChan
	logger.Info("Shutting down server gracefully...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		logger.Info("Server exited gracefully", nil)
	}
}

// openStore returns the configured repositories. conn is nil for the memory store.
func openStore(cfg *config.Config) (*repository.Store, *gorm.DB) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart", nil)
		return memory.NewStore(), nil
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if err := db.AutoMigrate(conn); err != nil {
		logger.Fatal("Failed to migrate database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return postgres.NewStore(conn), conn
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.LogPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("AMQP unavailable, report events will only be logged", map[string]interface{}{
			"error": err.Error(),
		})
		return events.LogPublisher{}
	}
	logger.Info("Publishing report events to AMQP", map[string]interface{}{
		"exchange": cfg.AMQPExchange,
	})
	return p
}

func seedStore(store *repository.Store, path string) {
	data, err := seed.Load(path)
	if err != nil {
		logger.Warn("Failed to load seed data", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := seed.Run(context.Background(), store, data, time.Now()); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{"error": err.Error()})
	}
}
