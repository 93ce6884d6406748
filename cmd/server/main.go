package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"flashnotes-backend/internal/config"
	"flashnotes-backend/internal/database"
	"flashnotes-backend/internal/handlers"
	"flashnotes-backend/internal/repository"
	"flashnotes-backend/internal/router"
	"flashnotes-backend/internal/services"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync()

	store, cleanup, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Storage initialization failed", zap.Error(err))
	}
	defer cleanup()
	logger.Info("Storage ready", zap.String("backend", cfg.StorageBackend))

	// A missing API key is deliberately not fatal here: the first
	// generation request reports the configuration error.
	if cfg.GeminiAPIKey == "" {
		logger.Warn("No Gemini API key configured; generation requests will fail until GEMINI_API_KEY or GOOGLE_AI_API_KEY is set")
	}
	geminiService := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	defer geminiService.Close()

	noteHandler := handlers.NewNoteHandler(store, geminiService, logger)
	r := router.New(noteHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Generation requests wait on the Gemini call inline
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("Flashnotes backend ready",
		zap.String("addr", fmt.Sprintf("http://localhost:%s", cfg.Port)),
		zap.String("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}
}

func newStore(cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		return repository.NewMemStore(), func() {}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(pool, "migrations"); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil

	case "redis":
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("REDIS_URL is required when STORAGE_BACKEND=redis")
		}
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(client), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func newLogger(env string) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return logger
}
