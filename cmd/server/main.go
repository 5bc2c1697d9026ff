package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/invoice-checker/internal/analyzer"
	"github.com/BerylCAtieno/invoice-checker/internal/config"
	"github.com/BerylCAtieno/invoice-checker/internal/db"
	"github.com/BerylCAtieno/invoice-checker/internal/llm"
	"github.com/BerylCAtieno/invoice-checker/internal/repository"
	"github.com/BerylCAtieno/invoice-checker/internal/router"
	"github.com/BerylCAtieno/invoice-checker/internal/services"
	"github.com/BerylCAtieno/invoice-checker/internal/storage"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx := context.Background()
	deps := services.Deps{
		Repo:        repository.NewRepository(database),
		Concurrency: cfg.CompareConcurrency,
	}

	if cfg.S3Enabled {
		deps.Storage, err = storage.NewS3Storage(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", "error", err)
		}
	}

	if cfg.LLMConfigured() {
		client, err := llm.NewClient(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize LLM client", "error", err, "provider", cfg.LLMProvider)
		}
		if closer, ok := client.(io.Closer); ok {
			defer closer.Close()
		}
		deps.Analyzer = analyzer.NewAnalyzer(client, cfg.Prompts, logger, analyzer.WithMaxText(cfg.MaxPromptChars))
		if lister, ok := client.(llm.ModelLister); ok {
			deps.ModelLister = lister
		}
	} else {
		logger.Warn("LLM_API_KEY is not set; comparisons will be rejected until it is configured")
	}

	comparisonService := services.NewService(deps, logger)

	// Setup HTTP router
	handler := router.NewRouter(comparisonService, cfg.MaxUploadSize, logger)

	// LLM extraction of several pairs takes minutes, not seconds.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"llm_provider", cfg.LLMProvider,
			"llm_model", cfg.LLMModel,
			"s3_enabled", cfg.S3Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
