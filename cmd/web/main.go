package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/invoice-checker/internal/client"
	"github.com/BerylCAtieno/invoice-checker/internal/config"
	"github.com/BerylCAtieno/invoice-checker/internal/form"
	"github.com/BerylCAtieno/invoice-checker/internal/utils"
	"github.com/BerylCAtieno/invoice-checker/internal/web"
)

const sessionIdle = 2 * time.Hour

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	compareClient := client.New(cfg.CompareURL, cfg.CompareTimeout)
	sessions := web.NewSessionStore(func() *form.Form {
		return form.New(compareClient, logger)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.WebPort,
		Handler:      web.NewServer(sessions, logger).Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(sessionIdle); n > 0 {
					logger.Debug("Expired idle sessions", "count", n, "active", sessions.Len())
				}
			}
		}
	}()

	go func() {
		logger.Info("Starting web UI", "port", cfg.WebPort, "compare_url", cfg.CompareURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down web UI...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("Web UI exited")
}
