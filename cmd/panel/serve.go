package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/user/crawler-panel/internal/adapter/memory"
	redis_adapter "github.com/user/crawler-panel/internal/adapter/redis"
	"github.com/user/crawler-panel/internal/catalog"
	"github.com/user/crawler-panel/internal/delivery/http/handler"
	"github.com/user/crawler-panel/internal/delivery/http/middleware"
	"github.com/user/crawler-panel/internal/delivery/http/router"
	"github.com/user/crawler-panel/internal/delivery/http/view"
	"github.com/user/crawler-panel/internal/repository"
	"github.com/user/crawler-panel/internal/usecase"
	"github.com/user/crawler-panel/pkg/logger"
)

const (
	shutdownTimeout       = 15 * time.Second
	memoryCleanupInterval = 5 * time.Minute
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web panel (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// --- Configuration ---
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel, cfg.LogFormat)
	slog.Info("Logger initialized", "level", logLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Crawler API ---
	api, err := newAPIClient(cfg)
	if err != nil {
		slog.Error("Unable to create crawler API client", "error", err)
		return err
	}
	slog.Info("Crawler API client ready", "base_url", api.BaseURL(), "proxy", cfg.ProxyURL != "")

	// --- Page State Store ---
	var (
		pageRepo     repository.PageStateRepository
		inFlightRepo repository.InFlightRepository
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "addr", cfg.RedisAddr, "error", err)
			return err
		}
		slog.Info("Redis connection established", "addr", cfg.RedisAddr)
		pageRepo = redis_adapter.NewPageStateRepo(rdb)
		inFlightRepo = redis_adapter.NewInFlightRepo(rdb)
	} else {
		slog.Info("REDIS_ADDR not set, keeping page state in memory", "max_entries", cfg.MemoryMaxEntries)
		pages := memory.NewPageStateRepo(memory.WithMaxEntries(cfg.MemoryMaxEntries))
		locks := memory.NewInFlightRepo()
		memory.StartCleanupTask(ctx, memoryCleanupInterval, pages, locks)
		pageRepo, inFlightRepo = pages, locks
	}

	// --- Use Cases ---
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	submitter := usecase.NewJobSubmitter(api, pageRepo, inFlightRepo, cat, usecase.SubmitterConfig{
		StateTTL:    cfg.SessionTTL(),
		InFlightTTL: cfg.InFlightTTL(),
	})
	monitor := usecase.NewStatusMonitor(api)

	// --- HTTP Server ---
	views, err := view.New()
	if err != nil {
		return err
	}
	panelHandler := handler.NewHandler(submitter, monitor, cat, views, api.BaseURL())
	sessions := middleware.NewSessions(cfg.SessionSecret, cfg.SessionTTL())
	httpRouter := router.New(panelHandler, sessions)

	// No WriteTimeout: a sync crawl holds its request open until the API answers.
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           httpRouter,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// First check so /api/status is meaningful before anyone opens the page.
	go monitor.Refresh(ctx)

	select {
	case err, ok := <-errCh:
		if ok {
			slog.Error("Could not listen on port", "port", cfg.ServerPort, "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
