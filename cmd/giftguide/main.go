// Gift guide quickview service - serves the quickview modal over REST and MCP
// against a storefront's product and cart endpoints.
// Designed for Cloud Run deployment; the modal session lives in memory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giftguide/internal/bundle"
	"giftguide/internal/config"
	"giftguide/internal/handler"
	"giftguide/internal/middleware"
	"giftguide/internal/quickview"
	"giftguide/internal/storefront"
)

// prefetchTimeout bounds the startup cache warm-up.
const prefetchTimeout = 20 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("store_id", cfg.StoreID),
		slog.String("environment", cfg.Environment),
		slog.String("store_domain", cfg.Store.StoreDomain),
		slog.String("currency", cfg.Store.Currency),
		slog.Int("hotspots", len(cfg.Store.Hotspots)),
		slog.Bool("tls_fingerprint", cfg.Store.TLSFingerprint),
	)

	// Storefront client and the process-lifetime product cache
	client, err := storefront.New(cfg.StorefrontConfig(), logger)
	if err != nil {
		return fmt.Errorf("creating storefront client: %w", err)
	}
	cache := storefront.NewCache(client, logger)

	// Warm the cache for every hotspot; failures only cost a fetch later
	if handles := cfg.PrefetchHandles(); len(handles) > 0 {
		prefetchCtx, cancel := context.WithTimeout(ctx, prefetchTimeout)
		if err := cache.Prefetch(prefetchCtx, handles); err != nil {
			logger.Warn("prefetch incomplete", slog.String("error", err.Error()))
		}
		cancel()
		logger.Info("products prefetched", slog.Int("cached", cache.Len()))
	}

	rule := bundle.NewRule(cache, cfg.Store.Bundle.TriggerValues)
	controller := quickview.NewController(cache, client, rule, cfg.Money(), logger)

	h := handler.New(controller, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request ID → logging → no-store → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.NoStore(),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests (including in-flight cart adds) time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
