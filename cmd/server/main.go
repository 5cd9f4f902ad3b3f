// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/tomtom215/techstack/docs" // Import generated swagger docs
	"github.com/tomtom215/techstack/internal/api"
	"github.com/tomtom215/techstack/internal/cache"
	"github.com/tomtom215/techstack/internal/config"
	"github.com/tomtom215/techstack/internal/database"
	"github.com/tomtom215/techstack/internal/ingest"
	"github.com/tomtom215/techstack/internal/llm"
	"github.com/tomtom215/techstack/internal/logging"
	"github.com/tomtom215/techstack/internal/metrics"
	"github.com/tomtom215/techstack/internal/scraper"
	"github.com/tomtom215/techstack/internal/supervisor"
	"github.com/tomtom215/techstack/internal/supervisor/services"
	ws "github.com/tomtom215/techstack/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("Starting Techstack with supervisor tree")

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := scraper.New(cfg.Scraper)
	if cfg.Scraper.HeadlessEnabled {
		logging.Info().Int("min_text_chars", cfg.Scraper.MinTextChars).Msg("Headless rendering enabled for script-heavy pages")
	}

	// A missing LLM is not fatal: ingestion falls back to scraped metadata.
	var (
		llmClient *llm.Client
		enricher  ingest.Enricher
	)
	provider, err := llm.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		logging.Warn().Err(err).Msg("LLM enrichment disabled - ingestion will use scraped metadata only")
	case err != nil:
		logging.Fatal().Err(err).Msg("Failed to initialize LLM provider")
	default:
		llmClient = llm.NewClient(provider, cfg.LLM.MaxInputChars)
		enricher = llmClient
		logging.Info().Str("provider", provider.Name()).Msg("LLM enrichment enabled")
	}

	taxonomyCache := cache.New("taxonomy", cfg.Cache.TaxonomyTTL)
	defer taxonomyCache.Stop()
	pipeline := ingest.NewPipeline(fetcher, enricher, db, taxonomyCache, cfg.Ingest.JobTimeout)

	jobStore, err := openJobStore(cfg.Ingest)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open ingest job store")
	}
	defer func() {
		if err := jobStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing ingest job store")
		}
	}()

	wsHub := ws.NewHub()
	ingestSvc := ingest.NewService(pipeline, jobStore, wsHub, cfg.Ingest, cfg.Cache)
	if n, err := ingestSvc.RecoverInterrupted(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to recover interrupted ingest jobs")
	} else if n > 0 {
		logging.Warn().Int("count", n).Msg("Marked ingest jobs interrupted by the last shutdown as failed")
	}

	handler := api.NewHandler(db, cfg, wsHub)
	handler.SetIngest(ingestSvc, pipeline)
	handler.RegisterCache("taxonomy", taxonomyCache)
	if llmClient != nil {
		handler.SetLLM(llmClient)
	}

	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(cfg.Security))
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Synchronous LLM calls (task generation, classification) may
		// outlast the regular request timeout.
		WriteTimeout: cfg.Server.Timeout + cfg.LLM.Timeout,
		IdleTimeout:  2 * time.Minute,
	}

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(services.NewCheckpointService(db, cfg.Database.CheckpointInterval))
	tree.AddIngestService(ingestSvc)
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, addr, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				reloadLogLevel()
				continue
			}
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
			return
		}
	}()

	logging.Info().Str("addr", addr).Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// The channel yields exactly one value when the tree stops; it is
	// never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openJobStore returns the badger-backed store when a path is configured
// and an in-memory store otherwise.
func openJobStore(cfg config.IngestConfig) (ingest.JobStore, error) {
	if cfg.JobStorePath == "" {
		logging.Info().Msg("Ingest jobs kept in memory (INGEST_JOB_STORE_PATH not set)")
		return ingest.NewMemoryJobStore(cfg.JobRetention), nil
	}
	store, err := ingest.OpenBadgerJobStore(cfg.JobStorePath, cfg.JobRetention)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("path", cfg.JobStorePath).Msg("Ingest jobs persisted with BadgerDB")
	return store, nil
}

// reloadLogLevel re-reads the configuration and applies its log level.
// Other settings need a restart.
func reloadLogLevel() {
	cfg, err := config.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("Config reload failed, keeping current log level")
		return
	}
	logging.SetLevelString(cfg.Logging.Level)
	logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
}
