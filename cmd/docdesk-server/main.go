// Package main provides the docdesk capability gateway.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/raphaelgruber/docdesk/internal/db"
	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/llm"
	"github.com/raphaelgruber/docdesk/internal/metrics"
	"github.com/raphaelgruber/docdesk/internal/parser"
	"github.com/raphaelgruber/docdesk/internal/server"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe translation history on startup (testing only)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Dual output: stderr text + file JSON
	logger, cleanup := config.SetupLogger(cfg, cfg.LogLevel)
	defer func() { _ = cleanup() }()
	slog.SetDefault(logger)

	logger.Info("docdesk-server starting",
		"version", version,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"history_backend", cfg.ServerHistoryBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *wipeDB || os.Getenv("DOCDESK_WIPE_DB") == "true"); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger, wipe bool) error {
	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	store, closeStore, err := openHistory(setupCtx, cfg, logger, wipe)
	if err != nil {
		return err
	}
	defer closeStore()

	model, err := llm.NewModel(setupCtx, cfg)
	if err != nil {
		return err
	}
	logger.Info("model initialized", "model", model.Model())

	var vision parser.ImageReader
	if cfg.OpenAIAPIKey != "" || cfg.VisionBaseURL != "" {
		vision = llm.NewVision(cfg)
		logger.Info("vision OCR enabled", "model", cfg.VisionModel)
	} else {
		logger.Warn("vision OCR disabled; set OPENAI_API_KEY or DOCDESK_VISION_BASE_URL to read images")
	}

	srv := server.New(server.Deps{
		Extractor:  parser.NewExtractor(vision),
		Translator: model,
		Answerer:   model,
		History:    store,
		Metrics:    metrics.NewCollector(),
		Logger:     logger,
	})
	return srv.Run(ctx, ":"+cfg.Port)
}

func openHistory(ctx context.Context, cfg config.Config, logger *slog.Logger, wipe bool) (history.Store, func(), error) {
	switch cfg.ServerHistoryBackend {
	case config.BackendSurrealDB:
		dbClient, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			logger.Info("closing database connection")
			_ = dbClient.Close(context.Background())
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		if wipe {
			if err := dbClient.WipeData(ctx); err != nil {
				closeFn()
				return nil, nil, err
			}
		}
		return dbClient, closeFn, nil

	case config.BackendMemory:
		return history.NewMemoryStore(), func() {}, nil

	default:
		if wipe {
			if err := os.Remove(cfg.SQLitePath); err != nil && !os.IsNotExist(err) {
				return nil, nil, err
			}
		}
		store, err := history.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("history database opened", "path", cfg.SQLitePath)
		return store, func() { _ = store.Close() }, nil
	}
}
