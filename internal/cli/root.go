// Package cli provides the command-line interface for docdesk.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/docdesk/internal/client"
	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/raphaelgruber/docdesk/internal/db"
	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Set up by PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	gateway    *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "docdesk",
	Short: "Ask questions about documents and translate text",
	Long: `Docdesk extracts the text of a document and lets you hold a conversation
about it, translates text between Indian languages and English, and keeps
a history of past translations.

All heavy lifting happens on the docdesk gateway (DOCDESK_SERVER_URL).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		stderrLevel := slog.LevelWarn
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg, stderrLevel)

		gateway = client.New(cfg.ServerURL, cfg.ClientTimeout)
		logger.Debug("gateway configured", "url", gateway.Endpoint(), "timeout", cfg.ClientTimeout)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// openHistory returns the configured history store and a function to release it.
func openHistory(ctx context.Context) (history.Store, func(), error) {
	switch cfg.HistoryBackend {
	case config.BackendRemote:
		return gateway.History(), func() {}, nil

	case config.BackendMemory:
		return history.NewMemoryStore(), func() {}, nil

	case config.BackendSQLite:
		store, err := history.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history database: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("close history database", "error", err)
			}
		}, nil

	case config.BackendSurrealDB:
		dbClient, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to history database: %w", err)
		}
		if err := dbClient.InitSchema(ctx); err != nil {
			_ = dbClient.Close(ctx)
			return nil, nil, fmt.Errorf("initialize history schema: %w", err)
		}
		return dbClient, func() {
			if err := dbClient.Close(context.Background()); err != nil {
				logger.Warn("close history database", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown history backend: %s", cfg.HistoryBackend)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(languagesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
}
