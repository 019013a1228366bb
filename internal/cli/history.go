package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raphaelgruber/docdesk/internal/config"
	"github.com/raphaelgruber/docdesk/internal/history"
	"github.com/raphaelgruber/docdesk/internal/models"
	"github.com/raphaelgruber/docdesk/internal/service"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
	historyForce bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage translation history",
	Long: `Browse and manage past translations, newest first.

Where history is kept depends on DOCDESK_HISTORY_BACKEND: "remote" uses the
gateway, "sqlite" and "surrealdb" use a database directly.

Examples:
  docdesk history
  docdesk history list -n 10 --json
  docdesk history delete 6f1c...
  docdesk history watch`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past translations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a translation from history",
	Long: `Delete a translation from history.

Requires confirmation unless --force is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryDelete,
}

var historyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow history changes on the gateway",
	Args:  cobra.NoArgs,
	RunE:  runHistoryWatch,
}

func init() {
	for _, c := range []*cobra.Command{historyCmd, historyListCmd} {
		c.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultListLimit, "max results")
		c.Flags().BoolVar(&historyJSON, "json", false, "print full records as JSON")
	}
	historyDeleteCmd.Flags().BoolVarP(&historyForce, "force", "f", false, "skip confirmation")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyWatchCmd)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	store, closeStore, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.List(ctx, historyLimit)
	if err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionHistoryList, err)
	}

	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No translation history yet.")
		return nil
	}

	fmt.Fprintf(out, "Translations (%d):\n\n", len(records))
	for _, rec := range records {
		printRecord(out, history.Display(rec))
	}
	return nil
}

// languageLabel names a stored language code, falling back to the raw code.
func languageLabel(code string) string {
	if l, ok := service.LookupLanguage(code); ok {
		return l.Name
	}
	return code
}

func printRecord(w io.Writer, d history.DisplayRecord) {
	fmt.Fprintf(w, "- %s  %s → %s  [%s]\n",
		d.Date, languageLabel(d.SourceLanguage), languageLabel(d.TargetLanguage), d.ID)
	fmt.Fprintf(w, "  %s\n", d.SourceText)
	fmt.Fprintf(w, "  %s\n", d.TranslatedText)
	if verbose {
		fmt.Fprintln(w)
	}
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if !historyForce {
		fmt.Fprintf(out, "About to delete translation %s\n", id)
		fmt.Fprint(out, "\nContinue? [y/N]: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		response, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	store, closeStore, err := openHistory(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Delete(ctx, id); err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionHistoryDelete, err)
	}

	fmt.Fprintf(out, "Deleted: %s\n", id)
	return nil
}

func runHistoryWatch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if cfg.HistoryBackend != config.BackendRemote {
		logger.Warn("watching gateway history; local backend changes are not streamed", "backend", cfg.HistoryBackend)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching history on %s (Ctrl+C to stop)\n", gateway.Endpoint())
	err := gateway.WatchHistory(ctx, func(ev models.HistoryEvent) error {
		switch ev.Type {
		case models.HistoryEventAppended:
			fmt.Fprintln(out, "+ added")
			printRecord(out, history.Display(ev.Record))
		case models.HistoryEventDeleted:
			fmt.Fprintf(out, "- deleted [%s]\n", ev.Record.ID)
		default:
			logger.Debug("ignoring history event", "type", ev.Type, "id", ev.ID)
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fail(cmd.ErrOrStderr(), service.ActionHistoryList, err)
	}
	return nil
}
