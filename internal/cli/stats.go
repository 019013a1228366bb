package cli

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/raphaelgruber/docdesk/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show gateway statistics",
	Long: `Show gateway runtime statistics: request counts, errors and latency per operation.

Statistics are kept in memory and reset when the gateway restarts.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	stats, err := gateway.Stats(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("get server stats: %w", err)
	}
	printServerStats(cmd.OutOrStdout(), stats)
	return nil
}

// printServerStats displays gateway runtime statistics.
func printServerStats(w io.Writer, stats metrics.Snapshot) {
	fmt.Fprintf(w, "Gateway Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %s\n", (time.Duration(stats.UptimeSeconds) * time.Second).String())

	if len(stats.Operations) == 0 {
		fmt.Fprintf(w, "\nNo requests served yet.\n")
		return
	}

	ops := make([]string, 0, len(stats.Operations))
	for op := range stats.Operations {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	fmt.Fprintf(w, "\n%-12s %8s %8s %10s %10s  %s\n", "OPERATION", "COUNT", "ERRORS", "AVG", "MAX", "LAST ERROR")
	for _, op := range ops {
		s := stats.Operations[op]
		fmt.Fprintf(w, "%-12s %8d %8d %8.0fms %8dms  %s\n", op, s.Count, s.Errors, s.AvgTimeMs, s.MaxTimeMs, s.LastError)
	}
}
