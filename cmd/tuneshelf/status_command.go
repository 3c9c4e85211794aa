package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tuneshelf/internal/api"
	"tuneshelf/internal/daemonrun"
	"tuneshelf/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and review queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := newDaemonClient(cfg)
			var status api.DaemonStatus
			if err == nil {
				err = client.get(cmd.Context(), "/api/status", &status)
			}
			if err != nil {
				if !errors.Is(err, errDaemonUnreachable) {
					return err
				}
				// Fall back to the local store when the daemon is down.
				svc, _, openErr := ctx.reviewService()
				if openErr != nil {
					return openErr
				}
				counts, statsErr := svc.Stats(cmd.Context())
				if statsErr != nil {
					return statsErr
				}
				status = api.DaemonStatus{
					DatabasePath: cfg.DatabasePath(),
					ItemCounts:   api.StatusCounts(counts),
				}
				if pid, pidErr := daemonrun.ReadPID(cfg); pidErr == nil {
					status.PID = pid
				}
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			printDaemonStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printDaemonStatus(out io.Writer, status api.DaemonStatus) {
	fmt.Fprintf(out, "Daemon:   %s\n", daemonState(status))
	fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
	if status.Running {
		fmt.Fprintf(out, "LLM:      %s\n", yesNo(status.LLMEnabled))
		fmt.Fprintf(out, "Intake:   %s\n", scanSummary(status.Intake))
		fmt.Fprintf(out, "Library:  %s\n", scanSummary(status.Library))
	}
	rows := buildStatusRows(status.ItemCounts)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No items under review")
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func daemonState(status api.DaemonStatus) string {
	switch {
	case status.Running:
		return fmt.Sprintf("running (pid %d)", status.PID)
	case status.PID > 0:
		return fmt.Sprintf("not reachable (stale pid %d)", status.PID)
	default:
		return "not running"
	}
}

func buildStatusRows(counts map[string]int) [][]string {
	all := queue.AllStatuses()
	order := make(map[string]int, len(all))
	for i, status := range all {
		order[string(status)] = i
	}
	keys := make([]string, 0, len(counts))
	for key, count := range counts {
		if count > 0 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), strconv.Itoa(counts[key])})
	}
	return rows
}

func scanSummary(status api.ScanStatus) string {
	if status.IsScanning {
		return fmt.Sprintf("scanning %d/%d", status.Processed, status.Total)
	}
	finished, err := time.Parse(time.RFC3339, status.FinishedAt)
	if status.FinishedAt == "" || err != nil {
		return "idle"
	}
	summary := fmt.Sprintf("last pass %s, %d files", humanize.Time(finished), status.Processed)
	if n := len(status.Errors); n > 0 {
		summary += fmt.Sprintf(", %d errors", n)
	}
	return summary
}
