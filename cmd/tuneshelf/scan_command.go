package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tuneshelf/internal/api"
	"tuneshelf/internal/intake"
	"tuneshelf/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run one intake pass over the intake directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, _, err := ctx.reviewService()
			if err != nil {
				return err
			}
			logger := ctx.commandLogger()
			pass := intake.NewPass(cfg, svc, logger)
			status, err := scanner.NewWorker(intake.PassName, logger).Run(cmd.Context(), pass)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned %d files, %d new items\n", status.Processed, pass.Created())
			printScanErrors(out, api.FromScanStatus(status))
			return nil
		},
	}
}

func printScanErrors(out io.Writer, status api.ScanStatus) {
	if status.LastError != "" {
		fmt.Fprintf(out, "Pass error: %s\n", status.LastError)
	}
	if len(status.Errors) == 0 {
		return
	}
	rows := make([][]string, 0, len(status.Errors))
	for _, e := range status.Errors {
		rows = append(rows, []string{e.Path, e.Message})
	}
	fmt.Fprintln(out, renderTable([]string{"File", "Error"}, rows, nil))
}
