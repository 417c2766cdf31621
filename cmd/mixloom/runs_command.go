package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mixloom/internal/ledger"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ledger.DefaultPath()
			if err != nil {
				return fmt.Errorf("locate run history: %w", err)
			}
			store, err := ledger.Open(path)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No recorded runs")
				return nil
			}

			headers := []string{"Run ID", "Started", "Duration", "Tracks", "Status", "Output"}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					shortRunID(entry.RunID),
					entry.StartedAt.Local().Format("2006-01-02 15:04"),
					formatRunDuration(entry),
					strconv.Itoa(entry.TrackCount),
					entry.Status,
					entry.OutputDir,
				})
			}

			if isTerminal(os.Stdout) {
				fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
					alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft,
				}))
			} else {
				for _, row := range rows {
					fmt.Fprintln(out, strings.Join(row, "\t"))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRunDuration(entry ledger.Entry) string {
	if entry.FinishedAt.Before(entry.StartedAt) {
		return "-"
	}
	return entry.FinishedAt.Sub(entry.StartedAt).Round(time.Second).String()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
