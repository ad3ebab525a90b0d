package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"matchreel/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				if entries == nil {
					entries = []history.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, historyRow(e))
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Finished", "Recording", "Status", "Match", "Video", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func historyRow(e history.Entry) []string {
	match, video := "-", "-"
	if e.MatchID != nil {
		match = strconv.FormatInt(*e.MatchID, 10)
	}
	if e.VideoID != nil {
		video = *e.VideoID
	} else if e.DryRun {
		video = "(dry run)"
	}
	detail := "-"
	if e.Status == history.StatusError {
		detail = valueOrDash(e.FailedStage) + ": " + e.ErrorMessage
	}
	return []string{
		e.FinishedAt.Local().Format("2006-01-02 15:04"),
		filepath.Base(e.RecordingPath),
		e.Status,
		match,
		video,
		detail,
	}
}
