package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/fileutil"
	"matchreel/internal/history"
	"matchreel/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "process <file>...",
		Short: "Run recordings through the pipeline once, sequentially",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			var opts []pipeline.Option
			if noWait {
				opts = append(opts, pipeline.WithStability(fileutil.StabilityPolicy{Interval: 50 * time.Millisecond}))
			}
			proc, err := pipeline.NewFromConfig(cmd.Context(), cfg, logger, store, opts...)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(args))
			failed := 0
			for _, arg := range args {
				path, err := filepath.Abs(strings.TrimSpace(arg))
				if err != nil {
					return fmt.Errorf("resolve %q: %w", arg, err)
				}
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("recording %s: %w", path, err)
				}
				run := proc.Process(cmd.Context(), path)
				if !run.Succeeded() {
					failed++
				}
				rows = append(rows, runRow(run))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Recording", "State", "Match", "Video", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			if failed > 0 {
				return fmt.Errorf("%d of %d recording(s) failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Skip the file stability wait (recording already complete)")
	cmd.Flags().BoolVar(&ctx.dryRun, "dry-run", false, "Write descriptions but skip uploads")
	return cmd
}

func runRow(run *pipeline.Run) []string {
	match, video, errText := "-", "-", "-"
	if run.MatchID != nil {
		match = fmt.Sprintf("%d", *run.MatchID)
	}
	if run.VideoID != nil {
		video = *run.VideoID
	} else if run.DryRun && run.Succeeded() {
		video = "(dry run)"
	}
	if run.Err != nil {
		errText = run.FailedStage + ": " + run.Err.Error()
		if errors.Is(run.Err, fileutil.ErrFileMissing) {
			errText = "recording disappeared"
		}
	}
	return []string{filepath.Base(run.Path), string(run.State), match, video, errText}
}
