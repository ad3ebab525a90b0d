package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/daemon"
	"matchreel/internal/daemonctl"
	"matchreel/internal/history"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and run totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			running, err := daemonctl.IsRunning(cfg)
			if err != nil {
				return err
			}

			var status daemon.Status
			if running {
				client, err := daemonctl.NewClient(cfg)
				if err != nil {
					return err
				}
				status, err = client.Status(cmd.Context())
				if err != nil {
					return fmt.Errorf("query daemon: %w", err)
				}
			} else {
				status = daemon.Status{
					WatchDir:      cfg.Paths.WatchDir,
					WatchMode:     cfg.Watch.Mode,
					DryRun:        cfg.Workflow.DryRun,
					LockFilePath:  cfg.LockPath(),
					HistoryDBPath: cfg.HistoryDBPath(),
				}
				store, err := history.Open(cfg)
				if err != nil {
					status.HistoryError = err.Error()
				} else {
					counts, err := store.Counts(cmd.Context())
					if err != nil {
						status.HistoryError = err.Error()
					}
					status.History = counts
					store.Close()
				}
			}

			if asJSON {
				return writeJSON(cmd, status)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(statusPairs(status)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func statusPairs(s daemon.Status) [][2]string {
	daemonLine := "not running"
	if s.Running {
		daemonLine = fmt.Sprintf("running (pid %d)", s.PID)
		if s.StartedAt != nil {
			daemonLine += ", up " + time.Since(*s.StartedAt).Round(time.Second).String()
		}
	}
	pairs := [][2]string{
		{"Daemon", daemonLine},
		{"Watch dir", s.WatchDir},
		{"Watch mode", valueOrDash(s.WatchMode)},
		{"Dry run", yesNo(s.DryRun)},
	}
	if s.WatchError != "" {
		pairs = append(pairs, [2]string{"Watcher", "failed: " + s.WatchError})
	}
	if s.Running {
		current := "idle"
		if s.Worker.Current != "" {
			current = filepath.Base(s.Worker.Current)
		}
		pairs = append(pairs,
			[2]string{"Processing", current},
			[2]string{"Queued", strconv.Itoa(s.QueueDepth)},
			[2]string{"This session", fmt.Sprintf("%d processed, %d failed", s.Worker.Processed, s.Worker.Failed)},
		)
		if last := s.Worker.LastRun; last != nil {
			pairs = append(pairs, [2]string{"Last run", fmt.Sprintf("%s %s", filepath.Base(last.Path), last.State)})
		}
	}
	runs := fmt.Sprintf("%d total, %d succeeded, %d failed", s.History.Total, s.History.Succeeded, s.History.Failed)
	if s.HistoryError != "" {
		runs = "unavailable: " + s.HistoryError
	}
	pairs = append(pairs, [2]string{"History", runs})
	return pairs
}
