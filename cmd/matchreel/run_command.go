package main

import (
	"github.com/spf13/cobra"

	"matchreel/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the recording folder in the foreground until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: ctx.logLevel(), DryRun: ctx.dryRun})
		},
	}
	cmd.Flags().BoolVar(&ctx.dryRun, "dry-run", false, "Write descriptions but skip uploads")
	return cmd
}
