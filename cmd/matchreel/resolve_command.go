package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/matching"
	"matchreel/internal/opendota"
	"matchreel/internal/recording"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Show which match a recording resolves to without writing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cfg)
			if err != nil {
				return err
			}
			instant, err := recording.StartTimeFromPath(args[0], cfg.Recording.Timezone)
			if err != nil {
				return err
			}
			client := opendota.NewFromConfig(cfg)
			resolver := matching.NewResolver(client,
				matching.WithHistoryLimit(cfg.Matching.HistoryLimit),
				matching.WithLogger(logger),
			)
			before, after := cfg.MatchWindow()
			res, err := resolver.Resolve(cmd.Context(), cfg.Matching.PlayerID, instant, matching.Window{Before: before, After: after})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{
					"recording_start": instant.UTC().Format(time.RFC3339),
					"match_id":        res.MatchID,
					"match_start":     res.MatchStart.UTC().Format(time.RFC3339),
					"pass":            res.Pass.String(),
					"distance":        res.Distance.String(),
					"lookback_days":   res.LookbackDays,
				})
			}
			pairs := [][2]string{
				{"Recording start", instant.UTC().Format(time.RFC3339)},
				{"Match", fmt.Sprintf("%d", res.MatchID)},
				{"Match start", res.MatchStart.UTC().Format(time.RFC3339)},
				{"Pass", res.Pass.String()},
				{"Distance", res.Distance.String()},
			}
			if res.LookbackDays > 0 {
				pairs = append(pairs, [2]string{"Lookback", fmt.Sprintf("%d days", res.LookbackDays)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPairs(pairs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
