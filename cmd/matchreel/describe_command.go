package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/catalog"
	"matchreel/internal/describe"
	"matchreel/internal/opendota"
)

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	var recordingStart string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "describe <match-id>",
		Short: "Render the title, description, and tags for a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			matchID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || matchID <= 0 {
				return fmt.Errorf("invalid match id %q", args[0])
			}

			client := opendota.NewFromConfig(cfg)
			match, err := client.Match(cmd.Context(), matchID)
			if err != nil {
				return err
			}
			cats, err := catalog.NewCache(client).Load(cmd.Context())
			if err != nil {
				return err
			}

			start := match.Start()
			if value := strings.TrimSpace(recordingStart); value != "" {
				start, err = time.Parse(time.RFC3339, value)
				if err != nil {
					return fmt.Errorf("parse --recording-start: %w", err)
				}
			}

			meta := describe.Build(describe.Input{
				Match:          match,
				PlayerID:       cfg.Matching.PlayerID,
				Catalogs:       cats,
				RecordingStart: start,
				ExtraTags:      cfg.YouTube.Tags,
			})
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"match_id":         matchID,
					"title":            meta.Title,
					"description":      meta.Description,
					"tags":             meta.Tags,
					"thumbnail_prompt": meta.ThumbnailPrompt,
					"hero":             meta.Hero,
					"result":           meta.Result,
					"patch":            meta.Patch,
					"player_found":     meta.PlayerFound,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, meta.Title)
			fmt.Fprintln(out)
			fmt.Fprintln(out, meta.Description)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Tags: %s\n", strings.Join(meta.Tags, ", "))
			if !meta.PlayerFound {
				fmt.Fprintf(out, "Note: player %d is not in match %d\n", cfg.Matching.PlayerID, matchID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&recordingStart, "recording-start", "", "Recording start (RFC 3339); defaults to the match start")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
