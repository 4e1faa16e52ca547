package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytplayer/internal/acquire"
	"ytplayer/internal/workers"
)

func newShuffleCommand(ctx *commandContext) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "shuffle <playlist>",
		Short: "Shuffle a finished playlist and rebuild its manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(user) == "" {
				return fmt.Errorf("--user is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			budget := workers.NewBudget(cmd.Context(), cfg.Workers.ThreadBudget, cfg.Workers.LimitToCores, logger)
			downloader, err := acquire.NewFromConfig(cfg, store, budget, logger)
			if err != nil {
				return err
			}
			total, err := downloader.Shuffle(cmd.Context(), user, args[0], nil)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{"playlist": args[0], "total": total})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Shuffled %s (%s)\n", args[0], formatSeconds(total))
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Account that owns the playlist")
	return cmd
}
