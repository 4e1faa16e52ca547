package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ytplayer/internal/deps"
	"ytplayer/internal/transcode"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and writable directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(cmd.Context(), deps.Requirements(cfg))
			for _, s := range statuses {
				if s.Name == "FFmpeg" && s.Available {
					statuses = append(statuses, deps.CheckEncoder(cmd.Context(), s.Path, transcode.AudioEncoder))
					break
				}
			}
			statuses = append(statuses,
				deps.CheckWritableDir("user_root", cfg.Paths.UserRoot),
				deps.CheckWritableDir("log_dir", cfg.Paths.LogDir),
			)
			missing := deps.Missing(statuses)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, statuses); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(statuses))
				for _, s := range statuses {
					state := "ok"
					if !s.Available {
						state = "missing"
					}
					detail := s.Version
					if s.Detail != "" {
						detail = s.Detail
					}
					rows = append(rows, []string{s.Name, state, s.Command, detail})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"Dependency", "State", "Command", "Detail"},
					rows,
					nil,
				))
			}
			if len(missing) > 0 {
				return fmt.Errorf("%d required dependencies unavailable", len(missing))
			}
			return nil
		},
	}
}
