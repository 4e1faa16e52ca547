package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ytplayer/internal/staging"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove staging files left behind by interrupted downloads",
		Long: `Remove staging files left behind by interrupted downloads.

Only staging files older than staging_max_age_hours are removed. Use --list to
show every staging file under user_root without removing anything.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root := cfg.Paths.UserRoot

			if list {
				files, err := staging.List(root)
				if err != nil {
					return fmt.Errorf("list staging files: %w", err)
				}
				if ctx.JSONMode() {
					if files == nil {
						files = []staging.FileInfo{}
					}
					return writeJSON(cmd, files)
				}
				out := cmd.OutOrStdout()
				if len(files) == 0 {
					fmt.Fprintln(out, "No staging files found")
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					rows = append(rows, []string{f.Path, formatDuration(time.Since(f.ModTime)), formatBytes(f.Size)})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Path", "Age", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			}

			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			result := staging.CleanStale(cmd.Context(), root, cfg.StagingMaxAge(), logger)
			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Error))
				}
				return writeJSON(cmd, map[string]any{
					"removed": len(result.Removed),
					"errors":  errs,
				})
			}
			printCleanResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List staging files instead of removing stale ones")
	return cmd
}

func printCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No stale staging files")
		return
	}
	fmt.Fprintf(out, "Removed %d stale staging files", len(result.Removed))
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, ", %d errors\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Error)
		}
		return
	}
	fmt.Fprintln(out)
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
