package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ytplayer/internal/acquire"
	"ytplayer/internal/logging"
	"ytplayer/internal/metrics"
	"ytplayer/internal/workers"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		user       string
		quality    int
		segment    int
		maxItems   int
		maxMinutes int
	)

	cmd := &cobra.Command{
		Use:   "download <playlist-url>",
		Short: "Download a playlist into a new HLS playlist folder",
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

			runCtx := cmd.Context()
			if addr := strings.TrimSpace(cfg.Metrics.Listen); addr != "" {
				reg := prometheus.NewRegistry()
				metrics.Register(reg)
				go func() {
					if err := metrics.Serve(runCtx, addr, reg, logger); err != nil {
						logging.WarnWithContext(logger, "metrics listener stopped", "metrics_failed",
							logging.Error(err),
							logging.String(logging.FieldErrorHint, "check metrics.listen"),
						)
					}
				}()
			}

			budget := workers.NewBudget(runCtx, cfg.Workers.ThreadBudget, cfg.Workers.LimitToCores, logger)
			downloader, err := acquire.NewFromConfig(cfg, store, budget, logger)
			if err != nil {
				return err
			}
			req := acquire.Request{
				Username:       user,
				PlaylistURL:    args[0],
				Quality:        acquire.UseDefault,
				SegmentSeconds: segment,
				MaxItems:       maxItems,
				MaxItemMinutes: acquire.UseDefault,
			}
			if cmd.Flags().Changed("quality") {
				req.Quality = quality
			}
			if cmd.Flags().Changed("max-minutes") {
				req.MaxItemMinutes = maxMinutes
			}
			summary, err := downloader.Download(runCtx, req)
			downloader.WaitCleanups()
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}
			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Account that owns the new playlist")
	cmd.Flags().IntVar(&quality, "quality", 0, "Audio quality 0 (best) to 9 (smallest); defaults to download.quality")
	cmd.Flags().IntVar(&segment, "segment", 0, "HLS segment length in seconds")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "Stop after this many items succeed")
	cmd.Flags().IntVar(&maxMinutes, "max-minutes", 0, "Skip items longer than this many minutes; 0 disables the limit (defaults to youtube.max_item_minutes)")
	return cmd
}

func printSummary(cmd *cobra.Command, s acquire.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Playlist %s: %s\n", s.Playlist, s.Status)
	rows := [][]string{
		{"Staged", fmt.Sprintf("%d", s.Staged)},
		{"Excluded", fmt.Sprintf("%d", s.Excluded)},
		{"Downloaded", fmt.Sprintf("%d", s.Succeeded)},
		{"Failed", fmt.Sprintf("%d", s.Failed)},
		{"Dropped pages", fmt.Sprintf("%d", s.DroppedPages)},
		{"Length", formatSeconds(s.Total)},
		{"Elapsed", s.Elapsed.Round(time.Second).String()},
	}
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	if s.ManifestPath != "" {
		fmt.Fprintf(out, "Manifest: %s\n", s.ManifestPath)
	}
}
