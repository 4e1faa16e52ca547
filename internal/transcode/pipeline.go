package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ytplayer/internal/logging"
	"ytplayer/internal/metrics"
	"ytplayer/internal/procexec"
	"ytplayer/internal/services"
	"ytplayer/internal/workers"
)

// ErrItemCollision is returned when the item directory already exists.
var ErrItemCollision = errors.New("item directory already exists")

// Options configures the external tools.
type Options struct {
	FetchBinary  string
	FFmpegBinary string
	AudioFilters []string
	GeoBypass    bool
}

// Request describes one item to download.
type Request struct {
	SourceURL      string
	DestDir        string
	ItemID         string
	Quality        int
	SegmentSeconds int
}

// Pipeline runs fetch/filter/encode chains under a shared thread budget.
type Pipeline struct {
	opts   Options
	budget *workers.Budget
	logger *slog.Logger

	cleanups sync.WaitGroup
}

// New builds a pipeline. Empty binary names fall back to yt-dlp and ffmpeg.
func New(opts Options, budget *workers.Budget, logger *slog.Logger) *Pipeline {
	if strings.TrimSpace(opts.FetchBinary) == "" {
		opts.FetchBinary = "yt-dlp"
	}
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	opts.AudioFilters = append([]string(nil), opts.AudioFilters...)
	return &Pipeline{
		opts:   opts,
		budget: budget,
		logger: logging.NewComponentLogger(logger, "transcode"),
	}
}

func (r Request) validate() error {
	switch {
	case strings.TrimSpace(r.SourceURL) == "":
		return services.Wrap(services.ErrValidation, "transcode", "request", "source url is required", nil)
	case strings.TrimSpace(r.DestDir) == "":
		return services.Wrap(services.ErrValidation, "transcode", "request", "destination directory is required", nil)
	case r.ItemID == "" || strings.ContainsAny(r.ItemID, `/\`) || r.ItemID == "." || r.ItemID == "..":
		return services.Wrap(services.ErrValidation, "transcode", "request", fmt.Sprintf("invalid item id %q", r.ItemID), nil)
	case r.Quality < 0 || r.Quality > 9:
		return services.Wrap(services.ErrValidation, "transcode", "request", fmt.Sprintf("quality %d outside 0-9", r.Quality), nil)
	case r.SegmentSeconds <= 0:
		return services.Wrap(services.ErrValidation, "transcode", "request", "segment length must be positive", nil)
	}
	return nil
}

// DownloadItem creates DestDir/ItemID, runs the three stages into it, and
// returns the directory. On failure the directory may hold partial output;
// pass it to ScheduleCleanup.
func (p *Pipeline) DownloadItem(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	itemDir := filepath.Join(req.DestDir, req.ItemID)
	if err := os.Mkdir(itemDir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrItemCollision, itemDir)
		}
		return "", fmt.Errorf("create item directory: %w", err)
	}

	threads := p.budget.Acquire()
	defer p.budget.Release()
	metrics.ActiveTranscodes.Inc()
	defer metrics.ActiveTranscodes.Dec()

	logger := logging.WithContext(ctx, p.logger).With(
		logging.String(logging.FieldItemID, req.ItemID),
		logging.String(logging.FieldSourceURL, req.SourceURL),
	)
	logger.Debug("item transcode started",
		logging.Int("threads", threads),
		logging.Int("active", p.budget.Active()),
	)
	start := time.Now()

	if err := p.run(ctx, req, itemDir, threads); err != nil {
		return itemDir, err
	}
	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

	logger.Info("item transcoded",
		logging.Duration("elapsed", time.Since(start)),
		logging.String(logging.FieldEventType, "item_transcoded"),
	)
	return itemDir, nil
}

type stage struct {
	label string
	proc  *procexec.Process
}

func (p *Pipeline) run(ctx context.Context, req Request, itemDir string, threads int) error {
	plan := []struct {
		label string
		inv   procexec.Invocation
	}{
		// Downstream stages start first so each writer has a reader.
		{"encode", procexec.Invocation{
			Name: p.opts.FFmpegBinary,
			Args: encodeArgs(threads, req.Quality, req.SegmentSeconds, req.ItemID),
			Dir:  itemDir,
		}},
		{"filter", procexec.Invocation{
			Name: p.opts.FFmpegBinary,
			Args: filterArgs(threads, p.opts.AudioFilters),
		}},
		{"fetch", procexec.Invocation{
			Name: p.opts.FetchBinary,
			Args: fetchArgs(req.SourceURL, p.opts.GeoBypass),
		}},
	}

	stages := make([]stage, 0, len(plan))
	defer func() {
		for _, s := range stages {
			_ = s.proc.Close()
		}
	}()
	for _, s := range plan {
		proc, err := procexec.Start(ctx, s.inv, p.logger)
		if err != nil {
			return fmt.Errorf("%s stage: %w", s.label, err)
		}
		stages = append(stages, stage{label: s.label, proc: proc})
	}
	encode, filter, fetch := stages[0].proc, stages[1].proc, stages[2].proc

	// Nothing reads the fetch tool's stdin.
	_ = fetch.Stdin().Close()

	var g errgroup.Group
	g.Go(func() error { return pipe(filter.Stdin(), fetch.Stdout()) })
	g.Go(func() error { return pipe(encode.Stdin(), filter.Stdout()) })
	copyErr := g.Wait()

	// The terminal stage decides the outcome; upstream failures are reported
	// when it succeeded anyway.
	for _, s := range stages {
		if _, err := s.proc.Wait(); err != nil {
			return fmt.Errorf("%s stage: %w", s.label, err)
		}
	}
	if copyErr != nil {
		return fmt.Errorf("stage pipe: %w", copyErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// pipe copies src to dst, then closes dst so the downstream stage sees EOF.
// When dst stops accepting data, src is closed too so the upstream stage
// stops instead of blocking on a full pipe.
func pipe(dst io.WriteCloser, src io.ReadCloser) error {
	_, err := io.Copy(dst, src)
	_ = dst.Close()
	if err == nil {
		return nil
	}
	_ = src.Close()
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

// ScheduleCleanup removes dir after delay. Failures are logged only.
func (p *Pipeline) ScheduleCleanup(dir string, delay time.Duration) {
	if strings.TrimSpace(dir) == "" {
		return
	}
	p.cleanups.Add(1)
	time.AfterFunc(delay, func() {
		defer p.cleanups.Done()
		if err := os.RemoveAll(dir); err != nil {
			metrics.CleanupFailuresTotal.Inc()
			logging.WarnWithContext(p.logger, "failed to remove item directory", "item_cleanup_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check user_root permissions"),
				logging.String(logging.FieldImpact, "partial item output left on disk"),
			)
			return
		}
		p.logger.Debug("removed item directory", logging.String("path", dir))
	})
}

// WaitCleanups blocks until every scheduled removal has run.
func (p *Pipeline) WaitCleanups() {
	p.cleanups.Wait()
}
