package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"ytplayer/internal/catalog"
	"ytplayer/internal/library"
	"ytplayer/internal/logging"
	"ytplayer/internal/metrics"
	"ytplayer/internal/services"
	"ytplayer/internal/staging"
	"ytplayer/internal/timeline"
	"ytplayer/internal/transcode"
)

// run holds the state of one Download call.
type run struct {
	d           *Downloader
	req         Request
	user        *library.User
	name        string
	playlistDir string
	logger      *slog.Logger
	summary     *Summary
}

func (r *run) execute(ctx context.Context, playlistID string) error {
	stagingPath := filepath.Join(r.playlistDir, staging.FileName)
	defer r.removeStaging(stagingPath)
	if err := r.stage(ctx, playlistID, stagingPath); err != nil {
		return err
	}

	tl, err := timeline.Load(filepath.Join(r.playlistDir, timeline.FileName))
	if err != nil {
		return err
	}
	if err := r.consume(ctx, stagingPath, tl); err != nil {
		return err
	}
	return r.finish(tl)
}

// stage writes every usable catalog entry to the staging file.
func (r *run) stage(ctx context.Context, playlistID, path string) error {
	writer, err := staging.Create(path)
	if err != nil {
		return err
	}
	result, fetchErr := r.d.fetcher.Fetch(ctx, playlistID, r.req.MaxItemMinutes, writer)
	if err := writer.Close(); err != nil && fetchErr == nil {
		fetchErr = err
	}

	r.summary.Staged = result.Staged
	r.summary.Excluded = result.Excluded + result.Unavailable
	r.summary.DroppedPages = result.DroppedPages
	metrics.CatalogPagesTotal.WithLabelValues("ok").Add(float64(result.Pages))
	metrics.CatalogPagesTotal.WithLabelValues("dropped").Add(float64(result.DroppedPages))
	metrics.ItemsStagedTotal.Add(float64(result.Staged))
	metrics.ItemsExcludedTotal.WithLabelValues("too_long").Add(float64(result.Excluded))
	metrics.ItemsExcludedTotal.WithLabelValues("unavailable").Add(float64(result.Unavailable))

	if fetchErr != nil {
		return fmt.Errorf("stage catalog: %w", fetchErr)
	}
	r.logger.Info("catalog staged",
		logging.Int("pages", result.Pages),
		logging.Int("staged", result.Staged),
		logging.Int("excluded", result.Excluded),
		logging.Int("unavailable", result.Unavailable),
		logging.Int("dropped_pages", result.DroppedPages),
	)
	return nil
}

// consume processes staged items in order until the file is exhausted or the
// success cap is reached.
func (r *run) consume(ctx context.Context, path string, tl *timeline.Timeline) error {
	cursor := staging.NewCursor(path)
	for r.req.MaxItems <= 0 || r.summary.Succeeded < r.req.MaxItems {
		before := cursor.Offset()
		item, err := cursor.ReadNext(ctx, "")
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if cursor.Offset() == before {
				return fmt.Errorf("read staging file: %w", err)
			}
			// The corrupt line was consumed; move past it.
			r.summary.Failed++
			metrics.ItemFailuresTotal.WithLabelValues(services.Category(err)).Inc()
			logging.WarnWithContext(r.logger, "skipping unreadable staged item", "staged_item_invalid",
				logging.Error(err),
				logging.Int64("offset", cursor.Offset()),
				logging.String(logging.FieldImpact, "item omitted from playlist"),
			)
			continue
		}
		if item == nil {
			return nil
		}
		if err := r.processItem(ctx, *item, tl); err != nil {
			return err
		}
	}
	r.logger.Info("item limit reached", logging.Int("max_items", r.req.MaxItems))
	return nil
}

// processItem downloads one item. Only errors that should abort the whole
// playlist are returned.
func (r *run) processItem(ctx context.Context, item catalog.Item, tl *timeline.Timeline) error {
	filename := uuid.NewString()
	itemCtx := services.WithItemID(ctx, filename)
	logger := logging.WithContext(itemCtx, r.d.logger).With(
		logging.String(logging.FieldSourceURL, item.SourceURL),
	)

	staged, err := r.downloadAndProbe(itemCtx, item, filename)
	if err == nil {
		var progress int
		progress, err = r.d.store.RecordItemSuccess(itemCtx, r.user.Username, r.name, staged)
		if err != nil {
			r.discard(logger, filepath.Join(r.playlistDir, filename))
			return fmt.Errorf("record item: %w", err)
		}
		if err := tl.Append(timeline.Entry{Filename: filename, Length: staged.Length}); err != nil {
			return fmt.Errorf("record timeline: %w", err)
		}
		r.summary.Succeeded++
		metrics.ItemsDownloadedTotal.Inc()
		logger.Info("item added",
			logging.String("title", item.Title),
			logging.String("length", staged.Length),
			logging.Int("progress", progress),
			logging.String(logging.FieldEventType, "item_added"),
		)
		return nil
	}

	if ctx.Err() != nil {
		r.discard(logger, itemDir(err))
		return ctx.Err()
	}
	r.summary.Failed++
	metrics.ItemFailuresTotal.WithLabelValues(services.Category(err)).Inc()
	logging.WarnWithContext(logger, "item failed", "item_failed",
		logging.String("title", item.Title),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the video may be region locked or removed"),
		logging.String(logging.FieldImpact, "item omitted from playlist"),
	)
	r.discard(logger, itemDir(err))
	return nil
}

func (r *run) downloadAndProbe(ctx context.Context, item catalog.Item, filename string) (library.StagedItem, error) {
	dir, err := r.d.pipeline.DownloadItem(ctx, transcode.Request{
		SourceURL:      item.SourceURL,
		DestDir:        r.playlistDir,
		ItemID:         filename,
		Quality:        r.req.Quality,
		SegmentSeconds: r.req.SegmentSeconds,
	})
	if err != nil {
		return library.StagedItem{}, &itemError{dir: dir, err: err}
	}
	manifestPath := filepath.Join(dir, transcode.ManifestName(filename))
	entry, err := timeline.Probe(ctx, r.d.prober, filename, manifestPath)
	if err != nil {
		return library.StagedItem{}, &itemError{dir: dir, err: err}
	}
	r.logSegmentTotal(ctx, manifestPath, entry.Length)
	return library.StagedItem{Item: item, Filename: filename, Length: entry.Length}, nil
}

// logSegmentTotal records the manifest's own segment total next to the probed
// length. The probe stays authoritative for offsets.
func (r *run) logSegmentTotal(ctx context.Context, manifestPath, probed string) {
	logger := logging.WithContext(ctx, r.d.logger)
	if !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		logger.Debug("item manifest unreadable", logging.Error(err))
		return
	}
	segments, err := timeline.SumSegmentDurations(data)
	if err != nil {
		logger.Debug("item manifest durations unparsable", logging.Error(err))
		return
	}
	logger.Debug("item probed",
		logging.String("length", probed),
		logging.String("segment_total", segments),
	)
}

// itemError remembers which directory a failed item left behind.
type itemError struct {
	dir string
	err error
}

func (e *itemError) Error() string { return e.err.Error() }
func (e *itemError) Unwrap() error { return e.err }

func itemDir(err error) string {
	var ie *itemError
	if errors.As(err, &ie) {
		return ie.dir
	}
	return ""
}

func (r *run) discard(logger *slog.Logger, dir string) {
	if dir == "" {
		return
	}
	logger.Debug("scheduling item cleanup", logging.String("path", dir))
	r.d.pipeline.ScheduleCleanup(dir, r.d.cleanupDelay)
}

// finish finalizes offsets and writes the combined manifest.
func (r *run) finish(tl *timeline.Timeline) error {
	total, err := tl.Finalize()
	if err != nil {
		return fmt.Errorf("finalize timeline: %w", err)
	}
	r.summary.Total = total
	manifest, err := timeline.AssembleManifest(tl.Entries(), timeline.DirLookup(r.playlistDir))
	if err != nil {
		return fmt.Errorf("assemble manifest: %w", err)
	}
	path := filepath.Join(r.playlistDir, timeline.PlaylistManifest)
	if err := timeline.WriteManifest(path, manifest); err != nil {
		return err
	}
	r.summary.ManifestPath = path
	return nil
}

func (r *run) removeStaging(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(r.logger, "failed to remove staging file", "staging_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale staging file left until the next cleanup sweep"),
		)
	}
}
