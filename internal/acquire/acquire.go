package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"ytplayer/internal/catalog"
	"ytplayer/internal/config"
	"ytplayer/internal/library"
	"ytplayer/internal/logging"
	"ytplayer/internal/media/ffprobe"
	"ytplayer/internal/metrics"
	"ytplayer/internal/services"
	"ytplayer/internal/timeline"
	"ytplayer/internal/transcode"
	"ytplayer/internal/workers"
)

// LockFileName is created in each user folder while a download holds it.
const LockFileName = ".download.lock"

const defaultLockPoll = 500 * time.Millisecond

// MetadataFetcher stages a playlist's catalog entries into sink.
type MetadataFetcher interface {
	Fetch(ctx context.Context, playlistID string, maxMinutes int, sink catalog.Sink) (catalog.Result, error)
}

// ItemPipeline downloads single items and removes failed output.
type ItemPipeline interface {
	DownloadItem(ctx context.Context, req transcode.Request) (string, error)
	ScheduleCleanup(dir string, delay time.Duration)
}

// UseDefault asks for the Downloader's default on fields where zero is a
// real value.
const UseDefault = -1

// Request describes one playlist download. Zero SegmentSeconds and MaxItems
// take the Downloader's defaults. Quality 0 is the best encode and
// MaxItemMinutes 0 disables the length limit, so both take defaults only
// when set to UseDefault.
type Request struct {
	Username       string
	PlaylistURL    string
	Quality        int
	SegmentSeconds int
	MaxItems       int
	MaxItemMinutes int
}

// Summary reports how a download ended.
type Summary struct {
	Playlist     string
	PlaylistID   string
	Staged       int
	Excluded     int
	Succeeded    int
	Failed       int
	DroppedPages int
	Total        string
	Status       library.Status
	ManifestPath string
	Elapsed      time.Duration
}

// Defaults fills unset Request fields.
type Defaults struct {
	Quality        int
	SegmentSeconds int
	MaxItems       int
	MaxItemMinutes int
}

// Downloader wires the catalog, pipeline, probe, and store together.
type Downloader struct {
	store        *library.Store
	fetcher      MetadataFetcher
	pipeline     ItemPipeline
	prober       timeline.Prober
	defaults     Defaults
	cleanupDelay time.Duration
	lockPoll     time.Duration
	logger       *slog.Logger
}

// Options carries the collaborators of a Downloader.
type Options struct {
	Store        *library.Store
	Fetcher      MetadataFetcher
	Pipeline     ItemPipeline
	Prober       timeline.Prober
	Defaults     Defaults
	CleanupDelay time.Duration
	LockPoll     time.Duration
}

// New builds a Downloader from explicit collaborators.
func New(opts Options, logger *slog.Logger) (*Downloader, error) {
	if opts.Store == nil || opts.Fetcher == nil || opts.Pipeline == nil || opts.Prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, "acquire", "new", "store, fetcher, pipeline, and prober are required", nil)
	}
	if opts.LockPoll <= 0 {
		opts.LockPoll = defaultLockPoll
	}
	return &Downloader{
		store:        opts.Store,
		fetcher:      opts.Fetcher,
		pipeline:     opts.Pipeline,
		prober:       opts.Prober,
		defaults:     opts.Defaults,
		cleanupDelay: opts.CleanupDelay,
		lockPoll:     opts.LockPoll,
		logger:       logging.NewComponentLogger(logger, "acquire"),
	}, nil
}

// NewFromConfig builds the production Downloader.
func NewFromConfig(cfg *config.Config, store *library.Store, budget *workers.Budget, logger *slog.Logger) (*Downloader, error) {
	if err := cfg.RequireCatalog(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "acquire", "catalog", "", err)
	}
	client, err := catalog.New(cfg.YouTube.APIKey, cfg.YouTube.BaseURL,
		catalog.WithRateLimit(cfg.YouTube.RequestsPerSecond),
		catalog.WithPageSize(cfg.YouTube.PageSize),
	)
	if err != nil {
		return nil, err
	}
	fetcher := catalog.NewFetcher(client, catalog.FetcherOptions{
		SnippetTimeout: cfg.SnippetTimeout(),
		DetailsTimeout: cfg.DetailsTimeout(),
		Prober:         catalog.HTTPProber{Client: catalog.NewHTTPClient(), Timeout: cfg.ThumbnailTimeout()},
	}, logger)
	pipeline := transcode.New(transcode.Options{
		FetchBinary:  cfg.Download.FetchBinary,
		FFmpegBinary: cfg.Download.FFmpegBinary,
		AudioFilters: cfg.Download.AudioFilters,
		GeoBypass:    cfg.Download.GeoBypass,
	}, budget, logger)
	return New(Options{
		Store:    store,
		Fetcher:  fetcher,
		Pipeline: pipeline,
		Prober:   ffprobe.Prober{Binary: cfg.Download.FFprobeBinary},
		Defaults: Defaults{
			Quality:        cfg.Download.Quality,
			SegmentSeconds: cfg.Download.SegmentSeconds,
			MaxItems:       cfg.Download.MaxItems,
			MaxItemMinutes: cfg.YouTube.MaxItemMinutes,
		},
		CleanupDelay: cfg.CleanupDelay(),
	}, logger)
}

func (d *Downloader) applyDefaults(req Request) Request {
	if req.Quality == UseDefault {
		req.Quality = d.defaults.Quality
	}
	if req.SegmentSeconds == 0 {
		req.SegmentSeconds = d.defaults.SegmentSeconds
	}
	if req.MaxItems == 0 {
		req.MaxItems = d.defaults.MaxItems
	}
	if req.MaxItemMinutes == UseDefault {
		req.MaxItemMinutes = d.defaults.MaxItemMinutes
	}
	return req
}

// validate rejects settings that would fail every item, before any playlist
// is created for them.
func (r Request) validate() error {
	switch {
	case r.Quality < 0 || r.Quality > 9:
		return services.Wrap(services.ErrValidation, "acquire", "request", fmt.Sprintf("quality %d outside 0-9", r.Quality), nil)
	case r.SegmentSeconds <= 0:
		return services.Wrap(services.ErrValidation, "acquire", "request", fmt.Sprintf("segment length %d must be positive", r.SegmentSeconds), nil)
	case r.MaxItems < 0:
		return services.Wrap(services.ErrValidation, "acquire", "request", fmt.Sprintf("max items %d is negative", r.MaxItems), nil)
	case r.MaxItemMinutes < 0:
		return services.Wrap(services.ErrValidation, "acquire", "request", fmt.Sprintf("max item minutes %d is negative", r.MaxItemMinutes), nil)
	}
	return nil
}

// lockUser blocks until the user's download lock is held or ctx ends.
func (d *Downloader) lockUser(ctx context.Context, user *library.User) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(d.store.UserDir(user), LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire user lock: %w", err)
	}
	if !ok {
		logging.WithContext(ctx, d.logger).Info("waiting for another download by this user",
			logging.String("lock", lock.Path()),
		)
		ok, err = lock.TryLockContext(ctx, d.lockPoll)
		if err != nil {
			return nil, fmt.Errorf("acquire user lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("acquire user lock: %s still held", lock.Path())
		}
	}
	return lock, nil
}

// Download runs req to completion. Errors are returned only for failures
// that abort the whole playlist; item and page failures are reflected in the
// Summary instead.
func (d *Downloader) Download(ctx context.Context, req Request) (Summary, error) {
	start := time.Now()
	req = d.applyDefaults(req)
	summary := Summary{}
	if err := req.validate(); err != nil {
		return summary, err
	}

	playlistID, err := catalog.ParsePlaylistURL(req.PlaylistURL)
	if err != nil {
		return summary, err
	}
	summary.PlaylistID = playlistID

	user, err := d.store.User(ctx, req.Username)
	if err != nil {
		return summary, err
	}
	if err := os.MkdirAll(d.store.UserDir(user), 0o755); err != nil {
		return summary, fmt.Errorf("create user folder: %w", err)
	}

	lock, err := d.lockUser(ctx, user)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release user lock", logging.Error(err))
		}
	}()

	ctx = services.WithUser(ctx, user.Username)
	ctx = services.WithRunID(ctx, uuid.NewString())

	name, err := d.store.CreatePlaylist(ctx, user.Username)
	if err != nil {
		return summary, err
	}
	summary.Playlist = name
	ctx = services.WithPlaylist(ctx, name)
	logger := logging.WithContext(ctx, d.logger)
	logger.Info("playlist download started",
		logging.String("playlist_id", playlistID),
		logging.Int("max_items", req.MaxItems),
		logging.String(logging.FieldEventType, "playlist_started"),
	)

	r := &run{
		d:           d,
		req:         req,
		user:        user,
		name:        name,
		playlistDir: d.store.PlaylistDir(user, name),
		logger:      logger,
		summary:     &summary,
	}
	runErr := r.execute(ctx, playlistID)

	summary.Status = decideStatus(summary, runErr)
	summary.Elapsed = time.Since(start)

	// The record is closed out even when the run was canceled.
	doneCtx := context.WithoutCancel(ctx)
	if err := d.store.MarkDone(doneCtx, user.Username, name, summary.Status, summary.DroppedPages); err != nil && runErr == nil {
		runErr = err
	}
	metrics.PlaylistsTotal.WithLabelValues(string(summary.Status)).Inc()

	if runErr != nil {
		logging.ErrorWithContext(logger, "playlist download aborted", "playlist_failed",
			logging.Error(runErr),
			logging.Int("succeeded", summary.Succeeded),
			logging.Int("failed", summary.Failed),
			logging.String(logging.FieldErrorHint, errorHint(runErr)),
		)
		return summary, runErr
	}

	logger.Info("playlist download finished",
		logging.String("status", string(summary.Status)),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("dropped_pages", summary.DroppedPages),
		logging.Bool("manifest_written", summary.ManifestPath != ""),
		logging.String("total_seconds", summary.Total),
		logging.Duration("elapsed", summary.Elapsed),
		logging.String(logging.FieldEventType, "playlist_finished"),
	)
	return summary, nil
}

func decideStatus(s Summary, runErr error) library.Status {
	switch {
	case runErr != nil || s.Succeeded == 0:
		return library.StatusFailed
	case s.Failed > 0 || s.DroppedPages > 0:
		return library.StatusPartial
	default:
		return library.StatusComplete
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "download was interrupted; start it again to fetch a fresh copy"
	case errors.Is(err, services.ErrNotFound):
		return "the playlist record disappeared; check the database"
	case errors.Is(err, services.ErrValidation):
		return "check the playlist URL and stored records"
	default:
		return "check disk space and user_root permissions"
	}
}
