package acquire

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"ytplayer/internal/library"
	"ytplayer/internal/logging"
	"ytplayer/internal/services"
	"ytplayer/internal/timeline"
)

// ErrPlaylistInProgress is returned when a playlist that is still
// downloading is asked to change order.
var ErrPlaylistInProgress = fmt.Errorf("%w: playlist is still downloading", services.ErrValidation)

// Shuffle randomizes the order of a finished playlist, re-derives its
// offsets, rebuilds playlist.m3u8, and stores the new item order. A nil rng
// uses a randomly seeded source.
func (d *Downloader) Shuffle(ctx context.Context, username, name string, rng *rand.Rand) (string, error) {
	user, err := d.store.User(ctx, username)
	if err != nil {
		return "", err
	}
	lock, err := d.lockUser(ctx, user)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release user lock", logging.Error(err))
		}
	}()

	record, err := d.store.Playlist(ctx, user.Username, name)
	if err != nil {
		return "", err
	}
	if !record.Done {
		return "", ErrPlaylistInProgress
	}

	ctx = services.WithPlaylist(services.WithUser(ctx, user.Username), name)
	dir := d.store.PlaylistDir(user, name)
	tl, err := timeline.Load(filepath.Join(dir, timeline.FileName))
	if err != nil {
		return "", err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	total, err := tl.Shuffle(rng)
	if err != nil {
		return "", err
	}
	entries := tl.Entries()
	manifest, err := timeline.AssembleManifest(entries, timeline.DirLookup(dir))
	if err != nil {
		return "", fmt.Errorf("assemble manifest: %w", err)
	}
	if err := timeline.WriteManifest(filepath.Join(dir, timeline.PlaylistManifest), manifest); err != nil {
		return "", err
	}

	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.Filename
	}
	if err := d.store.ReorderItems(ctx, user.Username, name, order); err != nil {
		return "", err
	}
	logging.WithContext(ctx, d.logger).Info("playlist shuffled",
		logging.Int("items", len(entries)),
		logging.String("total_seconds", total),
		logging.String(logging.FieldEventType, "playlist_shuffled"),
	)
	return total, nil
}

// Store exposes the library the downloader writes to.
func (d *Downloader) Store() *library.Store {
	return d.store
}

// WaitCleanups blocks until scheduled item removals have run, when the
// pipeline supports waiting for them.
func (d *Downloader) WaitCleanups() {
	if w, ok := d.pipeline.(interface{ WaitCleanups() }); ok {
		w.WaitCleanups()
	}
}
