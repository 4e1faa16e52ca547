package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ytplayer/internal/textutil"
)

// Playlists returns every playlist record of username.
func (s *Store) Playlists(ctx context.Context, username string) ([]PlaylistRecord, error) {
	ctx = ensureContext(ctx)
	raw, err := s.readPlaylistsColumn(ctx, s.db, username)
	if err != nil {
		return nil, err
	}
	return decodePlaylists(raw)
}

// Playlist returns the record called name.
func (s *Store) Playlist(ctx context.Context, username, name string) (*PlaylistRecord, error) {
	records, err := s.Playlists(ctx, username)
	if err != nil {
		return nil, err
	}
	idx := indexOf(records, name)
	if idx < 0 {
		return nil, notFound(ErrPlaylistNotFound, fmt.Sprintf("%s/%s", username, name))
	}
	rec := records[idx]
	return &rec, nil
}

// CreatePlaylist claims the first free playlist_<n> folder in the user's
// storage folder and appends a new downloading record for it.
func (s *Store) CreatePlaylist(ctx context.Context, username string) (string, error) {
	ctx = ensureContext(ctx)
	user, err := s.User(ctx, username)
	if err != nil {
		return "", err
	}
	base := s.UserDir(user)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("create user folder: %w", err)
	}

	name := ""
	for i := 0; i < s.playlistCap; i++ {
		candidate := fmt.Sprintf("playlist_%d", i)
		err := os.Mkdir(filepath.Join(base, candidate), 0o755)
		if err == nil {
			name = candidate
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create playlist folder: %w", err)
		}
	}
	if name == "" {
		return "", fmt.Errorf("%w: %d folders probed under %s", ErrPlaylistCapExceeded, s.playlistCap, base)
	}

	err = s.updatePlaylists(ctx, user.Username, func(records []PlaylistRecord) ([]PlaylistRecord, error) {
		return append(records, PlaylistRecord{
			SchemaVersion: RecordVersion,
			Name:          name,
			Status:        StatusDownloading,
			Items:         []StagedItem{},
		}), nil
	})
	if err != nil {
		_ = os.Remove(filepath.Join(base, name))
		return "", err
	}
	return name, nil
}

// RecordItemSuccess appends item to playlist name and returns the new
// progress count.
func (s *Store) RecordItemSuccess(ctx context.Context, username, name string, item StagedItem) (int, error) {
	progress := 0
	err := s.updatePlaylists(ensureContext(ctx), username, func(records []PlaylistRecord) ([]PlaylistRecord, error) {
		idx := indexOf(records, name)
		if idx < 0 {
			return nil, notFound(ErrPlaylistNotFound, fmt.Sprintf("%s/%s", username, name))
		}
		records[idx].Progress++
		records[idx].Items = append(records[idx].Items, item)
		progress = records[idx].Progress
		return records, nil
	})
	return progress, err
}

// MarkDone flags playlist name as finished with the given outcome.
func (s *Store) MarkDone(ctx context.Context, username, name string, status Status, droppedPages int) error {
	return s.updatePlaylists(ensureContext(ctx), username, func(records []PlaylistRecord) ([]PlaylistRecord, error) {
		idx := indexOf(records, name)
		if idx < 0 {
			return nil, notFound(ErrPlaylistNotFound, fmt.Sprintf("%s/%s", username, name))
		}
		records[idx].Done = true
		records[idx].Status = status
		records[idx].DroppedPages = droppedPages
		return records, nil
	})
}

// ReorderItems rewrites the item order of playlist name to match filenames.
// Items whose filename is absent from the list keep their relative order at
// the end.
func (s *Store) ReorderItems(ctx context.Context, username, name string, filenames []string) error {
	return s.updatePlaylists(ensureContext(ctx), username, func(records []PlaylistRecord) ([]PlaylistRecord, error) {
		idx := indexOf(records, name)
		if idx < 0 {
			return nil, notFound(ErrPlaylistNotFound, fmt.Sprintf("%s/%s", username, name))
		}
		records[idx].Items = orderItems(records[idx].Items, filenames)
		return records, nil
	})
}

func orderItems(items []StagedItem, filenames []string) []StagedItem {
	byName := make(map[string]int, len(items))
	for i, item := range items {
		byName[item.Filename] = i
	}
	used := make([]bool, len(items))
	out := make([]StagedItem, 0, len(items))
	for _, f := range filenames {
		if i, ok := byName[f]; ok && !used[i] {
			used[i] = true
			out = append(out, items[i])
		}
	}
	for i, item := range items {
		if !used[i] {
			out = append(out, item)
		}
	}
	return out
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) readPlaylistsColumn(ctx context.Context, q queryer, username string) (string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT playlists_json FROM users WHERE username = ?`, textutil.Normalize(username)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound(ErrUserNotFound, username)
	}
	if err != nil {
		return "", fmt.Errorf("read playlists: %w", err)
	}
	return raw, nil
}

// updatePlaylists re-reads the column, applies mutate, and writes the result
// back in one transaction.
func (s *Store) updatePlaylists(ctx context.Context, username string, mutate func([]PlaylistRecord) ([]PlaylistRecord, error)) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin playlists tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		raw, err := s.readPlaylistsColumn(ctx, tx, username)
		if err != nil {
			return err
		}
		records, err := decodePlaylists(raw)
		if err != nil {
			return err
		}
		records, err = mutate(records)
		if err != nil {
			return err
		}
		encoded, err := encodePlaylists(records)
		if err != nil {
			return fmt.Errorf("encode playlists: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET playlists_json = ?, updated_at = ? WHERE username = ?`,
			encoded, timestamp(), textutil.Normalize(username),
		); err != nil {
			return fmt.Errorf("update playlists: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit playlists: %w", err)
		}
		return nil
	})
}

func indexOf(records []PlaylistRecord, name string) int {
	for i, r := range records {
		if r.Name == name {
			return i
		}
	}
	return -1
}
