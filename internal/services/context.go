package services

import "context"

type contextKey string

const (
	userKey     contextKey = "user"
	playlistKey contextKey = "playlist"
	itemIDKey   contextKey = "item_id"
	runIDKey    contextKey = "run_id"
)

func withString(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if v, ok := ctx.Value(key).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithUser annotates context with the account a download runs for.
func WithUser(ctx context.Context, username string) context.Context {
	return withString(ctx, userKey, username)
}

// UserFromContext returns the username if present.
func UserFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, userKey)
}

// WithPlaylist annotates context with the playlist folder name.
func WithPlaylist(ctx context.Context, name string) context.Context {
	return withString(ctx, playlistKey, name)
}

// PlaylistFromContext returns the playlist name if present.
func PlaylistFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, playlistKey)
}

// WithItemID annotates context with the per-item storage identifier.
func WithItemID(ctx context.Context, id string) context.Context {
	return withString(ctx, itemIDKey, id)
}

// ItemIDFromContext extracts the item identifier if present.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, itemIDKey)
}

// WithRunID annotates context with a correlation identifier for one download.
func WithRunID(ctx context.Context, id string) context.Context {
	return withString(ctx, runIDKey, id)
}

// RunIDFromContext extracts the correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, runIDKey)
}
