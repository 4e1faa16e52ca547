package library

import (
	"errors"

	"ytplayer/internal/services"
)

var (
	// ErrUserExists is returned when signing up a username already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned for operations on an unknown username.
	ErrUserNotFound = errors.New("user not found")
	// ErrPlaylistNotFound is returned when a named playlist is missing from
	// the user's record.
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrPlaylistCapExceeded is returned when no free playlist folder number
	// was found within the probe limit.
	ErrPlaylistCapExceeded = errors.New("playlist folder limit reached")
	// ErrMalformedRecord is returned when a stored playlists column cannot
	// be decoded.
	ErrMalformedRecord = errors.New("malformed playlist record")
	// ErrInvalidUsername and ErrInvalidSecret report signup values rejected
	// by the configured patterns.
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidSecret   = errors.New("invalid secret")
)

func notFound(err error, detail string) error {
	return services.Wrap(services.ErrNotFound, "library", detail, "", err)
}

func invalid(err error, detail string) error {
	return services.Wrap(services.ErrValidation, "library", detail, "", err)
}
