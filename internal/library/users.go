package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ytplayer/internal/textutil"
)

const (
	defaultBcryptCost = bcrypt.DefaultCost
	// bcrypt only reads this many bytes of the secret.
	maxSecretBytes    = 72
	folderAttempts    = 8
)

// CreateUser registers username with secret and allocates its storage
// folder under the user root.
func (s *Store) CreateUser(ctx context.Context, username, secret string) (*User, error) {
	ctx = ensureContext(ctx)
	username = textutil.Normalize(username)
	if !s.usernamePattern.MatchString(username) {
		return nil, invalid(ErrInvalidUsername, fmt.Sprintf("username %q", username))
	}
	if !s.secretPattern.MatchString(secret) || len(secret) > maxSecretBytes {
		return nil, invalid(ErrInvalidSecret, "secret")
	}

	if _, err := s.User(ctx, username); err == nil {
		return nil, invalid(ErrUserExists, username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}

	if err := os.MkdirAll(s.userRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create user root: %w", err)
	}

	folder := textutil.PathSegment(username)
	for attempt := 0; attempt < folderAttempts; attempt++ {
		if folder == "" || attempt > 0 {
			folder = uuid.NewString()
		}
		if err := os.Mkdir(filepath.Join(s.userRoot, folder), 0o755); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, fmt.Errorf("create user folder: %w", err)
		}

		now := timestamp()
		_, err := s.execWithRetry(ctx,
			`INSERT INTO users (username, credential, folder_name, playlists_json, created_at, updated_at)
             VALUES (?, ?, ?, '[]', ?, ?)`,
			username, string(hash), folder, now, now,
		)
		if err == nil {
			return s.User(ctx, username)
		}
		_ = os.Remove(filepath.Join(s.userRoot, folder))
		if !isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user: %w", err)
		}
		if _, lookupErr := s.User(ctx, username); lookupErr == nil {
			return nil, invalid(ErrUserExists, username)
		}
		// Folder name taken by another row whose directory was removed.
	}
	return nil, fmt.Errorf("allocate storage folder for %s: exhausted %d attempts", username, folderAttempts)
}

// CheckCredentials reports whether secret matches the stored credential.
// Unknown users report false without an error.
func (s *Store) CheckCredentials(ctx context.Context, username, secret string) (bool, error) {
	ctx = ensureContext(ctx)
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT credential FROM users WHERE username = ?`, textutil.Normalize(username),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare credential: %w", err)
	}
	return true, nil
}

// User fetches an account by username.
func (s *Store) User(ctx context.Context, username string) (*User, error) {
	ctx = ensureContext(ctx)
	var (
		u                      User
		createdRaw, updatedRaw string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, folder_name, created_at, updated_at FROM users WHERE username = ?`,
		textutil.Normalize(username),
	).Scan(&u.Username, &u.FolderName, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(ErrUserNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseTime(createdRaw)
	u.UpdatedAt = parseTime(updatedRaw)
	return &u, nil
}

// Users lists every account ordered by username.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, folder_name, created_at, updated_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var (
			u                      User
			createdRaw, updatedRaw string
		)
		if err := rows.Scan(&u.Username, &u.FolderName, &createdRaw, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdRaw)
		u.UpdatedAt = parseTime(updatedRaw)
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserDir returns the storage folder of u.
func (s *Store) UserDir(u *User) string {
	return filepath.Join(s.userRoot, u.FolderName)
}

// PlaylistDir returns the directory of playlist name owned by u.
func (s *Store) PlaylistDir(u *User, name string) string {
	return filepath.Join(s.userRoot, u.FolderName, name)
}
