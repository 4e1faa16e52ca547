// Package library persists user accounts and their playlist progress in
// SQLite.
//
// Each user row carries a bcrypt credential, a storage folder under the
// configured user root, and a JSON array of playlist records. Playlist
// records are mutated with read-modify-write against that one column; the
// store does not arbitrate between concurrent writers for the same user, so
// callers serialize downloads per user.
package library
