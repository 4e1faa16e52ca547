// Package services defines shared utilities consumed by the acquisition
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the user, playlist, item, and run identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper, and the IsFatal
//     classification that decides whether a failure skips one item or aborts
//     the whole playlist.
package services
