// Package textutil normalizes text received from remote catalogs and users.
//
// The primary use cases are:
//   - NFKC normalization of titles and channel names before they are staged
//   - Deriving filesystem-safe folder names from usernames
//   - Rendering status identifiers for terminal output
package textutil
