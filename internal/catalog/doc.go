// Package catalog retrieves playlist metadata from the YouTube Data API and
// stages the usable entries for download.
//
// Client wraps the two endpoints the pipeline needs (playlistItems for
// snippets, videos for durations). Fetcher pages through a playlist, drops
// deleted, unavailable, and over-length entries, resolves thumbnail variants,
// and appends each surviving Item to a Sink as soon as its page is processed.
// A page whose remote calls fail is logged, counted, and skipped without
// retry so a flaky API never aborts a whole playlist.
package catalog
