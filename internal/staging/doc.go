// Package staging persists fetched playlist metadata as newline-delimited
// JSON and reads it back incrementally.
//
// The Writer appends one record per line and flushes each line to disk so a
// reader never observes a partial record. A Cursor remembers the byte offset
// of the next unread line, so the download loop can consume items one at a
// time while keeping memory bounded. CleanStale removes staging files left
// behind by interrupted downloads.
package staging
