// Package ffprobe wraps the ffprobe binary for the two questions the
// pipeline asks of encoded output: what streams a file carries and how long
// it lasts.
//
// Duration reports format.duration exactly as ffprobe printed it so callers
// can do decimal arithmetic without a float round trip. Inspect decodes the
// fuller JSON payload and is used for diagnostics.
package ffprobe
