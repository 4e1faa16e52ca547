package transcode

import (
	"strconv"
	"strings"
)

const (
	pcmFormat     = "s16le"
	pcmChannels   = "2"
	pcmSampleRate = "48000"
)

// fetchArgs streams the best audio-only rendition of sourceURL to stdout.
func fetchArgs(sourceURL string, geoBypass bool) []string {
	args := []string{"-f", "bestaudio", "--ignore-errors"}
	if geoBypass {
		args = append(args, "--geo-bypass")
	}
	return append(args, "-o", "-", sourceURL)
}

// filterArgs reads any container from stdin and writes filtered raw PCM.
func filterArgs(threads int, filters []string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-threads", strconv.Itoa(threads),
		"-i", "pipe:0",
	}
	if len(filters) > 0 {
		args = append(args, "-af", strings.Join(filters, ","))
	}
	return append(args,
		"-f", pcmFormat, "-ac", pcmChannels, "-ar", pcmSampleRate,
		"pipe:1",
	)
}

// AudioEncoder is the FFmpeg encoder used for HLS segments.
const AudioEncoder = "libmp3lame"

// encodeArgs reads raw PCM from stdin and writes itemID.m3u8 plus numbered
// segments into the working directory.
func encodeArgs(threads, quality, segmentSeconds int, itemID string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-threads", strconv.Itoa(threads),
		"-f", pcmFormat, "-ac", pcmChannels, "-ar", pcmSampleRate,
		"-i", "pipe:0",
		"-c:a", AudioEncoder,
		"-q:a", strconv.Itoa(quality),
		"-f", "hls",
		"-start_number", "0",
		"-hls_list_size", "0",
		"-hls_time", strconv.Itoa(segmentSeconds),
		"-hls_segment_filename", itemID + "_%05d.ts",
		ManifestName(itemID),
	}
}

// ManifestName is the per-item playlist file written by the encode stage.
func ManifestName(itemID string) string {
	return itemID + ".m3u8"
}
