package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-f", "bestaudio", "--ignore-errors", "--geo-bypass", "-o", "-", "https://www.youtube.com/watch?v=abc"},
		fetchArgs("https://www.youtube.com/watch?v=abc", true))
	assert.Equal(t,
		[]string{"-f", "bestaudio", "--ignore-errors", "-o", "-", "u"},
		fetchArgs("u", false))
}

func TestFilterArgs(t *testing.T) {
	got := filterArgs(3, []string{"anlmdn=s=25", "loudnorm=I=-17:LRA=10:TP=-0.5"})
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-threads", "3",
		"-i", "pipe:0",
		"-af", "anlmdn=s=25,loudnorm=I=-17:LRA=10:TP=-0.5",
		"-f", "s16le", "-ac", "2", "-ar", "48000",
		"pipe:1",
	}, got)

	assert.NotContains(t, filterArgs(1, nil), "-af")
}

func TestEncodeArgs(t *testing.T) {
	got := encodeArgs(2, 6, 10, "item")
	assert.Equal(t, []string{
		"-hide_banner", "-loglevel", "error",
		"-threads", "2",
		"-f", "s16le", "-ac", "2", "-ar", "48000",
		"-i", "pipe:0",
		"-c:a", "libmp3lame",
		"-q:a", "6",
		"-f", "hls",
		"-start_number", "0",
		"-hls_list_size", "0",
		"-hls_time", "10",
		"-hls_segment_filename", "item_%05d.ts",
		"item.m3u8",
	}, got)
}
