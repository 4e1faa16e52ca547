package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNoDuration is returned when ffprobe succeeds but reports no duration.
	ErrNoDuration = errors.New("ffprobe reported no duration")
	// ErrNoAudio is returned when the probed output carries no audio stream.
	ErrNoAudio = errors.New("ffprobe found no audio stream")
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Prober runs a configured ffprobe binary.
type Prober struct {
	Binary string
}

// DurationString inspects path and returns its container duration in
// seconds, as the decimal string ffprobe printed. Output without an audio
// stream is rejected with ErrNoAudio.
func (p Prober) DurationString(ctx context.Context, path string) (string, error) {
	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return "", err
	}
	if result.AudioStreamCount() == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNoAudio)
	}
	duration, err := result.Duration()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return duration, nil
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe: empty path")
	}

	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// Duration returns format.duration verbatim, or ErrNoDuration when ffprobe
// left it empty or reported N/A.
func (r Result) Duration() (string, error) {
	duration := strings.TrimSpace(r.Format.Duration)
	if duration == "" || strings.EqualFold(duration, "N/A") {
		return "", ErrNoDuration
	}
	return duration, nil
}
