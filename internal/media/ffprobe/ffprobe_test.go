package ffprobe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ytplayer/internal/testsupport"
)

const audioStream = `{"index":0,"codec_type":"audio","codec_name":"mp3"}`

func stubProber(t *testing.T, output string) Prober {
	t.Helper()
	bin := testsupport.WriteScript(t, t.TempDir(), "ffprobe", "printf '%s\\n' '"+output+"'\n")
	return Prober{Binary: bin}
}

func TestAudioStreamCount(t *testing.T) {
	result := Result{Streams: []Stream{
		{CodecType: "audio"},
		{CodecType: "data"},
		{CodecType: "AUDIO"},
	}}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
}

func TestDurationKeepsExactDecimal(t *testing.T) {
	prober := stubProber(t, `{"streams":[`+audioStream+`],"format":{"duration":"183.240000"}}`)

	got, err := prober.DurationString(context.Background(), "/music/a.m3u8")
	if err != nil {
		t.Fatalf("DurationString: %v", err)
	}
	if got != "183.240000" {
		t.Fatalf("expected raw duration string, got %q", got)
	}
}

func TestDurationMissingValue(t *testing.T) {
	prober := stubProber(t, `{"streams":[`+audioStream+`],"format":{"duration":"N/A"}}`)

	_, err := prober.DurationString(context.Background(), "/music/a.m3u8")
	if !errors.Is(err, ErrNoDuration) {
		t.Fatalf("expected ErrNoDuration, got %v", err)
	}
}

func TestDurationRejectsOutputWithoutAudio(t *testing.T) {
	prober := stubProber(t, `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"duration":"12.0"}}`)

	_, err := prober.DurationString(context.Background(), "/music/a.m3u8")
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestDurationReportsToolFailure(t *testing.T) {
	bin := testsupport.WriteScript(t, t.TempDir(), "ffprobe", "echo 'Invalid data found' >&2\nexit 1\n")

	_, err := Prober{Binary: bin}.DurationString(context.Background(), "/music/a.m3u8")
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectDecodesStreams(t *testing.T) {
	prober := stubProber(t, `{"streams":[`+audioStream+`],"format":{"duration":"10.0","nb_streams":1}}`)

	result, err := Inspect(context.Background(), prober.Binary, "/music/a.m3u8")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.AudioStreamCount() != 1 || result.Streams[0].CodecName != "mp3" || result.Format.NBStreams != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}
