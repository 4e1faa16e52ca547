package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ytplayer/internal/config"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "echo 'present 2025.01.01'\necho 'extra line'\n")
	reqs := []Requirement{
		{Name: "Present", Command: present, VersionArgs: []string{"--version"}},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version != "present 2025.01.01" {
		t.Fatalf("unexpected version line: %q", results[0].Version)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}

	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing, got %d", len(missing))
	}
}

func TestCheckBinariesVersionFailureKeepsAvailability(t *testing.T) {
	binDir := t.TempDir()
	broken := writeStub(t, binDir, "broken", "exit 2\n")

	results := CheckBinaries(context.Background(), []Requirement{{Name: "Broken", Command: broken, VersionArgs: []string{"-version"}}})
	if !results[0].Available {
		t.Fatal("binary on disk should count as available")
	}
	if results[0].Detail == "" {
		t.Fatal("expected version failure detail")
	}
}

func TestRequirementsFollowConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Download.FetchBinary = "/opt/yt-dlp"
	reqs := Requirements(&cfg)
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/yt-dlp" || reqs[1].Command != "ffmpeg" || reqs[2].Command != "ffprobe" {
		t.Fatalf("unexpected commands: %#v", reqs)
	}
}

func TestCheckEncoder(t *testing.T) {
	binDir := t.TempDir()
	ffmpeg := writeStub(t, binDir, "ffmpeg", `cat <<'OUT'
Encoders:
 A..... = Audio
 ------
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)
OUT
`)

	if status := CheckEncoder(context.Background(), ffmpeg, "libmp3lame"); !status.Available {
		t.Fatalf("expected libmp3lame available, got %#v", status)
	}
	if status := CheckEncoder(context.Background(), ffmpeg, "libopus"); status.Available || status.Detail == "" {
		t.Fatalf("expected libopus unavailable, got %#v", status)
	}
}

func TestCheckWritableDir(t *testing.T) {
	dir := t.TempDir()
	if status := CheckWritableDir("data", dir); !status.Available {
		t.Fatalf("expected writable dir, got %#v", status)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if status := CheckWritableDir("file", file); status.Available {
		t.Fatal("regular file must not count as a directory")
	}
	if status := CheckWritableDir("missing", filepath.Join(dir, "absent")); status.Available {
		t.Fatal("missing dir must be unavailable")
	}
}
