package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytplayer/internal/config"
	"ytplayer/internal/logging"
	"ytplayer/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("file message", logging.String("k", "v"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log file is not JSON: %v (%q)", err, data)
	}
	if record["msg"] != "file message" || record["k"] != "v" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal output, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "catalog").Info("page fetched", logging.Int("staged", 3))
	line := buf.String()
	if !strings.Contains(line, "INFO catalog: page fetched") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "staged=3") {
		t.Fatalf("expected trailing attribute, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "page dropped", "catalog_page_dropped")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected %s in %v", key, record)
		}
	}
	if record[logging.FieldEventType] != "catalog_page_dropped" {
		t.Fatalf("unexpected event type: %v", record[logging.FieldEventType])
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUser(ctx, "alice")
	ctx = services.WithPlaylist(ctx, "playlist_0")
	ctx = services.WithItemID(ctx, "abc")
	ctx = services.WithRunID(ctx, "run-1")

	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WithContext(ctx, base).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		logging.FieldUser:     "alice",
		logging.FieldPlaylist: "playlist_0",
		logging.FieldItemID:   "abc",
		logging.FieldRunID:    "run-1",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestPruneOldLogsKeepsActiveAndFreshFiles(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	fresh := filepath.Join(dir, "fresh.log")
	active := filepath.Join(dir, logging.LogFileName)
	for _, path := range []string{old, fresh, active} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{old, active} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.PruneOldLogs(logging.NewNop(), dir, "*.log", active, 5)
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{fresh, active} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
}

func TestSecretsAreRedacted(t *testing.T) {
	var console, jsonBuf bytes.Buffer
	consoleLogger, err := logging.New(logging.Options{Output: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	jsonLogger, err := logging.New(logging.Options{Format: "json", Output: &jsonBuf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for _, logger := range []*slog.Logger{consoleLogger, jsonLogger} {
		logger.Info("account created", logging.String("password", "hunter22"), logging.String("api_key", "AIza123"))
	}
	for name, out := range map[string]string{"console": console.String(), "json": jsonBuf.String()} {
		if strings.Contains(out, "hunter22") || strings.Contains(out, "AIza123") {
			t.Fatalf("%s output leaked a secret: %q", name, out)
		}
		if !strings.Contains(out, "<redacted>") {
			t.Fatalf("%s output missing redaction marker: %q", name, out)
		}
	}
}

func TestConsoleTruncatesLongValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("tool failed", logging.String("stderr", strings.Repeat("x", 2000)))
	if strings.Count(buf.String(), "x") >= 2000 {
		t.Fatalf("expected console value to be truncated, got %d bytes", buf.Len())
	}
	if !strings.Contains(buf.String(), "…") {
		t.Fatalf("expected truncation marker, got %q", buf.String())
	}
}
