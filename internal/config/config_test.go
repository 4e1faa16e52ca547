package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ytplayer/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "ytplayer")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.UserRoot != filepath.Join(wantData, "users") {
		t.Fatalf("unexpected user root: %q", cfg.Paths.UserRoot)
	}
	if cfg.Paths.Database != filepath.Join(wantData, "library.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
	if cfg.YouTube.APIKey != "test-key" {
		t.Fatalf("expected API key from env, got %q", cfg.YouTube.APIKey)
	}
	if err := cfg.RequireCatalog(); err != nil {
		t.Fatalf("RequireCatalog: %v", err)
	}
	if cfg.Download.Quality != 6 || cfg.Download.SegmentSeconds != 10 || cfg.Download.MaxItems != 50 {
		t.Fatalf("unexpected download defaults: %+v", cfg.Download)
	}
	if cfg.YouTube.MaxItemMinutes != 45 {
		t.Fatalf("unexpected max item minutes: %d", cfg.YouTube.MaxItemMinutes)
	}
	if got := strings.Join(cfg.Download.AudioFilters, ","); got != strings.Join(config.DefaultAudioFilters, ",") {
		t.Fatalf("unexpected audio filters: %s", got)
	}
	if cfg.SnippetTimeout() != 1500*time.Millisecond || cfg.DetailsTimeout() != 3500*time.Millisecond {
		t.Fatalf("unexpected catalog timeouts: %v %v", cfg.SnippetTimeout(), cfg.DetailsTimeout())
	}
	if cfg.CleanupDelay() != time.Second {
		t.Fatalf("unexpected cleanup delay: %v", cfg.CleanupDelay())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.UserRoot, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("YOUTUBE_API_KEY", "")
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ytplayer.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		YouTube struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"youtube"`
		Download struct {
			Quality      int      `toml:"quality"`
			AudioFilters []string `toml:"audio_filters"`
		} `toml:"download"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.YouTube.APIKey = "abc123"
	custom.YouTube.BaseURL = "https://example.com/yt/"
	custom.Download.Quality = 2
	custom.Download.AudioFilters = []string{" loudnorm ", ""}

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.YouTube.APIKey != "abc123" {
		t.Fatalf("unexpected api key: %q", cfg.YouTube.APIKey)
	}
	if cfg.YouTube.BaseURL != "https://example.com/yt" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.YouTube.BaseURL)
	}
	if cfg.Download.Quality != 2 {
		t.Fatalf("unexpected quality: %d", cfg.Download.Quality)
	}
	if len(cfg.Download.AudioFilters) != 1 || cfg.Download.AudioFilters[0] != "loudnorm" {
		t.Fatalf("unexpected filters: %v", cfg.Download.AudioFilters)
	}
	if cfg.Paths.UserRoot != filepath.Join(tempDir, "data", "users") {
		t.Fatalf("expected user root derived from data dir, got %q", cfg.Paths.UserRoot)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ytplayer.toml")
	if err := os.WriteFile(configPath, []byte("[download]\nqualty = 3\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"quality":          func(c *config.Config) { c.Download.Quality = 10 },
		"segment seconds":  func(c *config.Config) { c.Download.SegmentSeconds = 0 },
		"max items":        func(c *config.Config) { c.Download.MaxItems = -1 },
		"page size":        func(c *config.Config) { c.YouTube.PageSize = 51 },
		"username pattern": func(c *config.Config) { c.Accounts.UsernamePattern = "([" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestRequireCatalogWithoutKey(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireCatalog(); err == nil || !strings.Contains(err.Error(), "youtube.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCreateSampleRoundTripsThroughLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if len(cfg.Download.AudioFilters) != 4 {
		t.Fatalf("expected sample filters, got %v", cfg.Download.AudioFilters)
	}
}
