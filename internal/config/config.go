package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains storage locations.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	UserRoot string `toml:"user_root"`
	LogDir   string `toml:"log_dir"`
	Database string `toml:"database"`
}

// YouTube contains configuration for the playlist catalog API.
type YouTube struct {
	APIKey             string  `toml:"api_key"`
	BaseURL            string  `toml:"base_url"`
	SnippetTimeoutMS   int     `toml:"snippet_timeout_ms"`
	DetailsTimeoutMS   int     `toml:"details_timeout_ms"`
	ThumbnailTimeoutMS int     `toml:"thumbnail_timeout_ms"`
	PageSize           int     `toml:"page_size"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	MaxItemMinutes     int     `toml:"max_item_minutes"`
}

// Download contains configuration for the fetch/filter/encode pipeline.
type Download struct {
	FetchBinary    string   `toml:"fetch_binary"`
	FFmpegBinary   string   `toml:"ffmpeg_binary"`
	FFprobeBinary  string   `toml:"ffprobe_binary"`
	Quality        int      `toml:"quality"`
	SegmentSeconds int      `toml:"segment_seconds"`
	MaxItems       int      `toml:"max_items"`
	AudioFilters   []string `toml:"audio_filters"`
	CleanupDelayMS int      `toml:"cleanup_delay_ms"`
	GeoBypass      bool     `toml:"geo_bypass"`
	// StagingMaxAgeHours bounds how long an orphaned staging file survives
	// before `ytplayer cleanup` removes it.
	StagingMaxAgeHours int `toml:"staging_max_age_hours"`
}

// Workers contains configuration for the shared transcode thread budget.
type Workers struct {
	// ThreadBudget is the total thread count split among concurrent
	// transcodes. Zero means the host's logical core count.
	ThreadBudget int  `toml:"thread_budget"`
	LimitToCores bool `toml:"limit_to_cores"`
}

// Accounts contains validation rules for user signup.
type Accounts struct {
	UsernamePattern string `toml:"username_pattern"`
	PasswordPattern string `toml:"password_pattern"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Metrics contains configuration for the Prometheus endpoint.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Config encapsulates all configuration values for ytplayer.
//
// Configuration sections by subsystem:
//   - Paths: data, user storage, and log directories plus the database file
//   - YouTube: catalog API credentials, timeouts, and paging
//   - Download: external tool names, encoder settings, and cleanup timing
//   - Workers: transcode thread budget
//   - Accounts: username and secret rules
//   - Logging: log format and level
//   - Metrics: optional Prometheus listener
type Config struct {
	Paths    Paths    `toml:"paths"`
	YouTube  YouTube  `toml:"youtube"`
	Download Download `toml:"download"`
	Workers  Workers  `toml:"workers"`
	Accounts Accounts `toml:"accounts"`
	Logging  Logging  `toml:"logging"`
	Metrics  Metrics  `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytplayer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytplayer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, user, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.UserRoot, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireCatalog reports a configuration error when catalog access is not
// possible. Only commands that talk to the remote catalog call it.
func (c *Config) RequireCatalog() error {
	if strings.TrimSpace(c.YouTube.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/ytplayer/config.toml"
	}
	return fmt.Errorf("youtube.api_key is required. Set YOUTUBE_API_KEY env var or edit %s (create with 'ytplayer config init')", defaultPath)
}

// SnippetTimeout bounds the playlist page request.
func (c *Config) SnippetTimeout() time.Duration {
	return time.Duration(c.YouTube.SnippetTimeoutMS) * time.Millisecond
}

// DetailsTimeout bounds the per-page duration lookup.
func (c *Config) DetailsTimeout() time.Duration {
	return time.Duration(c.YouTube.DetailsTimeoutMS) * time.Millisecond
}

// ThumbnailTimeout bounds each thumbnail reachability probe.
func (c *Config) ThumbnailTimeout() time.Duration {
	return time.Duration(c.YouTube.ThumbnailTimeoutMS) * time.Millisecond
}

// CleanupDelay is the wait before a failed item's directory is removed.
func (c *Config) CleanupDelay() time.Duration {
	return time.Duration(c.Download.CleanupDelayMS) * time.Millisecond
}

// StagingMaxAge is the age past which orphaned staging files are removed.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Download.StagingMaxAgeHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []byte(b.String()), nil
}
