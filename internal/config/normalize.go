package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeDownload()
	c.normalizeAccounts()
	c.normalizeLogging()
	c.Metrics.Listen = strings.TrimSpace(c.Metrics.Listen)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UserRoot) == "" {
		c.Paths.UserRoot = filepath.Join(c.Paths.DataDir, "users")
	}
	if c.Paths.UserRoot, err = expandPath(c.Paths.UserRoot); err != nil {
		return fmt.Errorf("paths.user_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = filepath.Join(c.Paths.DataDir, defaultDatabaseName)
	}
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	c.YouTube.APIKey = strings.TrimSpace(c.YouTube.APIKey)
	if c.YouTube.APIKey == "" {
		if value, ok := os.LookupEnv("YOUTUBE_API_KEY"); ok {
			c.YouTube.APIKey = strings.TrimSpace(value)
		}
	}
	c.YouTube.BaseURL = strings.TrimRight(strings.TrimSpace(c.YouTube.BaseURL), "/")
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = defaultYouTubeBaseURL
	}
	if c.YouTube.SnippetTimeoutMS <= 0 {
		c.YouTube.SnippetTimeoutMS = defaultSnippetTimeoutMS
	}
	if c.YouTube.DetailsTimeoutMS <= 0 {
		c.YouTube.DetailsTimeoutMS = defaultDetailsTimeoutMS
	}
	if c.YouTube.ThumbnailTimeoutMS <= 0 {
		c.YouTube.ThumbnailTimeoutMS = defaultThumbnailTimeoutMS
	}
	if c.YouTube.PageSize <= 0 {
		c.YouTube.PageSize = defaultPageSize
	}
	if c.YouTube.RequestsPerSecond <= 0 {
		c.YouTube.RequestsPerSecond = defaultRequestsPerSecond
	}
}

func (c *Config) normalizeDownload() {
	c.Download.FetchBinary = strings.TrimSpace(c.Download.FetchBinary)
	if c.Download.FetchBinary == "" {
		c.Download.FetchBinary = defaultFetchBinary
	}
	c.Download.FFmpegBinary = strings.TrimSpace(c.Download.FFmpegBinary)
	if c.Download.FFmpegBinary == "" {
		c.Download.FFmpegBinary = defaultFFmpegBinary
	}
	c.Download.FFprobeBinary = strings.TrimSpace(c.Download.FFprobeBinary)
	if c.Download.FFprobeBinary == "" {
		c.Download.FFprobeBinary = defaultFFprobeBinary
	}
	filters := make([]string, 0, len(c.Download.AudioFilters))
	for _, filter := range c.Download.AudioFilters {
		if trimmed := strings.TrimSpace(filter); trimmed != "" {
			filters = append(filters, trimmed)
		}
	}
	c.Download.AudioFilters = filters
	if c.Download.CleanupDelayMS < 0 {
		c.Download.CleanupDelayMS = 0
	}
	if c.Download.StagingMaxAgeHours <= 0 {
		c.Download.StagingMaxAgeHours = defaultStagingMaxAgeHours
	}
}

func (c *Config) normalizeAccounts() {
	c.Accounts.UsernamePattern = strings.TrimSpace(c.Accounts.UsernamePattern)
	if c.Accounts.UsernamePattern == "" {
		c.Accounts.UsernamePattern = defaultUsernamePattern
	}
	c.Accounts.PasswordPattern = strings.TrimSpace(c.Accounts.PasswordPattern)
	if c.Accounts.PasswordPattern == "" {
		c.Accounts.PasswordPattern = defaultPasswordPattern
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
