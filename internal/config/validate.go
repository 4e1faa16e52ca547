package config

import (
	"errors"
	"fmt"
	"regexp"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateAccounts(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.PageSize > 50 {
		return errors.New("youtube.page_size must be between 1 and 50")
	}
	if c.YouTube.MaxItemMinutes < 0 {
		return errors.New("youtube.max_item_minutes must be >= 0")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.Quality < 0 || c.Download.Quality > 9 {
		return errors.New("download.quality must be between 0 and 9")
	}
	if err := ensurePositiveMap(map[string]int{
		"download.segment_seconds": c.Download.SegmentSeconds,
		"download.max_items":       c.Download.MaxItems,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAccounts() error {
	if _, err := regexp.Compile(c.Accounts.UsernamePattern); err != nil {
		return fmt.Errorf("accounts.username_pattern: %w", err)
	}
	if _, err := regexp.Compile(c.Accounts.PasswordPattern); err != nil {
		return fmt.Errorf("accounts.password_pattern: %w", err)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
