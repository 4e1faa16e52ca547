// Package config loads, normalizes, and validates ytplayer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_API_KEY. The Config type centralizes every knob the CLI and the
// acquisition pipeline need: storage roots, catalog API access, transcode
// settings, the worker budget, and account rules.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
