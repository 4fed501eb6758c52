// File: config/config.go
// Package config provides configuration types, loading and hot-reload
// for the SPS channel layer.
// License: Apache-2.0

package config

import (
	"fmt"
	"time"
)

// Config holds the tunables of the SPS channel layer. The defaults
// match the module's conventional sizing: a 1 KiB receive FIFO, eight
// concurrent channels per instance and a dispatch queue deep enough
// for two records per channel.
type Config struct {
	// RingCapacity is the per-channel receive FIFO size in bytes.
	RingCapacity int `yaml:"ring_capacity"`

	// MaxChannels bounds concurrent channels per instance.
	MaxChannels int `yaml:"max_channels"`

	// SendTimeout is the default per-channel write timeout.
	SendTimeout time.Duration `yaml:"send_timeout"`

	// QueueDepth is the dispatch queue bound. Zero selects
	// 2 * MaxChannels.
	QueueDepth int `yaml:"queue_depth"`

	// Log configures the module logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig mirrors the observability package's logger options.
type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // "console" or "json"
	Development bool   `yaml:"development"`

	// File enables rotating file output when non-empty.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RingCapacity: 1024,
		MaxChannels:  8,
		SendTimeout:  100 * time.Millisecond,
		QueueDepth:   0,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.RingCapacity < 1 {
		return fmt.Errorf("ring_capacity must be positive, got %d", c.RingCapacity)
	}
	if c.MaxChannels < 1 {
		return fmt.Errorf("max_channels must be positive, got %d", c.MaxChannels)
	}
	if c.SendTimeout < 0 {
		return fmt.Errorf("send_timeout must not be negative, got %s", c.SendTimeout)
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queue_depth must not be negative, got %d", c.QueueDepth)
	}
	return nil
}

// Sanitize resolves derived defaults. Safe to call repeatedly.
func (c *Config) Sanitize() {
	if c.RingCapacity < 1 {
		c.RingCapacity = DefaultConfig().RingCapacity
	}
	if c.MaxChannels < 1 {
		c.MaxChannels = DefaultConfig().MaxChannels
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = DefaultConfig().SendTimeout
	}
	if c.QueueDepth < 1 {
		c.QueueDepth = 2 * c.MaxChannels
	}
}
