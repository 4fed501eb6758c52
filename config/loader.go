// File: config/loader.go
// License: Apache-2.0
//
// YAML configuration loading with environment overrides.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix scopes the environment variables read by Load.
const envPrefix = "UBX"

// Load reads configuration from an optional YAML file, applies
// environment overrides and validates the result. An empty filename
// loads defaults plus environment only.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", filename, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", filename, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("config environment override: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	return cfg, nil
}

// loadFromEnv overrides individual fields from UBX_* variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv(envPrefix + "_RING_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RING_CAPACITY: %w", err)
		}
		cfg.RingCapacity = n
	}
	if v := os.Getenv(envPrefix + "_MAX_CHANNELS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_CHANNELS: %w", err)
		}
		cfg.MaxChannels = n
	}
	if v := os.Getenv(envPrefix + "_SEND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SEND_TIMEOUT: %w", err)
		}
		cfg.SendTimeout = d
	}
	if v := os.Getenv(envPrefix + "_QUEUE_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QUEUE_DEPTH: %w", err)
		}
		cfg.QueueDepth = n
	}
	if v := os.Getenv(envPrefix + "_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
