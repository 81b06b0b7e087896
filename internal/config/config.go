// Package config loads tool configuration from TOML, overlaying file
// values on built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config carries the tunable knobs shared by the sender and receiver.
type Config struct {
	ChunkSize     int
	DividingSize  int
	PartSize      int64
	PollInterval  time.Duration
	AckTimeout    time.Duration
	Archive       bool
	OutputDir     string
	StatusAddr    string
	ClipboardTool string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ChunkSize:    120 * 1024,
		PollInterval: 200 * time.Millisecond,
		AckTimeout:   60 * time.Second,
		OutputDir:    ".",
	}
}

// fileConfig is the TOML shape; durations are strings so the file can
// say "200ms" or "1m30s".
type fileConfig struct {
	ChunkSize     int    `toml:"chunk_size"`
	DividingSize  int    `toml:"dividing_size"`
	PartSize      int64  `toml:"part_size"`
	PollInterval  string `toml:"poll_interval"`
	AckTimeout    string `toml:"ack_timeout"`
	Archive       bool   `toml:"archive"`
	OutputDir     string `toml:"output_dir"`
	StatusAddr    string `toml:"status_addr"`
	ClipboardTool string `toml:"clipboard_tool"`
}

// Load overlays the TOML file at path on the defaults. Only keys the
// file defines override.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("chunk_size") {
		if raw.ChunkSize <= 0 {
			return Config{}, fmt.Errorf("load config: chunk_size must be positive, got %d", raw.ChunkSize)
		}
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("dividing_size") {
		cfg.DividingSize = raw.DividingSize
	}
	if meta.IsDefined("part_size") {
		cfg.PartSize = raw.PartSize
	}
	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return Config{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if meta.IsDefined("ack_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.AckTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse ack_timeout: %w", err)
		}
		cfg.AckTimeout = d
	}
	if meta.IsDefined("archive") {
		cfg.Archive = raw.Archive
	}
	if meta.IsDefined("output_dir") {
		cfg.OutputDir = strings.TrimSpace(raw.OutputDir)
	}
	if meta.IsDefined("status_addr") {
		cfg.StatusAddr = strings.TrimSpace(raw.StatusAddr)
	}
	if meta.IsDefined("clipboard_tool") {
		cfg.ClipboardTool = strings.TrimSpace(raw.ClipboardTool)
	}
	return cfg, nil
}
