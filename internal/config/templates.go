package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders the default configuration as a TOML document.
func Template() (string, error) {
	cfg := Default()
	raw := fileConfig{
		ChunkSize:     cfg.ChunkSize,
		DividingSize:  cfg.DividingSize,
		PartSize:      cfg.PartSize,
		PollInterval:  cfg.PollInterval.String(),
		AckTimeout:    cfg.AckTimeout.String(),
		Archive:       cfg.Archive,
		OutputDir:     cfg.OutputDir,
		StatusAddr:    cfg.StatusAddr,
		ClipboardTool: cfg.ClipboardTool,
	}
	out, err := toml.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("render config template: %w", err)
	}
	return string(out), nil
}

// WriteTemplate writes the default config template to path, refusing
// to overwrite unless told to.
func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
