package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysOnlyDefinedKeys(t *testing.T) {
	path := writeConfig(t, `
chunk_size = 4096
poll_interval = "50ms"
status_addr = ":9400"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ChunkSize != 4096 {
		t.Fatalf("chunk_size = %d", cfg.ChunkSize)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Fatalf("poll_interval = %v", cfg.PollInterval)
	}
	if cfg.StatusAddr != ":9400" {
		t.Fatalf("status_addr = %q", cfg.StatusAddr)
	}
	// Undefined keys keep their defaults.
	if cfg.AckTimeout != Default().AckTimeout {
		t.Fatalf("ack_timeout = %v, want default", cfg.AckTimeout)
	}
	if cfg.OutputDir != Default().OutputDir {
		t.Fatalf("output_dir = %q, want default", cfg.OutputDir)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	for _, content := range []string{
		`chunk_size = 0`,
		`poll_interval = "not-a-duration"`,
		`ack_timeout = "???"`,
	} {
		if _, err := Load(writeConfig(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestTemplateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("template load = %+v, want defaults %+v", cfg, Default())
	}
}

func TestTemplateIncludesFullSchema(t *testing.T) {
	text, err := Template()
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	for _, key := range []string{
		"chunk_size", "dividing_size", "part_size", "poll_interval",
		"ack_timeout", "archive", "output_dir", "status_addr", "clipboard_tool",
	} {
		if !strings.Contains(text, key) {
			t.Fatalf("template missing key %q", key)
		}
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "chunk_size = 1\n")
	if err := WriteTemplate(path, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := WriteTemplate(path, true); err != nil {
		t.Fatalf("forced overwrite: %v", err)
	}
}
