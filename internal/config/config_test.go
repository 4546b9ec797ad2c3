package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.JPEGQuality != 80 {
		t.Errorf("JPEGQuality: got %d, want 80", cfg.JPEGQuality)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("HTTPAddr: got %q, want disabled", cfg.HTTPAddr)
	}
	if cfg.Debug() {
		t.Error("debug should be off by default")
	}
	if cfg.FetchTimeout() != 30*time.Second {
		t.Errorf("FetchTimeout: got %v", cfg.FetchTimeout())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"jpeg_quality": 90,
		"http_addr": ":8099",
		"plates": [
			{"serial": "01S00A", "pick_image": "/data/01S00A/pick.png"},
			{"serial": "01P00B", "pick_image": "http://printer.local/pick.png"}
		]
	}`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	want := Default()
	want.JPEGQuality = 90
	want.HTTPAddr = ":8099"
	want.Plates = []PlateConfig{
		{Serial: "01S00A", PickImage: "/data/01S00A/pick.png"},
		{Serial: "01P00B", PickImage: "http://printer.local/pick.png"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(writeConfig(t, "{not json")); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"quality zero", func(c *Config) { c.JPEGQuality = 0 }, true},
		{"quality 101", func(c *Config) { c.JPEGQuality = 101 }, true},
		{"quality 1", func(c *Config) { c.JPEGQuality = 1 }, false},
		{"debug upper", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"zero timeout", func(c *Config) { c.FetchTimeoutSeconds = 0 }, true},
		{"zero workers", func(c *Config) { c.MaxConcurrentAnalyses = 0 }, true},
		{"plate without serial", func(c *Config) {
			c.Plates = []PlateConfig{{PickImage: "/x.png"}}
		}, true},
		{"plate without image", func(c *Config) {
			c.Plates = []PlateConfig{{Serial: "A"}}
		}, true},
		{"duplicate serial", func(c *Config) {
			c.Plates = []PlateConfig{{"A", "/a.png"}, {"A", "/b.png"}}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9000")
	t.Setenv(EnvJPEGQuality, "55")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if !cfg.Debug() {
		t.Error("debug not enabled from environment")
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.JPEGQuality != 55 {
		t.Errorf("JPEGQuality: got %d", cfg.JPEGQuality)
	}

	t.Setenv(EnvJPEGQuality, "high")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric quality")
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `{"jpeg_quality": 70, "max_concurrent_analyses": 4}`)
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvJPEGQuality, "65")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Environment wins over the file.
	if cfg.JPEGQuality != 65 {
		t.Errorf("JPEGQuality: got %d, want 65", cfg.JPEGQuality)
	}
	if cfg.MaxConcurrentAnalyses != 4 {
		t.Errorf("MaxConcurrentAnalyses: got %d, want 4", cfg.MaxConcurrentAnalyses)
	}

	t.Setenv(EnvJPEGQuality, "0")
	if _, err := Load(); err == nil {
		t.Error("Load should validate the result")
	}
}
