// Package config loads the plate analyzer configuration from an optional JSON
// file and PLATE_ANALYZER_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
)

// Environment variables read by ApplyEnv and Load.
const (
	EnvConfig      = "PLATE_ANALYZER_CONFIG"
	EnvLogLevel    = "PLATE_ANALYZER_LOG_LEVEL"
	EnvHTTPAddr    = "PLATE_ANALYZER_HTTP_ADDR"
	EnvJPEGQuality = "PLATE_ANALYZER_JPEG_QUALITY"
)

// Config holds the application configuration
type Config struct {
	JPEGQuality           int           `json:"jpeg_quality"`
	HTTPAddr              string        `json:"http_addr"`
	LogLevel              string        `json:"log_level"`
	FetchTimeoutSeconds   int           `json:"fetch_timeout_seconds"`
	MaxConcurrentAnalyses int           `json:"max_concurrent_analyses"`
	Plates                []PlateConfig `json:"plates"`
}

// PlateConfig registers the pick image of one printer at startup.
type PlateConfig struct {
	Serial string `json:"serial"`

	// PickImage is a file path or an http(s) URL.
	PickImage string `json:"pick_image"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		JPEGQuality:           imaging.DefaultJPEGQuality,
		HTTPAddr:              "",
		LogLevel:              "info",
		FetchTimeoutSeconds:   30,
		MaxConcurrentAnalyses: 2,
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load reads the file named by PLATE_ANALYZER_CONFIG (if set), applies the
// environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfig); path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PLATE_ANALYZER_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddr); ok {
		c.HTTPAddr = v
	}
	if v := os.Getenv(EnvJPEGQuality); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", EnvJPEGQuality, v)
		}
		c.JPEGQuality = q
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "info", "debug":
	default:
		return fmt.Errorf("log_level must be \"info\" or \"debug\", got %q", c.LogLevel)
	}

	if c.FetchTimeoutSeconds < 1 {
		return fmt.Errorf("fetch_timeout_seconds must be positive")
	}

	if c.MaxConcurrentAnalyses < 1 {
		return fmt.Errorf("max_concurrent_analyses must be positive")
	}

	seen := make(map[string]bool, len(c.Plates))
	for i, p := range c.Plates {
		if p.Serial == "" {
			return fmt.Errorf("plates[%d].serial is required", i)
		}
		if p.PickImage == "" {
			return fmt.Errorf("plates[%d].pick_image is required", i)
		}
		if seen[p.Serial] {
			return fmt.Errorf("plates[%d]: duplicate serial %s", i, p.Serial)
		}
		seen[p.Serial] = true
	}

	return nil
}

// Debug reports whether debug logging is enabled.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// FetchTimeout returns the URL fetch timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
