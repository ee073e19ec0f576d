// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Catalog   CatalogConfig    `yaml:"catalog"`
	Playback  PlaybackConfig   `yaml:"playback"`
	Renderers []RendererConfig `yaml:"renderers" validate:"dive"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080" validate:"required"`
	ControlToken string      `yaml:"control_token"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// CatalogConfig points at the catalog file. An empty path selects the built-in catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	TickIntervalMs int     `yaml:"tick_interval_ms" default:"100" validate:"gte=10,lte=10000"`
	ProgressStep   float64 `yaml:"progress_step" default:"0.5" validate:"gt=0,lte=100"`
	EventBuffer    int     `yaml:"event_buffer" default:"64" validate:"gte=1,lte=65536"`
	StartIndex     int     `yaml:"start_index" validate:"gte=0"`
	Autoplay       bool    `yaml:"autoplay"`
	Shuffle        bool    `yaml:"shuffle"`
	Repeat         bool    `yaml:"repeat"`
}

// RendererConfig represents a single renderer configuration.
type RendererConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=console log"`
	Settings map[string]any `yaml:"settings"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{
		Renderers: []RendererConfig{{Type: "console"}},
	}
	// defaults.Set only fails on malformed tags.
	_ = defaults.Set(cfg)
	cfg.overrideFromEnv()
	return cfg
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TRACKDECK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TRACKDECK_CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("TRACKDECK_CATALOG"); v != "" {
		c.Catalog.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateRenderers(); err != nil {
		return err
	}

	return nil
}

// validateRenderers rejects configuring the same renderer type twice.
func (c *Config) validateRenderers() error {
	seen := make(map[string]bool, len(c.Renderers))
	for i, r := range c.Renderers {
		if seen[r.Type] {
			return errors.Newf("renderer %q configured more than once (index %d)", r.Type, i)
		}
		seen[r.Type] = true
	}
	return nil
}

// TickInterval returns the progress tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Playback.TickIntervalMs) * time.Millisecond
}

// IsControlProtected reports whether control endpoints require a token.
func (c *Config) IsControlProtected() bool {
	return c.Server.ControlToken != ""
}
