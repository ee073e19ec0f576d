package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Addr: ":8080"},
			Playback: PlaybackConfig{
				TickIntervalMs: 100,
				ProgressStep:   0.5,
				EventBuffer:    64,
			},
			Renderers: []RendererConfig{{Type: "console"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing addr",
			mutate:  func(c *Config) { c.Server.Addr = "" },
			wantErr: true,
			errMsg:  "Addr",
		},
		{
			name:    "tick interval too small",
			mutate:  func(c *Config) { c.Playback.TickIntervalMs = 1 },
			wantErr: true,
			errMsg:  "TickIntervalMs",
		},
		{
			name:    "progress step over 100",
			mutate:  func(c *Config) { c.Playback.ProgressStep = 150 },
			wantErr: true,
			errMsg:  "ProgressStep",
		},
		{
			name:    "negative start index",
			mutate:  func(c *Config) { c.Playback.StartIndex = -1 },
			wantErr: true,
			errMsg:  "StartIndex",
		},
		{
			name:    "unknown renderer",
			mutate:  func(c *Config) { c.Renderers = []RendererConfig{{Type: "dom"}} },
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "duplicate renderer",
			mutate: func(c *Config) {
				c.Renderers = []RendererConfig{{Type: "log"}, {Type: "log"}}
			},
			wantErr: true,
			errMsg:  "more than once",
		},
		{
			name:   "no renderers",
			mutate: func(c *Config) { c.Renderers = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
catalog:
  path: config/catalog.yaml
renderers:
  - type: log
    settings:
      level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100, cfg.Playback.TickIntervalMs)
	assert.Equal(t, 0.5, cfg.Playback.ProgressStep)
	assert.Equal(t, 64, cfg.Playback.EventBuffer)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, "config/catalog.yaml", cfg.Catalog.Path)
	require.Len(t, cfg.Renderers, 1)
	assert.Equal(t, "debug", cfg.Renderers[0].Settings["level"])
	assert.False(t, cfg.IsControlProtected())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("server: [not, a, map]"))
	assert.Error(t, err)

	_, err = Parse([]byte("playback:\n  tick_interval_ms: 5\n"))
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
  control_token: from-file
playback:
  autoplay: true
  shuffle: true
`), 0o644))

	t.Setenv("TRACKDECK_CONTROL_TOKEN", "from-env")
	t.Setenv("TRACKDECK_CATALOG", "/tmp/catalog.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.Server.ControlToken)
	assert.Equal(t, "/tmp/catalog.yaml", cfg.Catalog.Path)
	assert.True(t, cfg.Playback.Autoplay)
	assert.True(t, cfg.Playback.Shuffle)
	assert.False(t, cfg.Playback.Repeat)
	assert.True(t, cfg.IsControlProtected())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestDefault(t *testing.T) {
	t.Setenv("TRACKDECK_ADDR", "")
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	require.Len(t, cfg.Renderers, 1)
	assert.Equal(t, "console", cfg.Renderers[0].Type)
}
