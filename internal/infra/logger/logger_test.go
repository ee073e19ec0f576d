package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestShortCaller(t *testing.T) {
	file := filepath.Join("root", "module", "internal", "app", "player", "service.go")
	assert.Equal(t, filepath.Join("player", "service.go")+":42", shortCaller(0, file, 42))
	assert.Equal(t, "main.go:7", shortCaller(0, "main.go", 7))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false, true)

	l.Debug().Msg("hidden")
	l.Info().Str("k", "v").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"message":"shown"`)
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, true, true)

	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "INF")
	assert.Contains(t, buf.String(), "hello")
}

func TestInit(t *testing.T) {
	orig := zlog.Logger
	origLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = orig
		zerolog.SetGlobalLevel(origLevel)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trackdeck.log")
		closer, err := Init(Config{Output: "file", File: path, Level: "info"})
		require.NoError(t, err)

		zlog.Info().Msg("to file")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "to file")
	})

	t.Run("file without path", func(t *testing.T) {
		_, err := Init(Config{Output: "file"})
		assert.Error(t, err)
	})

	t.Run("unknown output", func(t *testing.T) {
		_, err := Init(Config{Output: "syslog"})
		assert.Error(t, err)
	})

	t.Run("stderr", func(t *testing.T) {
		closer, err := Init(Config{Output: "stderr", Level: "warn"})
		require.NoError(t, err)
		assert.NoError(t, closer.Close())
		assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	})
}
