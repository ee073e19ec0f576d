package render

import (
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/app/notification"
)

// LogConfig represents the log renderer settings.
type LogConfig struct {
	Level           string `mapstructure:"level" default:"info" validate:"oneof=debug info warn"`
	IncludeProgress bool   `mapstructure:"include_progress"`
}

// Log writes one structured log line per notification.
type Log struct {
	logger zerolog.Logger
	level  zerolog.Level
	config LogConfig
}

// NewLog creates a log renderer using the global logger.
func NewLog(settings map[string]any) (*Log, error) {
	var cfg LogConfig
	if err := decodeSettings(settings, &cfg); err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	return &Log{
		logger: zlog.Logger.With().Str("component", "render").Logger(),
		level:  level,
		config: cfg,
	}, nil
}

// Name returns the renderer type.
func (l *Log) Name() string {
	return "log"
}

// Send logs a notification.
func (l *Log) Send(n *notification.Notification) error {
	if n.Type == notification.TypeProgress && !l.config.IncludeProgress {
		return nil
	}

	s := n.Snapshot
	ev := l.logger.WithLevel(l.level).
		Uint64("seq", n.SequenceNo).
		Str("type", string(n.Type)).
		Str("state", s.State.String()).
		Int("index", s.Index).
		Bool("shuffle", s.Shuffle).
		Bool("repeat", s.Repeat)

	if t, ok := s.CurrentTrack(); ok {
		ev = ev.Str("track_id", t.ID).
			Str("title", t.Title).
			Str("elapsed", s.ElapsedLabel()).
			Str("duration", t.DurationLabel()).
			Float64("progress", s.Progress)
	}

	ev.Msg("playback")
	return nil
}
