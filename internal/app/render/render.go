// Package render provides notification subscribers that present playback state.
package render

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/infra/config"
)

// Renderer is a notification subscriber that presents playback state.
type Renderer interface {
	notification.Stream
	// Name returns the renderer type (used in config).
	Name() string
}

// NewFromConfig creates the configured renderers. Console output goes to out.
func NewFromConfig(cfgs []config.RendererConfig, out io.Writer) ([]Renderer, error) {
	renderers := make([]Renderer, 0, len(cfgs))

	for i, rcfg := range cfgs {
		var r Renderer
		var err error
		zlog.Debug().Msgf("creating renderer: index=%d type=%s settings=%+v", i+1, rcfg.Type, rcfg.Settings)
		switch rcfg.Type {
		case "console":
			r, err = NewConsole(out, rcfg.Settings)
		case "log":
			r, err = NewLog(rcfg.Settings)
		default:
			return nil, errors.Newf("unsupported renderer type: %s (renderer index %d)", rcfg.Type, i)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create renderer (index %d, type %s)", i, rcfg.Type)
		}

		renderers = append(renderers, r)
		zlog.Info().Msgf("registered renderer: index=%d type=%s", i+1, rcfg.Type)
	}

	return renderers, nil
}

// decodeSettings decodes a settings map into out, applies defaults and validates it.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
