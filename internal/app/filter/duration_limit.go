package filter

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/domain/track"
)

const (
	CodeDurationTooShort = "duration_too_short"
	CodeDurationTooLong  = "duration_too_long"
)

// DurationLimitConfig bounds track length with catalog style "M:SS" values.
// An empty bound is not checked.
type DurationLimitConfig struct {
	Min string `mapstructure:"min" validate:"omitempty,contains=:"`
	Max string `mapstructure:"max" validate:"omitempty,contains=:"`
}

// DurationLimitFilter drops tracks whose length is outside [min, max].
type DurationLimitFilter struct {
	min time.Duration
	max time.Duration // 0 means no upper bound
}

// NewDurationLimitFilter creates a duration limit filter with no bounds.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Drops tracks shorter than min or longer than max (M:SS)"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{CodeDurationTooShort, CodeDurationTooLong}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &config,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	minD, err := parseBound("min", config.Min)
	if err != nil {
		return err
	}
	maxD, err := parseBound("max", config.Max)
	if err != nil {
		return err
	}
	if maxD > 0 && minD > maxD {
		return errors.Newf("min %s is longer than max %s", config.Min, config.Max)
	}

	f.min, f.max = minD, maxD
	zlog.Debug().Msgf("duration limit filter: min=%s max=%s", track.FormatClock(f.min), track.FormatClock(f.max))
	return nil
}

func parseBound(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := track.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return d, nil
}

func (f *DurationLimitFilter) Check(ctx context.Context, t track.Track, accepted []track.Track) Result {
	switch {
	case t.Duration < f.min:
		return RejectWithDetail(CodeDurationTooShort,
			fmt.Sprintf("%s is shorter than %s", t.DurationLabel(), track.FormatClock(f.min)))
	case f.max > 0 && t.Duration > f.max:
		return RejectWithDetail(CodeDurationTooLong,
			fmt.Sprintf("%s is longer than %s", t.DurationLabel(), track.FormatClock(f.max)))
	}
	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return NewDurationLimitFilter()
	})
}
