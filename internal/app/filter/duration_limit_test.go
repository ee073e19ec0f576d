package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackdeck/internal/domain/track"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name       string
		settings   map[string]any
		duration   time.Duration
		wantCode   string
		wantDetail string
	}{
		{
			name:     "within bounds",
			settings: map[string]any{"min": "2:00", "max": "5:00"},
			duration: 3*time.Minute + 45*time.Second,
		},
		{
			name:       "too short",
			settings:   map[string]any{"min": "3:00"},
			duration:   2*time.Minute + 10*time.Second,
			wantCode:   CodeDurationTooShort,
			wantDetail: "2:10 is shorter than 3:00",
		},
		{
			name:       "too long",
			settings:   map[string]any{"max": "5:00"},
			duration:   6*time.Minute + 1*time.Second,
			wantCode:   CodeDurationTooLong,
			wantDetail: "6:01 is longer than 5:00",
		},
		{
			name:     "exactly min",
			settings: map[string]any{"min": "3:00"},
			duration: 3 * time.Minute,
		},
		{
			name:     "exactly max",
			settings: map[string]any{"min": "1:00", "max": "5:00"},
			duration: 5 * time.Minute,
		},
		{
			name:     "no bounds keeps a zero length track",
			settings: map[string]any{},
			duration: 0,
		},
		{
			name:     "no max keeps a long suite",
			settings: map[string]any{"min": "0:30"},
			duration: 42 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			require.NoError(t, f.ValidateConfig(tt.settings))

			result := f.Check(context.Background(), track.Track{ID: "x", Duration: tt.duration}, nil)

			if tt.wantCode == "" {
				assert.True(t, result.Accepted)
				return
			}
			assert.False(t, result.Accepted)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantDetail, result.Detail)
		})
	}
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{name: "both bounds", settings: map[string]any{"min": "1:30", "max": "8:00"}},
		{name: "only max", settings: map[string]any{"max": "10:00"}},
		{name: "empty settings", settings: map[string]any{}},
		{name: "min longer than max", settings: map[string]any{"min": "9:00", "max": "4:00"}, wantErr: true},
		{name: "minutes instead of clock", settings: map[string]any{"min": "3"}, wantErr: true},
		{name: "bad seconds", settings: map[string]any{"max": "4:75"}, wantErr: true},
		{name: "negative bound", settings: map[string]any{"min": "-1:00"}, wantErr: true},
		{name: "unknown key", settings: map[string]any{"min_minutes": 2}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDurationLimitFilter().ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationLimitFilter_ReturnCodes(t *testing.T) {
	f := NewDurationLimitFilter()

	assert.Equal(t, "duration_limit_filter", f.Name())
	assert.ElementsMatch(t, []string{"duration_too_short", "duration_too_long"}, f.ReturnCodes())
}
