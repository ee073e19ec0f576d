package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackdeck/internal/domain/track"
)

func TestChain_Apply(t *testing.T) {
	limit := NewDurationLimitFilter()
	require.NoError(t, limit.ValidateConfig(map[string]any{"max": "5:00"}))

	c := NewChain()
	c.Add(limit)
	c.Add(NewDuplicateTrackFilter())

	tracks := []track.Track{
		{ID: "1", Title: "Mi Canción Nueva", Artist: "Willi ArVi", Duration: 3*time.Minute + 45*time.Second},
		{ID: "2", Title: "Mi Canción Nueva (Radio Edit)", Artist: "Willi ArVi", Duration: 3 * time.Minute},
		{ID: "3", Title: "Suite Larga", Artist: "Willi ArVi", Duration: 9 * time.Minute},
		{ID: "4", Title: "Bajo las Estrellas", Artist: "Willi ArVi", Duration: 4 * time.Minute},
	}

	kept, rejected := c.Apply(context.Background(), tracks)

	require.Len(t, kept, 2)
	assert.Equal(t, "1", kept[0].ID)
	assert.Equal(t, "4", kept[1].ID)

	require.Len(t, rejected, 2)
	assert.Equal(t, "2", rejected[0].Track.ID)
	assert.Equal(t, "duplicate_track_filter", rejected[0].Filter)
	assert.Equal(t, "duplicate_track", rejected[0].Code)
	assert.Equal(t, `version of "Mi Canción Nueva"`, rejected[0].Detail)
	assert.Equal(t, "3", rejected[1].Track.ID)
	assert.Equal(t, "duration_limit_filter", rejected[1].Filter)
	assert.Equal(t, "duration_too_long", rejected[1].Code)
	assert.Equal(t, "9:00 is longer than 5:00", rejected[1].Detail)
}

func TestChain_Empty(t *testing.T) {
	tracks := []track.Track{{ID: "1"}, {ID: "1"}}

	kept, rejected := NewChain().Apply(context.Background(), tracks)

	assert.Len(t, kept, 2)
	assert.Empty(t, rejected)
}

func TestNewChainFromSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]map[string]any
		want     []string
		wantErr  bool
	}{
		{
			name:     "No filters",
			settings: nil,
			want:     []string{},
		},
		{
			name: "Both filters in name order",
			settings: map[string]map[string]any{
				"duration_limit_filter":  {"min": "1:00"},
				"duplicate_track_filter": {},
			},
			want: []string{"duplicate_track_filter", "duration_limit_filter"},
		},
		{
			name: "Unknown filter",
			settings: map[string]map[string]any{
				"market_filter": {},
			},
			wantErr: true,
		},
		{
			name: "Invalid settings",
			settings: map[string]map[string]any{
				"duration_limit_filter": {"min": "10:00", "max": "2:00"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChainFromSettings(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			names := make([]string, 0, len(c.Filters()))
			for _, f := range c.Filters() {
				names = append(names, f.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestGetRegistered(t *testing.T) {
	registered := GetRegistered()

	assert.Contains(t, registered, "duration_limit_filter")
	assert.Contains(t, registered, "duplicate_track_filter")
	assert.Equal(t, "duplicate_track_filter", registered["duplicate_track_filter"]().Name())
}
