// Package playlist provides the Catalog domain entity.
package playlist

import (
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/trackdeck/internal/domain/track"
)

var (
	ErrEmptyTrackID     = errors.New("track id is empty")
	ErrDuplicateTrackID = errors.New("duplicate track id")
)

// Catalog is the fixed, ordered sequence of tracks available for playback.
// It is never mutated after construction.
type Catalog struct {
	name   string
	tracks []track.Track
}

// NewCatalog creates a catalog from the given tracks.
// The slice is copied so later changes by the caller are not observed.
func NewCatalog(name string, tracks []track.Track) *Catalog {
	c := &Catalog{
		name:   name,
		tracks: make([]track.Track, len(tracks)),
	}
	copy(c.tracks, tracks)
	return c
}

// Name returns the catalog name.
func (c *Catalog) Name() string {
	return c.name
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tracks)
}

// At returns the track at index i.
func (c *Catalog) At(i int) (track.Track, bool) {
	if i < 0 || i >= c.Len() {
		return track.Track{}, false
	}
	return c.tracks[i], true
}

// Tracks returns a copy of all tracks.
func (c *Catalog) Tracks() []track.Track {
	result := make([]track.Track, c.Len())
	if c != nil {
		copy(result, c.tracks)
	}
	return result
}

// TrackIDs returns all track IDs in catalog order.
func (c *Catalog) TrackIDs() []string {
	ids := make([]string, c.Len())
	for i := range ids {
		ids[i] = c.tracks[i].ID
	}
	return ids
}

// IndexOf returns the index of the track with the given ID, or -1.
func (c *Catalog) IndexOf(id string) int {
	for i := 0; i < c.Len(); i++ {
		if c.tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// TotalDuration returns the sum of all declared durations.
func (c *Catalog) TotalDuration() time.Duration {
	var total time.Duration
	for i := 0; i < c.Len(); i++ {
		total += c.tracks[i].Duration
	}
	return total
}

// Validate checks that every track has a unique, non-empty ID.
func (c *Catalog) Validate() error {
	seen := make(map[string]int, c.Len())
	for i := 0; i < c.Len(); i++ {
		id := c.tracks[i].ID
		if id == "" {
			return errors.Wrapf(ErrEmptyTrackID, "track %d", i+1)
		}
		if prev, ok := seen[id]; ok {
			return errors.Wrapf(ErrDuplicateTrackID, "%q at positions %d and %d", id, prev+1, i+1)
		}
		seen[id] = i
	}
	return nil
}
