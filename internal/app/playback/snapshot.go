package playback

import (
	"time"

	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
)

// Snapshot is an immutable copy of the controller state handed to observers.
type Snapshot struct {
	State    State
	Index    int           // Current index, -1 when the catalog is empty
	Progress float64       // Percent in [0,100]
	Elapsed  time.Duration // Progress mapped onto the declared duration
	Shuffle  bool
	Repeat   bool

	catalog *playlist.Catalog
}

// Entry is one row of the playlist view.
type Entry struct {
	Number  int // 1-based position
	Track   track.Track
	Current bool
}

// Playing reports whether playback is active.
func (s Snapshot) Playing() bool {
	return s.State == StatePlaying
}

// CurrentTrack returns the current track.
func (s Snapshot) CurrentTrack() (track.Track, bool) {
	return s.catalog.At(s.Index)
}

// Len returns the number of tracks in the catalog.
func (s Snapshot) Len() int {
	return s.catalog.Len()
}

// Entries returns the full track list with the current track marked.
func (s Snapshot) Entries() []Entry {
	tracks := s.catalog.Tracks()
	entries := make([]Entry, len(tracks))
	for i, t := range tracks {
		entries[i] = Entry{
			Number:  i + 1,
			Track:   t,
			Current: i == s.Index,
		}
	}
	return entries
}

// ElapsedLabel returns the elapsed time in M:SS form.
func (s Snapshot) ElapsedLabel() string {
	return track.FormatClock(s.Elapsed)
}
