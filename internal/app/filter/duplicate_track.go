package filter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/osa030/trackdeck/internal/domain/track"
)

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}

	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s+-\s+live\b.*$`),         // "- Live at Budokan"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}

	spaces = regexp.MustCompile(`\s+`)
)

// DuplicateTrackFilter rejects tracks already accepted into the catalog.
// Detects:
// - Exact track ID matches
// - Alternate versions (normalized title + same main artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Drops repeated tracks and alternate versions (remaster, live, edit) of the same song; covers are kept"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the track duplicates one already accepted.
func (f *DuplicateTrackFilter) Check(ctx context.Context, candidate track.Track, accepted []track.Track) Result {
	for _, t := range accepted {
		// 1. Exact track ID match
		if t.ID == candidate.ID {
			return RejectWithDetail("duplicate_track", "already imported")
		}

		// 2. Version detection: normalized name + same artist
		if isSameSong(t, candidate) {
			return RejectWithDetail("duplicate_track", fmt.Sprintf("version of %q", t.Title))
		}
	}

	return Accept()
}

// isSameSong reports whether two tracks are versions of the same song.
func isSameSong(track1, track2 track.Track) bool {
	if normalizeTrackName(track1.Title) != normalizeTrackName(track2.Title) {
		return false
	}

	// Same normalized name by a different artist is a cover
	return isSameArtist(track1, track2)
}

// normalizeTrackName removes remaster information and version details.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)

	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = strings.TrimSpace(normalized)
	normalized = spaces.ReplaceAllString(normalized, " ")

	// Remove trailing dashes
	return strings.TrimRight(normalized, " -")
}

// mainArtist returns the first name of a comma separated artist list.
func mainArtist(artist string) string {
	main, _, _ := strings.Cut(artist, ",")
	return strings.TrimSpace(main)
}

// isSameArtist checks if two tracks have the same main artist.
func isSameArtist(track1, track2 track.Track) bool {
	a1, a2 := mainArtist(track1.Artist), mainArtist(track2.Artist)
	if a1 == "" || a2 == "" {
		return false
	}

	return strings.EqualFold(a1, a2)
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
