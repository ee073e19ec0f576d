// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidDuration is returned when a duration string is not in M:SS form.
var ErrInvalidDuration = errors.New("invalid duration, expected M:SS")

// Track represents a playable catalog entry.
// Tracks are immutable once loaded into a catalog.
type Track struct {
	ID       string        // Stable unique identifier
	Title    string        // Track title
	Artist   string        // Artist name
	Album    string        // Album name
	Duration time.Duration // Declared duration (whole seconds)
	URL      string        // Resource locator of the audio file
	CoverURL string        // Cover art locator
}

// DurationLabel returns the declared duration in M:SS form.
func (t Track) DurationLabel() string {
	return FormatClock(t.Duration)
}

// Subtitle returns the "artist - album" line shown under the title.
func (t Track) Subtitle() string {
	switch {
	case t.Artist == "":
		return t.Album
	case t.Album == "":
		return t.Artist
	default:
		return t.Artist + " - " + t.Album
	}
}

// DurationSeconds returns the declared duration in whole seconds.
func (t Track) DurationSeconds() int {
	return int(t.Duration / time.Second)
}

// MaxMinutes is the largest minute count ParseDuration accepts.
const MaxMinutes = 9999

// ParseDuration parses a "M:SS" string such as "3:45".
// Minutes are unsigned digits up to MaxMinutes; seconds must be two digits below 60.
func ParseDuration(s string) (time.Duration, error) {
	mins, secs, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || !isDigits(mins) || len(secs) != 2 || !isDigits(secs) {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}

	m, err := strconv.Atoi(mins)
	if err != nil || m > MaxMinutes {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q: minutes out of range", s)
	}
	sec, _ := strconv.Atoi(secs)
	if sec > 59 {
		return 0, errors.Wrapf(ErrInvalidDuration, "%q", s)
	}

	return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatClock formats d as M:SS, truncating to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
