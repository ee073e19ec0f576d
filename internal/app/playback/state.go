// Package playback provides the playback state machine over a fixed catalog.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No track available (empty catalog)
	StatePaused               // A track is loaded but not playing
	StatePlaying              // A track is playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePaused:
		return "PAUSED"
	case StatePlaying:
		return "PLAYING"
	default:
		return "UNKNOWN"
	}
}
