package playback

// EventType represents a playback event type.
type EventType int

const (
	EventTrackLoaded  EventType = iota // Current track changed (or was reloaded)
	EventStateChanged                  // Playing/paused flag changed
	EventModeChanged                   // Shuffle or repeat toggled
	EventProgress                      // Simulated progress advanced
	EventTrackEnded                    // Current track reached its end
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackLoaded:
		return "track_loaded"
	case EventStateChanged:
		return "state_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventProgress:
		return "progress"
	case EventTrackEnded:
		return "track_ended"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Snapshot Snapshot // Controller state right after the change
}
