package notification

import "github.com/osa030/trackdeck/internal/app/playback"

// Type identifies what a notification reports.
type Type string

const (
	TypeInitialState Type = "initial_state"
	TypeTrackLoaded  Type = "track_loaded"
	TypeStateChanged Type = "state_changed"
	TypeModeChanged  Type = "mode_changed"
	TypeProgress     Type = "progress"
	TypeTrackEnded   Type = "track_ended"
)

// Notification is what subscribers receive.
type Notification struct {
	SequenceNo uint64
	Type       Type
	Snapshot   playback.Snapshot
}

// TypeFromEvent maps a playback event type to a notification type.
func TypeFromEvent(t playback.EventType) Type {
	switch t {
	case playback.EventTrackLoaded:
		return TypeTrackLoaded
	case playback.EventStateChanged:
		return TypeStateChanged
	case playback.EventModeChanged:
		return TypeModeChanged
	case playback.EventProgress:
		return TypeProgress
	case playback.EventTrackEnded:
		return TypeTrackEnded
	default:
		return Type(t.String())
	}
}
