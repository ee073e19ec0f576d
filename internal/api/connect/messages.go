package connect

import (
	"time"

	"github.com/samber/lo"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/app/playback"
	"github.com/osa030/trackdeck/internal/app/player"
	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
)

// TrackView is the JSON form of a track.
type TrackView struct {
	Number          int    `json:"number"`
	ID              string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Album           string `json:"album"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"duration_seconds"`
	URL             string `json:"url,omitempty"`
	Cover           string `json:"cover,omitempty"`
	Current         bool   `json:"current,omitempty"`
}

// StateView is the JSON form of a playback snapshot.
type StateView struct {
	State          string     `json:"state"`
	Index          int        `json:"index"`
	Progress       float64    `json:"progress"`
	Elapsed        string     `json:"elapsed"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Shuffle        bool       `json:"shuffle"`
	Repeat         bool       `json:"repeat"`
	TrackCount     int        `json:"track_count"`
	Track          *TrackView `json:"track,omitempty"`
}

// CatalogView is the JSON form of the catalog with the current track marked.
type CatalogView struct {
	Name          string      `json:"name"`
	TotalDuration string      `json:"total_duration"`
	Tracks        []TrackView `json:"tracks"`
}

// StatusView is the JSON form of the player status.
type StatusView struct {
	SessionID   string     `json:"session_id"`
	Phase       string     `json:"phase"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Subscribers int        `json:"subscribers"`
	State       StateView  `json:"state"`
}

// NotificationView is one message of the notification stream.
type NotificationView struct {
	SequenceNo uint64    `json:"sequence_no"`
	Type       string    `json:"type"`
	State      StateView `json:"state"`
}

// Empty is the request of procedures without parameters.
type Empty struct{}

// SelectTrackRequest selects the track at a zero-based index.
type SelectTrackRequest struct {
	Index int `json:"index"`
}

func newTrackView(number int, t track.Track, current bool) TrackView {
	return TrackView{
		Number:          number,
		ID:              t.ID,
		Title:           t.Title,
		Artist:          t.Artist,
		Album:           t.Album,
		Duration:        t.DurationLabel(),
		DurationSeconds: t.DurationSeconds(),
		URL:             t.URL,
		Cover:           t.CoverURL,
		Current:         current,
	}
}

func newStateView(s playback.Snapshot) StateView {
	v := StateView{
		State:          s.State.String(),
		Index:          s.Index,
		Progress:       s.Progress,
		Elapsed:        s.ElapsedLabel(),
		ElapsedSeconds: int(s.Elapsed.Seconds()),
		Shuffle:        s.Shuffle,
		Repeat:         s.Repeat,
		TrackCount:     s.Len(),
	}
	if t, ok := s.CurrentTrack(); ok {
		tv := newTrackView(s.Index+1, t, true)
		v.Track = &tv
	}
	return v
}

func newCatalogView(c *playlist.Catalog, s playback.Snapshot) CatalogView {
	return CatalogView{
		Name:          c.Name(),
		TotalDuration: track.FormatClock(c.TotalDuration()),
		Tracks: lo.Map(s.Entries(), func(e playback.Entry, _ int) TrackView {
			return newTrackView(e.Number, e.Track, e.Current)
		}),
	}
}

func newStatusView(st *player.Status) StatusView {
	v := StatusView{
		SessionID:   st.SessionID,
		Phase:       st.Phase.String(),
		Subscribers: st.Subscribers,
		State:       newStateView(st.Snapshot),
	}
	if !st.StartedAt.IsZero() {
		v.StartedAt = &st.StartedAt
	}
	return v
}

func newNotificationView(n *notification.Notification) NotificationView {
	return NotificationView{
		SequenceNo: n.SequenceNo,
		Type:       string(n.Type),
		State:      newStateView(n.Snapshot),
	}
}
