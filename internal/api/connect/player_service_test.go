package connect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/app/playback"
	"github.com/osa030/trackdeck/internal/app/player"
	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
	"github.com/osa030/trackdeck/internal/infra/config"
)

type idleTicker struct{ ch chan time.Time }

func (t *idleTicker) C() <-chan time.Time { return t.ch }
func (t *idleTicker) Stop()               {}

func newTestPlayer(t *testing.T, start bool) *player.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Renderers = nil

	catalog := playlist.NewCatalog("test", []track.Track{
		{ID: "1", Title: "Mi Canción Nueva", Artist: "Willi ArVi", Album: "Single 2024", Duration: 225 * time.Second},
		{ID: "2", Title: "Sueños de Verano", Artist: "Willi ArVi", Album: "Verano EP", Duration: 260 * time.Second},
		{ID: "3", Title: "Noche Estrellada", Artist: "Willi ArVi", Album: "Nocturno", Duration: 235 * time.Second},
	})
	p := player.NewService(cfg, catalog, player.WithPlaybackConfig(func(c *playback.Config) {
		c.NewTicker = func(time.Duration) playback.Ticker { return &idleTicker{ch: make(chan time.Time)} }
	}))
	t.Cleanup(p.Close)

	if start {
		require.NoError(t, p.Start(context.Background()))
	}
	return p
}

func newTestServer(t *testing.T, p Player, token string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(NewHandler(p, token))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, token, srv.Client())
}

// post calls a unary procedure the way curl would: a JSON body over HTTP/1.1.
func post(t *testing.T, srv *httptest.Server, procedure, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+procedure, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf strings.Builder
	_, err = io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	return resp, []byte(buf.String())
}

func TestPlayerService_GetState(t *testing.T) {
	_, c := newTestServer(t, newTestPlayer(t, true), "")

	v, err := c.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PAUSED", v.State)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, "0:00", v.Elapsed)
	assert.Equal(t, 3, v.TrackCount)
	require.NotNil(t, v.Track)
	assert.Equal(t, "Mi Canción Nueva", v.Track.Title)
	assert.Equal(t, "3:45", v.Track.Duration)
	assert.Equal(t, 225, v.Track.DurationSeconds)
}

func TestPlayerService_GetStatus(t *testing.T) {
	_, c := newTestServer(t, newTestPlayer(t, true), "")

	v, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", v.Phase)
	assert.NotEmpty(t, v.SessionID)
	require.NotNil(t, v.StartedAt)
	assert.Equal(t, "PAUSED", v.State.State)
}

func TestPlayerService_GetStatusBeforeStart(t *testing.T) {
	_, c := newTestServer(t, newTestPlayer(t, false), "")

	v, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WAITING", v.Phase)
	assert.Nil(t, v.StartedAt)
}

func TestPlayerService_ListTracks(t *testing.T) {
	_, c := newTestServer(t, newTestPlayer(t, true), "")

	v, err := c.Tracks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", v.Name)
	assert.Equal(t, "12:00", v.TotalDuration)
	require.Len(t, v.Tracks, 3)
	assert.True(t, v.Tracks[0].Current)
	assert.False(t, v.Tracks[1].Current)
	assert.Equal(t, 2, v.Tracks[1].Number)
}

func TestPlayerService_Controls(t *testing.T) {
	tests := []struct {
		name   string
		call   func(ctx context.Context, c *Client) (*StateView, error)
		verify func(t *testing.T, v *StateView)
	}{
		{"play", control("play"), func(t *testing.T, v *StateView) { assert.Equal(t, "PLAYING", v.State) }},
		{"toggle", control("toggle"), func(t *testing.T, v *StateView) { assert.Equal(t, "PLAYING", v.State) }},
		{"pause", control("pause"), func(t *testing.T, v *StateView) { assert.Equal(t, "PAUSED", v.State) }},
		{"next", control("next"), func(t *testing.T, v *StateView) { assert.Equal(t, 1, v.Index) }},
		{"previous", control("previous"), func(t *testing.T, v *StateView) { assert.Equal(t, 2, v.Index) }},
		{"shuffle", control("shuffle"), func(t *testing.T, v *StateView) { assert.True(t, v.Shuffle) }},
		{"repeat", control("repeat"), func(t *testing.T, v *StateView) { assert.True(t, v.Repeat) }},
		{"select", selectTrack(2), func(t *testing.T, v *StateView) {
			assert.Equal(t, 2, v.Index)
			assert.Equal(t, "PLAYING", v.State)
		}},
		{"select out of range", selectTrack(7), func(t *testing.T, v *StateView) {
			assert.Equal(t, 0, v.Index)
			assert.Equal(t, "PAUSED", v.State)
		}},
		{"select negative", selectTrack(-1), func(t *testing.T, v *StateView) {
			assert.Equal(t, 0, v.Index)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, newTestPlayer(t, true), "")
			v, err := tt.call(context.Background(), c)
			require.NoError(t, err)
			tt.verify(t, v)
		})
	}
}

func control(action string) func(context.Context, *Client) (*StateView, error) {
	return func(ctx context.Context, c *Client) (*StateView, error) {
		return c.Control(ctx, action)
	}
}

func selectTrack(index int) func(context.Context, *Client) (*StateView, error) {
	return func(ctx context.Context, c *Client) (*StateView, error) {
		return c.Select(ctx, index)
	}
}

func TestPlayerService_PlainJSON(t *testing.T) {
	srv, _ := newTestServer(t, newTestPlayer(t, true), "")

	resp, body := post(t, srv, NextProcedure, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var v StateView
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, 1, v.Index)

	resp, body = post(t, srv, SelectTrackProcedure, `{"index":2}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &v))
	assert.Equal(t, 2, v.Index)
}

func TestPlayerService_SelectBadIndex(t *testing.T) {
	srv, _ := newTestServer(t, newTestPlayer(t, true), "")

	resp, body := post(t, srv, SelectTrackProcedure, `{"index":"abc"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid_argument")
}

func TestPlayerService_NotRunning(t *testing.T) {
	_, c := newTestServer(t, newTestPlayer(t, false), "")

	_, err := c.Control(context.Background(), "play")
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnavailable, connect.CodeOf(err))

	_, err = c.State(context.Background())
	assert.NoError(t, err)
}

func TestPlayerService_ControlToken(t *testing.T) {
	p := newTestPlayer(t, true)
	srv, _ := newTestServer(t, p, "secret")

	tests := []struct {
		name      string
		procedure string
		body      string
		token     string
		want      int
	}{
		{"missing token", NextProcedure, "", "", http.StatusUnauthorized},
		{"wrong token", NextProcedure, "", "nope", http.StatusUnauthorized},
		{"valid token", NextProcedure, "", "secret", http.StatusOK},
		{"select without token", SelectTrackProcedure, `{"index":1}`, "", http.StatusUnauthorized},
		{"reads are open", GetStateProcedure, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.token != "" {
				header.Set(ControlTokenHeader, tt.token)
			}
			resp, _ := post(t, srv, tt.procedure, tt.body, header)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPlayerService_SubscribeNotifications(t *testing.T) {
	p := newTestPlayer(t, true)
	_, c := newTestServer(t, p, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan NotificationView, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Subscribe(ctx, func(v NotificationView) error {
			events <- v
			return nil
		})
	}()

	next := func() NotificationView {
		t.Helper()
		select {
		case v := <-events:
			return v
		case <-ctx.Done():
			t.Fatal("timed out waiting for notification")
			return NotificationView{}
		}
	}

	first := next()
	assert.Equal(t, "initial_state", first.Type)
	assert.Equal(t, 0, first.State.Index)
	// The subscription exists before the initial state is sent
	assert.Equal(t, 1, p.GetNotificationManager().SubscriberCount())

	require.NoError(t, p.Next())
	loaded := next()
	assert.Equal(t, "track_loaded", loaded.Type)
	assert.Equal(t, 1, loaded.State.Index)
	assert.Greater(t, loaded.SequenceNo, first.SequenceNo)

	cancel()
	assert.Eventually(t, func() bool {
		return p.GetNotificationManager().SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, <-done)
}

func TestNotificationStreamAdapter(t *testing.T) {
	m := notification.NewManager()
	defer m.Close()

	var sent []NotificationView
	a := &notificationStreamAdapter{send: func(v *NotificationView) error {
		sent = append(sent, *v)
		return nil
	}}

	var stale *notification.Notification
	id, err := a.open(m, func() *notification.Notification {
		// A broadcast stamped while the subscriber is being set up
		stale = &notification.Notification{SequenceNo: m.NextSequenceNo(), Type: notification.TypeProgress}
		return &notification.Notification{SequenceNo: m.NextSequenceNo(), Type: notification.TypeInitialState}
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.SubscriberCount())

	require.NoError(t, a.Send(stale))
	m.Broadcast(&notification.Notification{Type: notification.TypeModeChanged})

	require.Len(t, sent, 2)
	assert.Equal(t, "initial_state", sent[0].Type)
	assert.Equal(t, "mode_changed", sent[1].Type)

	m.Unsubscribe(id)
	a.close()
	assert.ErrorIs(t, a.Send(&notification.Notification{SequenceNo: 99}), errStreamClosed)
}
