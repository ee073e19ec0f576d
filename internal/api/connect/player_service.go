// Package connect serves the player control API as a Connect RPC service.
package connect

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/app/playback"
	"github.com/osa030/trackdeck/internal/app/player"
	"github.com/osa030/trackdeck/internal/domain/playlist"
)

// PlayerServiceName is the fully-qualified name of the service.
const PlayerServiceName = "trackdeck.v1.PlayerService"

// Procedure paths of the service.
const (
	GetStateProcedure               = "/" + PlayerServiceName + "/GetState"
	GetStatusProcedure              = "/" + PlayerServiceName + "/GetStatus"
	ListTracksProcedure             = "/" + PlayerServiceName + "/ListTracks"
	PlayProcedure                   = "/" + PlayerServiceName + "/Play"
	PauseProcedure                  = "/" + PlayerServiceName + "/Pause"
	TogglePlayProcedure             = "/" + PlayerServiceName + "/TogglePlay"
	NextProcedure                   = "/" + PlayerServiceName + "/Next"
	PreviousProcedure               = "/" + PlayerServiceName + "/Previous"
	ToggleShuffleProcedure          = "/" + PlayerServiceName + "/ToggleShuffle"
	ToggleRepeatProcedure           = "/" + PlayerServiceName + "/ToggleRepeat"
	SelectTrackProcedure            = "/" + PlayerServiceName + "/SelectTrack"
	SubscribeNotificationsProcedure = "/" + PlayerServiceName + "/SubscribeNotifications"
)

// actionProcedures maps control action names to their procedures.
var actionProcedures = map[string]string{
	"play":     PlayProcedure,
	"pause":    PauseProcedure,
	"toggle":   TogglePlayProcedure,
	"next":     NextProcedure,
	"previous": PreviousProcedure,
	"shuffle":  ToggleShuffleProcedure,
	"repeat":   ToggleRepeatProcedure,
}

// Player is the part of the player service the API needs.
type Player interface {
	Play() error
	Pause() error
	TogglePlay() error
	Next() error
	Previous() error
	ToggleShuffle() error
	ToggleRepeat() error
	SelectTrack(index int) error

	Snapshot() playback.Snapshot
	GetStatus() *player.Status
	Catalog() *playlist.Catalog
	InitialState() *notification.Notification
	GetNotificationManager() *notification.Manager
	Done() <-chan struct{}
}

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	player Player
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(p Player) *PlayerService {
	return &PlayerService{player: p}
}

// NewHandler mounts every procedure of the service. A non-empty token
// protects the control procedures.
func NewHandler(p Player, token string) http.Handler {
	s := NewPlayerService(p)
	codec := connect.WithCodec(jsonCodec{})
	readOpts := []connect.HandlerOption{codec, connect.WithIdempotency(connect.IdempotencyNoSideEffects)}
	controlOpts := []connect.HandlerOption{codec, connect.WithInterceptors(NewControlAuthInterceptor(token))}

	mux := http.NewServeMux()
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, s.GetState, readOpts...))
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, s.GetStatus, readOpts...))
	mux.Handle(ListTracksProcedure, connect.NewUnaryHandler(ListTracksProcedure, s.ListTracks, readOpts...))
	mux.Handle(SubscribeNotificationsProcedure,
		connect.NewServerStreamHandler(SubscribeNotificationsProcedure, s.SubscribeNotifications, codec))

	controls := map[string]func() error{
		PlayProcedure:          p.Play,
		PauseProcedure:         p.Pause,
		TogglePlayProcedure:    p.TogglePlay,
		NextProcedure:          p.Next,
		PreviousProcedure:      p.Previous,
		ToggleShuffleProcedure: p.ToggleShuffle,
		ToggleRepeatProcedure:  p.ToggleRepeat,
	}
	for procedure, fn := range controls {
		mux.Handle(procedure, connect.NewUnaryHandler(procedure, s.control(procedure, fn), controlOpts...))
	}
	mux.Handle(SelectTrackProcedure, connect.NewUnaryHandler(SelectTrackProcedure, s.SelectTrack, controlOpts...))

	return mux
}

// NewServer creates an HTTP server with h2c (HTTP/2 cleartext) support.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// GetState returns the current playback state.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateView], error) {
	v := newStateView(s.player.Snapshot())
	return connect.NewResponse(&v), nil
}

// GetStatus returns the player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StatusView], error) {
	v := newStatusView(s.player.GetStatus())
	return connect.NewResponse(&v), nil
}

// ListTracks returns the catalog with the current track marked.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[CatalogView], error) {
	v := newCatalogView(s.player.Catalog(), s.player.Snapshot())
	return connect.NewResponse(&v), nil
}

// SelectTrack plays the track at the requested index. Out-of-range indices
// leave the state unchanged.
func (s *PlayerService) SelectTrack(
	ctx context.Context,
	req *connect.Request[SelectTrackRequest],
) (*connect.Response[StateView], error) {
	zlog.Debug().Msgf("api: control: procedure=%s index=%d peer=%s", SelectTrackProcedure, req.Msg.Index, req.Peer().Addr)
	return s.respond(s.player.SelectTrack(req.Msg.Index))
}

func (s *PlayerService) control(
	procedure string,
	fn func() error,
) func(context.Context, *connect.Request[Empty]) (*connect.Response[StateView], error) {
	return func(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateView], error) {
		zlog.Debug().Msgf("api: control: procedure=%s peer=%s", procedure, req.Peer().Addr)
		return s.respond(fn())
	}
}

// respond returns the snapshot after a control call, or the mapped error.
func (s *PlayerService) respond(err error) (*connect.Response[StateView], error) {
	if err != nil {
		if errors.Is(err, player.ErrNotRunning) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	v := newStateView(s.player.Snapshot())
	return connect.NewResponse(&v), nil
}

// SubscribeNotifications sends the initial state followed by every broadcast
// until the client disconnects or the player stops.
func (s *PlayerService) SubscribeNotifications(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[NotificationView],
) error {
	notifManager := s.player.GetNotificationManager()
	adapter := &notificationStreamAdapter{send: stream.Send}

	subscriptionID, err := adapter.open(notifManager, s.player.InitialState)
	if err != nil {
		return err
	}
	zlog.Info().Msgf("api: notification stream opened: subscription=%s peer=%s", subscriptionID, req.Peer().Addr)

	select {
	case <-ctx.Done():
	case <-s.player.Done():
	}

	notifManager.Unsubscribe(subscriptionID)
	adapter.close()
	zlog.Info().Msgf("api: notification stream closed: subscription=%s", subscriptionID)
	return nil
}
