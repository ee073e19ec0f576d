// Package player provides the player service that connects the playback
// controller to notification subscribers.
package player

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/app/playback"
	"github.com/osa030/trackdeck/internal/app/render"
	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/infra/config"
)

var (
	ErrNotRunning     = errors.New("player is not running")
	ErrAlreadyStarted = errors.New("player already started")
)

// Option configures a Service.
type Option func(*Service)

// WithRenderers subscribes renderers when the service starts.
func WithRenderers(renderers ...render.Renderer) Option {
	return func(s *Service) {
		s.renderers = append(s.renderers, renderers...)
	}
}

// WithPlaybackConfig adjusts the controller configuration derived from the
// application config.
func WithPlaybackConfig(fn func(*playback.Config)) Option {
	return func(s *Service) {
		s.tune = append(s.tune, fn)
	}
}

// Status is a point-in-time view of the service.
type Status struct {
	SessionID   string
	Phase       Phase
	StartedAt   time.Time
	Subscribers int
	Snapshot    playback.Snapshot
}

// Service owns the playback controller and fans its events out as notifications.
type Service struct {
	mu sync.RWMutex

	config *config.Config

	sessionID string
	phase     Phase
	startedAt time.Time

	// Components
	playback     *playback.Controller
	notification *notification.Manager
	renderers    []render.Renderer
	rendererSubs []string
	tune         []func(*playback.Config)

	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	done     chan struct{}
}

// NewService creates a player service for the catalog.
func NewService(cfg *config.Config, catalog *playlist.Catalog, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		config:       cfg,
		sessionID:    uuid.New().String(),
		phase:        PhaseWaiting,
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
		loopDone:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	pcfg := playback.Config{
		TickInterval: cfg.TickInterval(),
		ProgressStep: cfg.Playback.ProgressStep,
		EventBuffer:  cfg.Playback.EventBuffer,
	}
	for _, fn := range s.tune {
		fn(&pcfg)
	}
	s.playback = playback.NewController(catalog, pcfg)

	return s
}

// Start applies the initial playback settings, subscribes renderers and
// begins broadcasting controller events.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return ErrAlreadyStarted
	}

	pb := s.config.Playback
	if pb.StartIndex != 0 {
		if _, ok := s.playback.Catalog().At(pb.StartIndex); ok {
			s.playback.LoadTrack(pb.StartIndex)
		} else {
			zlog.Warn().Msgf("start index out of range, ignoring: start_index=%d tracks=%d", pb.StartIndex, s.playback.Catalog().Len())
		}
	}
	if pb.Shuffle {
		s.playback.ToggleShuffle()
	}
	if pb.Repeat {
		s.playback.ToggleRepeat()
	}

	// Setup events are superseded by the initial state sent below.
	s.drainEvents()

	for _, r := range s.renderers {
		id := s.notification.Subscribe(r)
		s.rendererSubs = append(s.rendererSubs, id)
		if err := s.notification.Send(id, s.initialStateLocked()); err != nil {
			zlog.Warn().Msgf("failed to send initial state to renderer: renderer=%s err=%v", r.Name(), err)
		}
	}

	s.phase = PhaseRunning
	s.startedAt = time.Now()
	zlog.Info().Msgf("phase changed: phase=%s session_id=%s catalog=%q tracks=%d",
		s.phase, s.sessionID, s.playback.Catalog().Name(), s.playback.Catalog().Len())

	go s.playbackLoop()

	if pb.Autoplay {
		s.playback.Play()
	}

	return nil
}

// Stop stops broadcasting and pauses playback. It is safe to call more than once.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	prev := s.phase
	if prev == PhaseStopped {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseStopped
	s.mu.Unlock()

	s.playback.Pause()
	s.cancel()

	if prev == PhaseRunning {
		select {
		case <-s.loopDone:
		case <-ctx.Done():
			zlog.Warn().Msg("timed out waiting for playback loop")
		}
	}

	for _, id := range s.rendererSubs {
		s.notification.Unsubscribe(id)
	}

	zlog.Info().Msgf("phase changed: phase=%s session_id=%s", PhaseStopped, s.sessionID)
	close(s.done)
	return nil
}

// Done returns a channel that is closed when the service is stopped.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Close stops the service and releases the controller and subscriptions.
func (s *Service) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.Stop(ctx)

	s.playback.Close()
	s.notification.Close()
}

// Play starts playback.
func (s *Service) Play() error {
	return s.control(s.playback.Play)
}

// Pause pauses playback.
func (s *Service) Pause() error {
	return s.control(s.playback.Pause)
}

// TogglePlay toggles between playing and paused.
func (s *Service) TogglePlay() error {
	return s.control(s.playback.TogglePlay)
}

// Next skips to the next track.
func (s *Service) Next() error {
	return s.control(s.playback.Next)
}

// Previous goes back to the previous track.
func (s *Service) Previous() error {
	return s.control(s.playback.Previous)
}

// ToggleShuffle toggles shuffle mode.
func (s *Service) ToggleShuffle() error {
	return s.control(s.playback.ToggleShuffle)
}

// ToggleRepeat toggles repeat mode.
func (s *Service) ToggleRepeat() error {
	return s.control(s.playback.ToggleRepeat)
}

// SelectTrack plays the track at index. Out-of-range indices are ignored.
func (s *Service) SelectTrack(index int) error {
	return s.control(func() { s.playback.SelectTrack(index) })
}

func (s *Service) control(fn func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseRunning {
		return ErrNotRunning
	}
	fn()
	return nil
}

// Snapshot returns the current playback state.
func (s *Service) Snapshot() playback.Snapshot {
	return s.playback.Snapshot()
}

// Catalog returns the catalog being played.
func (s *Service) Catalog() *playlist.Catalog {
	return s.playback.Catalog()
}

// GetStatus returns the current service status.
func (s *Service) GetStatus() *Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Status{
		SessionID:   s.sessionID,
		Phase:       s.phase,
		StartedAt:   s.startedAt,
		Subscribers: s.notification.SubscriberCount(),
		Snapshot:    s.playback.Snapshot(),
	}
}

// GetNotificationManager returns the notification manager.
func (s *Service) GetNotificationManager() *notification.Manager {
	return s.notification
}

// InitialState builds the notification a new subscriber receives first.
func (s *Service) InitialState() *notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialStateLocked()
}

func (s *Service) initialStateLocked() *notification.Notification {
	return &notification.Notification{
		SequenceNo: s.notification.NextSequenceNo(),
		Type:       notification.TypeInitialState,
		Snapshot:   s.playback.Snapshot(),
	}
}

func (s *Service) drainEvents() {
	for {
		select {
		case <-s.playback.Events():
		default:
			return
		}
	}
}

// playbackLoop broadcasts controller events until the service stops.
func (s *Service) playbackLoop() {
	defer close(s.loopDone)

	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-s.playback.Events():
			if !ok {
				return
			}
			s.handlePlaybackEvent(event)
		}
	}
}

// handlePlaybackEvent converts a controller event into a notification.
// A panic is logged and the loop keeps running.
func (s *Service) handlePlaybackEvent(event playback.Event) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback event handler panicked: type=%s err=%v", event.Type, r)
		}
	}()

	if event.Type == playback.EventProgress {
		zlog.Trace().Msgf("playback event: type=%s progress=%.1f", event.Type, event.Snapshot.Progress)
	} else {
		zlog.Info().Msgf("playback event: type=%s index=%d state=%s", event.Type, event.Snapshot.Index, event.Snapshot.State)
	}

	s.notification.Broadcast(&notification.Notification{
		Type:     notification.TypeFromEvent(event.Type),
		Snapshot: event.Snapshot,
	})
}
