package playback

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/domain/playlist"
)

const (
	DefaultTickInterval = 100 * time.Millisecond
	DefaultProgressStep = 0.5
	DefaultEventBuffer  = 64

	fullProgress = 100.0
)

// Config holds controller configuration.
type Config struct {
	TickInterval time.Duration              // Period of the progress task
	ProgressStep float64                    // Percentage points added per tick
	EventBuffer  int                        // Capacity of the event channel
	NewTicker    func(time.Duration) Ticker // Ticker factory (tests inject a manual ticker)
	RandIntN     func(n int) int            // Random source for shuffle, returns [0,n)
}

func (c *Config) setDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.ProgressStep <= 0 {
		c.ProgressStep = DefaultProgressStep
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.NewTicker == nil {
		c.NewTicker = NewTimeTicker
	}
	if c.RandIntN == nil {
		c.RandIntN = rand.IntN
	}
}

// Controller manages playback over a fixed catalog.
// No operation returns an error: invalid requests leave the state unchanged.
type Controller struct {
	mu sync.RWMutex

	catalog *playlist.Catalog

	// Playback state
	index    int
	playing  bool
	shuffle  bool
	repeat   bool
	progress float64

	// Progress task
	taskCancel context.CancelFunc // Cancel function for the running progress task
	taskGen    uint64             // Incremented each time a task is started

	config Config

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a new playback controller and loads the first track.
func NewController(catalog *playlist.Catalog, config Config) *Controller {
	config.setDefaults()
	if catalog == nil {
		catalog = playlist.NewCatalog("", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		catalog: catalog,
		index:   -1,
		config:  config,
		eventCh: make(chan Event, config.EventBuffer),
		ctx:     ctx,
		cancel:  cancel,
	}

	c.mu.Lock()
	c.loadTrackLocked(0)
	c.mu.Unlock()

	return c
}

// Events returns the event channel.
// The channel is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Catalog returns the catalog the controller plays from.
func (c *Controller) Catalog() *playlist.Catalog {
	return c.catalog
}

// LoadTrack makes index the current track and resets progress to zero.
// Out-of-range indices are ignored. The playing flag is not changed.
func (c *Controller) LoadTrack(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadTrackLocked(index)
}

// SelectTrack loads index and starts playing it.
func (c *Controller) SelectTrack(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loadTrackLocked(index) {
		return
	}
	c.playLocked()
}

// TogglePlay pauses when playing and plays otherwise.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		c.pauseLocked()
	} else {
		c.playLocked()
	}
}

// Play starts playback of the current track, continuing from the current progress.
// Any running progress task is replaced.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playLocked()
}

// Pause stops playback. The progress task is cancelled and also stops itself
// at its next tick when it observes the cleared flag.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pauseLocked()
}

// Next advances to the next track, or to a random other track in shuffle mode.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextLocked()
}

// Previous moves to the previous track, wrapping to the last one.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.catalog.Len()
	if n == 0 {
		return
	}

	wasPlaying := c.playing
	c.loadTrackLocked((c.index - 1 + n) % n)
	if wasPlaying {
		c.playLocked()
	}
}

// ToggleShuffle flips shuffle mode.
func (c *Controller) ToggleShuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = !c.shuffle
	zlog.Debug().Msgf("playback: shuffle=%t", c.shuffle)
	c.sendEventLocked(EventModeChanged)
}

// ToggleRepeat flips repeat mode.
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = !c.repeat
	zlog.Debug().Msgf("playback: repeat=%t", c.repeat)
	c.sendEventLocked(EventModeChanged)
}

// OnTrackEnd handles completion of the current track: the track restarts in
// repeat mode, otherwise playback advances as Next does.
func (c *Controller) OnTrackEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onTrackEndLocked()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Index returns the current track index, or -1 when the catalog is empty.
func (c *Controller) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// IsPlaying reports whether playback is active.
func (c *Controller) IsPlaying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playing
}

// IsShuffle reports whether shuffle mode is on.
func (c *Controller) IsShuffle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shuffle
}

// IsRepeat reports whether repeat mode is on.
func (c *Controller) IsRepeat() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repeat
}

// Progress returns the simulated progress percentage.
func (c *Controller) Progress() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.progress
}

// Close stops the progress task and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.cancel()
	c.stopTaskLocked()
	c.playing = false
	c.closed = true
	close(c.eventCh)
}

func (c *Controller) loadTrackLocked(index int) bool {
	t, ok := c.catalog.At(index)
	if !ok {
		return false
	}

	c.index = index
	c.progress = 0
	zlog.Debug().Msgf("playback: track loaded: index=%d id=%s title=%s", index, t.ID, t.Title)
	c.sendEventLocked(EventTrackLoaded)
	return true
}

func (c *Controller) playLocked() {
	if c.catalog.Len() == 0 || c.closed {
		return
	}

	wasPlaying := c.playing
	c.playing = true
	if c.progress >= fullProgress {
		c.progress = 0
	}
	c.startTaskLocked()

	if !wasPlaying {
		c.sendEventLocked(EventStateChanged)
	}
}

func (c *Controller) pauseLocked() {
	c.stopTaskLocked()
	if !c.playing {
		return
	}
	c.playing = false
	c.sendEventLocked(EventStateChanged)
}

func (c *Controller) nextLocked() {
	n := c.catalog.Len()
	if n == 0 {
		return
	}

	wasPlaying := c.playing
	var next int
	if c.shuffle {
		next = c.randomIndexLocked(n)
	} else {
		next = (c.index + 1) % n
	}

	c.loadTrackLocked(next)
	if wasPlaying {
		c.playLocked()
	}
}

// randomIndexLocked picks a uniformly random index different from the current
// one. With a single track the current index is accepted.
func (c *Controller) randomIndexLocked(n int) int {
	for {
		i := c.config.RandIntN(n)
		if i != c.index || n <= 1 {
			return i
		}
	}
}

func (c *Controller) onTrackEndLocked() {
	if c.catalog.Len() == 0 {
		return
	}

	zlog.Debug().Msgf("playback: track ended: index=%d repeat=%t shuffle=%t", c.index, c.repeat, c.shuffle)
	c.sendEventLocked(EventTrackEnded)

	if c.repeat {
		c.progress = 0
		c.playLocked()
		return
	}
	c.nextLocked()
}

// startTaskLocked cancels any running progress task and starts a new one.
func (c *Controller) startTaskLocked() {
	c.stopTaskLocked()

	ctx, cancel := context.WithCancel(c.ctx)
	c.taskGen++
	c.taskCancel = cancel

	ticker := c.config.NewTicker(c.config.TickInterval)
	go c.runTask(ctx, c.taskGen, ticker)
}

func (c *Controller) stopTaskLocked() {
	if c.taskCancel != nil {
		c.taskCancel()
		c.taskCancel = nil
	}
}

// runTask drives the progress simulation until it is cancelled, observes that
// playback stopped, or the track completes.
func (c *Controller) runTask(ctx context.Context, gen uint64, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !c.tick(gen) {
				return
			}
		}
	}
}

// tick advances progress by one step. It returns false when the task must end.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.taskGen || c.taskCancel == nil {
		return false
	}
	if !c.playing {
		c.stopTaskLocked()
		return false
	}

	c.progress += c.config.ProgressStep
	if c.progress >= fullProgress-1e-9 {
		c.progress = fullProgress
	}
	c.sendEventLocked(EventProgress)

	if c.progress < fullProgress {
		return true
	}

	c.stopTaskLocked()
	c.onTrackEndLocked()
	return false
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    StatePaused,
		Index:    c.index,
		Progress: c.progress,
		Shuffle:  c.shuffle,
		Repeat:   c.repeat,
		catalog:  c.catalog,
	}

	t, ok := c.catalog.At(c.index)
	if !ok {
		s.State = StateIdle
		return s
	}
	if c.playing {
		s.State = StatePlaying
	}

	seconds := int(c.progress / fullProgress * float64(t.DurationSeconds()))
	s.Elapsed = time.Duration(seconds) * time.Second
	return s
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(t EventType) {
	if c.closed {
		return
	}

	e := Event{Type: t, Snapshot: c.snapshotLocked()}
	select {
	case c.eventCh <- e:
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping %s", t)
	}
}
