package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/osa030/trackdeck/internal/app/notification"
	"github.com/osa030/trackdeck/internal/app/playback"
	"github.com/osa030/trackdeck/internal/domain/track"
)

// ConsoleConfig represents the console renderer settings.
type ConsoleConfig struct {
	ProgressEvery int  `mapstructure:"progress_every" default:"10" validate:"gte=1"`
	BarWidth      int  `mapstructure:"bar_width" default:"30" validate:"gte=5,lte=200"`
	HidePlaylist  bool `mapstructure:"hide_playlist"`
	HideProgress  bool `mapstructure:"hide_progress"`
}

// Console renders a now-playing view and the playlist as text.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	config ConsoleConfig

	progressSeen int

	title   lipgloss.Style
	faint   lipgloss.Style
	current lipgloss.Style
	cell    lipgloss.Style
}

// NewConsole creates a console renderer writing to out.
func NewConsole(out io.Writer, settings map[string]any) (*Console, error) {
	var cfg ConsoleConfig
	if err := decodeSettings(settings, &cfg); err != nil {
		return nil, err
	}

	r := lipgloss.NewRenderer(out)
	return &Console{
		out:     out,
		config:  cfg,
		title:   r.NewStyle().Bold(true),
		faint:   r.NewStyle().Faint(true),
		current: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		cell:    r.NewStyle().Width(28).MaxWidth(28),
	}, nil
}

// Name returns the renderer type.
func (c *Console) Name() string {
	return "console"
}

// Send renders a notification.
func (c *Console) Send(n *notification.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	switch n.Type {
	case notification.TypeInitialState, notification.TypeTrackLoaded:
		c.progressSeen = 0
		c.writeNowPlaying(&b, n.Snapshot)
		if !c.config.HidePlaylist {
			c.writePlaylist(&b, n.Snapshot)
		}
	case notification.TypeStateChanged, notification.TypeModeChanged:
		b.WriteString(c.statusLine(n.Snapshot))
		b.WriteByte('\n')
	case notification.TypeProgress:
		if c.config.HideProgress {
			return nil
		}
		c.progressSeen++
		if c.progressSeen%c.config.ProgressEvery != 0 && n.Snapshot.Progress < 100 {
			return nil
		}
		b.WriteString(c.progressLine(n.Snapshot))
		b.WriteByte('\n')
	case notification.TypeTrackEnded:
		if t, ok := n.Snapshot.CurrentTrack(); ok {
			fmt.Fprintf(&b, "  %s %s\n", c.faint.Render("finished"), t.Title)
		}
	default:
		return nil
	}

	_, err := io.WriteString(c.out, b.String())
	return err
}

func (c *Console) writeNowPlaying(b *strings.Builder, s playback.Snapshot) {
	t, ok := s.CurrentTrack()
	if !ok {
		b.WriteString(c.faint.Render("(no tracks)"))
		b.WriteByte('\n')
		return
	}

	fmt.Fprintf(b, "♪ %s\n", c.title.Render(t.Title))
	fmt.Fprintf(b, "  %s  [%s]\n", c.faint.Render(t.Subtitle()), t.DurationLabel())
	if t.CoverURL != "" {
		fmt.Fprintf(b, "  cover: %s\n", t.CoverURL)
	}
	b.WriteString(c.statusLine(s))
	b.WriteByte('\n')
}

func (c *Console) writePlaylist(b *strings.Builder, s playback.Snapshot) {
	for _, e := range s.Entries() {
		marker := " "
		title := c.cell.Render(e.Track.Title)
		if e.Current {
			marker = "▶"
			title = c.current.Render(title)
		}
		fmt.Fprintf(b, "  %2d %s %s %s %s\n",
			e.Number, marker, title, c.cell.Render(e.Track.Subtitle()), e.Track.DurationLabel())
	}
}

func (c *Console) statusLine(s playback.Snapshot) string {
	return fmt.Sprintf("  [%s] shuffle:%s repeat:%s", s.State, onOff(s.Shuffle), onOff(s.Repeat))
}

func (c *Console) progressLine(s playback.Snapshot) string {
	t, _ := s.CurrentTrack()
	filled := int(s.Progress / 100 * float64(c.config.BarWidth))
	if filled > c.config.BarWidth {
		filled = c.config.BarWidth
	}
	bar := strings.Repeat("=", filled) + strings.Repeat(" ", c.config.BarWidth-filled)
	return fmt.Sprintf("  %s / %s [%s] %5.1f%%",
		s.ElapsedLabel(), track.FormatClock(t.Duration), bar, s.Progress)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
