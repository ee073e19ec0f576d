// Package main provides the command line client for the trackdeck server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/trackdeck/internal/api/connect"
)

var (
	app     = kingpin.New("trackdeck-playerctl", "trackdeck playback control client")
	server  = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("TRACKDECK_SERVER").String()
	token   = app.Flag("token", "Control token").Envar("TRACKDECK_CONTROL_TOKEN").String()
	timeout = app.Flag("timeout", "Request timeout").Default("5s").Duration()

	statusCmd  = app.Command("status", "Show the current track and player status").Default()
	tracksCmd  = app.Command("tracks", "List the catalog")
	playCmd    = app.Command("play", "Start playback")
	pauseCmd   = app.Command("pause", "Pause playback")
	toggleCmd  = app.Command("toggle", "Toggle play/pause")
	nextCmd    = app.Command("next", "Skip to the next track")
	prevCmd    = app.Command("previous", "Go back to the previous track").Alias("prev")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle mode")
	repeatCmd  = app.Command("repeat", "Toggle repeat mode")

	selectCmd    = app.Command("select", "Play a track by its number in the list")
	selectNumber = selectCmd.Arg("number", "Track number (1-based)").Required().Int()

	subscribeCmd = app.Command("subscribe", "Print notifications as they arrive")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(*server, *token, nil)

	if command == subscribeCmd.FullCommand() {
		subscribe(client)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		state *apiconnect.StateView
		err   error
	)
	switch command {
	case statusCmd.FullCommand():
		err = showStatus(ctx, client)
	case tracksCmd.FullCommand():
		err = showTracks(ctx, client)
	case selectCmd.FullCommand():
		state, err = client.Select(ctx, *selectNumber-1)
	default:
		state, err = client.Control(ctx, actionFor(command))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if state != nil {
		printState(state)
	}
}

// actionFor maps a command to its API action name.
func actionFor(command string) string {
	switch command {
	case prevCmd.FullCommand():
		return "previous"
	default:
		return command
	}
}

func showStatus(ctx context.Context, client *apiconnect.Client) error {
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Session:     %s (%s)\n", status.SessionID, status.Phase)
	if status.StartedAt != nil {
		fmt.Printf("Started:     %s\n", humanize.Time(*status.StartedAt))
	}
	fmt.Printf("Subscribers: %d\n", status.Subscribers)
	fmt.Println()
	printState(&status.State)
	return nil
}

func showTracks(ctx context.Context, client *apiconnect.Client) error {
	catalog, err := client.Tracks(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s)", catalog.Name, catalog.TotalDuration))
	t.AppendHeader(table.Row{"", "#", "Title", "Artist", "Album", "Time"})
	for _, tr := range catalog.Tracks {
		marker := ""
		if tr.Current {
			marker = "▶"
		}
		t.AppendRow(table.Row{marker, tr.Number, tr.Title, tr.Artist, tr.Album, tr.Duration})
	}
	t.Render()
	return nil
}

func printState(s *apiconnect.StateView) {
	if s.Track == nil {
		fmt.Printf("[%s] no tracks\n", s.State)
		return
	}
	fmt.Printf("[%s] %d/%d %s - %s\n", s.State, s.Index+1, s.TrackCount, s.Track.Title, s.Track.Artist)
	fmt.Printf("  %s / %s (%.1f%%)  shuffle:%s repeat:%s\n",
		s.Elapsed, s.Track.Duration, s.Progress, onOff(s.Shuffle), onOff(s.Repeat))
}

func subscribe(client *apiconnect.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Subscribed to notifications (Ctrl+C to exit)")
	err := client.Subscribe(ctx, func(n apiconnect.NotificationView) error {
		if n.Type == "progress" {
			fmt.Printf("\r%s #%d %s %.1f%%", time.Now().Format(time.TimeOnly), n.SequenceNo, n.State.Elapsed, n.State.Progress)
			return nil
		}
		fmt.Printf("\n%s #%d %s\n", time.Now().Format(time.TimeOnly), n.SequenceNo, strings.ToUpper(n.Type))
		printState(&n.State)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
