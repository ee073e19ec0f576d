// Package main provides the catalog tool.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackdeck/internal/app/filter"
	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/domain/track"
	"github.com/osa030/trackdeck/internal/infra/catalog"
	"github.com/osa030/trackdeck/internal/infra/logger"
	"github.com/osa030/trackdeck/internal/infra/spotify"
)

var (
	app     = kingpin.New("trackdeck-catalog", "trackdeck catalog tool")
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()

	validateCmd  = app.Command("validate", "Validate a catalog file")
	validatePath = validateCmd.Arg("path", "Catalog file").Required().ExistingFile()

	listCmd  = app.Command("list", "List the tracks of a catalog file (built-in catalog when omitted)")
	listPath = listCmd.Arg("path", "Catalog file").String()

	importCmd      = app.Command("import-spotify", "Create a catalog file from a Spotify playlist")
	importPlaylist = importCmd.Arg("playlist", "Playlist URL, URI or ID").Required().String()
	importOutput   = importCmd.Flag("output", "Output file").Short('o').Default("config/catalog.yaml").String()
	importName     = importCmd.Flag("name", "Catalog name (default: playlist name)").String()
	importForce    = importCmd.Flag("force", "Overwrite an existing output file").Bool()
	importTimeout  = importCmd.Flag("timeout", "Import timeout").Default("2m").Duration()
	clientID       = importCmd.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret   = importCmd.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	refreshToken   = importCmd.Flag("refresh-token", "Spotify refresh token (see trackdeck-auth)").Envar("SPOTIFY_REFRESH_TOKEN").Required().String()
	market         = importCmd.Flag("market", "Spotify market").Envar("SPOTIFY_MARKET").Default("JP").String()
	minDuration    = importCmd.Flag("min-duration", "Drop tracks shorter than this (M:SS)").PlaceHolder("M:SS").String()
	maxDuration    = importCmd.Flag("max-duration", "Drop tracks longer than this (M:SS)").PlaceHolder("M:SS").String()
	keepVersions   = importCmd.Flag("keep-versions", "Keep remasters, live takes and edits of songs already imported").Bool()

	filtersCmd = app.Command("filters", "List the import filters")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stderr", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if _, err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	var err error
	switch command {
	case validateCmd.FullCommand():
		err = validate(*validatePath)
	case listCmd.FullCommand():
		err = list(*listPath)
	case importCmd.FullCommand():
		err = importSpotify()
	case filtersCmd.FullCommand():
		listFilters()
	}
	if err != nil {
		zlog.Fatal().Msgf("%s failed: %v", command, err)
	}
}

func validate(path string) error {
	c, err := catalog.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: OK (%q, %d tracks, %s)\n", path, c.Name(), c.Len(), track.FormatClock(c.TotalDuration()))
	return nil
}

func list(path string) error {
	c, err := catalog.Resolve(path)
	if err != nil {
		return err
	}
	printCatalog(c)
	return nil
}

func importSpotify() error {
	if !*importForce {
		if _, err := os.Stat(*importOutput); err == nil {
			return errors.Newf("output file already exists: %s (use --force to overwrite)", *importOutput)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *importTimeout)
	defer cancel()

	client, err := spotify.New(ctx, spotify.Config{
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		RefreshToken: *refreshToken,
		Market:       *market,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create Spotify client")
	}

	started := time.Now()
	zlog.Info().Msgf("Importing playlist: %s", *importPlaylist)
	p, err := client.GetPlaylist(ctx, *importPlaylist)
	if err != nil {
		return err
	}

	chain, err := filter.NewChainFromSettings(importFilterSettings())
	if err != nil {
		return errors.Wrap(err, "invalid import filters")
	}
	tracks, rejected := chain.Apply(ctx, p.Tracks)
	for _, r := range rejected {
		zlog.Info().Msgf("Skipped %q by %s: %s (%s)", r.Track.Title, r.Track.Artist, r.Detail, r.Code)
	}

	name := p.Name
	if *importName != "" {
		name = *importName
	}
	c := playlist.NewCatalog(name, tracks)
	if c.Len() == 0 {
		return errors.Newf("playlist %s has no importable tracks", p.ID)
	}
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "imported catalog is invalid")
	}

	if err := catalog.Write(*importOutput, c); err != nil {
		return err
	}

	zlog.Info().Msgf("Imported %d tracks (%d skipped) from %s in %s", c.Len(), len(rejected), spotify.GetPlaylistURL(p.ID), time.Since(started).Round(time.Millisecond))
	printCatalog(c)
	if info, err := os.Stat(*importOutput); err == nil {
		fmt.Printf("Wrote %s (%s)\n", *importOutput, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func importFilterSettings() map[string]map[string]any {
	settings := make(map[string]map[string]any)
	if *minDuration != "" || *maxDuration != "" {
		settings["duration_limit_filter"] = map[string]any{
			"min": *minDuration,
			"max": *maxDuration,
		}
	}
	if !*keepVersions {
		settings["duplicate_track_filter"] = map[string]any{}
	}
	return settings
}

func listFilters() {
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Description", "Codes"})
	for _, name := range names {
		f := registered[name]()
		t.AppendRow(table.Row{f.Name(), f.Description(), strings.Join(f.ReturnCodes(), ", ")})
	}
	t.Render()
}

func printCatalog(c *playlist.Catalog) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle(c.Name())
	t.AppendHeader(table.Row{"#", "ID", "Title", "Artist", "Album", "Time"})
	for i, tr := range c.Tracks() {
		t.AppendRow(table.Row{i + 1, tr.ID, tr.Title, tr.Artist, tr.Album, tr.DurationLabel()})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d tracks", c.Len()), track.FormatClock(c.TotalDuration())})
	t.Render()
}
