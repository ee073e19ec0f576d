// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	apiconnect "github.com/osa030/trackdeck/internal/api/connect"
	"github.com/osa030/trackdeck/internal/app/player"
	"github.com/osa030/trackdeck/internal/app/render"
	"github.com/osa030/trackdeck/internal/domain/playlist"
	"github.com/osa030/trackdeck/internal/infra/catalog"
	"github.com/osa030/trackdeck/internal/infra/config"
	"github.com/osa030/trackdeck/internal/infra/logger"
)

var (
	app        = kingpin.New("trackdeck-server", "trackdeck playback server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// list-tracks command
	listTracksCmd = app.Command("list-tracks", "Print the configured catalog and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Logs go to stderr so the console renderer owns stdout
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	cat, err := catalog.Resolve(cfg.Catalog.Path)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load catalog: %v", err)
	}

	if command == listTracksCmd.FullCommand() {
		printTracks(cat)
		return
	}

	if err := run(cfg, cat); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file. A missing file falls back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		zlog.Warn().Msgf("Config file not found, using defaults: %s", path)
		return config.Default(), nil
	}

	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config, cat *playlist.Catalog) error {
	ctx := context.Background()

	renderers, err := render.NewFromConfig(cfg.Renderers, os.Stdout)
	if err != nil {
		return errors.Wrap(err, "failed to create renderers")
	}

	svc := player.NewService(cfg, cat, player.WithRenderers(renderers...))

	handler := apiconnect.NewHandler(svc, cfg.Server.ControlToken)
	server := apiconnect.NewServer(cfg.Server.Addr, handler)
	if !cfg.IsControlProtected() {
		zlog.Warn().Msg("Control endpoints are not protected (server.control_token is empty)")
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	if err := svc.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start player")
	}

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		svc.Close()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the player first so open event streams end
	if err := svc.Stop(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to stop player: %v", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	svc.Close()

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// printTracks prints the catalog.
func printTracks(c *playlist.Catalog) {
	fmt.Printf("Catalog: %s (%d tracks)\n", c.Name(), c.Len())
	for i, t := range c.Tracks() {
		fmt.Printf("  %2d  %-30s %-30s %s\n", i+1, t.Title, t.Subtitle(), t.DurationLabel())
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
