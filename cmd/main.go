package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/sidetrack/internal/services"
	"github.com/desertthunder/sidetrack/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	godotenv.Load()
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if path := configPath(); path != "" {
		if loadedConfig, err := shared.LoadConfig(path); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		}
	}

	var player services.Player
	listening := config.Credentials.Listening
	if listening.ClientID != "" && listening.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(listening.Map()); err == nil {
			player = svc
		} else {
			logger.Warn("spotify service unavailable", "error", err)
		}
	}

	downloader := services.NewZotifyDownloader(config.Downloads, config.Credentials.Downloading, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Player:     player,
		Downloader: downloader,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "sidetrack",
		Usage:    "Watch a Spotify account and download everything it plays",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// configPath returns the config file to load: $SIDETRACK_CONFIG when set,
// otherwise config.toml in the working directory if it exists.
func configPath() string {
	if path := os.Getenv("SIDETRACK_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return ""
}
