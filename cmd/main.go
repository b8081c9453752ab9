package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/history"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warnf("failed to load config, using defaults: %v", err)
		}
	}

	var spotifyService services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			spotifyService = svc
		}
	}

	fetcher := downloader.NewYTDLP(downloader.YTDLPOpts{
		Binary:       config.Downloads.YTDLPPath,
		AudioFormat:  config.Downloads.AudioFormat,
		AudioQuality: config.Downloads.AudioQuality,
		FFmpegPath:   config.Downloads.FFmpegPath,
		RateLimit:    config.Downloads.RateLimit,
		Logger:       logger,
	})

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Fetcher:    fetcher,
		History:    history.NewStore(config.History.Directory),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spotsync",
		Usage:    "Keep a local audio library in sync with Spotify playlists",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
