package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotsync/internal/formatter"
	"github.com/desertthunder/spotsync/internal/history"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun synchronizes local downloads with a remote playlist.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	playlistRef := cmd.StringArg("playlist")
	folder := cmd.StringArg("folder")
	dryRun := cmd.Bool("dry-run")

	if playlistRef == "" {
		return fmt.Errorf("%w: playlist link, URI, or ID", shared.ErrMissingArgument)
	}

	r.reloadConfig(cmd)
	if folder == "" {
		folder = r.config.Downloads.Directory
	}

	if err := r.authenticateCatalog(ctx); err != nil {
		return err
	}

	var recorder tasks.RunRecorder
	if !dryRun {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create download folder: %w", err)
		}

		if db, err := r.openDatabase(); err != nil {
			r.logger.Warn("run ledger unavailable", "error", err)
		} else {
			defer db.Close()
			recorder = repositories.NewRunRepository(db)
		}
	}

	r.logger.Info("starting sync", "playlist", playlistRef, "folder", folder, "dry_run", dryRun)

	engine := r.newEngine(r.history, recorder)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	result, err := engine.Sync(ctx, playlistRef, tasks.SyncOpts{DestDir: folder, DryRun: dryRun}, progress)
	close(progress)
	<-done

	if err != nil {
		if result != nil && result.Downloaded > 0 {
			// Partial progress is durable; report it before surfacing the failure.
			r.writePlainln("%s", formatter.RenderSummary(result))
		}
		if errors.Is(err, shared.ErrTokenExpired) {
			return fmt.Errorf("%w: run 'spotsync auth login' and retry", shared.ErrTokenExpired)
		}
		return err
	}

	if dryRun {
		return r.writePlainln("%s", formatter.RenderDryRun(result))
	}

	return r.writePlainln("%s", formatter.RenderSummary(result))
}

// CSVDownload downloads every track listed in a Spotify CSV export.
//
// Runs the same orchestration as sync against a discardable in-memory
// history, so nothing persists between invocations.
func (r *Runner) CSVDownload(ctx context.Context, cmd *cli.Command) error {
	filePath := cmd.StringArg("file")
	folder := cmd.StringArg("folder")

	if filePath == "" {
		return fmt.Errorf("%w: CSV file path", shared.ErrMissingArgument)
	}

	r.reloadConfig(cmd)
	if folder == "" {
		folder = r.config.Downloads.Directory
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	tracks, err := formatter.ParseTracksCSV(f)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if len(tracks) == 0 {
		return r.writePlain("No tracks loaded from %s.\n", filePath)
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("failed to create download folder: %w", err)
	}

	r.logger.Info("starting csv download", "file", filePath, "tracks", len(tracks), "folder", folder)
	r.writePlain("Found %d tracks to process from %s.\n", len(tracks), filePath)

	var recorder tasks.RunRecorder
	if db, err := r.openDatabase(); err != nil {
		r.logger.Warn("run ledger unavailable", "error", err)
	} else {
		defer db.Close()
		recorder = repositories.NewRunRepository(db)
	}

	engine := r.newEngine(history.NewMemory(), recorder)

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	result, err := engine.BulkDownload(ctx, tracks, folder, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	return r.writePlainln("%s", formatter.RenderSummary(result))
}

// authenticateCatalog prepares the catalog service with cached tokens.
func (r *Runner) authenticateCatalog(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: set Spotify client_id and client_secret in %s", shared.ErrMissingCredentials, r.configPath)
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: run 'spotsync auth login' first", shared.ErrNotAuthenticated)
	}

	return r.spotify.Authenticate(ctx, r.config.Credentials.Spotify.Map())
}
