package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryShow prints the recorded downloads for a playlist in the order
// they were appended.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	playlistRef := cmd.StringArg("playlist")
	if playlistRef == "" {
		return fmt.Errorf("%w: playlist link, URI, or ID", shared.ErrMissingArgument)
	}
	r.reloadConfig(cmd)

	playlistID := services.ResolvePlaylistID(playlistRef)
	entries, err := r.history.Entries(playlistID)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return r.writePlain("No download history for playlist %s.\n", playlistID)
	}

	r.writePlain("%d tracks recorded for playlist %s:\n\n", len(entries), playlistID)
	for _, entry := range entries {
		r.writePlain("  %s - %s\n", entry.Title, entry.Artist)
	}
	return nil
}

// HistoryPath prints the location of a playlist's history file.
func (r *Runner) HistoryPath(ctx context.Context, cmd *cli.Command) error {
	playlistRef := cmd.StringArg("playlist")
	if playlistRef == "" {
		return fmt.Errorf("%w: playlist link, URI, or ID", shared.ErrMissingArgument)
	}
	r.reloadConfig(cmd)

	playlistID := services.ResolvePlaylistID(playlistRef)
	return r.writePlain("%s\n", r.history.Path(playlistID))
}
