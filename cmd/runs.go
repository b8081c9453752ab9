package main

import (
	"context"

	"github.com/desertthunder/spotsync/internal/formatter"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/repositories"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/urfave/cli/v3"
)

// RunsList prints recent sync runs from the ledger, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	playlistRef := cmd.String("playlist")

	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)

	var runs []*models.SyncRun
	if playlistRef != "" {
		runs, err = repo.ListByPlaylist(services.ResolvePlaylistID(playlistRef), limit)
	} else {
		runs, err = repo.List(limit)
	}
	if err != nil {
		return err
	}

	return r.writePlainln("%s", formatter.RenderRuns(runs))
}
