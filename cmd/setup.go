package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes a starter config file and prepares the local data stores.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	// The named config file may not exist yet; Setup is what creates it.
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if err := shared.CreateConfigFile(r.configPath); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return err
		}
		r.writePlain("Config file %s already exists, leaving it in place.\n", r.configPath)
	} else {
		r.writePlain("Wrote starter config to %s. Add your Spotify credentials there.\n", r.configPath)
	}

	if err := os.MkdirAll(r.config.History.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := os.MkdirAll(r.config.Downloads.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create downloads directory: %w", err)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlain("Database ready at %s.\n", r.config.Database.Path)
	return r.writePlain("Setup complete.\n")
}
