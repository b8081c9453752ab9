// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// syncCommand runs the history-aware playlist sync
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Download a playlist's tracks that are not yet in local history",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "playlist",
				UsageText: "Playlist link, URI, or ID",
			},
			&cli.StringArg{
				Name:      "folder",
				UsageText: "Folder to download songs into",
			},
		},
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "List new songs not in history without downloading or recording",
			},
		},
		Action: r.SyncRun,
	}
}

// csvCommand runs history-free bulk downloads from a CSV export
func csvCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "csv",
		Usage: "Download every track listed in a Spotify CSV export",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "file",
				UsageText: "CSV file with Track Name and Artist Name(s) columns",
			},
			&cli.StringArg{
				Name:      "folder",
				UsageText: "Folder to download songs into",
			},
		},
		Flags: []cli.Flag{configFlag()},
		Action: r.CSVDownload,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show cached token state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// historyCommand inspects per-playlist download history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect per-playlist download history",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List the recorded downloads for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "playlist",
						UsageText: "Playlist link, URI, or ID",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.HistoryShow,
			},
			{
				Name:  "path",
				Usage: "Print the history file path for a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "playlist",
						UsageText: "Playlist link, URI, or ID",
					},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.HistoryPath,
			},
		},
	}
}

// runsCommand reads the sqlite run ledger
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect the sync run ledger",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded sync runs, most recent first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Only show runs for this playlist link, URI, or ID",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and initialize the run ledger database",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}
