package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/history"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
	"github.com/desertthunder/spotsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	fetcher    downloader.Downloader
	history    *history.Store
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Fetcher    downloader.Downloader
	History    *history.Store
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.History == nil {
		opts.History = history.NewStore(opts.Config.History.Directory)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		fetcher:    opts.Fetcher,
		history:    opts.History,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, csvCommand, authCommand, historyCommand, runsCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig honors a --config override by reloading settings from the
// file it names and rebuilding the collaborators derived from them.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warnf("failed to load config %s, keeping current settings: %v", path, err)
		return
	}

	r.config = config
	r.configPath = path
	r.history = history.NewStore(config.History.Directory)
	r.fetcher = downloader.NewYTDLP(downloader.YTDLPOpts{
		Binary:       config.Downloads.YTDLPPath,
		AudioFormat:  config.Downloads.AudioFormat,
		AudioQuality: config.Downloads.AudioQuality,
		FFmpegPath:   config.Downloads.FFmpegPath,
		RateLimit:    config.Downloads.RateLimit,
		Logger:       r.logger,
	})
	if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
		r.spotify = svc
	}
}

// newEngine builds a sync engine around the runner's collaborators.
func (r *Runner) newEngine(store tasks.HistoryStore, runs tasks.RunRecorder) *tasks.Engine {
	return tasks.NewEngine(tasks.EngineOpts{
		Catalog: r.spotify,
		History: store,
		Fetcher: r.fetcher,
		Runs:    runs,
		Logger:  r.logger,
	})
}

// openDatabase opens the configured sqlite database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// drainProgress consumes engine progress updates and prints their messages.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		switch update.Phase {
		case tasks.Download:
			r.writePlain("%s\n", update.Message)
		case tasks.Record:
			r.writePlain("  ✓ %s\n", update.Message)
		default:
			r.writePlain("→ %s\n", update.Message)
		}
	}
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
