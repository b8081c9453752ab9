// package tasks implements the playlist synchronization engine.
//
// The core abstraction is SyncEngine, which diffs a remote playlist's catalog
// against local download history and orchestrates sequential downloads of the
// missing tracks. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsync/internal/downloader"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/services"
	"github.com/desertthunder/spotsync/internal/shared"
)

// HistoryStore defines the history collaborator consumed by the engine.
//
// Load returns the set of normalized track keys already recorded for a
// playlist; Append durably records one raw (title, artist) pair.
// Implemented by history.Store (durable CSV) and history.Memory (discardable).
type HistoryStore interface {
	Load(playlistID string) (map[string]struct{}, error)
	Append(playlistID, title, artist string) error
}

// RunRecorder persists a completed run to the run ledger.
// Implemented by repositories.RunRepository.
type RunRecorder interface {
	Create(run *models.SyncRun) error
}

// TrackFailure records one track whose download attempt failed this run.
//
// The track stays absent from history, so it is re-attempted on the next run
// without any dedicated retry logic.
type TrackFailure struct {
	Track models.Track
	Err   error
}

// SyncResult contains all data from a sync or bulk download operation.
type SyncResult struct {
	PlaylistID   string         // Canonical playlist identifier
	PlaylistName string         // Playlist display name (empty for CSV mode)
	TotalTracks  int            // Tracks in the catalog
	NewTracks    []models.Track // Diff result, in catalog order
	Downloaded   int            // Tracks fetched and recorded this run
	Failed       int            // Tracks that failed this run
	Failures     []TrackFailure // Per-track failure details
	DryRun       bool           // True when no downloads were attempted
}

// SyncOpts contains configuration for a sync operation.
type SyncOpts struct {
	DestDir string // Directory downloads land in
	DryRun  bool   // List new tracks without downloading or recording
}

// SyncEngine defines operations for synchronizing a local library with remote playlists.
type SyncEngine interface {
	// Sync fetches the playlist catalog, diffs it against history, and
	// downloads the missing tracks sequentially, recording each success.
	Sync(ctx context.Context, playlistRef string, opts SyncOpts, progress chan<- ProgressUpdate) (*SyncResult, error)

	// BulkDownload runs the same orchestration over an explicit track list
	// instead of a fetched catalog.
	BulkDownload(ctx context.Context, tracks []models.Track, destDir string, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// Diff computes the order-preserving subsequence of catalog tracks whose
// normalized key is absent from the downloaded set.
//
// Output order is always catalog order; the history set never influences it.
// Catalog entries that normalize to the same key as an earlier entry are
// emitted once, so a track is never fetched twice in one run.
func Diff(catalog []models.Track, downloaded map[string]struct{}) []models.Track {
	var missing []models.Track
	seen := make(map[string]struct{})
	for _, track := range catalog {
		key := shared.NormalizeTrackKey(track.Title, track.Artist)
		if _, ok := downloaded[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		missing = append(missing, track)
	}
	return missing
}

// Engine implements SyncEngine.
//
// The catalog service, history store, and downloader are collaborators
// consumed through narrow contracts; the engine owns only the diff and
// orchestration logic.
type Engine struct {
	catalog services.Service
	history HistoryStore
	fetcher downloader.Downloader
	runs    RunRecorder
	logger  *log.Logger
}

// EngineOpts contains the collaborators for a new Engine.
type EngineOpts struct {
	Catalog services.Service
	History HistoryStore
	Fetcher downloader.Downloader
	Runs    RunRecorder // optional; nil disables the run ledger
	Logger  *log.Logger
}

// NewEngine creates an Engine with the provided collaborators.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Engine{
		catalog: opts.Catalog,
		history: opts.History,
		fetcher: opts.Fetcher,
		runs:    opts.Runs,
		logger:  opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Sync synchronizes local downloads with a remote playlist.
//
// The playlist reference may be a share URL, URI, or bare identifier. The
// catalog fetch and the history load happen before any mutation, so failures
// there abort the run with nothing written. Per-track download failures are
// isolated: logged, counted, and skipped.
func (e *Engine) Sync(ctx context.Context, playlistRef string, opts SyncOpts, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service", errCollaboratorMissing)
	}
	if e.history == nil {
		return nil, fmt.Errorf("%w: history store", errCollaboratorMissing)
	}

	playlistID := services.ResolvePlaylistID(playlistRef)

	e.sendProgress(progress, fetchCatalogUpdate(playlistID))
	export, err := e.catalog.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
	}

	e.sendProgress(progress, loadHistoryUpdate(playlistID))
	downloaded, err := e.history.Load(playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", playlistID, err)
	}

	result := &SyncResult{
		PlaylistID:   playlistID,
		PlaylistName: export.Playlist.Name,
		TotalTracks:  len(export.Tracks),
		DryRun:       opts.DryRun,
	}

	e.sendProgress(progress, diffUpdate(len(export.Tracks), len(downloaded)))
	result.NewTracks = Diff(export.Tracks, downloaded)

	if opts.DryRun {
		return result, nil
	}

	run := models.NewSyncRun(playlistID, export.Playlist.Name, models.RunModeSync)
	if err := e.download(ctx, playlistID, result, opts.DestDir, progress); err != nil {
		return result, err
	}
	e.record(run, result)

	return result, nil
}

// BulkDownload runs the download orchestration over an explicit track list.
//
// Used for CSV exports: with a history.Memory store the recorded set is
// discarded after the run, but duplicate rows within the list are still
// fetched only once.
func (e *Engine) BulkDownload(ctx context.Context, tracks []models.Track, destDir string, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.history == nil {
		return nil, fmt.Errorf("%w: history store", errCollaboratorMissing)
	}

	const bulkID = "csv"

	downloaded, err := e.history.Load(bulkID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	result := &SyncResult{
		PlaylistID:  bulkID,
		TotalTracks: len(tracks),
		NewTracks:   Diff(tracks, downloaded),
	}

	run := models.NewSyncRun(bulkID, "", models.RunModeCSV)
	if err := e.download(ctx, bulkID, result, destDir, progress); err != nil {
		return result, err
	}
	e.record(run, result)

	return result, nil
}

// download processes the diff result strictly sequentially, one track at a time.
//
// Each success is appended to history before the next attempt begins, so an
// interrupted run re-attempts only unrecorded tracks. Only a downloader that
// has become unusable aborts the loop.
func (e *Engine) download(ctx context.Context, playlistID string, result *SyncResult, destDir string, progress chan<- ProgressUpdate) error {
	if e.fetcher == nil {
		return fmt.Errorf("%w: downloader", errCollaboratorMissing)
	}

	total := len(result.NewTracks)
	for i, track := range result.NewTracks {
		e.sendProgress(progress, downloadUpdate(i+1, total, track))

		if err := e.fetcher.Download(ctx, track.Title, track.Artist, destDir); err != nil {
			if errors.Is(err, shared.ErrDownloaderUnavailable) || ctx.Err() != nil {
				result.Failed = total - result.Downloaded
				return err
			}
			e.logger.Warn("download failed", "artist", track.Artist, "title", track.Title, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, TrackFailure{Track: track, Err: err})
			continue
		}

		if err := e.history.Append(playlistID, track.Title, track.Artist); err != nil {
			// The file landed but the record did not; treat as a failed track
			// so the next run re-attempts it rather than losing it.
			e.logger.Warn("failed to record download", "artist", track.Artist, "title", track.Title, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, TrackFailure{Track: track, Err: err})
			continue
		}

		result.Downloaded++
		e.sendProgress(progress, recordedUpdate(i+1, total, track))
	}

	return nil
}

// record finalizes the run entity and writes it to the ledger, when one is wired.
func (e *Engine) record(run *models.SyncRun, result *SyncResult) {
	if e.runs == nil {
		return
	}

	run.Finish(result.TotalTracks, len(result.NewTracks), result.Downloaded, result.Failed)
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record run", "playlist", run.PlaylistID, "error", err)
	}
}

var errCollaboratorMissing = fmt.Errorf("collaborator not initialized")
