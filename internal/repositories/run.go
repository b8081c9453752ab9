package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
)

// RunRepository persists [models.SyncRun] rows.
//
// Satisfies tasks.RunRecorder; every completed (non dry-run) sync lands here.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new [models.SyncRun] into the database with generated ID and sequence
func (r *RunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO runs (id, sequence, playlist_id, playlist_name, mode, total_tracks, new_tracks, downloaded, failed, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(),
		run.Sequence(),
		run.PlaylistID,
		run.PlaylistName,
		string(run.Mode),
		run.TotalTracks,
		run.NewTracks,
		run.Downloaded,
		run.Failed,
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, playlist_id, playlist_name, mode, total_tracks, new_tracks, downloaded, failed, started_at, finished_at, created_at, updated_at
		FROM runs
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// ListByPlaylist retrieves runs for one playlist, most recent first.
func (r *RunRepository) ListByPlaylist(playlistID string, limit int) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, playlist_id, playlist_name, mode, total_tracks, new_tracks, downloaded, failed, started_at, finished_at, created_at, updated_at
		FROM runs
		WHERE playlist_id = ?
		ORDER BY sequence DESC
		LIMIT ?
	`

	return r.list(query, playlistID, limit)
}

// List retrieves the most recent runs across all playlists.
func (r *RunRepository) List(limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, sequence, playlist_id, playlist_name, mode, total_tracks, new_tracks, downloaded, failed, started_at, finished_at, created_at, updated_at
		FROM runs
		ORDER BY sequence DESC
		LIMIT ?
	`

	return r.list(query, limit)
}

func (r *RunRepository) list(query string, args ...any) ([]*models.SyncRun, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) scanOne(row *sql.Row) (*models.SyncRun, error) {
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	return run, err
}

func scanRun(scan func(dest ...any) error) (*models.SyncRun, error) {
	var (
		id, playlistID, playlistName, mode         string
		sequence, total, newTracks, downloaded, nf int
		startedAt, finishedAt, createdAt, updated  time.Time
	)

	err := scan(&id, &sequence, &playlistID, &playlistName, &mode, &total, &newTracks, &downloaded, &nf, &startedAt, &finishedAt, &createdAt, &updated)
	if err != nil {
		return nil, err
	}

	run := &models.SyncRun{
		PlaylistID:   playlistID,
		PlaylistName: playlistName,
		Mode:         models.RunMode(mode),
		TotalTracks:  total,
		NewTracks:    newTracks,
		Downloaded:   downloaded,
		Failed:       nf,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	}
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetTimestamps(createdAt, updated)

	return run, nil
}
