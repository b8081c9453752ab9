// package models defines the data model for playlist synchronization
package models

import (
	"fmt"
	"time"
)

// Track represents a music track as received from the catalog service.
//
// Title and Artist are raw, un-normalized values; Artist is the single
// primary artist (first of possibly several).
type Track struct {
	ID     string
	Title  string
	Artist string
	Album  string
}

// Playlist represents playlist metadata from the catalog service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	Public      bool
}

// PlaylistExport represents a playlist with its complete ordered track listing.
type PlaylistExport struct {
	Playlist Playlist
	Tracks   []Track
}

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// RunMode distinguishes history-tracked syncs from history-free bulk downloads.
type RunMode string

const (
	RunModeSync RunMode = "sync"
	RunModeCSV  RunMode = "csv"
)

// SyncRun is the persisted record of one completed download run.
type SyncRun struct {
	id           string
	sequence     int
	PlaylistID   string
	PlaylistName string
	Mode         RunMode
	TotalTracks  int
	NewTracks    int
	Downloaded   int
	Failed       int
	StartedAt    time.Time
	FinishedAt   time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewSyncRun creates an unsaved SyncRun with timestamps initialized to now.
func NewSyncRun(playlistID, playlistName string, mode RunMode) *SyncRun {
	now := time.Now().UTC()
	return &SyncRun{
		PlaylistID:   playlistID,
		PlaylistName: playlistName,
		Mode:         mode,
		StartedAt:    now,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *SyncRun) ID() string           { return r.id }
func (r *SyncRun) Sequence() int        { return r.sequence }
func (r *SyncRun) CreatedAt() time.Time { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time { return r.updatedAt }

// Finish stamps the end time and final counters on the run.
func (r *SyncRun) Finish(total, newTracks, downloaded, failed int) {
	r.TotalTracks = total
	r.NewTracks = newTracks
	r.Downloaded = downloaded
	r.Failed = failed
	r.FinishedAt = time.Now().UTC()
	r.updatedAt = r.FinishedAt
}

// SetID assigns the unique identifier, used by repositories on insert.
func (r *SyncRun) SetID(id string) { r.id = id }

// SetSequence assigns the human-readable sequence number, used by repositories on insert.
func (r *SyncRun) SetSequence(seq int) { r.sequence = seq }

// SetTimestamps restores persistence timestamps, used by repositories on scan.
func (r *SyncRun) SetTimestamps(createdAt, updatedAt time.Time) {
	r.createdAt = createdAt
	r.updatedAt = updatedAt
}

// Validate checks that the run has an ID, a playlist identifier, a known mode, and consistent counters.
func (r *SyncRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.PlaylistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	if r.Mode != RunModeSync && r.Mode != RunModeCSV {
		return fmt.Errorf("invalid run mode: %s", r.Mode)
	}
	if r.Downloaded < 0 || r.Failed < 0 || r.Downloaded+r.Failed > r.NewTracks {
		return fmt.Errorf("inconsistent run counters")
	}
	return nil
}
