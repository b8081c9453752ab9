// package history persists per-playlist records of already-downloaded tracks.
//
// One CSV file per playlist identifier, two raw fields per record (title,
// artist), no header, append-only. Records are never rewritten or compacted;
// membership checks re-normalize every record at load time, so raw duplicates
// differing only in case or whitespace are harmless.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotsync/internal/shared"
)

// Entry is one raw (title, artist) record as stored on disk.
type Entry struct {
	Title  string
	Artist string
}

// Store reads and appends per-playlist download history files under a base directory.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir. The directory is created lazily on first append.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the history file path for the given playlist identifier.
func (s *Store) Path(playlistID string) string {
	return filepath.Join(s.dir, playlistID+".csv")
}

// Load reads the history file for a playlist and returns the set of
// normalized track keys it contains.
//
// A missing file means no history yet and yields an empty set. Any other
// read failure is returned as an error: treating an unreadable file as empty
// would silently re-download and duplicate every record.
func (s *Store) Load(playlistID string) (map[string]struct{}, error) {
	downloaded := make(map[string]struct{})

	entries, err := s.Entries(playlistID)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		downloaded[shared.NormalizeTrackKey(e.Title, e.Artist)] = struct{}{}
	}

	return downloaded, nil
}

// Entries reads the raw, un-normalized records for a playlist in file order.
// A missing file yields an empty slice.
func (s *Store) Entries(playlistID string) ([]Entry, error) {
	f, err := os.Open(s.Path(playlistID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrHistoryUnreadable, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrHistoryUnreadable, err)
		}
		if len(record) < 2 {
			continue
		}
		entries = append(entries, Entry{Title: record[0], Artist: record[1]})
	}

	return entries, nil
}

// Append durably records one raw (title, artist) pair for a playlist.
//
// Each call opens, writes, and closes the file independently, so a completed
// append is flushed before any subsequent operation begins.
func (s *Store) Append(playlistID, title, artist string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(playlistID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{title, artist}); err != nil {
		f.Close()
		return fmt.Errorf("failed to write history record: %w", err)
	}
	writer.Flush()

	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush history record: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close history file: %w", err)
	}

	return nil
}
