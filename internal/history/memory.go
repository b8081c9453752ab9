package history

import "github.com/desertthunder/spotsync/internal/shared"

// Memory is an in-memory history used for history-free bulk downloads.
//
// It satisfies the same contract as [Store] but persists nothing; the
// recorded set is discarded with the value. Within a run it still prevents
// re-fetching duplicate entries.
type Memory struct {
	records map[string]map[string]struct{}
}

// NewMemory creates an empty in-memory history.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]map[string]struct{})}
}

// Load returns the normalized keys recorded so far for the playlist.
func (m *Memory) Load(playlistID string) (map[string]struct{}, error) {
	downloaded := make(map[string]struct{}, len(m.records[playlistID]))
	for key := range m.records[playlistID] {
		downloaded[key] = struct{}{}
	}
	return downloaded, nil
}

// Append records one pair in memory.
func (m *Memory) Append(playlistID, title, artist string) error {
	set := m.records[playlistID]
	if set == nil {
		set = make(map[string]struct{})
		m.records[playlistID] = set
	}
	set[shared.NormalizeTrackKey(title, artist)] = struct{}{}
	return nil
}
