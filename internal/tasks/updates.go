package tasks

import (
	"fmt"

	"github.com/desertthunder/spotsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchCatalog Phase = iota
	LoadHistory
	Compare
	Download
	Record
)

func (p Phase) String() string {
	switch p {
	case FetchCatalog:
		return "fetch_catalog"
	case LoadHistory:
		return "load_history"
	case Compare:
		return "compare"
	case Download:
		return "download"
	case Record:
		return "record"
	default:
		return ""
	}
}

func fetchCatalogUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", playlistID),
	}
}

func loadHistoryUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadHistory,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading download history for %s...", playlistID),
	}
}

func diffUpdate(catalogSize, historySize int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Comparing %d catalog tracks against %d recorded downloads...", catalogSize, historySize),
	}
}

func downloadUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading: %s - %s", step, total, tr.Artist, tr.Title),
		Data:    tr,
	}
}

func recordedUpdate(step, total int, tr models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Record,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloaded and recorded: %s - %s", step, total, tr.Artist, tr.Title),
		Data:    tr,
	}
}
