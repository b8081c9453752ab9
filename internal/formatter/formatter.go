// package formatter provides CSV track-list parsing and styled terminal rendering for sync results
package formatter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/tasks"
)

// Column headers produced by Spotify CSV exporters.
const (
	trackNameColumn  = "Track Name"
	artistNameColumn = "Artist Name(s)"
)

// ParseTracksCSV reads a Spotify CSV export and returns its tracks in file order.
//
// Requires the "Track Name" and "Artist Name(s)" columns; when several
// artists are listed separated by ';', only the first is kept. Rows missing
// either field are skipped.
func ParseTracksCSV(r io.Reader) ([]models.Track, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	titleCol, artistCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case trackNameColumn:
			titleCol = i
		case artistNameColumn:
			artistCol = i
		}
	}
	if titleCol < 0 || artistCol < 0 {
		return nil, fmt.Errorf("CSV must contain %q and %q columns", trackNameColumn, artistNameColumn)
	}

	var tracks []models.Track
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if len(record) <= titleCol || len(record) <= artistCol {
			continue
		}

		title := strings.TrimSpace(record[titleCol])
		artist, _, _ := strings.Cut(record[artistCol], ";")
		artist = strings.TrimSpace(artist)
		if title == "" || artist == "" {
			continue
		}

		tracks = append(tracks, models.Track{Title: title, Artist: artist})
	}

	return tracks, nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	countStyle   = lipgloss.NewStyle().Bold(true)
	trackStyle   = lipgloss.NewStyle().PaddingLeft(2)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	skippedStyle = lipgloss.NewStyle().Faint(true)
)

// RenderDryRun renders the diff result of a dry run.
func RenderDryRun(result *tasks.SyncResult) string {
	var b strings.Builder

	name := result.PlaylistName
	if name == "" {
		name = result.PlaylistID
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Dry run: %s", name)) + "\n")
	b.WriteString(fmt.Sprintf("Found %d tracks in playlist.\n", result.TotalTracks))
	b.WriteString(countStyle.Render(fmt.Sprintf("New tracks not in history (%d):", len(result.NewTracks))) + "\n")

	for _, track := range result.NewTracks {
		b.WriteString(trackStyle.Render(fmt.Sprintf("- %s - %s", track.Artist, track.Title)) + "\n")
	}

	return b.String()
}

// RenderSummary renders the totals of a completed sync run.
func RenderSummary(result *tasks.SyncResult) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Sync complete") + "\n")
	b.WriteString(fmt.Sprintf("Catalog tracks: %d\n", result.TotalTracks))
	b.WriteString(skippedStyle.Render(fmt.Sprintf("Already recorded: %d", result.TotalTracks-len(result.NewTracks))) + "\n")
	b.WriteString(fmt.Sprintf("Downloaded: %d\n", result.Downloaded))

	if result.Failed > 0 {
		b.WriteString(failedStyle.Render(fmt.Sprintf("Failed: %d", result.Failed)) + "\n")
		for _, failure := range result.Failures {
			b.WriteString(trackStyle.Render(failedStyle.Render(fmt.Sprintf("✗ %s - %s", failure.Track.Artist, failure.Track.Title))) + "\n")
		}
	}

	return b.String()
}

// RenderRuns renders rows from the run ledger, most recent first.
func RenderRuns(runs []*models.SyncRun) string {
	if len(runs) == 0 {
		return "No recorded runs.\n"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Recorded runs") + "\n")

	for _, run := range runs {
		name := run.PlaylistName
		if name == "" {
			name = run.PlaylistID
		}
		line := fmt.Sprintf("#%d %s [%s] %s  new:%d downloaded:%d failed:%d",
			run.Sequence(), run.FinishedAt.Format("2006-01-02 15:04"), run.Mode, name,
			run.NewTracks, run.Downloaded, run.Failed)
		b.WriteString(trackStyle.Render(line) + "\n")
	}

	return b.String()
}
