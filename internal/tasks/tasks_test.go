package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/spotsync/internal/history"
	"github.com/desertthunder/spotsync/internal/models"
	"github.com/desertthunder/spotsync/internal/shared"
	tu "github.com/desertthunder/spotsync/internal/testing"
)

type mockRecorder struct {
	runs []*models.SyncRun
	err  error
}

func (m *mockRecorder) Create(run *models.SyncRun) error {
	if m.err != nil {
		return m.err
	}
	m.runs = append(m.runs, run)
	return nil
}

// failingHistory wraps a HistoryStore and fails Append for selected titles.
type failingHistory struct {
	HistoryStore
	failTitles map[string]bool
}

func (f *failingHistory) Append(playlistID, title, artist string) error {
	if f.failTitles[title] {
		return errors.New("disk full")
	}
	return f.HistoryStore.Append(playlistID, title, artist)
}

func catalogOf(titles ...string) []models.Track {
	tracks := make([]models.Track, 0, len(titles))
	for i, title := range titles {
		tracks = append(tracks, models.Track{
			ID:     fmt.Sprintf("id%d", i),
			Title:  title,
			Artist: "Artist",
		})
	}
	return tracks
}

func newTestEngine(t *testing.T, catalog []models.Track, store HistoryStore) (*Engine, *tu.MockDownloader, *mockRecorder) {
	t.Helper()

	service := &tu.MockService{
		Playlists: map[string]*models.PlaylistExport{
			"pl": {
				Playlist: models.Playlist{ID: "pl", Name: "Test Playlist", TrackCount: len(catalog)},
				Tracks:   catalog,
			},
		},
	}
	fetcher := &tu.MockDownloader{}
	recorder := &mockRecorder{}

	engine := NewEngine(EngineOpts{
		Catalog: service,
		History: store,
		Fetcher: fetcher,
		Runs:    recorder,
	})
	return engine, fetcher, recorder
}

func TestDiff(t *testing.T) {
	t.Run("Empty History Returns Whole Catalog", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three")

		missing := Diff(catalog, map[string]struct{}{})
		if len(missing) != 3 {
			t.Fatalf("expected 3 missing tracks, got %d", len(missing))
		}
	})

	t.Run("Preserves Catalog Order", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three", "Four")
		downloaded := map[string]struct{}{
			shared.NormalizeTrackKey("Two", "Artist"): {},
		}

		missing := Diff(catalog, downloaded)
		want := []string{"One", "Three", "Four"}
		if len(missing) != len(want) {
			t.Fatalf("expected %d missing tracks, got %d", len(want), len(missing))
		}
		for i, title := range want {
			if missing[i].Title != title {
				t.Errorf("position %d: expected %s, got %s", i, title, missing[i].Title)
			}
		}
	})

	t.Run("Membership Ignores Case And Whitespace", func(t *testing.T) {
		catalog := []models.Track{
			{Title: "Song Title", Artist: "Artist Name"},
		}
		downloaded := map[string]struct{}{
			shared.NormalizeTrackKey("  SONG   title ", "artist NAME"): {},
		}

		if missing := Diff(catalog, downloaded); len(missing) != 0 {
			t.Errorf("expected variant key to match, got %d missing", len(missing))
		}
	})

	t.Run("Duplicate Catalog Entries Both Skipped", func(t *testing.T) {
		catalog := []models.Track{
			{Title: "Same Song", Artist: "Artist"},
			{Title: "same  song", Artist: "ARTIST"},
		}
		downloaded := map[string]struct{}{
			shared.NormalizeTrackKey("Same Song", "Artist"): {},
		}

		if missing := Diff(catalog, downloaded); len(missing) != 0 {
			t.Errorf("expected both duplicates skipped, got %d missing", len(missing))
		}
	})

	t.Run("In Catalog Duplicates Collapse", func(t *testing.T) {
		catalog := []models.Track{
			{Title: "Same Song", Artist: "Artist"},
			{Title: "Other Song", Artist: "Artist"},
			{Title: "SAME SONG", Artist: "artist"},
		}

		missing := Diff(catalog, map[string]struct{}{})
		if len(missing) != 2 {
			t.Fatalf("expected 2 unique tracks, got %d", len(missing))
		}
		if missing[0].Title != "Same Song" || missing[1].Title != "Other Song" {
			t.Errorf("first occurrence should win, got %+v", missing)
		}
	})
}

func TestSync(t *testing.T) {
	t.Run("Downloads Missing Tracks In Order", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three", "Four", "Five")
		store := history.NewStore(t.TempDir())
		if err := store.Append("pl", "Two", "Artist"); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
		if err := store.Append("pl", "Four", "Artist"); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}

		engine, fetcher, recorder := newTestEngine(t, catalog, store)

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.TotalTracks != 5 {
			t.Errorf("expected 5 total tracks, got %d", result.TotalTracks)
		}
		if result.Downloaded != 3 {
			t.Errorf("expected 3 downloads, got %d", result.Downloaded)
		}
		if result.Failed != 0 {
			t.Errorf("expected no failures, got %d", result.Failed)
		}

		wantCalls := []string{"Artist - One", "Artist - Three", "Artist - Five"}
		if len(fetcher.Calls) != len(wantCalls) {
			t.Fatalf("expected %d downloader calls, got %d", len(wantCalls), len(fetcher.Calls))
		}
		for i, want := range wantCalls {
			if fetcher.Calls[i] != want {
				t.Errorf("call %d: expected %s, got %s", i, want, fetcher.Calls[i])
			}
		}

		downloaded, err := store.Load("pl")
		if err != nil {
			t.Fatalf("failed to reload history: %v", err)
		}
		if len(downloaded) != 5 {
			t.Errorf("expected all 5 tracks recorded, got %d", len(downloaded))
		}

		if len(recorder.runs) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(recorder.runs))
		}
		run := recorder.runs[0]
		if run.Mode != models.RunModeSync {
			t.Errorf("expected sync mode, got %s", run.Mode)
		}
		if run.Downloaded != 3 || run.Failed != 0 || run.TotalTracks != 5 {
			t.Errorf("unexpected run counts: %+v", run)
		}
	})

	t.Run("Second Run Is A No Op", func(t *testing.T) {
		catalog := catalogOf("One", "Two")
		store := history.NewStore(t.TempDir())
		engine, fetcher, _ := newTestEngine(t, catalog, store)

		if _, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if len(fetcher.Calls) != 2 {
			t.Fatalf("expected 2 downloads on first run, got %d", len(fetcher.Calls))
		}

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if len(fetcher.Calls) != 2 {
			t.Errorf("second run should download nothing, saw %d total calls", len(fetcher.Calls))
		}
		if len(result.NewTracks) != 0 || result.Downloaded != 0 {
			t.Errorf("expected empty diff on second run, got %+v", result)
		}
	})

	t.Run("Resolves Share URL", func(t *testing.T) {
		catalog := catalogOf("One")
		store := history.NewStore(t.TempDir())
		engine, _, _ := newTestEngine(t, catalog, store)

		result, err := engine.Sync(context.Background(),
			"https://open.spotify.com/playlist/pl?si=xyz", SyncOpts{DestDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.PlaylistID != "pl" {
			t.Errorf("expected resolved ID pl, got %s", result.PlaylistID)
		}
	})

	t.Run("Dry Run Mutates Nothing", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three")
		tmpDir := t.TempDir()
		store := history.NewStore(tmpDir)
		if err := store.Append("pl", "Two", "Artist"); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
		before := tu.MustReadFile(t, store.Path("pl"))

		engine, fetcher, recorder := newTestEngine(t, catalog, store)

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir(), DryRun: true}, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.DryRun {
			t.Error("result should be marked as dry run")
		}
		if len(result.NewTracks) != 2 {
			t.Errorf("expected 2 new tracks listed, got %d", len(result.NewTracks))
		}
		if result.Downloaded != 0 {
			t.Errorf("dry run should download nothing, got %d", result.Downloaded)
		}
		if len(fetcher.Calls) != 0 {
			t.Errorf("dry run should not invoke the downloader, saw %d calls", len(fetcher.Calls))
		}
		if len(recorder.runs) != 0 {
			t.Errorf("dry run should not record a run, saw %d", len(recorder.runs))
		}

		after := tu.MustReadFile(t, store.Path("pl"))
		if before != after {
			t.Error("dry run must leave the history file byte-for-byte unchanged")
		}
	})

	t.Run("Catalog Fetch Failure Writes Nothing", func(t *testing.T) {
		store := history.NewStore(t.TempDir())
		engine, fetcher, recorder := newTestEngine(t, nil, store)

		_, err := engine.Sync(context.Background(), "unknown_playlist", SyncOpts{DestDir: t.TempDir()}, nil)
		if err == nil {
			t.Fatal("expected error for unknown playlist")
		}
		if len(fetcher.Calls) != 0 {
			t.Errorf("failed fetch should not download, saw %d calls", len(fetcher.Calls))
		}
		if len(recorder.runs) != 0 {
			t.Errorf("failed fetch should not record a run, saw %d", len(recorder.runs))
		}
	})

	t.Run("Unreadable History Aborts", func(t *testing.T) {
		catalog := catalogOf("One")
		store := &failingLoadStore{}
		engine, fetcher, _ := newTestEngine(t, catalog, store)

		_, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrHistoryUnreadable) {
			t.Fatalf("expected ErrHistoryUnreadable, got %v", err)
		}
		if len(fetcher.Calls) != 0 {
			t.Errorf("unreadable history should abort before downloading, saw %d calls", len(fetcher.Calls))
		}
	})

	t.Run("Track Failure Is Isolated", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three")
		store := history.NewStore(t.TempDir())
		engine, fetcher, recorder := newTestEngine(t, catalog, store)
		fetcher.Errs = map[string]error{
			"Artist - Two": fmt.Errorf("%w: no results", shared.ErrTrackUnavailable),
		}

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("per-track failure should not abort the run: %v", err)
		}

		if result.Downloaded != 2 {
			t.Errorf("expected 2 downloads, got %d", result.Downloaded)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failure, got %d", result.Failed)
		}
		if len(result.Failures) != 1 || result.Failures[0].Track.Title != "Two" {
			t.Errorf("unexpected failure details: %+v", result.Failures)
		}
		if len(fetcher.Calls) != 3 {
			t.Errorf("all tracks should be attempted, saw %d calls", len(fetcher.Calls))
		}

		// Failed track stays out of history so the next run re-attempts it.
		downloaded, _ := store.Load("pl")
		if _, ok := downloaded[shared.NormalizeTrackKey("Two", "Artist")]; ok {
			t.Error("failed track must not be recorded")
		}
		if _, ok := downloaded[shared.NormalizeTrackKey("One", "Artist")]; !ok {
			t.Error("successful track should be recorded")
		}

		if len(recorder.runs) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(recorder.runs))
		}
	})

	t.Run("Each Success Recorded Before Next Attempt", func(t *testing.T) {
		catalog := catalogOf("One", "Two")
		tmpDir := t.TempDir()
		store := history.NewStore(tmpDir)
		engine, fetcher, _ := newTestEngine(t, catalog, store)

		// Fail the second track and check the first was already durable.
		fetcher.Errs = map[string]error{
			"Artist - Two": fmt.Errorf("%w: gone", shared.ErrTrackUnavailable),
		}

		if _, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		entries, err := store.Entries("pl")
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(entries) != 1 || entries[0].Title != "One" {
			t.Errorf("expected only the first success on disk, got %+v", entries)
		}
	})

	t.Run("Downloader Unavailable Aborts", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three")
		store := history.NewStore(t.TempDir())
		engine, fetcher, recorder := newTestEngine(t, catalog, store)
		fetcher.Errs = map[string]error{
			"Artist - One": fmt.Errorf("%w: yt-dlp not on PATH", shared.ErrDownloaderUnavailable),
		}

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if !errors.Is(err, shared.ErrDownloaderUnavailable) {
			t.Fatalf("expected ErrDownloaderUnavailable, got %v", err)
		}

		if len(fetcher.Calls) != 1 {
			t.Errorf("run should abort after the fatal call, saw %d calls", len(fetcher.Calls))
		}
		if result.Failed != 3 {
			t.Errorf("all pending tracks count failed on abort, got %d", result.Failed)
		}
		if len(recorder.runs) != 0 {
			t.Errorf("aborted run should not reach the ledger, saw %d", len(recorder.runs))
		}
	})

	t.Run("Append Failure Counts The Track Failed", func(t *testing.T) {
		catalog := catalogOf("One", "Two")
		store := &failingHistory{
			HistoryStore: history.NewStore(t.TempDir()),
			failTitles:   map[string]bool{"One": true},
		}
		engine, fetcher, _ := newTestEngine(t, catalog, store)

		result, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if err != nil {
			t.Fatalf("append failure should not abort the run: %v", err)
		}

		if result.Downloaded != 1 {
			t.Errorf("expected 1 success, got %d", result.Downloaded)
		}
		if result.Failed != 1 {
			t.Errorf("unrecorded download should count failed, got %d", result.Failed)
		}
		if len(fetcher.Calls) != 2 {
			t.Errorf("both tracks should be attempted, saw %d calls", len(fetcher.Calls))
		}
	})

	t.Run("Cancelled Context Aborts", func(t *testing.T) {
		catalog := catalogOf("One", "Two")
		store := history.NewStore(t.TempDir())
		engine, fetcher, _ := newTestEngine(t, catalog, store)

		ctx, cancel := context.WithCancel(context.Background())
		fetcher.Errs = map[string]error{
			"Artist - One": context.Canceled,
		}
		cancel()

		_, err := engine.Sync(ctx, "pl", SyncOpts{DestDir: t.TempDir()}, nil)
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
		if len(fetcher.Calls) != 1 {
			t.Errorf("cancellation should stop the loop, saw %d calls", len(fetcher.Calls))
		}
	})

	t.Run("Progress Updates Never Block", func(t *testing.T) {
		catalog := catalogOf("One", "Two", "Three")
		store := history.NewStore(t.TempDir())
		engine, _, _ := newTestEngine(t, catalog, store)

		// Unbuffered channel with no reader; sends must be dropped, not block.
		progress := make(chan ProgressUpdate)

		if _, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, progress); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Nil Recorder Is Allowed", func(t *testing.T) {
		catalog := catalogOf("One")
		engine := NewEngine(EngineOpts{
			Catalog: &tu.MockService{Playlists: map[string]*models.PlaylistExport{
				"pl": {Playlist: models.Playlist{ID: "pl"}, Tracks: catalog},
			}},
			History: history.NewStore(t.TempDir()),
			Fetcher: &tu.MockDownloader{},
		})

		if _, err := engine.Sync(context.Background(), "pl", SyncOpts{DestDir: t.TempDir()}, nil); err != nil {
			t.Fatalf("expected no error without a recorder, got %v", err)
		}
	})
}

// failingLoadStore always reports an unreadable history file.
type failingLoadStore struct{}

func (f *failingLoadStore) Load(playlistID string) (map[string]struct{}, error) {
	return nil, fmt.Errorf("%w: permission denied", shared.ErrHistoryUnreadable)
}

func (f *failingLoadStore) Append(playlistID, title, artist string) error { return nil }

func TestBulkDownload(t *testing.T) {
	t.Run("Downloads Every Listed Track", func(t *testing.T) {
		tracks := catalogOf("One", "Two", "Three")
		engine, fetcher, recorder := newTestEngine(t, nil, history.NewMemory())

		result, err := engine.BulkDownload(context.Background(), tracks, t.TempDir(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Downloaded != 3 {
			t.Errorf("expected 3 downloads, got %d", result.Downloaded)
		}
		if len(fetcher.Calls) != 3 {
			t.Errorf("expected 3 downloader calls, got %d", len(fetcher.Calls))
		}

		if len(recorder.runs) != 1 {
			t.Fatalf("expected 1 recorded run, got %d", len(recorder.runs))
		}
		if recorder.runs[0].Mode != models.RunModeCSV {
			t.Errorf("expected csv mode, got %s", recorder.runs[0].Mode)
		}
	})

	t.Run("Duplicate Rows Fetched Once", func(t *testing.T) {
		tracks := []models.Track{
			{Title: "Same Song", Artist: "Artist"},
			{Title: "Other Song", Artist: "Artist"},
			{Title: "  SAME   song ", Artist: "ARTIST"},
		}
		engine, fetcher, _ := newTestEngine(t, nil, history.NewMemory())

		result, err := engine.BulkDownload(context.Background(), tracks, t.TempDir(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.NewTracks) != 2 {
			t.Errorf("expected duplicate row collapsed in diff, got %d", len(result.NewTracks))
		}
		if len(fetcher.Calls) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(fetcher.Calls))
		}
		if result.Downloaded != 2 {
			t.Errorf("expected 2 successes, got %d", result.Downloaded)
		}
	})
}
