// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotsync/internal/models"
)

// MockService is a test double for [services.Service]
type MockService struct {
	Playlists map[string]*models.PlaylistExport
	AuthErr   error
	ExportErr error
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	export, err := m.ExportPlaylist(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return &export.Playlist, nil
}

func (m *MockService) ExportPlaylist(ctx context.Context, playlistID string) (*models.PlaylistExport, error) {
	if m.ExportErr != nil {
		return nil, m.ExportErr
	}
	if export, ok := m.Playlists[playlistID]; ok {
		return export, nil
	}
	return nil, fmt.Errorf("playlist not found")
}

func (m *MockService) Name() string { return "mock" }

// MockDownloader is a test double for [downloader.Downloader] that records calls.
type MockDownloader struct {
	Calls []string      // "artist - title" per invocation, in order
	Errs  map[string]error // per-call errors keyed the same way
}

func (m *MockDownloader) Download(ctx context.Context, title, artist, destDir string) error {
	key := artist + " - " + title
	m.Calls = append(m.Calls, key)
	if m.Errs != nil {
		return m.Errs[key]
	}
	return nil
}

func (m *MockDownloader) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading a response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
