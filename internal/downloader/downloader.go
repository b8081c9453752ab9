// package downloader abstracts the external audio-fetch mechanism.
//
// The sync engine depends only on the [Downloader] interface: attempt to
// fetch one track into a directory and report success or failure. The
// concrete mechanism (yt-dlp, a library, a test stub) is swappable without
// touching the engine.
package downloader

import (
	"context"
)

// Downloader fetches the audio for a single track into a destination directory.
//
// A track that cannot be found or retrieved is an expected, recoverable
// condition and is reported as an error wrapping [shared.ErrTrackUnavailable].
// An error wrapping [shared.ErrDownloaderUnavailable] means the fetch
// mechanism itself is unusable and the whole run should abort, since every
// remaining track would fail identically.
type Downloader interface {
	Download(ctx context.Context, title, artist, destDir string) error
	Name() string
}
