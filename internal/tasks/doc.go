// Package tasks orchestrates playlist-to-library synchronization with real-time progress reporting.
//
// # Core Operations
//
// The [SyncEngine] interface defines two operations:
//
//  1. [SyncEngine.Sync] : Full playlist synchronization
//     - Resolves the playlist reference to a canonical identifier
//     - Fetches the complete ordered catalog from the source service
//     - Loads per-playlist download history and diffs the catalog against it
//     - Downloads missing tracks sequentially, recording each success immediately
//     - In dry-run mode reports the diff without mutating any state
//
//  2. [SyncEngine.BulkDownload] : History-free downloads from an explicit track list
//     - Same orchestration driven by a CSV export instead of a live catalog
//     - Backed by a discardable in-memory history
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, and messages for
// display. Updates use select with default to prevent blocking.
//
// # Failure Isolation
//
// Catalog fetch and history load failures abort a run before anything is
// written. Per-track download failures are logged and skipped; the track
// stays absent from history and is re-attempted on the next run. Only an
// unusable downloader ([shared.ErrDownloaderUnavailable]) aborts the loop.
//
// # Implementation
//
// [Engine] implements [SyncEngine] with dependencies on:
//   - [services.Service] : catalog API client
//   - [HistoryStore] : durable (history.Store) or discardable (history.Memory) ledger
//   - [downloader.Downloader] : external audio-fetch mechanism
//   - [RunRecorder] : optional run ledger (repositories.RunRepository)
package tasks
