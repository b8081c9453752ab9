// Package models defines domain entities and persistence interfaces for the spotsync playlist downloader.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external service data
//   - [Playlist] : Basic playlist metadata from the catalog service
//   - [PlaylistExport] : Playlist with complete ordered track listing
//   - [Track] : Raw song metadata; identity for history membership is derived at comparison time
//
// 2. Persistent Entities: Database-backed models
//   - [SyncRun] : One row per completed download run, recording totals and timing
//
// Persistent entities implement the [Model] interface providing ID access, timestamps, and validation.
package models
