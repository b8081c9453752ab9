// Package repositories implements data access for the sqlite-backed run ledger.
//
// [RunRepository] handles inserts and lookups for [models.SyncRun], with
// sequence generation via a dedicated sequence table. The schema is managed
// by shared.RunMigrations.
package repositories
