// Package models defines the records exchanged by the reconciliation engine and the entities persisted between runs.
//
// The package contains two categories of types:
//
// 1. Snapshot records: immutable, per-run values built by the collaborators
//   - [RemoteTrack] : one entry of a remote playlist snapshot, keyed by URL
//   - [LocalTrack] : tag metadata of one local audio file, keyed by file path
//   - [MatchResult] : the join of a remote entry with zero or one local entries
//
// 2. Persistent entities: database-backed models
//   - [SyncRun] : one invocation of the sync pipeline with its counts and outcome
//   - [ScannedFile] : cached tags of a local file, invalidated by size and mtime
//
// Persistent entities implement the [Model] interface.
// The [Repository] interface defines standard CRUD operations for database access.
package models
