// Package repositories implements SQLite persistence for sync history and the scan cache.
//
// Key Implementations:
//   - [SyncRunRepository] : one row per sync invocation, read back by the history command
//   - [ScanCacheRepository] : tag reads keyed by file path, reused while size and mtime hold
//
// Sync runs carry a sequence number from [NextSequence] so history lists in invocation order
// independent of UUIDs and clock skew.
package repositories
