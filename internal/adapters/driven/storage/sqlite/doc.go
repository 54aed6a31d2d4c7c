// Package sqlite provides the durable storage backend: the snapshot
// ledger, the sync history ledger and scheduler state, all in a single
// SQLite database file with embedded schema migrations.
package sqlite
