package tui

import "errors"

// Port validation errors.
var (
	// ErrMissingSyncService indicates the sync service port was not provided.
	ErrMissingSyncService = errors.New("sync service is required")

	// ErrMissingSnapshotStore indicates the snapshot store port was not provided.
	ErrMissingSnapshotStore = errors.New("snapshot store is required")

	// ErrMissingHistoryStore indicates the history store port was not provided.
	ErrMissingHistoryStore = errors.New("history store is required")
)
