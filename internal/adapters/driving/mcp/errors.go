package mcp

import "errors"

// ErrMissingSyncService is returned when the sync service port is not set.
var ErrMissingSyncService = errors.New("mcp: sync service is required")
