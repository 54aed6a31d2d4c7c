package driven

import (
	"context"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
)

// ChunkSource obtains the candidate chunk set from the external chunk
// builder. It owns all domain-specific chunk text assembly; the core only
// stores and compares what it returns.
type ChunkSource interface {
	// FetchChunks returns the complete current chunk set.
	// An error or an empty result means no usable set was obtained.
	FetchChunks(ctx context.Context) ([]domain.Chunk, error)
}

// ChangeFeed is an optional extension reporting upstream policy changes.
// Informational only; the diff engine is the source of truth for what
// actually changed.
type ChangeFeed interface {
	// RecentChanges lists policy changes recorded upstream since the
	// given time.
	RecentChanges(ctx context.Context, since time.Time, limit int) ([]domain.PolicyChange, error)
}

// ChunkWatcher is an optional extension that signals when the chunk
// export has changed and a re-sync is worthwhile.
type ChunkWatcher interface {
	// Watch emits a signal whenever the underlying chunk export changes.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
