package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Rollback and approve surface this when their target snapshot is missing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFetchFailed indicates no usable chunk set was obtained from the
	// chunk builder. Terminal for the run; nothing is deployed.
	ErrFetchFailed = errors.New("chunk fetch failed")

	// ErrDeployFailed indicates embedding or index writes exhausted their
	// retries. The snapshot is already persisted but left inactive, so the
	// run can be retried or approved without re-fetching.
	ErrDeployFailed = errors.New("deploy failed")

	// ErrStoreUnavailable indicates the persistence layer is unreachable.
	// No partial state changes are permitted when this is raised.
	ErrStoreUnavailable = errors.New("snapshot store unavailable")

	// ErrRateLimited indicates the embedding provider rejected a request
	// with a rate limit response after all retries.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
