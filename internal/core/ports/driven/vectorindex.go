package driven

import "context"

// Vector is one record written to the vector index.
type Vector struct {
	// ID is the chunk ID.
	ID string `json:"id"`

	// Values is the embedding.
	Values []float32 `json:"values"`

	// Metadata carries the chunk metadata plus a truncated copy of the
	// chunk text for retrieval display.
	Metadata map[string]any `json:"metadata"`
}

// IndexStats summarises the live index contents.
type IndexStats struct {
	// TotalVectors is the vector count across all namespaces.
	TotalVectors int

	// Namespaces maps namespace names to their vector counts.
	Namespaces map[string]int
}

// VectorIndex writes embeddings to the external vector database.
// Namespaces partition the index by chunk type.
type VectorIndex interface {
	// Upsert inserts or overwrites vectors in a namespace.
	Upsert(ctx context.Context, namespace string, vectors []Vector) error

	// Stats returns current index statistics.
	Stats(ctx context.Context) (*IndexStats, error)

	// Close releases resources.
	Close() error
}
