package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations are subject to provider rate limits: an HTTP 429
// equivalent must be retried through a bounded backoff before surfacing
// as an error; all other failures are fatal immediately.
//
// Implementations may include:
//   - Voyage AI (voyage-3-lite, voyage-3)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// EmbedBatch generates embeddings for multiple texts in one request.
	// The result has one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 512, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
