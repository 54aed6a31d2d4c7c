package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
	"github.com/backworkai/vectorsync/internal/logger"
)

// metadataTextLimit bounds the chunk text copied into vector metadata.
const metadataTextLimit = 1000

// defaultEmbedBatchSize is the fallback embed batch size.
const defaultEmbedBatchSize = 10

// Deployer pushes a chunk set into the vector index: chunks are grouped
// by namespace, embedded in small batches and upserted, with batches
// paced through a rate limiter to respect the embedding provider's
// limits. The pacing is a throughput throttle, not a correctness
// mechanism.
type Deployer struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	settings domain.SyncSettings
	limiter  *rate.Limiter
}

// NewDeployer creates a deployer. BatchesPerSecond <= 0 disables pacing.
func NewDeployer(embedder driven.EmbeddingService, index driven.VectorIndex, settings domain.SyncSettings) *Deployer {
	if settings.EmbedBatchSize <= 0 {
		settings.EmbedBatchSize = defaultEmbedBatchSize
	}

	var limiter *rate.Limiter
	if settings.BatchesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.BatchesPerSecond), 1)
	}

	return &Deployer{
		embedder: embedder,
		index:    index,
		settings: settings,
		limiter:  limiter,
	}
}

// Deploy embeds and upserts every chunk in the set.
func (d *Deployer) Deploy(ctx context.Context, chunks []domain.Chunk) error {
	if d.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if d.index == nil {
		return domain.ErrVectorIndexUnavailable
	}

	byNamespace := make(map[string][]domain.Chunk)
	for _, c := range chunks {
		ns := d.settings.Namespaces.Resolve(c.Type())
		byNamespace[ns] = append(byNamespace[ns], c)
	}

	for ns, nsChunks := range byNamespace {
		logger.Info("Deploying %d chunks to namespace %s", len(nsChunks), ns)
		if err := d.deployNamespace(ctx, ns, nsChunks); err != nil {
			return fmt.Errorf("namespace %s: %w", ns, err)
		}
	}

	return nil
}

func (d *Deployer) deployNamespace(ctx context.Context, namespace string, chunks []domain.Chunk) error {
	batchSize := d.settings.EmbedBatchSize

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		logger.Debug("Embedding batch %d (%d chunks)", start/batchSize+1, len(batch))
		embeddings, err := d.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding batch: %w", err)
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("embedding batch: got %d vectors for %d chunks", len(embeddings), len(batch))
		}

		vectors := make([]driven.Vector, len(batch))
		for i, c := range batch {
			vectors[i] = driven.Vector{
				ID:       c.ID,
				Values:   embeddings[i],
				Metadata: vectorMetadata(c),
			}
		}

		if err := d.index.Upsert(ctx, namespace, vectors); err != nil {
			return fmt.Errorf("upserting batch: %w", err)
		}
	}

	return nil
}

// vectorMetadata builds the index-side metadata: the chunk metadata plus
// a truncated copy of the text for retrieval display.
func vectorMetadata(c domain.Chunk) map[string]any {
	meta := make(map[string]any, len(c.Metadata)+1)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	text := c.Text
	if len(text) > metadataTextLimit {
		text = text[:metadataTextLimit]
	}
	meta["text"] = text
	return meta
}
