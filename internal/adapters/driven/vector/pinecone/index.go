// Package pinecone provides a vector index adapter for the Pinecone
// data-plane API.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// Host is the index host URL, e.g.
	// "https://my-index-abc123.svc.us-east-1-aws.pinecone.io" (required).
	Host string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Index writes embeddings to a Pinecone serverless index.
type Index struct {
	client *http.Client
	host   string
	apiKey string
}

// upsertRequest is the Pinecone upsert request format.
type upsertRequest struct {
	Vectors   []driven.Vector `json:"vectors"`
	Namespace string          `json:"namespace,omitempty"`
}

// upsertResponse is the Pinecone upsert response format.
type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// statsResponse is the Pinecone describe_index_stats response format.
type statsResponse struct {
	Namespaces map[string]struct {
		VectorCount int `json:"vectorCount"`
	} `json:"namespaces"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// NewIndex creates a new Pinecone index adapter.
func NewIndex(cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index host is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	host := strings.TrimSuffix(cfg.Host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return &Index{
		client: &http.Client{Timeout: cfg.Timeout},
		host:   host,
		apiKey: cfg.APIKey,
	}, nil
}

// Upsert inserts or overwrites vectors in a namespace.
func (x *Index) Upsert(ctx context.Context, namespace string, vectors []driven.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	var result upsertResponse
	err := x.post(ctx, "/vectors/upsert", upsertRequest{
		Vectors:   vectors,
		Namespace: namespace,
	}, &result)
	if err != nil {
		return err
	}

	if result.UpsertedCount != len(vectors) {
		return fmt.Errorf("pinecone upserted %d of %d vectors in namespace %q",
			result.UpsertedCount, len(vectors), namespace)
	}
	return nil
}

// Stats returns current index statistics.
func (x *Index) Stats(ctx context.Context) (*driven.IndexStats, error) {
	var result statsResponse
	if err := x.post(ctx, "/describe_index_stats", struct{}{}, &result); err != nil {
		return nil, err
	}

	stats := &driven.IndexStats{
		TotalVectors: result.TotalVectorCount,
		Namespaces:   make(map[string]int, len(result.Namespaces)),
	}
	for ns, info := range result.Namespaces {
		stats.Namespaces[ns] = info.VectorCount
	}
	return stats, nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// post sends a JSON request to the index host and decodes the response.
func (x *Index) post(ctx context.Context, path string, payload any, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.host+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", x.apiKey)

	resp, err := x.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinecone error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
