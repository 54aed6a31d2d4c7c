// Package voyage provides an embedding service adapter using the
// Voyage AI API.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Backoff maps a 1-based retry attempt to a wait duration. Injectable so
// tests can substitute a zero-wait function.
type Backoff func(attempt int) time.Duration

// LinearBackoff waits step, 2*step, 3*step and so on. Voyage's
// rate-limit window resets on a fixed clock, so waiting longer each
// attempt is enough.
func LinearBackoff(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.voyageai.com/v1"
	DefaultModel   = "voyage-3-lite"
	DefaultTimeout = 60 * time.Second

	// defaultMaxAttempts bounds retries on 429 responses.
	defaultMaxAttempts = 5

	// defaultBackoffStep is the linear backoff unit between retries.
	defaultBackoffStep = 10 * time.Second
)

// Model dimensions for Voyage embedding models.
var modelDimensions = map[string]int{
	"voyage-3-lite":  512,
	"voyage-3":       1024,
	"voyage-3-large": 1024,
}

// Config holds configuration for the Voyage embedding service.
type Config struct {
	// APIKey is the Voyage AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.voyageai.com/v1).
	BaseURL string

	// Model is the embedding model to use (default: voyage-3-lite).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// MaxAttempts bounds retries on rate-limit responses (default: 5).
	MaxAttempts int

	// Backoff computes the wait between rate-limited attempts
	// (default: linear, 10s per attempt).
	Backoff Backoff
}

// EmbeddingService generates embeddings using the Voyage AI API.
// Voyage enforces a strict requests-per-minute quota on the basic tier,
// so 429 responses are retried with linear backoff.
type EmbeddingService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	dimensions  int
	maxAttempts int
	backoff     Backoff
}

// embeddingRequest is the Voyage API request format.
type embeddingRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type,omitempty"`
}

// embeddingResponse is the Voyage API response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Detail string `json:"detail,omitempty"`
}

// NewEmbeddingService creates a new Voyage embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("voyage: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff == nil {
		cfg.Backoff = LinearBackoff(defaultBackoffStep)
	}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = 1024
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		dimensions:  dimensions,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.Backoff,
	}, nil
}

// EmbedBatch generates embeddings for multiple texts. Chunks are
// documents, not queries, so input_type is always "document".
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody := embeddingRequest{
		Model:     s.model,
		Input:     texts,
		InputType: "document",
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		embeddings, retry, err := s.embedOnce(ctx, jsonBody, len(texts))
		if err == nil {
			return embeddings, nil
		}
		if !retry || attempt == s.maxAttempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.backoff(attempt)):
		}
	}

	return nil, fmt.Errorf("%w: voyage: retries exhausted", domain.ErrRateLimited)
}

// embedOnce performs a single API call. The retry return is true only
// for rate-limit responses.
func (s *EmbeddingService) embedOnce(ctx context.Context, jsonBody []byte, count int) ([][]float32, bool, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/embeddings",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("%w: voyage returned status 429", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("voyage error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embeddingResponse
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Data) != count {
		return nil, false, fmt.Errorf("voyage returned %d embeddings for %d inputs", len(embedResp.Data), count)
	}

	// Convert float64 to float32 and order by index
	embeddings := make([][]float32, count)
	for _, data := range embedResp.Data {
		if data.Index < 0 || data.Index >= count {
			return nil, false, fmt.Errorf("voyage returned out-of-range index %d", data.Index)
		}
		vec := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vec[i] = float32(v)
		}
		embeddings[data.Index] = vec
	}

	return embeddings, false, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
