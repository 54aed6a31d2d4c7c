// Package verity provides a chunk source backed by the Verity coverage
// API, the hosted chunk builder service.
package verity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Ensure Source implements the interfaces.
var (
	_ driven.ChunkSource = (*Source)(nil)
	_ driven.ChangeFeed  = (*Source)(nil)
)

// DefaultTimeout is the per-request timeout. A full chunk export is a
// large response, so this is generous.
const DefaultTimeout = 120 * time.Second

// Config holds configuration for the Verity chunk source.
type Config struct {
	// BaseURL is the API base URL (required).
	BaseURL string

	// APIKey authenticates as a bearer token (required).
	APIKey string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Source fetches chunk sets and policy change feeds over HTTP.
type Source struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// envelope is the API's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// chunkExport is the payload of the chunk export endpoint.
type chunkExport struct {
	Chunks []domain.Chunk `json:"chunks"`
}

// changeFeed is the payload of the policy changes endpoint.
type changeFeed struct {
	Changes []domain.PolicyChange `json:"changes"`
}

// NewSource creates a Verity API chunk source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("verity: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("verity: API key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Source{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

// FetchChunks returns the complete current chunk set.
func (s *Source) FetchChunks(ctx context.Context) ([]domain.Chunk, error) {
	var payload chunkExport
	if err := s.get(ctx, "/chunks/export", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Chunks, nil
}

// RecentChanges lists policy changes recorded upstream since the given
// time.
func (s *Source) RecentChanges(ctx context.Context, since time.Time, limit int) ([]domain.PolicyChange, error) {
	query := url.Values{}
	if !since.IsZero() {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var payload changeFeed
	if err := s.get(ctx, "/policies/changes", query, &payload); err != nil {
		return nil, err
	}
	return payload.Changes, nil
}

// get performs an authenticated GET and unwraps the response envelope.
func (s *Source) get(ctx context.Context, path string, query url.Values, out any) error {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if env.Error != nil {
		return fmt.Errorf("%w: verity %s: %s", domain.ErrFetchFailed, env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return fmt.Errorf("%w: verity returned status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
	return nil
}
