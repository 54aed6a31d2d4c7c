package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

func newTestIndex(t *testing.T, handler http.HandlerFunc) *Index {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	idx, err := NewIndex(Config{APIKey: "test-key", Host: server.URL})
	require.NoError(t, err)
	return idx
}

func TestUpsert(t *testing.T) {
	var gotBody upsertRequest
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vectors/upsert", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		require.NoError(t, json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: len(gotBody.Vectors)}))
	})

	vectors := []driven.Vector{
		{ID: "c1", Values: []float32{0.1, 0.2}, Metadata: map[string]any{"type": "lcd_policy"}},
		{ID: "c2", Values: []float32{0.3, 0.4}, Metadata: map[string]any{"type": "hcpcs_code"}},
	}
	require.NoError(t, idx.Upsert(context.Background(), "lcd_policies", vectors))

	assert.Equal(t, "lcd_policies", gotBody.Namespace)
	require.Len(t, gotBody.Vectors, 2)
	assert.Equal(t, "c1", gotBody.Vectors[0].ID)
}

func TestUpsertCountMismatch(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(upsertResponse{UpsertedCount: 1}))
	})

	err := idx.Upsert(context.Background(), "default", []driven.Vector{
		{ID: "a", Values: []float32{1}},
		{ID: "b", Values: []float32{2}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty upsert")
	})

	assert.NoError(t, idx.Upsert(context.Background(), "default", nil))
}

func TestStats(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/describe_index_stats", r.URL.Path)
		_, err := w.Write([]byte(`{
			"namespaces": {
				"lcd_policies": {"vectorCount": 120},
				"hcpcs_codes": {"vectorCount": 45}
			},
			"totalVectorCount": 165
		}`))
		require.NoError(t, err)
	})

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 165, stats.TotalVectors)
	assert.Equal(t, 120, stats.Namespaces["lcd_policies"])
	assert.Equal(t, 45, stats.Namespaces["hcpcs_codes"])
}

func TestUpsertServerError(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"quota exceeded"}`, http.StatusForbidden)
	})

	err := idx.Upsert(context.Background(), "default", []driven.Vector{{ID: "a", Values: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestNewIndexValidation(t *testing.T) {
	_, err := NewIndex(Config{Host: "example.com"})
	assert.Error(t, err)

	_, err = NewIndex(Config{APIKey: "k"})
	assert.Error(t, err)

	idx, err := NewIndex(Config{APIKey: "k", Host: "my-index.svc.pinecone.io/"})
	require.NoError(t, err)
	assert.Equal(t, "https://my-index.svc.pinecone.io", idx.host)
}
