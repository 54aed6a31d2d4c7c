// Package embedding selects and constructs the configured embedding
// provider adapter.
package embedding

import (
	"fmt"

	"github.com/backworkai/vectorsync/internal/adapters/driven/embedding/openai"
	"github.com/backworkai/vectorsync/internal/adapters/driven/embedding/voyage"
	"github.com/backworkai/vectorsync/internal/core/domain"
	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// NewFromSettings builds the embedding service selected by settings.
// The default provider is Voyage, matching the production deployment.
func NewFromSettings(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	provider := settings.Provider
	if provider == "" {
		provider = "voyage"
	}

	switch provider {
	case "voyage":
		return voyage.NewEmbeddingService(voyage.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, provider)
	}
}
