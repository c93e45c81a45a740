// Package embedding builds the configured embedding service.
package embedding

import (
	"fmt"

	"github.com/calderalabs/ragline/internal/adapters/driven/embedding/ollama"
	"github.com/calderalabs/ragline/internal/adapters/driven/embedding/openai"
	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// New creates the embedding service the loader configuration names.
func New(cfg config.EmbeddingsConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "ollama", "":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("build openai service: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, cfg.Provider)
	}
}
