package services

import (
	"context"
	"fmt"

	"github.com/calderalabs/ragline/internal/adapters/driven/embedding"
	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/loaders"
	"github.com/calderalabs/ragline/internal/logger"
)

// DefaultSearchLimit is the result count when the caller passes k <= 0.
const DefaultSearchLimit = 10

// SearchService retrieves indexed chunks for a query. The query is
// embedded with the same model configuration used at indexing time;
// when embeddings are disabled or vector search fails, retrieval
// falls back to text matching.
type SearchService struct {
	cfg     *config.Pipeline
	manager *ConnectorManager
}

// NewSearchService creates the retrieval service.
func NewSearchService(cfg *config.Pipeline, manager *ConnectorManager) *SearchService {
	return &SearchService{cfg: cfg, manager: manager}
}

func (s *SearchService) backend(ctx context.Context) (driven.SearchConnector, error) {
	name := s.cfg.Loader.Backend.Connector
	if name == "" {
		return nil, fmt.Errorf("%w: loader backend has no connector", domain.ErrMissingConfig)
	}
	conn, err := s.manager.Connect(ctx, name)
	if err != nil {
		return nil, err
	}
	search, ok := conn.(driven.SearchConnector)
	if !ok {
		return nil, fmt.Errorf("%w: connector %q cannot serve as a search backend", domain.ErrUnsupportedType, name)
	}
	return search, nil
}

// Search returns the k most relevant chunks for the query.
func (s *SearchService) Search(ctx context.Context, query string, k int) ([]driven.SearchHit, error) {
	if k <= 0 {
		k = DefaultSearchLimit
	}

	conn, err := s.backend(ctx)
	if err != nil {
		return nil, err
	}
	index := s.cfg.Loader.Backend.IndexName

	if s.cfg.Loader.Embeddings.Enabled {
		hits, err := s.vectorSearch(ctx, conn, index, query, k)
		if err == nil {
			return hits, nil
		}
		logger.Warn("vector search failed, falling back to text search: %v", err)
	}

	hits, err := conn.TextSearch(ctx, index, query, k)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	return hits, nil
}

func (s *SearchService) vectorSearch(ctx context.Context, conn driven.SearchConnector, index, query string, k int) ([]driven.SearchHit, error) {
	svc, err := embedding.New(s.cfg.Loader.Embeddings)
	if err != nil {
		return nil, err
	}
	aligner := loaders.NewAligner(svc)
	defer aligner.Close()

	vector, err := aligner.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return conn.VectorSearch(ctx, index, vector, k)
}
