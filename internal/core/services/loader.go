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

// ProgressFunc reports loading progress: done records out of total.
type ProgressFunc func(done, total int)

// LoaderService aligns transformed chunks with vectors and ingests
// them into the configured search backend.
type LoaderService struct {
	cfg     *config.Pipeline
	manager *ConnectorManager
	stage   driven.StageStore

	// newIngestor and newEmbedder are swappable for tests.
	newIngestor func(cfg config.BackendConfig, conn driven.SearchConnector) driven.Ingestor
	newEmbedder func(cfg config.EmbeddingsConfig) (driven.EmbeddingService, error)
}

// NewLoaderService creates the loading runner.
func NewLoaderService(cfg *config.Pipeline, manager *ConnectorManager, stage driven.StageStore) *LoaderService {
	return &LoaderService{
		cfg:     cfg,
		manager: manager,
		stage:   stage,
		newIngestor: func(backend config.BackendConfig, conn driven.SearchConnector) driven.Ingestor {
			return loaders.NewIngestor(backend, conn)
		},
		newEmbedder: embedding.New,
	}
}

// backend resolves the configured search connector with a live
// handle.
func (s *LoaderService) backend(ctx context.Context) (driven.SearchConnector, error) {
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

// aligner builds the embedding aligner when embeddings are enabled.
func (s *LoaderService) aligner() (*loaders.EmbeddingAligner, error) {
	if !s.cfg.Loader.Embeddings.Enabled {
		return nil, nil
	}
	svc, err := s.newEmbedder(s.cfg.Loader.Embeddings)
	if err != nil {
		return nil, err
	}
	return loaders.NewAligner(svc), nil
}

// Run loads every transformed source into the backend. Returns the
// merged outcome across sources; progress, when non-nil, is invoked
// after each source's records are written.
func (s *LoaderService) Run(ctx context.Context, progress ProgressFunc) (domain.IngestOutcome, error) {
	sources, err := s.stage.ListChunkSources()
	if err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("list transformed sources: %w", err)
	}
	if len(sources) == 0 {
		logger.Info("loading: nothing to load")
		return domain.IngestOutcome{}, nil
	}

	aligner, err := s.aligner()
	if err != nil {
		return domain.IngestOutcome{}, err
	}
	if aligner != nil {
		defer aligner.Close()
	}

	conn, err := s.backend(ctx)
	if err != nil {
		return domain.IngestOutcome{}, err
	}

	dims := 0
	if aligner != nil {
		dims = aligner.Dimensions()
	}
	backendCfg := s.cfg.Loader.Backend
	if err := conn.EnsureIndex(ctx, backendCfg.IndexName, dims); err != nil {
		return domain.IngestOutcome{}, fmt.Errorf("ensure index %s: %w", backendCfg.IndexName, err)
	}

	ingestor := s.newIngestor(backendCfg, conn)

	// First pass counts records so progress can show a real total.
	perSource := make(map[string][]domain.Chunk, len(sources))
	total := 0
	for _, source := range sources {
		chunks, err := s.stage.ReadChunks(source)
		if err != nil {
			return domain.IngestOutcome{}, fmt.Errorf("read chunks %s: %w", source, err)
		}
		perSource[source] = chunks
		total += len(chunks)
	}

	var outcome domain.IngestOutcome
	done := 0
	for _, source := range sources {
		chunks := perSource[source]
		if len(chunks) == 0 {
			continue
		}

		var records []domain.AlignedRecord
		if aligner != nil {
			records, err = aligner.AlignAndEmbed(ctx, chunks)
			if err != nil {
				return outcome, fmt.Errorf("embed %s: %w", source, err)
			}
		} else {
			records = loaders.WithoutVectors(chunks)
		}

		sourceOutcome, err := ingestor.Ingest(ctx, records)
		if err != nil {
			return outcome, fmt.Errorf("ingest %s: %w", source, err)
		}
		outcome.Merge(sourceOutcome)

		done += len(chunks)
		if progress != nil {
			progress(done, total)
		}
	}

	if outcome.Success() {
		logger.Info("loading: %d/%d records ingested", outcome.Succeeded, outcome.Attempted)
	} else {
		logger.Warn("loading: %d/%d records ingested, %d failed", outcome.Succeeded, outcome.Attempted, len(outcome.FailedItems))
	}
	return outcome, nil
}
