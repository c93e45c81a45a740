package extractors

import (
	"context"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure SearchIndex implements the interface.
var _ driven.Extractor = (*SearchIndex)(nil)

// defaultScanSize bounds one index scan when batch_size is unset.
const defaultScanSize = 1000

// SearchIndex extracts stored documents from search indices. A
// failing index is skipped and reported; the remaining indices still
// run.
type SearchIndex struct {
	name string
	cfg  config.ExtractorConfig
	conn driven.SearchConnector
}

// NewSearchIndex creates an index extractor.
func NewSearchIndex(name string, cfg config.ExtractorConfig, conn driven.SearchConnector) *SearchIndex {
	return &SearchIndex{name: name, cfg: cfg, conn: conn}
}

// Name returns the configured source name.
func (e *SearchIndex) Name() string { return e.name }

// Extract produces one document per stored record across all
// configured indices.
func (e *SearchIndex) Extract(ctx context.Context) (<-chan domain.Document, <-chan error) {
	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultScanSize
	}

	return run(ctx, e.name, func(ctx context.Context, emit func(domain.Document) bool, report *domain.ExtractionReport) error {
		for _, index := range e.cfg.Indices {
			records, err := e.conn.Scan(ctx, index, batchSize)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("extractor %s: skipping index %s: %v", e.name, index, err)
				skip(report, index, err)
				continue
			}

			for _, rec := range records {
				// Stored fields travel with the document so downstream
				// transformers can read them, augmented with the index
				// and document id they came from.
				metadata := map[string]any{
					"_source_index": index,
					"_document_id":  rec.ChunkID,
					"source_id":     rec.SourceID,
				}
				if len(rec.Metadata) > 0 {
					metadata["metadata"] = rec.Metadata
				}
				if !rec.IngestedAt.IsZero() {
					metadata["ingested_at"] = rec.IngestedAt
				}

				doc := domain.Document{
					Source:   domain.SourceSearch,
					ID:       rec.ChunkID,
					Metadata: metadata,
					Body:     rec.Text,
				}
				if !emit(doc) {
					return ctx.Err()
				}
			}
		}
		return nil
	})
}
