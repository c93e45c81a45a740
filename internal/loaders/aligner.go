// Package loaders generates vectors for chunks and writes the aligned
// records into a search backend. Alignment is keyed by chunk id, so a
// vector can never be attached to the wrong text; ingestion upserts by
// chunk id, so re-running a load is idempotent.
package loaders

import (
	"context"
	"fmt"

	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// EmbeddingAligner pairs chunks with vectors produced by an embedding
// service. It holds no index state; the same configuration must be
// used at indexing and query time.
type EmbeddingAligner struct {
	svc driven.EmbeddingService
}

// NewAligner creates an aligner over an embedding service.
func NewAligner(svc driven.EmbeddingService) *EmbeddingAligner {
	return &EmbeddingAligner{svc: svc}
}

// Dimensions returns the embedding vector size.
func (a *EmbeddingAligner) Dimensions() int { return a.svc.Dimensions() }

// ModelName returns the underlying model name.
func (a *EmbeddingAligner) ModelName() string { return a.svc.ModelName() }

// Close releases the embedding service.
func (a *EmbeddingAligner) Close() error { return a.svc.Close() }

// GenerateVectors embeds each text. The i-th vector corresponds to
// the i-th input and has the service's fixed dimension.
func (a *EmbeddingAligner) GenerateVectors(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors, err := a.svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}

	dims := a.svc.Dimensions()
	for i, v := range vectors {
		if dims > 0 && len(v) != dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", domain.ErrEmbeddingUnavailable, i, len(v), dims)
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string with the same model used at
// indexing time.
func (a *EmbeddingAligner) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, err := a.svc.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vector, nil
}

// AlignAndEmbed embeds every chunk's text and attaches each vector to
// its chunk strictly by chunk id, never by list position.
func (a *EmbeddingAligner) AlignAndEmbed(ctx context.Context, chunks []domain.Chunk) ([]domain.AlignedRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := a.GenerateVectors(ctx, texts)
	if err != nil {
		return nil, err
	}

	byID := make(map[string][]float32, len(chunks))
	for i, ch := range chunks {
		byID[ch.ChunkID] = vectors[i]
	}

	records := make([]domain.AlignedRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.AlignedRecord{
			SourceID: ch.SourceID,
			ChunkID:  ch.ChunkID,
			Text:     ch.Text,
			Tags:     ch.Tags,
			Vector:   byID[ch.ChunkID],
		}
	}
	return records, nil
}

// WithoutVectors converts chunks to records with no vectors attached,
// for pipelines running with embeddings disabled.
func WithoutVectors(chunks []domain.Chunk) []domain.AlignedRecord {
	records := make([]domain.AlignedRecord, len(chunks))
	for i, ch := range chunks {
		records[i] = domain.AlignedRecord{
			SourceID: ch.SourceID,
			ChunkID:  ch.ChunkID,
			Text:     ch.Text,
			Tags:     ch.Tags,
		}
	}
	return records
}
