package transformers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	filestore "github.com/calderalabs/ragline/internal/adapters/driven/stagestore/file"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// stageWith writes extraction output for one source into a fresh
// file-backed stage store.
func stageWith(t *testing.T, source string, docs []domain.Document) *filestore.Store {
	t.Helper()

	store := filestore.New(t.TempDir())
	require.NoError(t, store.WriteDocuments(source, docs))
	return store
}

// drainChunks consumes a transformation sequence, returning chunks
// and any record-level failures.
func drainChunks(t *testing.T, transformer driven.Transformer) ([]domain.Chunk, []error) {
	t.Helper()

	chunks, errs := transformer.Transform(context.Background())

	var collected []domain.Chunk
	var failures []error
	for chunks != nil || errs != nil {
		select {
		case ch, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			collected = append(collected, ch)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			failures = append(failures, err)
		}
	}
	return collected, failures
}
