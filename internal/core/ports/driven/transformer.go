package driven

import (
	"context"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// Transformer reads a source's extracted documents and emits chunks
// with stable, deterministic identities. The sequence is lazy and
// non-restartable, like an extractor's.
type Transformer interface {
	// Name returns the configured transformer name.
	Name() string

	// Transform produces chunks on the first channel; errors on the
	// second. Both close when the sequence is exhausted.
	Transform(ctx context.Context) (<-chan domain.Chunk, <-chan error)
}
