// Package transformers cuts extracted documents into tagged chunks.
// The tabular transformer maps one row to one chunk; the document
// transformer segments free text and attachment content.
package transformers

import (
	"context"
	"fmt"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// New builds the transformer named by the configuration.
func New(name string, cfg config.TransformerConfig, stage driven.StageStore) (driven.Transformer, error) {
	switch cfg.Type {
	case "tabular":
		return NewTabular(name, cfg, stage), nil
	case "document":
		return NewDocument(name, cfg, stage)
	default:
		return nil, fmt.Errorf("%w: transformer type %q", domain.ErrUnsupportedType, cfg.Type)
	}
}

// run executes a transformation body and wires up the channel
// contract: chunks flow through emit, failures through fail, and both
// channels close when the body returns.
func run(ctx context.Context, body func(ctx context.Context, emit func(domain.Chunk) bool, fail func(error)) error) (<-chan domain.Chunk, <-chan error) {
	chunks := make(chan domain.Chunk)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		emit := func(ch domain.Chunk) bool {
			select {
			case chunks <- ch:
				return true
			case <-ctx.Done():
				return false
			}
		}
		fail := func(err error) {
			select {
			case errs <- err:
			case <-ctx.Done():
			}
		}

		if err := body(ctx, emit, fail); err != nil {
			fail(err)
		}
	}()

	return chunks, errs
}
