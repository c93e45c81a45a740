package transformers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure Tabular implements the interface.
var _ driven.Transformer = (*Tabular)(nil)

// Tabular maps extracted rows to chunks: the id column names the
// chunk, the text columns joined become its text. No splitting.
type Tabular struct {
	name  string
	cfg   config.TransformerConfig
	stage driven.StageStore
}

// NewTabular creates a row-to-chunk transformer.
func NewTabular(name string, cfg config.TransformerConfig, stage driven.StageStore) *Tabular {
	if cfg.IDColumn == "" {
		cfg.IDColumn = "id"
	}
	return &Tabular{name: name, cfg: cfg, stage: stage}
}

// Name returns the configured transformer name.
func (t *Tabular) Name() string { return t.name }

// Transform produces one chunk per extracted row.
func (t *Tabular) Transform(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return run(ctx, func(ctx context.Context, emit func(domain.Chunk) bool, fail func(error)) error {
		docs, err := t.stage.ReadDocuments(t.cfg.Source)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("transformer %s: source %s has no extraction output", t.name, t.cfg.Source)
				return nil
			}
			return err
		}

		sourceTag := "source:" + t.cfg.Source
		for _, doc := range docs {
			id, ok := rowID(doc.Metadata, t.cfg.IDColumn)
			if !ok {
				fail(fmt.Errorf("%w: row in %s has no %q column", domain.ErrRecordFailed, t.cfg.Source, t.cfg.IDColumn))
				continue
			}

			text := rowText(doc.Metadata, t.cfg.TextColumns)
			if text == "" {
				continue
			}

			chunk := domain.Chunk{
				SourceID: id,
				ChunkID:  id,
				Text:     text,
				Tags:     []string{sourceTag},
			}
			if !emit(chunk) {
				return ctx.Err()
			}
		}
		return nil
	})
}

// rowID resolves the row identifier from metadata.
func rowID(metadata map[string]any, column string) (string, bool) {
	v, ok := metadata[column]
	if !ok || v == nil {
		return "", false
	}
	s := fmt.Sprint(v)
	return s, s != ""
}

// rowText joins the configured text columns with a space, skipping
// missing or empty values.
func rowText(metadata map[string]any, columns []string) string {
	var parts []string
	for _, col := range columns {
		v, ok := metadata[col]
		if !ok || v == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
