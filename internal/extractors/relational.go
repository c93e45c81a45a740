package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure Relational implements the interface.
var _ driven.Extractor = (*Relational)(nil)

// Relational extracts rows from configured tables. Each row becomes
// one document carrying the full row as metadata. A failing table is
// skipped and reported; the remaining tables still run.
type Relational struct {
	name  string
	cfg   config.ExtractorConfig
	conn  driven.RelationalConnector
	marks driven.WatermarkStore
}

// NewRelational creates a table extractor.
func NewRelational(name string, cfg config.ExtractorConfig, conn driven.RelationalConnector, marks driven.WatermarkStore) *Relational {
	return &Relational{name: name, cfg: cfg, conn: conn, marks: marks}
}

// Name returns the configured source name.
func (e *Relational) Name() string { return e.name }

// buildQuery assembles the projection for one table. Incremental mode
// adds a watermark predicate on the date column; the watermark value
// itself is always bound as a parameter using the connector's
// placeholder syntax.
func buildQuery(t config.TableConfig, watermark string, placeholder func(int) string) (string, []any) {
	cols := "*"
	if len(t.Columns) > 0 {
		cols = strings.Join(t.Columns, ", ")
	}
	table := t.Name
	if t.Schema != "" {
		table = t.Schema + "." + t.Name
	}

	query := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	var args []any
	if watermark != "" {
		query += fmt.Sprintf(" WHERE %s > %s", t.DateColumn, placeholder(1))
		args = append(args, watermark)
	}
	if t.OrderBy != "" {
		query += " ORDER BY " + t.OrderBy
	}
	return query, args
}

// Extract produces one document per row across all configured tables.
func (e *Relational) Extract(ctx context.Context) (<-chan domain.Document, <-chan error) {
	return run(ctx, e.name, func(ctx context.Context, emit func(domain.Document) bool, report *domain.ExtractionReport) error {
		for _, table := range e.cfg.Tables {
			if err := e.extractTable(ctx, table, emit); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("extractor %s: skipping table %s: %v", e.name, table.Name, err)
				skip(report, table.Name, err)
			}
		}
		return nil
	})
}

func (e *Relational) extractTable(ctx context.Context, table config.TableConfig, emit func(domain.Document) bool) error {
	incremental := table.ExtractionMode == "incremental" && table.DateColumn != ""

	watermark := ""
	if incremental {
		mark, ok, err := e.marks.Watermark(e.name, table.Name)
		if err != nil {
			return fmt.Errorf("load watermark: %w", err)
		}
		if ok {
			watermark = mark
		}
	}

	query, args := buildQuery(table, watermark, e.conn.Placeholder)
	rows, err := e.conn.Query(ctx, query, args...)
	if err != nil {
		return err
	}

	highest := watermark
	for i, row := range rows {
		metadata := make(map[string]any, len(row)+1)
		for k, v := range row {
			metadata[k] = v
		}
		metadata["_source_table"] = table.Name

		doc := domain.Document{
			Source:   domain.SourceRelational,
			ID:       fmt.Sprintf("%s_%d", table.Name, i),
			Metadata: metadata,
		}
		if !emit(doc) {
			return ctx.Err()
		}

		if incremental {
			if v, ok := row[table.DateColumn]; ok {
				if s := fmt.Sprint(v); s > highest {
					highest = s
				}
			}
		}
	}

	if incremental && highest != watermark {
		if err := e.marks.SetWatermark(e.name, table.Name, highest); err != nil {
			return fmt.Errorf("save watermark: %w", err)
		}
	}
	return nil
}
