// Package extractors turns connector-native records into normalised
// documents. Each extractor produces a lazy, finite sequence over a
// channel pair: documents on the first channel, failures on the
// second, and a terminal completion sentinel carrying the run report.
package extractors

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// New builds the extractor matching the connector's capabilities.
// Relational connectors get the table extractor, search connectors
// the index extractor and mailbox connectors the message extractor.
func New(name string, cfg config.ExtractorConfig, conn driven.Connector, stage driven.StageStore, marks driven.WatermarkStore) (driven.Extractor, error) {
	switch c := conn.(type) {
	case driven.RelationalConnector:
		return NewRelational(name, cfg, c, marks), nil
	case driven.SearchConnector:
		return NewSearchIndex(name, cfg, c), nil
	case driven.MailboxConnector:
		return NewMailbox(name, cfg, c, stage), nil
	default:
		return nil, fmt.Errorf("%w: connector %q offers no extractable capability", domain.ErrUnsupportedType, conn.Name())
	}
}

// run executes an extraction body and wires up the channel contract:
// documents flow through emit, partition failures are recorded on the
// report, and the completion sentinel is sent last.
func run(ctx context.Context, source string, body func(ctx context.Context, emit func(domain.Document) bool, report *domain.ExtractionReport) error) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	go func() {
		defer close(docs)
		defer close(errs)

		report := domain.ExtractionReport{
			RunID:     uuid.NewString(),
			Source:    source,
			StartedAt: time.Now().UTC(),
		}

		emit := func(doc domain.Document) bool {
			select {
			case docs <- doc:
				report.Documents++
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := body(ctx, emit, &report); err != nil {
			errs <- err
			return
		}
		if err := ctx.Err(); err != nil {
			errs <- err
			return
		}

		report.FinishedAt = time.Now().UTC()
		errs <- &driven.ExtractComplete{Report: report}
	}()

	return docs, errs
}

// skip records a partition failure on the report without stopping the
// remaining partitions.
func skip(report *domain.ExtractionReport, partition string, err error) {
	report.Skipped = append(report.Skipped, domain.PartitionFailure{
		Partition: partition,
		Reason:    err.Error(),
	})
}
