package driven

import (
	"context"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// Ingestor writes aligned records into the vector store, keyed by
// chunk id (upsert). Per-record failures are reported in the outcome
// and never abort sibling records; the error is reserved for
// structural failures that abort the whole call.
type Ingestor interface {
	Ingest(ctx context.Context, records []domain.AlignedRecord) (domain.IngestOutcome, error)
}
