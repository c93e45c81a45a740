package driven

import (
	"context"
	"errors"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// Extractor pulls a connector's native records and produces
// normalised documents. The sequence is lazy, finite and
// non-restartable: consumers must drain it exactly once.
type Extractor interface {
	// Name returns the configured source name.
	Name() string

	// Extract produces documents on the first channel. Connector and
	// partition errors arrive on the second; on success a terminal
	// ExtractComplete carrying the run report is sent before both
	// channels close.
	Extract(ctx context.Context) (<-chan domain.Document, <-chan error)
}

// ExtractComplete is sent on the error channel when extraction
// finishes successfully. It carries the run report, including any
// partitions that were skipped.
type ExtractComplete struct {
	Report domain.ExtractionReport
}

// Error implements the error interface so ExtractComplete can travel
// on the error channel.
func (ExtractComplete) Error() string {
	return "extraction complete"
}

// IsExtractComplete checks whether an error is actually a successful
// completion. Returns the sentinel and true if it is.
func IsExtractComplete(err error) (*ExtractComplete, bool) {
	var ec *ExtractComplete
	if errors.As(err, &ec) {
		return ec, true
	}
	return nil, false
}
