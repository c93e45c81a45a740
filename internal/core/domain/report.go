package domain

import "time"

// PartitionFailure records one table, index or message that failed
// during extraction while the remaining partitions continued.
type PartitionFailure struct {
	// Partition names the failed table, index or message id.
	Partition string

	// Reason is the error text that caused the skip.
	Reason string
}

// ExtractionReport summarises one extraction run for a source.
// Partition failures are surfaced here instead of being silently
// swallowed, so callers can decide whether partial data is acceptable.
type ExtractionReport struct {
	// RunID uniquely identifies the extraction run.
	RunID string

	// Source is the logical source name.
	Source string

	// Documents is the number of documents produced.
	Documents int

	// Skipped lists partitions that failed and were skipped.
	Skipped []PartitionFailure

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Partial reports whether any partition was skipped.
func (r ExtractionReport) Partial() bool {
	return len(r.Skipped) > 0
}
