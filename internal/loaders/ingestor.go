package loaders

import (
	"context"
	"time"

	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure both ingestors implement the interface.
var (
	_ driven.Ingestor = (*Single)(nil)
	_ driven.Ingestor = (*Bulk)(nil)
)

// DefaultMaxRetries bounds write attempts per record or batch.
const DefaultMaxRetries = 3

// DefaultBatchSize is the bulk ingestor's batch size.
const DefaultBatchSize = 100

// clock abstracts backoff sleeping so tests run instantly.
type clock struct {
	unit  time.Duration
	sleep func(time.Duration)
}

func defaultClock() clock {
	return clock{unit: time.Second, sleep: time.Sleep}
}

// backoff waits maxRetries*(attempt+1) backoff units before the next
// attempt. Honours context cancellation through the injected sleep.
func (c clock) backoff(maxRetries, attempt int) {
	c.sleep(time.Duration(maxRetries*(attempt+1)) * c.unit)
}

// Option configures an ingestor.
type Option func(*options)

type options struct {
	maxRetries int
	batchSize  int
	clock      clock
}

// WithMaxRetries sets the write attempt limit.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRetries = n
		}
	}
}

// WithBatchSize sets the bulk batch size.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBackoffUnit sets the backoff time unit.
func WithBackoffUnit(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.clock.unit = d
		}
	}
}

// WithSleep replaces the sleep function. Tests use this to record
// backoff durations instead of waiting.
func WithSleep(fn func(time.Duration)) Option {
	return func(o *options) {
		if fn != nil {
			o.clock.sleep = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxRetries: DefaultMaxRetries,
		batchSize:  DefaultBatchSize,
		clock:      defaultClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// toStored converts an aligned record into the written document shape,
// stamping the ingestion time.
func toStored(rec domain.AlignedRecord, now time.Time) driven.StoredRecord {
	return driven.StoredRecord{
		SourceID:   rec.SourceID,
		ChunkID:    rec.ChunkID,
		Text:       rec.Text,
		Metadata:   rec.Tags,
		IngestedAt: now,
		Vector:     rec.Vector,
	}
}

// Single writes one record at a time with per-record retries. A record
// that exhausts its retries is counted failed and processing moves on.
type Single struct {
	conn  driven.SearchConnector
	index string
	opts  options
}

// NewSingle creates a record-at-a-time ingestor.
func NewSingle(conn driven.SearchConnector, index string, opts ...Option) *Single {
	return &Single{conn: conn, index: index, opts: buildOptions(opts)}
}

// Ingest writes each record with retry. The outcome counts successes
// and names the chunk ids that could not be written.
func (s *Single) Ingest(ctx context.Context, records []domain.AlignedRecord) (domain.IngestOutcome, error) {
	outcome := domain.IngestOutcome{Attempted: len(records)}
	now := time.Now().UTC()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		if s.writeWithRetry(ctx, toStored(rec, now)) {
			outcome.Succeeded++
		} else {
			outcome.FailedItems = append(outcome.FailedItems, rec.ChunkID)
		}
	}
	return outcome, nil
}

func (s *Single) writeWithRetry(ctx context.Context, rec driven.StoredRecord) bool {
	maxRetries := s.opts.maxRetries
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.conn.Index(ctx, s.index, rec.ChunkID, rec)
		if err == nil {
			return true
		}
		logger.Warn("ingest %s attempt %d/%d: %v", rec.ChunkID, attempt+1, maxRetries, err)

		if attempt < maxRetries-1 {
			s.opts.clock.backoff(maxRetries, attempt)
		}
	}
	return false
}

// Bulk writes fixed-size batches through the backend's bulk API. A
// batch write that keeps failing, or that reports any rejected record,
// is re-run record-by-record so one bad document cannot sink its
// batchmates.
type Bulk struct {
	conn     driven.SearchConnector
	index    string
	opts     options
	fallback *Single
}

// NewBulk creates a batching ingestor.
func NewBulk(conn driven.SearchConnector, index string, opts ...Option) *Bulk {
	o := buildOptions(opts)
	return &Bulk{
		conn:  conn,
		index: index,
		opts:  o,
		fallback: &Single{
			conn:  conn,
			index: index,
			opts:  o,
		},
	}
}

// Ingest writes records in batches of the configured size.
func (b *Bulk) Ingest(ctx context.Context, records []domain.AlignedRecord) (domain.IngestOutcome, error) {
	var outcome domain.IngestOutcome

	for start := 0; start < len(records); start += b.opts.batchSize {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		end := start + b.opts.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		batchOutcome, err := b.ingestBatch(ctx, batch)
		if err != nil {
			return outcome, err
		}
		outcome.Merge(batchOutcome)
	}
	return outcome, nil
}

func (b *Bulk) ingestBatch(ctx context.Context, batch []domain.AlignedRecord) (domain.IngestOutcome, error) {
	now := time.Now().UTC()
	stored := make([]driven.StoredRecord, len(batch))
	for i, rec := range batch {
		stored[i] = toStored(rec, now)
	}

	maxRetries := b.opts.maxRetries
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err := b.conn.BulkWrite(ctx, b.index, stored)
		if err != nil {
			logger.Warn("bulk write attempt %d/%d: %v", attempt+1, maxRetries, err)
			if ctx.Err() != nil {
				return domain.IngestOutcome{}, ctx.Err()
			}
			if attempt < maxRetries-1 {
				b.opts.clock.backoff(maxRetries, attempt)
			}
			continue
		}

		if len(result.Failed) == 0 {
			return domain.IngestOutcome{Attempted: len(batch), Succeeded: len(batch)}, nil
		}

		// The backend rejected part of the batch. Retrying the bulk
		// write would hit the same records, so isolate the failure by
		// re-running the whole batch record by record.
		logger.Warn("bulk write rejected %d of %d records, falling back to single writes", len(result.Failed), len(batch))
		return b.fallback.Ingest(ctx, batch)
	}

	// The bulk endpoint itself kept failing; the per-record path may
	// still get the data in.
	return b.fallback.Ingest(ctx, batch)
}
