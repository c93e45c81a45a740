package driven

import (
	"context"
	"time"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// Connector is the uniform capability wrapper around one external
// system. Source-specific operations live on the capability
// interfaces below; all of them require a live handle and return an
// error wrapping domain.ErrNotConnected otherwise.
//
// Connector instances are not safe for concurrent use. One pipeline
// run owns its connectors exclusively.
type Connector interface {
	// Name returns the configured instance name.
	Name() string

	// Type returns the connector type identifier.
	Type() string

	// Connect establishes a live handle to the backing service.
	Connect(ctx context.Context) error

	// Disconnect releases the handle. It is idempotent.
	Disconnect() error

	// IsConnected reports handle presence.
	IsConnected() bool
}

// RelationalConnector reads rows from a relational database.
type RelationalConnector interface {
	Connector

	// Query executes a statement and returns each row as a
	// column-name-keyed map.
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)

	// Placeholder returns the driver's marker for the i-th positional
	// parameter (1-based): "$1" for postgres, "?" for sqlite.
	// database/sql does not rewrite placeholders, so query builders
	// must ask the connector.
	Placeholder(i int) string
}

// StoredRecord is the document shape written to the vector store.
// The store upserts by ChunkID: reingesting the same id overwrites
// the prior document.
type StoredRecord struct {
	SourceID   string    `json:"source_id"`
	ChunkID    string    `json:"chunk_id"`
	Text       string    `json:"text"`
	Metadata   []string  `json:"metadata"`
	IngestedAt time.Time `json:"ingested_at"`
	Vector     []float32 `json:"vector,omitempty"`
}

// BulkFailure identifies one record a bulk write could not persist.
type BulkFailure struct {
	// ChunkID is the failed document id.
	ChunkID string

	// Reason is the backend's error text.
	Reason string
}

// BulkResult reports the outcome of one multi-document write.
type BulkResult struct {
	// Failed lists the records the backend rejected. An empty list
	// means the whole batch was written.
	Failed []BulkFailure
}

// SearchHit is one retrieval result.
type SearchHit struct {
	// ID is the stored document id (a chunk id).
	ID string

	// Text is the stored chunk text.
	Text string

	// Metadata are the stored tags.
	Metadata []string

	// Score is the backend's relevance or similarity score.
	Score float64
}

// SearchConnector reads from and writes to a search/vector index.
// Both the search-index extractor and the ingestors are built on this
// capability set, so embedded and remote backends are interchangeable.
type SearchConnector interface {
	Connector

	// EnsureIndex creates the index if it does not exist, sized for
	// vectors of the given dimension (0 disables the vector field).
	EnsureIndex(ctx context.Context, index string, dims int) error

	// Scan returns up to batchSize stored records from the index via
	// a full-match query.
	Scan(ctx context.Context, index string, batchSize int) ([]StoredRecord, error)

	// Index upserts a single document keyed by id.
	Index(ctx context.Context, index, id string, rec StoredRecord) error

	// BulkWrite upserts a batch in one multi-document request.
	// Per-record rejections are reported in the result, not as an
	// error; the error is reserved for whole-request failures.
	BulkWrite(ctx context.Context, index string, recs []StoredRecord) (BulkResult, error)

	// VectorSearch returns the k most similar documents to the query
	// vector.
	VectorSearch(ctx context.Context, index string, vector []float32, k int) ([]SearchHit, error)

	// TextSearch returns up to k documents matching the query text.
	// Used as the fallback when vector search is unavailable.
	TextSearch(ctx context.Context, index, query string, k int) ([]SearchHit, error)
}

// MailboxConnector fetches messages from a mailbox provider.
type MailboxConnector interface {
	Connector

	// ListMessageIDs resolves up to max message ids matching the
	// provider query, paginating internally.
	ListMessageIDs(ctx context.Context, query string, max int) ([]string, error)

	// GetMessage fetches one full message with its decoded part tree.
	GetMessage(ctx context.Context, id string) (*domain.MailMessage, error)

	// GetAttachment fetches and decodes out-of-line attachment bytes.
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}
