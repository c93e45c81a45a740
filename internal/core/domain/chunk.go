package domain

import (
	"fmt"
	"strings"
)

// chunkSep joins a source id and a chunk index into a chunk id.
const chunkSep = "_chunk_"

// Chunk is a bounded span of text derived from a source document,
// independently embeddable and indexable.
type Chunk struct {
	// SourceID is the id of the document the chunk was cut from.
	SourceID string `json:"source_id"`

	// ChunkID is deterministic: the same document always yields the
	// same chunk ids in the same order.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Tags are descriptive labels (source, subject, attachment, ...).
	Tags []string `json:"metadata"`
}

// AlignedRecord is a chunk plus its generated vector.
// The vector, when present, corresponds exactly to Text of the same
// ChunkID; alignment is keyed by identity, never by list position.
type AlignedRecord struct {
	SourceID string    `json:"source_id"`
	ChunkID  string    `json:"chunk_id"`
	Text     string    `json:"text"`
	Tags     []string  `json:"metadata"`
	Vector   []float32 `json:"vector,omitempty"`
}

// IngestOutcome reports one ingestion call. It is ephemeral and never
// persisted.
type IngestOutcome struct {
	// Attempted is the number of records submitted.
	Attempted int

	// Succeeded is the number of records written.
	Succeeded int

	// FailedItems lists the chunk ids that exhausted retries.
	FailedItems []string
}

// Success reports whether every attempted record was written.
func (o IngestOutcome) Success() bool {
	return o.Succeeded == o.Attempted
}

// Merge folds another outcome into this one.
func (o *IngestOutcome) Merge(other IngestOutcome) {
	o.Attempted += other.Attempted
	o.Succeeded += other.Succeeded
	o.FailedItems = append(o.FailedItems, other.FailedItems...)
}

// ChunkID derives the deterministic chunk id for the i-th chunk of a
// source document.
func ChunkID(sourceID string, i int) string {
	return fmt.Sprintf("%s%s%d", sourceID, chunkSep, i)
}

// AttachmentChunkID derives the chunk id for the i-th chunk of an
// attachment's extracted text.
func AttachmentChunkID(sourceID, filename string, i int) string {
	return fmt.Sprintf("%s_attachment_%s%s%d", sourceID, filename, chunkSep, i)
}

// SourceIDFromChunkID recovers the source id embedded in a chunk id.
// Ids without a chunk suffix are returned unchanged.
func SourceIDFromChunkID(chunkID string) string {
	if idx := strings.Index(chunkID, chunkSep); idx >= 0 {
		return chunkID[:idx]
	}
	return chunkID
}
