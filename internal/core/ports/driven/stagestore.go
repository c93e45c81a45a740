package driven

import "github.com/calderalabs/ragline/internal/core/domain"

// StageStore persists each pipeline stage's output so stages can be
// re-run independently. Documents land under extractors/<source>.json,
// chunk triples under transformed/<source>.json and attachment bytes
// under attachments/<message_id>/<filename>.
type StageStore interface {
	// WriteDocuments persists one source's extraction output.
	WriteDocuments(source string, docs []domain.Document) error

	// ReadDocuments loads one source's extraction output.
	// Returns domain.ErrNotFound if the source was never extracted.
	ReadDocuments(source string) ([]domain.Document, error)

	// WriteChunks persists one source's transformation output as a
	// JSON array of [chunk_id, text, tags] triples.
	WriteChunks(source string, chunks []domain.Chunk) error

	// ReadChunks loads one source's transformation output.
	ReadChunks(source string) ([]domain.Chunk, error)

	// ListChunkSources names every source with transformation output.
	ListChunkSources() ([]string, error)

	// SaveAttachment writes decoded attachment bytes and returns the
	// stored path, relative to the data directory.
	SaveAttachment(messageID, filename string, data []byte) (string, error)

	// ReadAttachment loads attachment bytes by stored path.
	ReadAttachment(storedPath string) ([]byte, error)
}

// WatermarkStore persists per-source, per-partition extraction
// watermarks for incremental extraction.
type WatermarkStore interface {
	// Watermark returns the stored watermark and whether one exists.
	Watermark(source, partition string) (string, bool, error)

	// SetWatermark records the high-water mark for a partition.
	SetWatermark(source, partition, value string) error
}
