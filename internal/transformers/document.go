package transformers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// Ensure Document implements the interface.
var _ driven.Transformer = (*Document)(nil)

// defaultAttachmentExtensions limits attachment chunking when the
// configuration does not name extensions itself.
var defaultAttachmentExtensions = []string{".pdf", ".txt", ".doc", ".docx"}

// subjectTagLimit caps the subject tag length.
const subjectTagLimit = 50

// Document segments extracted document bodies and attachment text
// into chunks with deterministic ids and metadata tags.
type Document struct {
	name      string
	cfg       config.TransformerConfig
	stage     driven.StageStore
	segmenter Segmenter
}

// NewDocument creates a text-segmenting transformer.
func NewDocument(name string, cfg config.TransformerConfig, stage driven.StageStore) (*Document, error) {
	segmenter, err := NewSegmenter(cfg.Segmentation)
	if err != nil {
		return nil, err
	}
	if len(cfg.AttachmentExtensions) == 0 {
		cfg.AttachmentExtensions = defaultAttachmentExtensions
	}
	return &Document{name: name, cfg: cfg, stage: stage, segmenter: segmenter}, nil
}

// Name returns the configured transformer name.
func (t *Document) Name() string { return t.name }

// Transform segments each extracted document and, when enabled, its
// attachments. Chunk ids are deterministic so reprocessing a source
// overwrites rather than duplicates.
func (t *Document) Transform(ctx context.Context) (<-chan domain.Chunk, <-chan error) {
	return run(ctx, func(ctx context.Context, emit func(domain.Chunk) bool, fail func(error)) error {
		docs, err := t.stage.ReadDocuments(t.cfg.Source)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("transformer %s: source %s has no extraction output", t.name, t.cfg.Source)
				return nil
			}
			return err
		}

		for _, doc := range docs {
			tags := t.documentTags(doc)

			for i, segment := range t.segmenter.Segment(doc.Body) {
				chunk := domain.Chunk{
					SourceID: doc.ID,
					ChunkID:  domain.ChunkID(doc.ID, i),
					Text:     segment,
					Tags:     tags,
				}
				if !emit(chunk) {
					return ctx.Err()
				}
			}

			if !t.cfg.IncludeAttachments {
				continue
			}
			for _, att := range doc.Attachments {
				if err := t.transformAttachment(ctx, doc, att, tags, emit); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					fail(fmt.Errorf("%w: attachment %s of %s: %v", domain.ErrRecordFailed, att.Filename, doc.ID, err))
				}
			}
		}
		return nil
	})
}

// documentTags derives metadata tags for every chunk of a document.
func (t *Document) documentTags(doc domain.Document) []string {
	tags := []string{"source:" + t.cfg.Source}

	if subject, ok := doc.Metadata["subject"].(string); ok && subject != "" {
		// Truncate on rune boundaries so a multi-byte character is
		// never split into an invalid tag.
		if runes := []rune(subject); len(runes) > subjectTagLimit {
			subject = string(runes[:subjectTagLimit])
		}
		tags = append(tags, "subject:"+subject)
	}
	if from, ok := doc.Metadata["from"].(string); ok && from != "" {
		tags = append(tags, "from:"+from)
	}
	for _, label := range labels(doc.Metadata) {
		tags = append(tags, "label:"+label)
	}
	return tags
}

// labels normalises the metadata label list, which arrives as
// []string in memory and []any after a JSON round trip.
func labels(metadata map[string]any) []string {
	switch v := metadata["labels"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// transformAttachment segments one attachment's extracted text.
func (t *Document) transformAttachment(ctx context.Context, doc domain.Document, att domain.AttachmentRef, docTags []string, emit func(domain.Chunk) bool) error {
	text, err := t.attachmentText(att)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	tags := append(append([]string{}, docTags...), "attachment:"+att.Filename)
	for i, segment := range t.segmenter.Segment(text) {
		chunk := domain.Chunk{
			SourceID: doc.ID,
			ChunkID:  domain.AttachmentChunkID(doc.ID, att.Filename, i),
			Text:     segment,
			Tags:     tags,
		}
		if !emit(chunk) {
			return ctx.Err()
		}
	}
	return nil
}

// attachmentText extracts indexable text from a stored attachment.
// Plain text files are read whole; binary document formats yield a
// placeholder until OCR is wired in. Other types are skipped.
func (t *Document) attachmentText(att domain.AttachmentRef) (string, error) {
	ext := strings.ToLower(filepath.Ext(att.Filename))
	if !t.allowed(ext) {
		return "", nil
	}

	switch ext {
	case ".txt":
		data, err := t.stage.ReadAttachment(att.StoredPath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case ".pdf", ".doc", ".docx":
		return fmt.Sprintf("[Document: %s]", att.Filename), nil
	default:
		return "", nil
	}
}

func (t *Document) allowed(ext string) bool {
	for _, allowed := range t.cfg.AttachmentExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
