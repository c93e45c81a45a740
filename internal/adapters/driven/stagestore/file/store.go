// Package file persists pipeline stage output as JSON files under a
// data directory, so each stage can be re-run without repeating the
// ones before it.
//
// Layout:
//
//	<data>/extractors/<source>.json     raw extracted documents
//	<data>/transformed/<source>.json    [chunk_id, text, tags] triples
//	<data>/attachments/<msg>/<file>     decoded attachment bytes
//	<data>/watermarks.json              incremental extraction state
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Ensure Store implements both interfaces.
var (
	_ driven.StageStore     = (*Store)(nil)
	_ driven.WatermarkStore = (*Store)(nil)
)

const (
	extractorsDir  = "extractors"
	transformedDir = "transformed"
	attachmentsDir = "attachments"
	watermarksFile = "watermarks.json"
)

// Store is a file-backed stage store rooted at a data directory.
type Store struct {
	root string

	mu sync.Mutex // guards watermarks.json read-modify-write
}

// New creates a stage store rooted at dir. Directories are created
// lazily on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data directory the store writes under.
func (s *Store) Root() string { return s.root }

func (s *Store) writeJSON(dir, name string, v any) error {
	path := filepath.Join(s.root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	full := filepath.Join(path, name)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", full, err)
	}
	return nil
}

func (s *Store) readJSON(dir, name string, v any) error {
	full := filepath.Join(s.root, dir, name)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, full)
		}
		return fmt.Errorf("read %s: %w", full, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", full, err)
	}
	return nil
}

// WriteDocuments persists one source's extraction output.
func (s *Store) WriteDocuments(source string, docs []domain.Document) error {
	return s.writeJSON(extractorsDir, source+".json", docs)
}

// ReadDocuments loads one source's extraction output.
func (s *Store) ReadDocuments(source string) ([]domain.Document, error) {
	var docs []domain.Document
	if err := s.readJSON(extractorsDir, source+".json", &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// chunkTriple is the on-disk form of a chunk: [chunk_id, text, tags].
type chunkTriple struct {
	chunk domain.Chunk
}

func (t chunkTriple) MarshalJSON() ([]byte, error) {
	tags := t.chunk.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal([]any{t.chunk.ChunkID, t.chunk.Text, tags})
}

func (t *chunkTriple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("chunk triple has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.chunk.ChunkID); err != nil {
		return fmt.Errorf("chunk id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.chunk.Text); err != nil {
		return fmt.Errorf("chunk text: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.chunk.Tags); err != nil {
		return fmt.Errorf("chunk tags: %w", err)
	}
	t.chunk.SourceID = domain.SourceIDFromChunkID(t.chunk.ChunkID)
	return nil
}

// WriteChunks persists one source's transformation output as a JSON
// array of [chunk_id, text, tags] triples.
func (s *Store) WriteChunks(source string, chunks []domain.Chunk) error {
	triples := make([]chunkTriple, len(chunks))
	for i, ch := range chunks {
		triples[i] = chunkTriple{chunk: ch}
	}
	return s.writeJSON(transformedDir, source+".json", triples)
}

// ReadChunks loads one source's transformation output.
func (s *Store) ReadChunks(source string) ([]domain.Chunk, error) {
	var triples []chunkTriple
	if err := s.readJSON(transformedDir, source+".json", &triples); err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(triples))
	for i, t := range triples {
		chunks[i] = t.chunk
	}
	return chunks, nil
}

// ListChunkSources names every source with transformation output,
// sorted for deterministic load order.
func (s *Store) ListChunkSources() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, transformedDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list transformed: %w", err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		sources = append(sources, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(sources)
	return sources, nil
}

// SaveAttachment writes decoded attachment bytes under
// attachments/<messageID>/<filename> and returns the path relative to
// the data directory. The filename is sanitised to its base name so a
// crafted attachment name cannot escape the directory.
func (s *Store) SaveAttachment(messageID, filename string, data []byte) (string, error) {
	safe := filepath.Base(filename)
	if safe == "." || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid attachment filename %q", filename)
	}

	dir := filepath.Join(s.root, attachmentsDir, messageID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	full := filepath.Join(dir, safe)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", full, err)
	}
	return filepath.Join(attachmentsDir, messageID, safe), nil
}

// ReadAttachment loads attachment bytes by stored path.
func (s *Store) ReadAttachment(storedPath string) ([]byte, error) {
	full := filepath.Join(s.root, storedPath)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, full)
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	return data, nil
}

// watermarkKey namespaces a partition within a source.
func watermarkKey(source, partition string) string {
	return source + "/" + partition
}

func (s *Store) loadWatermarks() (map[string]string, error) {
	marks := make(map[string]string)
	full := filepath.Join(s.root, watermarksFile)
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return marks, nil
		}
		return nil, fmt.Errorf("read %s: %w", full, err)
	}
	if err := json.Unmarshal(data, &marks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", full, err)
	}
	return marks, nil
}

// Watermark returns the stored watermark for a source partition and
// whether one exists.
func (s *Store) Watermark(source, partition string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadWatermarks()
	if err != nil {
		return "", false, err
	}
	v, ok := marks[watermarkKey(source, partition)]
	return v, ok, nil
}

// SetWatermark records the high-water mark for a source partition.
func (s *Store) SetWatermark(source, partition, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	marks, err := s.loadWatermarks()
	if err != nil {
		return err
	}
	marks[watermarkKey(source, partition)] = value

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.root, err)
	}
	data, err := json.MarshalIndent(marks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode watermarks: %w", err)
	}
	full := filepath.Join(s.root, watermarksFile)
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", full, err)
	}
	return nil
}
