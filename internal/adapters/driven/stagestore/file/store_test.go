package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/core/domain"
)

func TestStore_DocumentsRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	docs := []domain.Document{
		{
			Source:   domain.SourceMail,
			ID:       "msg-1",
			Metadata: map[string]any{"subject": "hello"},
			Body:     "hello world",
		},
	}
	require.NoError(t, store.WriteDocuments("gmail", docs))

	loaded, err := store.ReadDocuments("gmail")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "msg-1", loaded[0].ID)
	assert.Equal(t, "hello", loaded[0].Metadata["subject"])
}

func TestStore_ReadDocumentsMissing(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.ReadDocuments("never-extracted")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ChunksWireFormat(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	chunks := []domain.Chunk{
		{SourceID: "msg-1", ChunkID: "msg-1_chunk_0", Text: "hello", Tags: []string{"source:gmail"}},
	}
	require.NoError(t, store.WriteChunks("gmail", chunks))

	// The file must be a JSON array of [chunk_id, text, tags] triples.
	raw, err := os.ReadFile(filepath.Join(dir, "transformed", "gmail.json"))
	require.NoError(t, err)

	var triples [][]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &triples))
	require.Len(t, triples, 1)
	require.Len(t, triples[0], 3)

	var id string
	require.NoError(t, json.Unmarshal(triples[0][0], &id))
	assert.Equal(t, "msg-1_chunk_0", id)
}

func TestStore_ChunksRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	chunks := []domain.Chunk{
		{SourceID: "msg-1", ChunkID: "msg-1_chunk_0", Text: "hello", Tags: []string{"source:gmail"}},
		{SourceID: "msg-1", ChunkID: "msg-1_chunk_1", Text: "world", Tags: nil},
	}
	require.NoError(t, store.WriteChunks("gmail", chunks))

	loaded, err := store.ReadChunks("gmail")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "msg-1_chunk_0", loaded[0].ChunkID)
	assert.Equal(t, "msg-1", loaded[0].SourceID)
	assert.Equal(t, []string{"source:gmail"}, loaded[0].Tags)
	assert.Equal(t, "world", loaded[1].Text)
}

func TestStore_ListChunkSources(t *testing.T) {
	store := New(t.TempDir())

	sources, err := store.ListChunkSources()
	require.NoError(t, err)
	assert.Empty(t, sources)

	require.NoError(t, store.WriteChunks("postgres", nil))
	require.NoError(t, store.WriteChunks("gmail", nil))

	sources, err = store.ListChunkSources()
	require.NoError(t, err)
	assert.Equal(t, []string{"gmail", "postgres"}, sources)
}

func TestStore_Attachments(t *testing.T) {
	store := New(t.TempDir())

	stored, err := store.SaveAttachment("msg-1", "report.txt", []byte("contents"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("attachments", "msg-1", "report.txt"), stored)

	data, err := store.ReadAttachment(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("contents"), data)
}

func TestStore_SaveAttachmentSanitisesName(t *testing.T) {
	store := New(t.TempDir())

	stored, err := store.SaveAttachment("msg-1", "../../escape.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("attachments", "msg-1", "escape.txt"), stored)
}

func TestStore_ReadAttachmentMissing(t *testing.T) {
	store := New(t.TempDir())

	_, err := store.ReadAttachment("attachments/msg-1/nope.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Watermarks(t *testing.T) {
	store := New(t.TempDir())

	_, ok, err := store.Watermark("postgres", "orders")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetWatermark("postgres", "orders", "2026-01-01"))
	require.NoError(t, store.SetWatermark("postgres", "users", "2026-02-01"))

	mark, ok, err := store.Watermark("postgres", "orders")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2026-01-01", mark)

	// Same partition name under another source stays independent.
	_, ok, err = store.Watermark("mysql", "orders")
	require.NoError(t, err)
	assert.False(t, ok)
}
