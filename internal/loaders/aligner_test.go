package loaders

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/core/domain"
)

// fakeEmbedder derives each vector from the text itself, so a test
// can verify which text produced which vector.
type fakeEmbedder struct {
	dims   int
	err    error
	closed bool
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(len(text) + i)
	}
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = f.vectorFor(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int   { return f.dims }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }
func (f *fakeEmbedder) Close() error      { f.closed = true; return nil }

func testChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			SourceID: "doc",
			ChunkID:  domain.ChunkID("doc", i),
			Text:     fmt.Sprintf("chunk text %d with length %d", i, i),
			Tags:     []string{"source:test"},
		}
	}
	return chunks
}

func TestAligner_AlignAndEmbed(t *testing.T) {
	embedder := &fakeEmbedder{dims: 4}
	aligner := NewAligner(embedder)

	chunks := testChunks(3)
	records, err := aligner.AlignAndEmbed(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, chunks[i].ChunkID, rec.ChunkID)
		assert.Equal(t, chunks[i].Text, rec.Text)
		assert.Equal(t, chunks[i].Tags, rec.Tags)
		// Each record carries the vector of its own text, not of its
		// position in some other ordering.
		assert.Equal(t, embedder.vectorFor(rec.Text), rec.Vector)
		assert.Len(t, rec.Vector, 4)
	}
}

func TestAligner_AlignAndEmbedEmpty(t *testing.T) {
	aligner := NewAligner(&fakeEmbedder{dims: 4})

	records, err := aligner.AlignAndEmbed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAligner_EmbedFailure(t *testing.T) {
	aligner := NewAligner(&fakeEmbedder{dims: 4, err: fmt.Errorf("model not loaded")})

	_, err := aligner.AlignAndEmbed(context.Background(), testChunks(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestAligner_GenerateVectors(t *testing.T) {
	aligner := NewAligner(&fakeEmbedder{dims: 2})

	vectors, err := aligner.GenerateVectors(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 2)
	assert.Len(t, vectors[1], 2)
}

func TestWithoutVectors(t *testing.T) {
	chunks := testChunks(2)
	records := WithoutVectors(chunks)

	require.Len(t, records, 2)
	for i, rec := range records {
		assert.Equal(t, chunks[i].ChunkID, rec.ChunkID)
		assert.Nil(t, rec.Vector)
	}
}

func TestAligner_Close(t *testing.T) {
	embedder := &fakeEmbedder{dims: 2}
	aligner := NewAligner(embedder)

	require.NoError(t, aligner.Close())
	assert.True(t, embedder.closed)
}
