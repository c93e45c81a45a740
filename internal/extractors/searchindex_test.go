package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// fakeSearch serves canned records per index.
type fakeSearch struct {
	fakeConnector
	indices map[string][]driven.StoredRecord
	failing map[string]error
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{
		fakeConnector: fakeConnector{name: "es", kind: "elasticsearch", connected: true},
		indices:       make(map[string][]driven.StoredRecord),
		failing:       make(map[string]error),
	}
}

func (f *fakeSearch) EnsureIndex(_ context.Context, _ string, _ int) error { return nil }

func (f *fakeSearch) Scan(_ context.Context, index string, batchSize int) ([]driven.StoredRecord, error) {
	if err, ok := f.failing[index]; ok {
		return nil, err
	}
	records := f.indices[index]
	if batchSize > 0 && len(records) > batchSize {
		records = records[:batchSize]
	}
	return records, nil
}

func (f *fakeSearch) Index(_ context.Context, index, id string, rec driven.StoredRecord) error {
	f.indices[index] = append(f.indices[index], rec)
	return nil
}

func (f *fakeSearch) BulkWrite(_ context.Context, index string, recs []driven.StoredRecord) (driven.BulkResult, error) {
	f.indices[index] = append(f.indices[index], recs...)
	return driven.BulkResult{}, nil
}

func (f *fakeSearch) VectorSearch(_ context.Context, _ string, _ []float32, _ int) ([]driven.SearchHit, error) {
	return nil, nil
}

func (f *fakeSearch) TextSearch(_ context.Context, _ string, _ string, _ int) ([]driven.SearchHit, error) {
	return nil, nil
}

func TestSearchIndex_Extract(t *testing.T) {
	conn := newFakeSearch()
	conn.indices["articles"] = []driven.StoredRecord{
		{SourceID: "src-1", ChunkID: "art-1", Text: "first article", Metadata: []string{"source:legacy"}},
		{SourceID: "src-2", ChunkID: "art-2", Text: "second article"},
	}

	cfg := config.ExtractorConfig{Indices: []string{"articles"}}
	extractor := NewSearchIndex("es", cfg, conn)

	docs, report := drain(t, extractor)

	require.Len(t, docs, 2)
	assert.Equal(t, domain.SourceSearch, docs[0].Source)
	assert.Equal(t, "art-1", docs[0].ID)
	assert.Equal(t, "first article", docs[0].Body)
	assert.Equal(t, "articles", docs[0].Metadata["_source_index"])
	assert.Equal(t, "art-1", docs[0].Metadata["_document_id"])
	assert.Equal(t, 2, report.Documents)

	// The record's stored fields are visible downstream, not just the
	// index augments.
	assert.Equal(t, "src-1", docs[0].Metadata["source_id"])
	assert.Equal(t, []string{"source:legacy"}, docs[0].Metadata["metadata"])
	assert.Equal(t, "src-2", docs[1].Metadata["source_id"])
	assert.NotContains(t, docs[1].Metadata, "metadata")
}

func TestSearchIndex_FailingIndexIsSkipped(t *testing.T) {
	conn := newFakeSearch()
	conn.indices["good"] = []driven.StoredRecord{{ChunkID: "g-1", Text: "ok"}}
	conn.failing["bad"] = errors.New("index_not_found_exception")

	cfg := config.ExtractorConfig{Indices: []string{"bad", "good"}}
	extractor := NewSearchIndex("es", cfg, conn)

	docs, report := drain(t, extractor)

	require.Len(t, docs, 1)
	assert.Equal(t, "g-1", docs[0].ID)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "bad", report.Skipped[0].Partition)
}

func TestSearchIndex_BatchSizeBoundsScan(t *testing.T) {
	conn := newFakeSearch()
	for i := 0; i < 5; i++ {
		conn.indices["articles"] = append(conn.indices["articles"], driven.StoredRecord{ChunkID: domain.ChunkID("art", i)})
	}

	cfg := config.ExtractorConfig{Indices: []string{"articles"}, BatchSize: 3}
	extractor := NewSearchIndex("es", cfg, conn)

	docs, _ := drain(t, extractor)
	assert.Len(t, docs, 3)
}
