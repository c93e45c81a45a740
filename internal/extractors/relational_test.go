package extractors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
)

// fakeRelational serves canned rows per table and records the queries
// it sees.
type fakeRelational struct {
	fakeConnector
	rows        map[string][]map[string]any
	failing     map[string]error
	queries     []string
	args        [][]any
	placeholder func(int) string
}

func newFakeRelational() *fakeRelational {
	return &fakeRelational{
		fakeConnector: fakeConnector{name: "db", kind: "relational", connected: true},
		rows:          make(map[string][]map[string]any),
		failing:       make(map[string]error),
	}
}

func (f *fakeRelational) Placeholder(i int) string {
	if f.placeholder != nil {
		return f.placeholder(i)
	}
	return "?"
}

func (f *fakeRelational) Query(_ context.Context, query string, args ...any) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)

	for table, err := range f.failing {
		if strings.Contains(query, table) {
			return nil, err
		}
	}
	for table, rows := range f.rows {
		if strings.Contains(query, table) {
			return rows, nil
		}
	}
	return nil, nil
}

func questionMarks(int) string { return "?" }

func dollarMarks(i int) string { return fmt.Sprintf("$%d", i) }

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name        string
		table       config.TableConfig
		watermark   string
		placeholder func(int) string
		wantQuery   string
		wantArgs    []any
	}{
		{
			name:      "all columns",
			table:     config.TableConfig{Name: "orders"},
			wantQuery: "SELECT * FROM orders",
		},
		{
			name:      "projection with schema and order",
			table:     config.TableConfig{Name: "orders", Schema: "shop", Columns: []string{"id", "title"}, OrderBy: "id"},
			wantQuery: "SELECT id, title FROM shop.orders ORDER BY id",
		},
		{
			name:      "incremental watermark",
			table:     config.TableConfig{Name: "orders", DateColumn: "updated_at", OrderBy: "id"},
			watermark: "2026-01-01",
			wantQuery: "SELECT * FROM orders WHERE updated_at > ? ORDER BY id",
			wantArgs:  []any{"2026-01-01"},
		},
		{
			name:        "incremental watermark with postgres placeholders",
			table:       config.TableConfig{Name: "orders", DateColumn: "updated_at"},
			watermark:   "2026-01-01",
			placeholder: dollarMarks,
			wantQuery:   "SELECT * FROM orders WHERE updated_at > $1",
			wantArgs:    []any{"2026-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			placeholder := tt.placeholder
			if placeholder == nil {
				placeholder = questionMarks
			}
			query, args := buildQuery(tt.table, tt.watermark, placeholder)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRelational_Extract(t *testing.T) {
	conn := newFakeRelational()
	conn.rows["orders"] = []map[string]any{
		{"id": int64(1), "title": "first"},
		{"id": int64(2), "title": "second"},
	}

	cfg := config.ExtractorConfig{Tables: []config.TableConfig{{Name: "orders"}}}
	extractor := NewRelational("postgres", cfg, conn, newFakeMarks())

	docs, report := drain(t, extractor)

	require.Len(t, docs, 2)
	assert.Equal(t, domain.SourceRelational, docs[0].Source)
	assert.Equal(t, "orders_0", docs[0].ID)
	assert.Equal(t, "first", docs[0].Metadata["title"])
	assert.Equal(t, "orders", docs[0].Metadata["_source_table"])

	assert.Equal(t, 2, report.Documents)
	assert.Equal(t, "postgres", report.Source)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Partial())
}

func TestRelational_FailingTableIsSkipped(t *testing.T) {
	conn := newFakeRelational()
	conn.rows["orders"] = []map[string]any{{"id": int64(1)}}
	conn.failing["users"] = errors.New("permission denied")

	cfg := config.ExtractorConfig{Tables: []config.TableConfig{
		{Name: "orders"},
		{Name: "users"},
	}}
	extractor := NewRelational("postgres", cfg, conn, newFakeMarks())

	docs, report := drain(t, extractor)

	// The failing table never aborts its siblings.
	require.Len(t, docs, 1)
	require.True(t, report.Partial())
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "users", report.Skipped[0].Partition)
	assert.Contains(t, report.Skipped[0].Reason, "permission denied")
}

func TestRelational_IncrementalWatermark(t *testing.T) {
	conn := newFakeRelational()
	conn.rows["orders"] = []map[string]any{
		{"id": int64(1), "updated_at": "2026-01-05"},
		{"id": int64(2), "updated_at": "2026-01-09"},
	}
	marks := newFakeMarks()
	require.NoError(t, marks.SetWatermark("postgres", "orders", "2026-01-01"))

	cfg := config.ExtractorConfig{Tables: []config.TableConfig{{
		Name:           "orders",
		ExtractionMode: "incremental",
		DateColumn:     "updated_at",
	}}}
	extractor := NewRelational("postgres", cfg, conn, marks)

	docs, _ := drain(t, extractor)
	require.Len(t, docs, 2)

	// The query carried the stored watermark as a parameter.
	require.Len(t, conn.queries, 1)
	assert.Contains(t, conn.queries[0], "WHERE updated_at > ?")
	assert.Equal(t, []any{"2026-01-01"}, conn.args[0])

	// The watermark advanced to the highest value seen.
	mark, ok, err := marks.Watermark("postgres", "orders")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-01-09", mark)
}

func TestRelational_IncrementalUsesConnectorPlaceholders(t *testing.T) {
	conn := newFakeRelational()
	conn.placeholder = dollarMarks
	conn.rows["orders"] = []map[string]any{{"id": int64(1), "updated_at": "2026-01-05"}}
	marks := newFakeMarks()
	require.NoError(t, marks.SetWatermark("postgres", "orders", "2026-01-01"))

	cfg := config.ExtractorConfig{Tables: []config.TableConfig{{
		Name:           "orders",
		ExtractionMode: "incremental",
		DateColumn:     "updated_at",
	}}}
	extractor := NewRelational("postgres", cfg, conn, marks)

	docs, report := drain(t, extractor)
	require.Len(t, docs, 1)
	assert.False(t, report.Partial())

	// The predicate uses the connector's own parameter syntax.
	require.Len(t, conn.queries, 1)
	assert.Contains(t, conn.queries[0], "WHERE updated_at > $1")
	assert.Equal(t, []any{"2026-01-01"}, conn.args[0])
}

func TestRelational_FullModeIgnoresWatermark(t *testing.T) {
	conn := newFakeRelational()
	conn.rows["orders"] = []map[string]any{{"id": int64(1), "updated_at": "2026-01-05"}}
	marks := newFakeMarks()

	cfg := config.ExtractorConfig{Tables: []config.TableConfig{{Name: "orders"}}}
	extractor := NewRelational("postgres", cfg, conn, marks)

	drain(t, extractor)

	require.Len(t, conn.queries, 1)
	assert.NotContains(t, conn.queries[0], "WHERE")
	_, ok, err := marks.Watermark("postgres", "orders")
	require.NoError(t, err)
	assert.False(t, ok)
}
