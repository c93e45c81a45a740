package relational

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/core/domain"
)

func newTestConnector(t *testing.T) *Connector {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	conn := New("testdb", Config{Driver: "sqlite", DSN: dsn})
	require.NoError(t, conn.Connect(context.Background()))
	t.Cleanup(func() { _ = conn.Disconnect() })

	_, err := conn.Query(context.Background(),
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, title TEXT, body TEXT, created_at TEXT)`)
	require.NoError(t, err)
	return conn
}

func TestConnector_QueryNotConnected(t *testing.T) {
	conn := New("testdb", Config{Driver: "sqlite", DSN: ":memory:"})

	_, err := conn.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestConnector_ConnectMissingDSN(t *testing.T) {
	conn := New("testdb", Config{Driver: "sqlite"})

	err := conn.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
}

func TestConnector_ConnectUnknownDriver(t *testing.T) {
	conn := New("testdb", Config{Driver: "oracle", DSN: "x"})

	err := conn.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestConnector_QueryRows(t *testing.T) {
	conn := newTestConnector(t)
	ctx := context.Background()

	_, err := conn.Query(ctx,
		`INSERT INTO notes (id, title, body, created_at) VALUES
		 (1, 'first', 'hello world', '2026-01-01'),
		 (2, 'second', 'goodbye world', '2026-01-02')`)
	require.NoError(t, err)

	rows, err := conn.Query(ctx, "SELECT id, title, body FROM notes ORDER BY id")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "first", rows[0]["title"])
	assert.Equal(t, "hello world", rows[0]["body"])
	assert.Equal(t, "second", rows[1]["title"])
}

func TestConnector_QueryWithArgs(t *testing.T) {
	conn := newTestConnector(t)
	ctx := context.Background()

	_, err := conn.Query(ctx,
		`INSERT INTO notes (id, title, created_at) VALUES
		 (1, 'old', '2026-01-01'), (2, 'new', '2026-02-01')`)
	require.NoError(t, err)

	rows, err := conn.Query(ctx,
		"SELECT title FROM notes WHERE created_at > ? ORDER BY id", "2026-01-15")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0]["title"])
}

func TestConnector_Placeholder(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{driver: "sqlite", want: "?"},
		{driver: "", want: "?"},
		{driver: "postgres", want: "$2"},
		{driver: "pgx", want: "$2"},
	}

	for _, tt := range tests {
		t.Run("driver "+tt.driver, func(t *testing.T) {
			conn := New("testdb", Config{Driver: tt.driver, DSN: "x"})
			assert.Equal(t, tt.want, conn.Placeholder(2))
		})
	}
}

func TestConnector_DisconnectIdempotent(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.Disconnect())
	require.NoError(t, conn.Disconnect())
	assert.False(t, conn.IsConnected())
}
