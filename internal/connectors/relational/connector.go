// Package relational provides a database/sql backed connector for
// relational sources. SQLite (modernc.org/sqlite) and PostgreSQL
// (jackc/pgx) drivers are supported.
package relational

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.RelationalConnector = (*Connector)(nil)

// Config holds connection settings for a relational source.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string

	// DSN is the driver-specific data source name.
	DSN string
}

// ParseConfig extracts relational settings from a connection map.
func ParseConfig(m map[string]any) Config {
	return Config{
		Driver: config.GetString(m, "driver", "sqlite"),
		DSN:    config.GetString(m, "dsn", ""),
	}
}

// Connector reads rows from a relational database.
type Connector struct {
	name string
	cfg  Config
	db   *sql.DB
}

// New creates a new relational connector. The connection is not
// opened until Connect is called.
func New(name string, cfg Config) *Connector {
	return &Connector{name: name, cfg: cfg}
}

// Name returns the configured instance name.
func (c *Connector) Name() string { return c.name }

// Type returns the connector type identifier.
func (c *Connector) Type() string { return "relational" }

// Connect opens the database and verifies it is reachable.
func (c *Connector) Connect(ctx context.Context) error {
	if c.db != nil {
		return nil
	}

	driver := c.cfg.Driver
	switch driver {
	case "sqlite", "":
		driver = "sqlite"
	case "postgres", "pgx":
		driver = "pgx"
	default:
		return fmt.Errorf("%w: relational driver %q", domain.ErrUnsupportedType, c.cfg.Driver)
	}
	if c.cfg.DSN == "" {
		return fmt.Errorf("%w: connector %q has no dsn", domain.ErrMissingConfig, c.name)
	}

	db, err := sql.Open(driver, c.cfg.DSN)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrNotConnected, driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("%w: ping %s: %v", domain.ErrNotConnected, driver, err)
	}

	c.db = db
	return nil
}

// Disconnect closes the database. It is idempotent.
func (c *Connector) Disconnect() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// IsConnected reports handle presence.
func (c *Connector) IsConnected() bool { return c.db != nil }

// Placeholder returns the driver's positional parameter marker.
// database/sql passes SQL through verbatim: pgx wants "$1" where
// sqlite wants "?".
func (c *Connector) Placeholder(i int) string {
	switch c.cfg.Driver {
	case "postgres", "pgx":
		return "$" + strconv.Itoa(i)
	default:
		return "?"
	}
}

// Query executes a statement and returns each row as a map keyed by
// column name.
func (c *Connector) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if c.db == nil {
		return nil, fmt.Errorf("%w: connector %q", domain.ErrNotConnected, c.name)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			// Normalise []byte columns to strings so rows survive a
			// JSON round trip through the stage store.
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
