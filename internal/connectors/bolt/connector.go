// Package bolt provides an embedded search/vector backend on top of
// bbolt. It implements the same capability set as the Elasticsearch
// connector, with brute-force cosine similarity search, so pipelines
// can run fully offline and tests need no cluster.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.etcd.io/bbolt"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.SearchConnector = (*Connector)(nil)

// Config holds settings for the embedded store.
type Config struct {
	// Path is the bbolt database file location.
	Path string
}

// ParseConfig extracts bolt settings from a connection map.
func ParseConfig(m map[string]any) Config {
	return Config{Path: config.GetString(m, "path", "")}
}

// Connector is a bbolt-backed search connector. Each index maps to
// one bucket; documents are stored as JSON keyed by chunk id, which
// makes every write an upsert.
type Connector struct {
	name string
	cfg  Config
	db   *bbolt.DB
}

// New creates a new bolt connector. The file is not opened until
// Connect.
func New(name string, cfg Config) *Connector {
	return &Connector{name: name, cfg: cfg}
}

// Name returns the configured instance name.
func (c *Connector) Name() string { return c.name }

// Type returns the connector type identifier.
func (c *Connector) Type() string { return "bolt" }

// Connect opens the database file.
func (c *Connector) Connect(_ context.Context) error {
	if c.db != nil {
		return nil
	}
	if c.cfg.Path == "" {
		return fmt.Errorf("%w: connector %q has no path", domain.ErrMissingConfig, c.name)
	}

	db, err := bbolt.Open(c.cfg.Path, 0o600, nil)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", domain.ErrNotConnected, c.cfg.Path, err)
	}
	c.db = db
	return nil
}

// Disconnect closes the database. Idempotent.
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

func (c *Connector) requireDB() error {
	if c.db == nil {
		return fmt.Errorf("%w: connector %q", domain.ErrNotConnected, c.name)
	}
	return nil
}

// EnsureIndex creates the bucket for an index. The vector dimension
// is not enforced by the embedded store.
func (c *Connector) EnsureIndex(_ context.Context, index string, _ int) error {
	if err := c.requireDB(); err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(index))
		return err
	})
}

// Scan returns up to batchSize stored records from the index.
func (c *Connector) Scan(_ context.Context, index string, batchSize int) ([]driven.StoredRecord, error) {
	if err := c.requireDB(); err != nil {
		return nil, err
	}

	var records []driven.StoredRecord
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(index))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			if batchSize > 0 && len(records) >= batchSize {
				return nil
			}
			var rec driven.StoredRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				// Skip corrupted entries.
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", index, err)
	}
	return records, nil
}

// Index upserts a single document keyed by id.
func (c *Connector) Index(_ context.Context, index, id string, rec driven.StoredRecord) error {
	if err := c.requireDB(); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(index))
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

// BulkWrite upserts a batch in one transaction. bbolt transactions
// are atomic, so a rejected record never leaves partial state; the
// only per-record failure mode is an unencodable document.
func (c *Connector) BulkWrite(_ context.Context, index string, recs []driven.StoredRecord) (driven.BulkResult, error) {
	if err := c.requireDB(); err != nil {
		return driven.BulkResult{}, err
	}

	var result driven.BulkResult
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(index))
		if err != nil {
			return err
		}
		for _, rec := range recs {
			data, err := json.Marshal(rec)
			if err != nil {
				result.Failed = append(result.Failed, driven.BulkFailure{
					ChunkID: rec.ChunkID,
					Reason:  err.Error(),
				})
				continue
			}
			if err := b.Put([]byte(rec.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return driven.BulkResult{}, fmt.Errorf("bulk write: %w", err)
	}
	return result, nil
}

// VectorSearch returns the k nearest documents by cosine similarity,
// scanning the whole index. Brute force is fine for embedded use.
func (c *Connector) VectorSearch(ctx context.Context, index string, vector []float32, k int) ([]driven.SearchHit, error) {
	records, err := c.Scan(ctx, index, 0)
	if err != nil {
		return nil, err
	}

	type scored struct {
		rec   driven.StoredRecord
		score float64
	}
	var candidates []scored
	for _, rec := range records {
		if len(rec.Vector) != len(vector) || len(vector) == 0 {
			continue
		}
		candidates = append(candidates, scored{rec: rec, score: cosine(vector, rec.Vector)})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	hits := make([]driven.SearchHit, 0, len(candidates))
	for _, cand := range candidates {
		hits = append(hits, driven.SearchHit{
			ID:       cand.rec.ChunkID,
			Text:     cand.rec.Text,
			Metadata: cand.rec.Metadata,
			Score:    cand.score,
		})
	}
	return hits, nil
}

// TextSearch scores documents by query term occurrences in the text.
func (c *Connector) TextSearch(ctx context.Context, index, query string, k int) ([]driven.SearchHit, error) {
	records, err := c.Scan(ctx, index, 0)
	if err != nil {
		return nil, err
	}

	terms := strings.Fields(strings.ToLower(query))
	type scored struct {
		rec   driven.StoredRecord
		score float64
	}
	var candidates []scored
	for _, rec := range records {
		text := strings.ToLower(rec.Text)
		score := 0.0
		for _, term := range terms {
			score += float64(strings.Count(text, term))
		}
		if score > 0 {
			candidates = append(candidates, scored{rec: rec, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rec.ChunkID < candidates[j].rec.ChunkID
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	hits := make([]driven.SearchHit, 0, len(candidates))
	for _, cand := range candidates {
		hits = append(hits, driven.SearchHit{
			ID:       cand.rec.ChunkID,
			Text:     cand.rec.Text,
			Metadata: cand.rec.Metadata,
			Score:    cand.score,
		})
	}
	return hits, nil
}

// cosine computes cosine similarity between equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keyExists reports whether a document id is present in an index.
// Used by tests to assert upsert semantics.
func (c *Connector) keyExists(index, id string) (bool, error) {
	if err := c.requireDB(); err != nil {
		return false, err
	}
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(index))
		if b == nil {
			return nil
		}
		found = b.Get([]byte(id)) != nil
		return nil
	})
	return found, err
}

// Count returns the number of documents in an index.
func (c *Connector) Count(index string) (int, error) {
	if err := c.requireDB(); err != nil {
		return 0, err
	}
	count := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(index))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	})
	return count, err
}
