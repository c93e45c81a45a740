// Package elastic provides an Elasticsearch-backed search connector
// using the official Go client. It serves both sides of the pipeline:
// the search-index extractor reads through it and the ingestors write
// through it.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.SearchConnector = (*Connector)(nil)

// Config holds connection settings for an Elasticsearch cluster.
type Config struct {
	// Hosts are the cluster addresses (default http://localhost:9200).
	Hosts []string

	Username string
	Password string
}

// ParseConfig extracts Elasticsearch settings from a connection map.
func ParseConfig(m map[string]any) Config {
	hosts := config.GetStringSlice(m, "hosts")
	if len(hosts) == 0 {
		hosts = []string{"http://localhost:9200"}
	}
	return Config{
		Hosts:    hosts,
		Username: config.GetString(m, "username", ""),
		Password: config.GetString(m, "password", ""),
	}
}

// Connector wraps an Elasticsearch client behind the SearchConnector
// capability set.
type Connector struct {
	name   string
	cfg    Config
	client *elasticsearch.Client
}

// New creates a new Elasticsearch connector. No network traffic
// happens until Connect.
func New(name string, cfg Config) *Connector {
	return &Connector{name: name, cfg: cfg}
}

// Name returns the configured instance name.
func (c *Connector) Name() string { return c.name }

// Type returns the connector type identifier.
func (c *Connector) Type() string { return "elasticsearch" }

// Connect builds the client and verifies the cluster is reachable.
func (c *Connector) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: c.cfg.Hosts,
		Username:  c.cfg.Username,
		Password:  c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("%w: build client: %v", domain.ErrNotConnected, err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: cluster info: %v", domain.ErrNotConnected, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: cluster info: %s", domain.ErrNotConnected, res.String())
	}

	c.client = client
	return nil
}

// Disconnect drops the client. The underlying transport holds no
// persistent connection state, so this is purely local and idempotent.
func (c *Connector) Disconnect() error {
	c.client = nil
	return nil
}

// IsConnected reports handle presence.
func (c *Connector) IsConnected() bool { return c.client != nil }

func (c *Connector) requireClient() error {
	if c.client == nil {
		return fmt.Errorf("%w: connector %q", domain.ErrNotConnected, c.name)
	}
	return nil
}

// checkResponse converts an error-status response into a Go error.
func checkResponse(res *esapi.Response, verb string) error {
	if res.IsError() {
		return fmt.Errorf("%s: %s", verb, res.String())
	}
	return nil
}

// EnsureIndex creates the index with the stored-record mapping if it
// does not exist. dims sizes the dense_vector field; 0 omits it.
func (c *Connector) EnsureIndex(ctx context.Context, index string, dims int) error {
	if err := c.requireClient(); err != nil {
		return err
	}

	res, err := c.client.Indices.Exists([]string{index}, c.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	props := map[string]any{
		"source_id":   map[string]any{"type": "keyword"},
		"chunk_id":    map[string]any{"type": "keyword"},
		"text":        map[string]any{"type": "text"},
		"metadata":    map[string]any{"type": "keyword"},
		"ingested_at": map[string]any{"type": "date"},
	}
	if dims > 0 {
		props["vector"] = map[string]any{"type": "dense_vector", "dims": dims}
	}
	body, err := json.Marshal(map[string]any{"mappings": map[string]any{"properties": props}})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	createRes, err := c.client.Indices.Create(index,
		c.client.Indices.Create.WithBody(bytes.NewReader(body)),
		c.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer createRes.Body.Close()
	return checkResponse(createRes, "create index")
}

// searchResponse is the subset of the search API response we decode.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string              `json:"_id"`
			Score  float64             `json:"_score"`
			Source driven.StoredRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *Connector) search(ctx context.Context, index string, body map[string]any) (*searchResponse, error) {
	if err := c.requireClient(); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(bytes.NewReader(encoded)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse(res, "search"); err != nil {
		return nil, err
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &decoded, nil
}

// Scan returns up to batchSize stored records via a full-match query.
func (c *Connector) Scan(ctx context.Context, index string, batchSize int) ([]driven.StoredRecord, error) {
	decoded, err := c.search(ctx, index, map[string]any{
		"size":  batchSize,
		"query": map[string]any{"match_all": map[string]any{}},
	})
	if err != nil {
		return nil, err
	}

	records := make([]driven.StoredRecord, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		rec := hit.Source
		if rec.ChunkID == "" {
			rec.ChunkID = hit.ID
		}
		records = append(records, rec)
	}
	return records, nil
}

// Index upserts a single document keyed by id.
func (c *Connector) Index(ctx context.Context, index, id string, rec driven.StoredRecord) error {
	if err := c.requireClient(); err != nil {
		return err
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := c.client.Index(index, bytes.NewReader(body),
		c.client.Index.WithDocumentID(id),
		c.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	defer res.Body.Close()
	return checkResponse(res, "index document")
}

// bulkResponse is the subset of the bulk API response we decode.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkWrite upserts a batch in one request. Per-record rejections are
// reported in the result; the error covers whole-request failures.
func (c *Connector) BulkWrite(ctx context.Context, index string, recs []driven.StoredRecord) (driven.BulkResult, error) {
	if err := c.requireClient(); err != nil {
		return driven.BulkResult{}, err
	}

	var buf bytes.Buffer
	for _, rec := range recs {
		action, err := json.Marshal(map[string]any{
			"index": map[string]any{"_index": index, "_id": rec.ChunkID},
		})
		if err != nil {
			return driven.BulkResult{}, fmt.Errorf("encode bulk action: %w", err)
		}
		doc, err := json.Marshal(rec)
		if err != nil {
			return driven.BulkResult{}, fmt.Errorf("encode bulk document: %w", err)
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	res, err := c.client.Bulk(bytes.NewReader(buf.Bytes()), c.client.Bulk.WithContext(ctx))
	if err != nil {
		return driven.BulkResult{}, fmt.Errorf("bulk write: %w", err)
	}
	defer res.Body.Close()
	if err := checkResponse(res, "bulk write"); err != nil {
		return driven.BulkResult{}, err
	}

	var decoded bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return driven.BulkResult{}, fmt.Errorf("decode bulk response: %w", err)
	}

	var result driven.BulkResult
	if decoded.Errors {
		for _, item := range decoded.Items {
			for _, op := range item {
				if op.Error != nil {
					reason := op.Error.Reason
					if reason == "" {
						reason = op.Error.Type
					}
					result.Failed = append(result.Failed, driven.BulkFailure{
						ChunkID: op.ID,
						Reason:  reason,
					})
				}
			}
		}
	}
	return result, nil
}

// VectorSearch returns the k most similar documents by cosine
// similarity over the dense_vector field.
func (c *Connector) VectorSearch(ctx context.Context, index string, vector []float32, k int) ([]driven.SearchHit, error) {
	decoded, err := c.search(ctx, index, map[string]any{
		"size": k,
		"query": map[string]any{
			"script_score": map[string]any{
				"query": map[string]any{"exists": map[string]any{"field": "vector"}},
				"script": map[string]any{
					"source": "cosineSimilarity(params.query_vector, 'vector') + 1.0",
					"params": map[string]any{"query_vector": vector},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return toHits(decoded), nil
}

// TextSearch returns up to k documents matching the query text.
func (c *Connector) TextSearch(ctx context.Context, index, query string, k int) ([]driven.SearchHit, error) {
	decoded, err := c.search(ctx, index, map[string]any{
		"size": k,
		"query": map[string]any{
			"match": map[string]any{"text": map[string]any{"query": query}},
		},
	})
	if err != nil {
		return nil, err
	}
	return toHits(decoded), nil
}

func toHits(decoded *searchResponse) []driven.SearchHit {
	hits := make([]driven.SearchHit, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		hits = append(hits, driven.SearchHit{
			ID:       hit.ID,
			Text:     hit.Source.Text,
			Metadata: hit.Source.Metadata,
			Score:    hit.Score,
		})
	}
	return hits
}
