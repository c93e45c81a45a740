package loaders

import (
	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// NewIngestor builds the ingestor the backend configuration asks for:
// bulk batching by default, record-at-a-time when bulk is disabled.
func NewIngestor(cfg config.BackendConfig, conn driven.SearchConnector, extra ...Option) driven.Ingestor {
	opts := []Option{
		WithMaxRetries(cfg.MaxRetries),
		WithBatchSize(cfg.BatchSize),
	}
	opts = append(opts, extra...)

	if cfg.Bulk() {
		return NewBulk(conn, cfg.IndexName, opts...)
	}
	return NewSingle(conn, cfg.IndexName, opts...)
}
