package connectors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/connectors/bolt"
	"github.com/calderalabs/ragline/internal/connectors/elastic"
	"github.com/calderalabs/ragline/internal/connectors/gmail"
	"github.com/calderalabs/ragline/internal/connectors/relational"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
)

// Builder creates a connector instance from its configured name and
// connection settings.
type Builder func(name string, cfg config.ConnectorConfig) (driven.Connector, error)

// Registry maps connector type names to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry creates a registry with the built-in connector
// types registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("relational", func(name string, cfg config.ConnectorConfig) (driven.Connector, error) {
		return relational.New(name, relational.ParseConfig(cfg.Connection)), nil
	})
	r.Register("elasticsearch", func(name string, cfg config.ConnectorConfig) (driven.Connector, error) {
		return elastic.New(name, elastic.ParseConfig(cfg.Connection)), nil
	})
	r.Register("gmail", func(name string, cfg config.ConnectorConfig) (driven.Connector, error) {
		return gmail.New(name, gmail.ParseConfig(cfg.Connection)), nil
	})
	r.Register("bolt", func(name string, cfg config.ConnectorConfig) (driven.Connector, error) {
		return bolt.New(name, bolt.ParseConfig(cfg.Connection)), nil
	})
	return r
}

// Register adds a builder for the given type, replacing any previous
// registration.
func (r *Registry) Register(connectorType string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[connectorType] = builder
}

// Create instantiates a connector of the configured type.
// Returns domain.ErrUnsupportedType for unknown types.
func (r *Registry) Create(name string, cfg config.ConnectorConfig) (driven.Connector, error) {
	r.mu.RLock()
	builder, ok := r.builders[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: connector type %q", domain.ErrUnsupportedType, cfg.Type)
	}
	return builder(name, cfg)
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
