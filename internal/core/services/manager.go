package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/connectors"
	"github.com/calderalabs/ragline/internal/core/domain"
	"github.com/calderalabs/ragline/internal/core/ports/driven"
	"github.com/calderalabs/ragline/internal/logger"
)

// ConnectorManager creates configured connectors on demand and caches
// them by name, so two stages touching the same source share one
// handle. It owns teardown for everything it handed out.
type ConnectorManager struct {
	registry *connectors.Registry
	configs  map[string]config.ConnectorConfig

	mu    sync.Mutex
	cache map[string]driven.Connector
}

// NewConnectorManager creates a manager over the configured
// connectors.
func NewConnectorManager(registry *connectors.Registry, configs map[string]config.ConnectorConfig) *ConnectorManager {
	return &ConnectorManager{
		registry: registry,
		configs:  configs,
		cache:    make(map[string]driven.Connector),
	}
}

// Get returns the named connector, creating it on first use. The
// connector is not connected; callers use Connect.
func (m *ConnectorManager) Get(name string) (driven.Connector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.cache[name]; ok {
		return conn, nil
	}

	cfg, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: connector %q is not configured", domain.ErrMissingConfig, name)
	}
	conn, err := m.registry.Create(name, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector %q: %w", name, err)
	}

	m.cache[name] = conn
	return conn, nil
}

// Connect returns the named connector with a live handle.
func (m *ConnectorManager) Connect(ctx context.Context, name string) (driven.Connector, error) {
	conn, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	if !conn.IsConnected() {
		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect %q: %w", name, err)
		}
	}
	return conn, nil
}

// Names lists the configured connector names, sorted.
func (m *ConnectorManager) Names() []string {
	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisconnectAll tears down every cached connector. Disconnect errors
// are logged, not returned: teardown is best effort and one failing
// connector must not keep the rest open.
func (m *ConnectorManager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, conn := range m.cache {
		if !conn.IsConnected() {
			continue
		}
		if err := conn.Disconnect(); err != nil {
			logger.Warn("disconnect %s: %v", name, err)
		}
	}
	m.cache = make(map[string]driven.Connector)
}
