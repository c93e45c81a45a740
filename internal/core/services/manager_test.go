package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calderalabs/ragline/internal/config"
	"github.com/calderalabs/ragline/internal/connectors"
	"github.com/calderalabs/ragline/internal/core/domain"
)

func boltConfig(t *testing.T) config.ConnectorConfig {
	t.Helper()
	return config.ConnectorConfig{
		Type:       "bolt",
		Connection: map[string]any{"path": filepath.Join(t.TempDir(), "store.db")},
	}
}

func TestManager_GetCachesByName(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"store": boltConfig(t),
	})

	first, err := manager.Get("store")
	require.NoError(t, err)
	second, err := manager.Get("store")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestManager_GetUnconfigured(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), nil)

	_, err := manager.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
}

func TestManager_GetUnknownType(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"odd": {Type: "carrier-pigeon"},
	})

	_, err := manager.Get("odd")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestManager_ConnectFailureIsNamed(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"store": {Type: "bolt"}, // no path
	})

	_, err := manager.Connect(context.Background(), "store")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingConfig)
	assert.Contains(t, err.Error(), `"store"`)
}

func TestManager_ConnectIsIdempotent(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"store": boltConfig(t),
	})

	first, err := manager.Connect(context.Background(), "store")
	require.NoError(t, err)
	require.True(t, first.IsConnected())

	second, err := manager.Connect(context.Background(), "store")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManager_Names(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"zeta":  {Type: "bolt"},
		"alpha": {Type: "relational"},
	})

	assert.Equal(t, []string{"alpha", "zeta"}, manager.Names())
}

func TestManager_DisconnectAll(t *testing.T) {
	manager := NewConnectorManager(connectors.DefaultRegistry(), map[string]config.ConnectorConfig{
		"store": boltConfig(t),
	})

	conn, err := manager.Connect(context.Background(), "store")
	require.NoError(t, err)
	require.True(t, conn.IsConnected())

	manager.DisconnectAll()
	assert.False(t, conn.IsConnected())

	// The cache is reset, so the next Get builds a fresh instance.
	fresh, err := manager.Get("store")
	require.NoError(t, err)
	assert.NotSame(t, conn, fresh)
}
