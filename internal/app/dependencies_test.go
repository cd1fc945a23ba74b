package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDependenciesMemory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.Customers)
	assert.NotNil(t, deps.Catalog)
	assert.NotNil(t, deps.Orders)
	assert.NotNil(t, deps.Idem)
	assert.Nil(t, deps.Producer)

	// In-memory пробы всегда зелёные.
	require.NoError(t, deps.PingStorage(context.Background()))
	require.NoError(t, deps.PingRedis(context.Background()))
}

func TestNewDependenciesUnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"

	_, err := NewDependencies(context.Background(), cfg, nil)
	require.Error(t, err)
}
