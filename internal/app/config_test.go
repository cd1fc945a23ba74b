package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ORDERHUB_HTTP_ADDR", ":8888")
	t.Setenv("ORDERHUB_METRICS_ADDR", ":9999")
	t.Setenv("ORDERHUB_STORAGE_DRIVER", "postgres")
	t.Setenv("ORDERHUB_POSTGRES_DSN", "postgres://localhost/orderhub")
	t.Setenv("ORDERHUB_POSTGRES_AUTO_MIGRATE", "true")
	t.Setenv("ORDERHUB_POSTGRES_MAX_CONNS", "10")
	t.Setenv("ORDERHUB_REDIS_ADDR", "localhost:6379")
	t.Setenv("ORDERHUB_KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("ORDERHUB_IDEMPOTENCY_TTL", "2h")
	t.Setenv("ORDERHUB_IDEMPOTENCY_CLEANUP", "15m")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8888", cfg.HTTPAddr)
	assert.Equal(t, ":9999", cfg.MetricsAddr)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "postgres://localhost/orderhub", cfg.PostgresDSN)
	assert.True(t, cfg.PostgresAutoMigrate)
	assert.Equal(t, 10, cfg.PostgresMaxConns)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 15*time.Minute, cfg.IdempotencyCleanupPeriod)
}

func TestFromEnvInvalidValues(t *testing.T) {
	t.Run("bad auto migrate", func(t *testing.T) {
		t.Setenv("ORDERHUB_POSTGRES_AUTO_MIGRATE", "maybe")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("bad max conns", func(t *testing.T) {
		t.Setenv("ORDERHUB_POSTGRES_MAX_CONNS", "many")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("bad ttl", func(t *testing.T) {
		t.Setenv("ORDERHUB_IDEMPOTENCY_TTL", "yesterday")
		_, err := FromEnv()
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	t.Run("postgres requires dsn", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StorageDriver = StoragePostgres
		require.Error(t, cfg.Validate())

		cfg.PostgresDSN = "postgres://localhost/orderhub"
		require.NoError(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.StorageDriver = "cassandra"
		require.Error(t, cfg.Validate())
	})

	t.Run("negative max conns", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.PostgresMaxConns = -1
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.IdempotencyTTL = 0
		require.Error(t, cfg.Validate())
	})
}
