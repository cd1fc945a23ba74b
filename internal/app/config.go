package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Драйверы хранилища, поддерживаемые сервисом.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultMetricsAddr    = ":9090"
	defaultIdempotencyTTL = 24 * time.Hour
	defaultCleanupPeriod  = time.Hour
)

// Config описывает настройки запуска приложения.
type Config struct {
	// HTTPAddr — адрес основного API.
	HTTPAddr string
	// MetricsAddr — адрес служебного сервера (/metrics, health-пробы).
	MetricsAddr string

	// StorageDriver — memory или postgres.
	StorageDriver string
	// PostgresDSN обязателен при StorageDriver=postgres.
	PostgresDSN string
	// PostgresAutoMigrate применяет миграции при старте.
	PostgresAutoMigrate bool
	// PostgresMaxConns ограничивает пул подключений; 0 — по умолчанию.
	PostgresMaxConns int

	// RedisAddr — адрес Redis для хранилища идемпотентности. Пусто — in-memory.
	RedisAddr string

	// KafkaBrokers — список брокеров для публикации событий. Пусто — без Kafka.
	KafkaBrokers []string

	// IdempotencyTTL — срок жизни записей Idempotency-Key.
	IdempotencyTTL time.Duration
	// IdempotencyCleanupPeriod — период фоновой чистки просроченных записей
	// (используется только для in-memory хранилища).
	IdempotencyCleanupPeriod time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска: in-memory
// хранилище, без Redis и Kafka.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                 defaultHTTPAddr,
		MetricsAddr:              defaultMetricsAddr,
		StorageDriver:            StorageMemory,
		IdempotencyTTL:           defaultIdempotencyTTL,
		IdempotencyCleanupPeriod: defaultCleanupPeriod,
	}
}

// FromEnv читает конфигурацию из окружения поверх значений по умолчанию.
//
//	ORDERHUB_HTTP_ADDR              адрес API (по умолчанию :8080)
//	ORDERHUB_METRICS_ADDR           адрес служебного сервера (по умолчанию :9090)
//	ORDERHUB_STORAGE_DRIVER         memory | postgres
//	ORDERHUB_POSTGRES_DSN           DSN PostgreSQL
//	ORDERHUB_POSTGRES_AUTO_MIGRATE  true/false
//	ORDERHUB_POSTGRES_MAX_CONNS     лимит пула подключений
//	ORDERHUB_REDIS_ADDR             адрес Redis
//	ORDERHUB_KAFKA_BROKERS          брокеры через запятую
//	ORDERHUB_IDEMPOTENCY_TTL        срок жизни ключей (Go duration)
//	ORDERHUB_IDEMPOTENCY_CLEANUP    период чистки (Go duration)
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("ORDERHUB_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORDERHUB_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORDERHUB_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.PostgresDSN = os.Getenv("ORDERHUB_POSTGRES_DSN")
	if v := os.Getenv("ORDERHUB_POSTGRES_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse ORDERHUB_POSTGRES_AUTO_MIGRATE: %w", err)
		}
		cfg.PostgresAutoMigrate = b
	}
	if v := os.Getenv("ORDERHUB_POSTGRES_MAX_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse ORDERHUB_POSTGRES_MAX_CONNS: %w", err)
		}
		cfg.PostgresMaxConns = n
	}
	cfg.RedisAddr = os.Getenv("ORDERHUB_REDIS_ADDR")
	if v := os.Getenv("ORDERHUB_KAFKA_BROKERS"); v != "" {
		for _, broker := range strings.Split(v, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
			}
		}
	}
	if v := os.Getenv("ORDERHUB_IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse ORDERHUB_IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}
	if v := os.Getenv("ORDERHUB_IDEMPOTENCY_CLEANUP"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse ORDERHUB_IDEMPOTENCY_CLEANUP: %w", err)
		}
		cfg.IdempotencyCleanupPeriod = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("storage driver %q requires ORDERHUB_POSTGRES_DSN", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.PostgresMaxConns < 0 {
		return fmt.Errorf("postgres max conns must be non-negative, got %d", c.PostgresMaxConns)
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency TTL must be positive, got %s", c.IdempotencyTTL)
	}
	return nil
}
