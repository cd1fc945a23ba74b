package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vkozyrev/orderhub/internal/domain"
	"github.com/vkozyrev/orderhub/internal/messaging/kafka"
	"github.com/vkozyrev/orderhub/internal/storage/memory"
	"github.com/vkozyrev/orderhub/internal/storage/postgres"
	redisstore "github.com/vkozyrev/orderhub/internal/storage/redis"
)

// Dependencies содержит долгоживущие зависимости приложения.
type Dependencies struct {
	Customers domain.CustomerRepository
	Catalog   domain.ProductRepository
	Orders    domain.OrderRepository
	Idem      domain.IdempotencyStore

	// Producer опционален: nil означает работу без Kafka.
	Producer *kafka.Producer

	Logger *log.Entry

	pg    *postgres.Store
	redis *goredis.Client
}

// NewDependencies собирает зависимости по конфигурации: выбирает драйвер
// хранилища, подключает Redis и Kafka, если они заданы.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.StorageDriver {
	case StoragePostgres:
		store, err := postgres.OpenWithPool(ctx, cfg.PostgresDSN, postgres.PoolConfig{
			MaxOpenConns: cfg.PostgresMaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		}
		deps.pg = store
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Catalog = postgres.NewProductRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		logger.Info("using postgres storage")
	case StorageMemory:
		deps.Customers = memory.NewCustomerRepository()
		deps.Catalog = memory.NewProductRepository()
		deps.Orders = memory.NewOrderRepository()
		logger.Info("using in-memory storage")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			deps.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.redis = client
		deps.Idem = redisstore.NewIdempotencyStore(client)
		logger.WithField("addr", cfg.RedisAddr).Info("using redis idempotency store")
	} else {
		deps.Idem = memory.NewIdempotencyStore()
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			deps.Producer = producer
			logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		}
	}

	return deps, nil
}

// PingStorage проверяет доступность хранилища для readiness-проб.
// Для in-memory драйвера всегда успешен.
func (d *Dependencies) PingStorage(ctx context.Context) error {
	if d.pg == nil {
		return nil
	}
	return d.pg.Ping(ctx)
}

// PingRedis проверяет доступность Redis. Без Redis всегда успешен.
func (d *Dependencies) PingRedis(ctx context.Context) error {
	if d.redis == nil {
		return nil
	}
	return d.redis.Ping(ctx).Err()
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.Producer != nil {
		if err := d.Producer.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close kafka producer")
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.pg != nil {
		if err := d.pg.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
