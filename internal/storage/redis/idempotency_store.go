// Package redis реализует хранилище ключей идемпотентности поверх Redis.
// TTL записей делегируется самому Redis, поэтому DeleteExpired здесь no-op.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vkozyrev/orderhub/internal/domain"
)

const (
	keyPrefix = "orderhub:idempotency:"
	opTimeout = 5 * time.Second
)

// IdempotencyStore хранит IdempotencyRecord как JSON-значения с TTL Redis.
type IdempotencyStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewIdempotencyStore создаёт хранилище поверх готового клиента Redis.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, now: time.Now}
}

func (s *IdempotencyStore) CreateProcessing(key, requestHash string, ttlAt time.Time) (domain.IdempotencyRecord, error) {
	if key == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyRequired
	}
	if requestHash == "" {
		return domain.IdempotencyRecord{}, domain.ErrIdempotencyRequestHashRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	now := s.now().UTC()
	record := domain.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      domain.IdempotencyStatusProcessing,
		TTLAt:       ttlAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("marshal idempotency record: %w", err)
	}

	ttl := time.Until(ttlAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	// SET NX: либо мы первые и ключ наш, либо читаем чужую запись.
	claimed, err := s.client.SetNX(ctx, keyPrefix+key, payload, ttl).Result()
	if err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("setnx idempotency key: %w", err)
	}
	if claimed {
		return record, nil
	}

	existing, err := s.Get(key)
	if err != nil {
		if errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			// Запись истекла между SETNX и GET. Пробуем занять заново.
			return s.CreateProcessing(key, requestHash, ttlAt)
		}
		return domain.IdempotencyRecord{}, err
	}
	if existing.RequestHash != requestHash {
		return existing, domain.ErrIdempotencyHashMismatch
	}

	return existing, domain.ErrIdempotencyKeyAlreadyExists
}

func (s *IdempotencyStore) Get(key string) (domain.IdempotencyRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	payload, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.IdempotencyRecord{}, domain.ErrIdempotencyKeyNotFound
		}
		return domain.IdempotencyRecord{}, fmt.Errorf("get idempotency key: %w", err)
	}

	var record domain.IdempotencyRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.IdempotencyRecord{}, fmt.Errorf("unmarshal idempotency record: %w", err)
	}

	return record, nil
}

func (s *IdempotencyStore) MarkDone(key string, responseBody []byte, httpStatus int) error {
	return s.markStatus(key, domain.IdempotencyStatusDone, responseBody, httpStatus)
}

func (s *IdempotencyStore) MarkFailed(key string, responseBody []byte, httpStatus int) error {
	return s.markStatus(key, domain.IdempotencyStatusFailed, responseBody, httpStatus)
}

func (s *IdempotencyStore) markStatus(key string, status domain.IdempotencyStatus, responseBody []byte, httpStatus int) error {
	record, err := s.Get(key)
	if err != nil {
		return err
	}

	record.Status = status
	record.ResponseBody = responseBody
	record.HTTPStatus = httpStatus
	record.UpdatedAt = s.now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// KEEPTTL сохраняет исходный срок жизни ключа.
	if err := s.client.Set(ctx, keyPrefix+key, payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}

	return nil
}

// DeleteExpired ничего не делает: просроченные ключи вычищает сам Redis по TTL.
func (s *IdempotencyStore) DeleteExpired(time.Time, int) (int, error) {
	return 0, nil
}

var _ domain.IdempotencyStore = (*IdempotencyStore)(nil)
