package domain

import "time"

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing означает, что запрос принят и ещё обрабатывается.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone означает, что запрос завершён успешно и ответ сохранён.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed означает, что обработка завершилась ошибкой.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord хранит состояние обработки запроса с Idempotency-Key.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// IdempotencyStore хранит состояние обработки запросов по idempotency-key.
type IdempotencyStore interface {
	// CreateProcessing занимает ключ под обработку. Если ключ уже занят,
	// возвращает существующую запись и ErrIdempotencyKeyAlreadyExists
	// (либо ErrIdempotencyHashMismatch при другом теле запроса).
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	// Get возвращает запись по ключу или ErrIdempotencyKeyNotFound.
	Get(key string) (IdempotencyRecord, error)
	// MarkDone сохраняет успешный ответ для последующего replay.
	MarkDone(key string, responseBody []byte, httpStatus int) error
	// MarkFailed сохраняет неуспешный ответ.
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	// DeleteExpired удаляет записи с истёкшим TTL, не больше limit за вызов.
	DeleteExpired(before time.Time, limit int) (int, error)
}
