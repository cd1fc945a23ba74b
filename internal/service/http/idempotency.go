package httpsvc

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vkozyrev/orderhub/internal/domain"
)

const (
	idempotencyKeyHeader  = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour

	maxIdempotentBody = 1 << 20 // 1 MiB
)

// SetIdempotencyTTL переопределяет срок жизни записей Idempotency-Key.
func (h *Handler) SetIdempotencyTTL(ttl time.Duration) {
	if ttl > 0 {
		h.idemTTL = ttl
	}
}

// withIdempotency оборачивает мутирующий обработчик replay-семантикой по
// заголовку Idempotency-Key. Заголовок опционален: без него запрос проходит
// напрямую. Повтор с тем же ключом и телом возвращает закешированный ответ;
// тот же ключ с другим телом — конфликт.
func (h *Handler) withIdempotency(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.idem == nil {
			next(w, r)
			return
		}

		key := r.Header.Get(idempotencyKeyHeader)
		if key == "" {
			next(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		reqHash := idempotencyRequestHash(r.Method, r.URL.Path, body)

		record, err := h.idem.CreateProcessing(key, reqHash, time.Now().UTC().Add(h.idemTTL))
		if err != nil {
			h.replayIdempotency(w, key, record, err)
			return
		}

		recorder := newResponseRecorder(w)
		next(recorder, r)

		if recorder.status >= http.StatusOK && recorder.status < http.StatusBadRequest {
			if markErr := h.idem.MarkDone(key, recorder.body.Bytes(), recorder.status); markErr != nil {
				h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent success response")
			}
			return
		}
		if markErr := h.idem.MarkFailed(key, recorder.body.Bytes(), recorder.status); markErr != nil {
			h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent failure response")
		}
	}
}

// replayIdempotency обслуживает повтор по уже занятому ключу.
func (h *Handler) replayIdempotency(w http.ResponseWriter, key string, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeError(w, http.StatusConflict, codeIdempotency, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			replayStoredResponse(w, record)
		case domain.IdempotencyStatusProcessing:
			writeError(w, http.StatusConflict, codeIdempotency, "request with the same idempotency key is already processing")
		default:
			writeError(w, http.StatusInternalServerError, codeInternal, "unknown idempotency record status")
		}
	default:
		h.logger.WithError(createErr).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to initialize idempotency request")
	}
}

func replayStoredResponse(w http.ResponseWriter, record domain.IdempotencyRecord) {
	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

func idempotencyRequestHash(method, path string, body []byte) string {
	payload := make([]byte, 0, len(method)+len(path)+len(body)+2)
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, path...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// responseRecorder копирует статус и тело ответа для последующего replay.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
