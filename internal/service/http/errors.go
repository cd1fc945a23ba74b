package httpsvc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vkozyrev/orderhub/internal/domain"
)

// Коды ошибок во внешнем envelope {"error": code, "message": ...}.
const (
	codeInvalidJSON       = "invalid_json"
	codeInvalidRequest    = "invalid_request"
	codeCustomerNotFound  = "customer_not_found"
	codeOutOfStock        = "out_of_stock"
	codeInvalidQuantities = "invalid_quantities"
	codeOrderNotFound     = "order_not_found"
	codeAlreadyExists     = "already_exists"
	codeIdempotency       = "idempotency_conflict"
	codeInternal          = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

// writeDomainError отображает ошибки workflow и репозиториев на HTTP-статусы.
// Ошибки 400-класса — от клиента; всё прочее фатально для запроса и даёт 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		writeError(w, http.StatusBadRequest, codeCustomerNotFound, err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeError(w, http.StatusBadRequest, codeOutOfStock, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantities):
		writeError(w, http.StatusBadRequest, codeInvalidQuantities, err.Error())
	case domain.IsClientError(err),
		errors.Is(err, domain.ErrCustomerNameRequired),
		errors.Is(err, domain.ErrCustomerEmailRequired),
		errors.Is(err, domain.ErrProductNameRequired),
		errors.Is(err, domain.ErrProductPriceInvalid),
		errors.Is(err, domain.ErrProductQuantityInvalid),
		errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrCustomerExists),
		errors.Is(err, domain.ErrProductExists):
		writeError(w, http.StatusConflict, codeAlreadyExists, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
