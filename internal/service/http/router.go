package httpsvc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter собирает маршруты API. Идемпотентность применяется только к
// размещению заказа — остальные мутации либо естественно конфликтуют по
// уникальным ключам, либо идемпотентны сами по себе.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/customers", h.CreateCustomer)
	r.Get("/customers/{id}/orders", h.ListCustomerOrders)

	r.Post("/products", h.CreateProduct)
	r.Put("/products/quantities", h.UpdateQuantities)

	r.Post("/orders", h.withIdempotency(h.PlaceOrder))
	r.Get("/orders/{id}", h.GetOrder)

	return r
}
