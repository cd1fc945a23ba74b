package httpsvc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vkozyrev/orderhub/internal/domain"
	"github.com/vkozyrev/orderhub/internal/service/placement"
)

const defaultListOrdersLimit = 100

// Handler реализует HTTP API поверх workflow размещения и репозиториев.
type Handler struct {
	placement *placement.Service
	customers domain.CustomerRepository
	catalog   domain.ProductRepository
	orders    domain.OrderRepository
	idem      domain.IdempotencyStore // nil-safe: без store идемпотентность выключена
	idemTTL   time.Duration
	logger    *log.Entry
}

// NewHandler конструирует обработчик с зависимостями.
// idem может быть nil — тогда Idempotency-Key игнорируется.
func NewHandler(
	svc *placement.Service,
	customers domain.CustomerRepository,
	catalog domain.ProductRepository,
	orders domain.OrderRepository,
	idem domain.IdempotencyStore,
	logger *log.Entry,
) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &Handler{
		placement: svc,
		customers: customers,
		catalog:   catalog,
		orders:    orders,
		idem:      idem,
		idemTTL:   defaultIdempotencyTTL,
		logger:    logger,
	}
}

// PlaceOrder принимает структурированный запрос и запускает workflow размещения.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}

	order, err := h.placement.Place(toPlaceOrderRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "order id is required")
		return
	}

	order, err := h.orders.Get(orderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListCustomerOrders возвращает заказы клиента, новые первыми.
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "customer id is required")
		return
	}

	orders, err := h.orders.ListByCustomer(customerID, defaultListOrdersLimit)
	if err != nil {
		h.logger.WithError(err).WithField("customer_id", customerID).Error("failed to list orders")
		writeDomainError(w, err)
		return
	}

	result := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		result = append(result, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateCustomer регистрирует нового клиента. Повторный email даёт 409.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}

	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now().UTC(),
	}
	if errs := customer.ValidateInvariants(); len(errs) > 0 {
		writeDomainError(w, errs[0])
		return
	}

	if err := h.customers.Create(customer); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCustomerResponse(customer))
}

// CreateProduct добавляет товар в каталог. Повторное имя даёт 409.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:         uuid.NewString(),
		Name:       req.Name,
		PriceMinor: req.PriceMinor,
		Quantity:   req.Quantity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := product.ValidateInvariants(); len(errs) > 0 {
		writeDomainError(w, errs[0])
		return
	}

	if err := h.catalog.Create(product); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// UpdateQuantities выставляет абсолютные остатки (административный restock).
// Путь размещения заказа этим не пользуется — он списывает условно.
func (h *Handler) UpdateQuantities(w http.ResponseWriter, r *http.Request) {
	var req updateQuantitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, err.Error())
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "products are required")
		return
	}

	updates := make([]domain.QuantityUpdate, 0, len(req.Products))
	for _, p := range req.Products {
		updates = append(updates, domain.QuantityUpdate{
			ProductID:   p.ID,
			NewQuantity: p.NewQuantity,
		})
	}

	if err := h.catalog.UpdateQuantities(updates); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
