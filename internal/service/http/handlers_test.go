package httpsvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkozyrev/orderhub/internal/service/placement"
	"github.com/vkozyrev/orderhub/internal/storage/memory"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	customers := memory.NewCustomerRepository()
	catalog := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	idem := memory.NewIdempotencyStore()

	svc := placement.NewServiceWithoutMetrics(customers, catalog, orders, nil)
	h := NewHandler(svc, customers, catalog, orders, idem, nil)
	return &testServer{handler: NewRouter(h)}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createCustomer(t *testing.T, name, email string) customerResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/customers", map[string]string{"name": name, "email": email}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp customerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *testServer) createProduct(t *testing.T, name string, priceMinor, quantity int64) productResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/products", map[string]any{
		"name": name, "price_minor": priceMinor, "quantity": quantity,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPlaceOrderEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	p1 := srv.createProduct(t, "widget", 1000, 10)
	p2 := srv.createProduct(t, "gadget", 450, 3)

	rec := srv.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id": customer.ID,
		"products": []map[string]any{
			{"id": p1.ID, "quantity": 2},
			{"id": p2.ID, "quantity": 1},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, customer.ID, order.CustomerID)
	assert.Equal(t, int64(2450), order.AmountMinor)
	require.Len(t, order.LineItems, 2)

	// Заказ читается обратно.
	rec = srv.do(t, http.MethodGet, "/orders/"+order.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// И попадает в список заказов клиента.
	rec = srv.do(t, http.MethodGet, "/customers/"+customer.ID+"/orders", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, order.ID, list[0].ID)
}

func TestPlaceOrderErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 2)

	cases := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name: "unknown customer",
			body: map[string]any{
				"customer_id": "ghost",
				"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeCustomerNotFound,
		},
		{
			name: "out of stock",
			body: map[string]any{
				"customer_id": customer.ID,
				"products":    []map[string]any{{"id": product.ID, "quantity": 5}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeOutOfStock,
		},
		{
			name: "unknown product",
			body: map[string]any{
				"customer_id": customer.ID,
				"products":    []map[string]any{{"id": "ghost", "quantity": 1}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidQuantities,
		},
		{
			name:       "missing products",
			body:       map[string]any{"customer_id": customer.ID},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
		{
			name: "zero quantity",
			body: map[string]any{
				"customer_id": customer.ID,
				"products":    []map[string]any{{"id": product.ID, "quantity": 0}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/orders", tc.body, nil)
			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestPlaceOrderInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, codeInvalidJSON, decodeError(t, rec).Error)
}

func TestGetOrderNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/orders/ghost", nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, codeOrderNotFound, decodeError(t, rec).Error)
}

func TestCreateCustomerConflict(t *testing.T) {
	srv := newTestServer(t)
	srv.createCustomer(t, "Alice", "alice@example.com")

	rec := srv.do(t, http.MethodPost, "/customers", map[string]string{
		"name": "Another Alice", "email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeAlreadyExists, decodeError(t, rec).Error)
}

func TestCreateProductValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/products", map[string]any{
		"name": "", "price_minor": 100, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/products", map[string]any{
		"name": "widget", "price_minor": -5, "quantity": 1,
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateQuantities(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 0)

	// Пустой остаток: заказ не проходит.
	rec := srv.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Restock — и тот же заказ размещается.
	rec = srv.do(t, http.MethodPut, "/products/quantities", map[string]any{
		"products": []map[string]any{{"id": product.ID, "new_quantity": 5}},
	}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestIdempotentPlaceOrderReplay(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 10)

	body := map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
	}
	headers := map[string]string{"Idempotency-Key": "key-42"}

	first := srv.do(t, http.MethodPost, "/orders", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	// Повтор с тем же ключом и телом возвращает закешированный ответ,
	// второй заказ не создаётся и остаток не списывается повторно.
	second := srv.do(t, http.MethodPost, "/orders", body, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	rec := srv.do(t, http.MethodGet, "/customers/"+customer.ID+"/orders", nil, nil)
	var list []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestIdempotencyKeyReuseWithDifferentBody(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 10)

	headers := map[string]string{"Idempotency-Key": "key-42"}
	first := srv.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
	}, headers)
	require.Equal(t, http.StatusCreated, first.Code)

	rec := srv.do(t, http.MethodPost, "/orders", map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 2}},
	}, headers)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, codeIdempotency, decodeError(t, rec).Error)
}

func TestIdempotencyReplaysFailures(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 1)

	body := map[string]any{
		"customer_id": customer.ID,
		"products":    []map[string]any{{"id": product.ID, "quantity": 5}},
	}
	headers := map[string]string{"Idempotency-Key": "key-fail"}

	first := srv.do(t, http.MethodPost, "/orders", body, headers)
	require.Equal(t, http.StatusBadRequest, first.Code)

	second := srv.do(t, http.MethodPost, "/orders", body, headers)
	require.Equal(t, http.StatusBadRequest, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestPlaceOrderWithoutIdempotencyKey(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.createCustomer(t, "Alice", "alice@example.com")
	product := srv.createProduct(t, "widget", 1000, 10)

	// Без заголовка каждый запрос самостоятелен: два заказа.
	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodPost, "/orders", map[string]any{
			"customer_id": customer.ID,
			"products":    []map[string]any{{"id": product.ID, "quantity": 1}},
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, fmt.Sprintf("request %d: %s", i, rec.Body.String()))
	}

	rec := srv.do(t, http.MethodGet, "/customers/"+customer.ID+"/orders", nil, nil)
	var list []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
}
