package httpsvc

import (
	"time"

	"github.com/vkozyrev/orderhub/internal/domain"
)

// Формат запроса размещения заказа повторяет контракт workflow:
// {customer_id, products: [{id, quantity}]}.
type placeOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Products   []requestedProduct `json:"products"`
}

type requestedProduct struct {
	ID       string `json:"id"`
	Quantity int64  `json:"quantity"`
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createProductRequest struct {
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int64  `json:"quantity"`
}

type updateQuantitiesRequest struct {
	Products []quantityUpdate `json:"products"`
}

type quantityUpdate struct {
	ID          string `json:"id"`
	NewQuantity int64  `json:"new_quantity"`
}

type customerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type productResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceMinor int64     `json:"price_minor"`
	Quantity   int64     `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

type orderResponse struct {
	ID          string             `json:"id"`
	CustomerID  string             `json:"customer_id"`
	AmountMinor int64              `json:"amount_minor"`
	LineItems   []lineItemResponse `json:"line_items"`
	CreatedAt   time.Time          `json:"created_at"`
}

type lineItemResponse struct {
	ProductID  string `json:"product_id"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int64  `json:"quantity"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toPlaceOrderRequest(req placeOrderRequest) domain.PlaceOrderRequest {
	lines := make([]domain.RequestedLine, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, domain.RequestedLine{
			ProductID: p.ID,
			Quantity:  p.Quantity,
		})
	}
	return domain.PlaceOrderRequest{
		CustomerID: req.CustomerID,
		Lines:      lines,
	}
}

func toCustomerResponse(customer domain.Customer) customerResponse {
	return customerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		CreatedAt: customer.CreatedAt,
	}
}

func toProductResponse(product domain.Product) productResponse {
	return productResponse{
		ID:         product.ID,
		Name:       product.Name,
		PriceMinor: product.PriceMinor,
		Quantity:   product.Quantity,
		CreatedAt:  product.CreatedAt,
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]lineItemResponse, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, lineItemResponse{
			ProductID:  item.ProductID,
			PriceMinor: item.PriceMinor,
			Quantity:   item.Quantity,
		})
	}
	return orderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		AmountMinor: order.AmountMinor,
		LineItems:   items,
		CreatedAt:   order.CreatedAt,
	}
}
