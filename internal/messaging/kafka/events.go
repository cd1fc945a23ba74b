package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// EventTypeOrderPlaced — заказ успешно размещён и записан в хранилище.
	EventTypeOrderPlaced EventType = "order.placed"
	// EventTypeStockAdjusted — остатки списаны под размещённый заказ.
	EventTypeStockAdjusted EventType = "stock.adjusted"
)

// Topics для Kafka
const (
	TopicOrderEvents = "orderhub.order.events"
	TopicStockEvents = "orderhub.stock.events"
)

// OrderPlacedEvent представляет событие размещения заказа.
type OrderPlacedEvent struct {
	EventType   EventType       `json:"event_type"`
	OrderID     string          `json:"order_id"`
	CustomerID  string          `json:"customer_id"`
	AmountMinor int64           `json:"amount_minor"`
	LineItems   []LineItemEvent `json:"line_items"`
	Timestamp   time.Time       `json:"timestamp"`
}

// LineItemEvent — позиция заказа в payload события.
type LineItemEvent struct {
	ProductID  string `json:"product_id"`
	PriceMinor int64  `json:"price_minor"`
	Quantity   int64  `json:"quantity"`
}

// StockAdjustedEvent представляет событие списания остатков.
type StockAdjustedEvent struct {
	EventType   EventType              `json:"event_type"`
	OrderID     string                 `json:"order_id"`
	Adjustments map[string]int64       `json:"adjustments"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// NewOrderPlacedEvent создает событие размещения заказа.
func NewOrderPlacedEvent(orderID, customerID string, amountMinor int64, items []LineItemEvent) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		EventType:   EventTypeOrderPlaced,
		OrderID:     orderID,
		CustomerID:  customerID,
		AmountMinor: amountMinor,
		LineItems:   items,
		Timestamp:   time.Now(),
	}
}

// NewStockAdjustedEvent создает событие списания остатков.
func NewStockAdjustedEvent(orderID string, adjustments map[string]int64) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		EventType:   EventTypeStockAdjusted,
		OrderID:     orderID,
		Adjustments: adjustments,
		Timestamp:   time.Now(),
	}
}
