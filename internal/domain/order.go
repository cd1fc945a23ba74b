package domain

import "time"

// RequestedLine — входная пара "товар/количество" из запроса на размещение заказа.
// Не персистится напрямую: по ней строится OrderLineItem.
type RequestedLine struct {
	ProductID string
	Quantity  int64
}

// PlaceOrderRequest — структурированный запрос workflow размещения заказа.
type PlaceOrderRequest struct {
	CustomerID string
	Lines      []RequestedLine
}

// OrderLineItem — одна позиция заказа. Цена копируется из снапшота каталога
// в момент размещения и больше никогда не пересчитывается.
type OrderLineItem struct {
	ID        string
	ProductID string
	// PriceMinor — цена за единицу, зафиксированная в момент заказа.
	PriceMinor int64
	Quantity   int64
	CreatedAt  time.Time
}

// Order агрегирует размещённый заказ. Создаётся ровно один раз за успешное
// выполнение workflow и с точки зрения этого сервиса неизменяем.
type Order struct {
	ID          string
	CustomerID  string
	LineItems   []OrderLineItem
	AmountMinor int64
	CreatedAt   time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerIDRequired)
	}
	if len(o.LineItems) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.LineItems {
		if item.Quantity <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc += item.Quantity * item.PriceMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
