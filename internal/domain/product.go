package domain

import "time"

// Product — позиция каталога с актуальной ценой и доступным остатком.
// Остаток мутируется только через DecrementStock/RestoreStock/UpdateQuantities
// в ProductRepository; workflow работает со снапшотом, снятым в начале запроса.
type Product struct {
	ID string
	// Name — внешнее имя товара, уникальное в каталоге.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (копейки/центы).
	PriceMinor int64
	// Quantity — доступный остаток на складе.
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты товара перед сохранением.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if p.PriceMinor < 0 {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrProductQuantityInvalid)
	}

	return errs
}

// StockAdjustment описывает изменение остатка одного товара на величину Quantity.
type StockAdjustment struct {
	ProductID string
	Quantity  int64
}

// QuantityUpdate задаёт абсолютное значение остатка товара (административный restock).
type QuantityUpdate struct {
	ProductID   string
	NewQuantity int64
}
