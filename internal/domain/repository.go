package domain

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// Create сохраняет нового клиента. Возвращает ErrCustomerExists, если email занят.
	Create(customer Customer) error
	// FindByID возвращает клиента по идентификатору или ErrCustomerNotFound.
	FindByID(id string) (Customer, error)
	// FindByEmail возвращает клиента по email или ErrCustomerNotFound.
	FindByEmail(email string) (Customer, error)
}

// ProductRepository описывает требования к каталогу товаров.
type ProductRepository interface {
	// Create сохраняет новый товар. Возвращает ErrProductExists, если имя занято.
	Create(product Product) error
	// FindByName возвращает товар по имени или ErrProductNotFound.
	FindByName(name string) (Product, error)
	// FindAllByID возвращает товары по набору идентификаторов.
	// Неизвестные идентификаторы молча опускаются из результата — это фильтр
	// существования, а не ошибка.
	FindAllByID(ids []string) ([]Product, error)
	// UpdateQuantities выставляет абсолютные значения остатков (административный restock).
	UpdateQuantities(updates []QuantityUpdate) error
	// DecrementStock атомарно уменьшает остатки всей пачкой: либо каждый товар
	// имеет достаточный остаток и все уменьшения применяются, либо ничего не
	// меняется. Недостаток остатка — ErrOutOfStock, неизвестный товар — ErrProductNotFound.
	DecrementStock(adjustments []StockAdjustment) error
	// RestoreStock возвращает остатки, списанные DecrementStock (компенсация).
	RestoreStock(adjustments []StockAdjustment) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями одной логической записью.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(customerID string, limit int) ([]Order, error)
}
