package domain

import "errors"

var (
	// ErrCustomerNotFound возвращается, если клиент из запроса не существует.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrOutOfStock возвращается, если запрошенное количество превышает доступный остаток.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInvalidQuantities возвращается, если каталог вернул меньше различных товаров,
	// чем было запрошено (минимум один идентификатор не существует).
	ErrInvalidQuantities = errors.New("invalid quantities")
	// ErrPersistenceFailure — фатальная ошибка записи заказа или остатков.
	ErrPersistenceFailure = errors.New("persistence failure")

	// Ошибка отсутствующего идентификатора клиента в запросе.
	ErrCustomerIDRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной запрошенной позиции.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка при некорректном запрошенном количестве (<= 0).
	ErrLineQtyInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match line items sum")

	// Ошибка отсутствующего имени клиента.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего email клиента.
	ErrCustomerEmailRequired = errors.New("customer email is required")
	// ErrCustomerExists возвращается при попытке создать клиента с занятым email.
	ErrCustomerExists = errors.New("customer already exists")

	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrProductPriceInvalid = errors.New("product price must be non-negative")
	// Ошибка отрицательного остатка товара.
	ErrProductQuantityInvalid = errors.New("product quantity must be non-negative")
	// ErrProductExists возвращается при попытке создать товар с занятым именем.
	ErrProductExists = errors.New("product already exists")
	// ErrProductNotFound возвращается складскими операциями для неизвестного товара.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists сигнализирует о конфликте идентификаторов при создании заказа.
	ErrOrderExists = errors.New("order already exists")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — ключ уже занят другой обработкой.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is used with different request payload")
)

// IsClientError проверяет, относится ли ошибка workflow к 400-классу
// (некорректный запрос со стороны вызывающего, а не сбой сервера).
func IsClientError(err error) bool {
	switch {
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrInvalidQuantities),
		errors.Is(err, ErrCustomerIDRequired),
		errors.Is(err, ErrLinesRequired),
		errors.Is(err, ErrLineQtyInvalid):
		return true
	default:
		return false
	}
}
