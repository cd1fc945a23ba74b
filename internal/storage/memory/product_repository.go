package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/vkozyrev/orderhub/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
// Условное списание выполняется под одним мьютексом, поэтому пачка
// применяется атомарно относительно конкурентных запросов.
type productRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[string]domain.Product
	byName map[string]string
}

// NewProductRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items:  make(map[string]domain.Product),
		byName: make(map[string]string),
	}
}

// Create сохраняет новый товар, если имя ещё не занято.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrProductExists
	}
	if _, exists := r.byName[product.Name]; exists {
		return domain.ErrProductExists
	}

	r.items[product.ID] = product
	r.byName[product.Name] = product.ID
	return nil
}

// FindByName возвращает товар по имени или ErrProductNotFound.
func (r *productRepositoryInMemory) FindByName(name string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return r.items[id], nil
}

// FindAllByID возвращает товары по набору идентификаторов.
// Неизвестные идентификаторы молча пропускаются (фильтр существования).
func (r *productRepositoryInMemory) FindAllByID(ids []string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if product, ok := r.items[id]; ok {
			result = append(result, product)
		}
	}
	return result, nil
}

// UpdateQuantities выставляет абсолютные значения остатков.
func (r *productRepositoryInMemory) UpdateQuantities(updates []domain.QuantityUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, update := range updates {
		if _, ok := r.items[update.ProductID]; !ok {
			return fmt.Errorf("product %s: %w", update.ProductID, domain.ErrProductNotFound)
		}
		if update.NewQuantity < 0 {
			return fmt.Errorf("product %s: %w", update.ProductID, domain.ErrProductQuantityInvalid)
		}
	}

	now := time.Now().UTC()
	for _, update := range updates {
		product := r.items[update.ProductID]
		product.Quantity = update.NewQuantity
		product.UpdatedAt = now
		r.items[update.ProductID] = product
	}
	return nil
}

// DecrementStock атомарно списывает остатки всей пачкой: сначала проверяется
// каждая позиция, и только потом применяются изменения.
func (r *productRepositoryInMemory) DecrementStock(adjustments []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, adj := range adjustments {
		product, ok := r.items[adj.ProductID]
		if !ok {
			return fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
		}
		if product.Quantity < adj.Quantity {
			return fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrOutOfStock)
		}
	}

	now := time.Now().UTC()
	for _, adj := range adjustments {
		product := r.items[adj.ProductID]
		product.Quantity -= adj.Quantity
		product.UpdatedAt = now
		r.items[adj.ProductID] = product
	}
	return nil
}

// RestoreStock возвращает ранее списанные остатки (компенсация).
func (r *productRepositoryInMemory) RestoreStock(adjustments []domain.StockAdjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, adj := range adjustments {
		if _, ok := r.items[adj.ProductID]; !ok {
			return fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
		}
	}

	now := time.Now().UTC()
	for _, adj := range adjustments {
		product := r.items[adj.ProductID]
		product.Quantity += adj.Quantity
		product.UpdatedAt = now
		r.items[adj.ProductID] = product
	}
	return nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
