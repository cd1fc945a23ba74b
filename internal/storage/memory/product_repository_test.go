package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/vkozyrev/orderhub/internal/domain"
)

func seedProducts(t *testing.T) domain.ProductRepository {
	t.Helper()
	repo := NewProductRepository()
	products := []domain.Product{
		{ID: "p1", Name: "widget", PriceMinor: 1000, Quantity: 10},
		{ID: "p2", Name: "gadget", PriceMinor: 450, Quantity: 3},
	}
	for _, product := range products {
		if err := repo.Create(product); err != nil {
			t.Fatalf("seed product %s: %v", product.ID, err)
		}
	}
	return repo
}

func TestProductCreateDuplicateName(t *testing.T) {
	repo := seedProducts(t)

	err := repo.Create(domain.Product{ID: "p3", Name: "widget", PriceMinor: 1, Quantity: 1})
	if !errors.Is(err, domain.ErrProductExists) {
		t.Fatalf("expected ErrProductExists, got %v", err)
	}
}

func TestProductFindByName(t *testing.T) {
	repo := seedProducts(t)

	product, err := repo.FindByName("gadget")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if product.ID != "p2" {
		t.Fatalf("expected p2, got %s", product.ID)
	}

	if _, err := repo.FindByName("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductFindAllByIDSkipsUnknown(t *testing.T) {
	repo := seedProducts(t)

	products, err := repo.FindAllByID([]string{"p1", "ghost", "p2"})
	if err != nil {
		t.Fatalf("FindAllByID: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
}

func TestDecrementStockAllOrNothing(t *testing.T) {
	repo := seedProducts(t)

	// Вторая позиция превышает остаток — пачка не применяется целиком.
	err := repo.DecrementStock([]domain.StockAdjustment{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 5},
	})
	if !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	products, err := repo.FindAllByID([]string{"p1", "p2"})
	if err != nil {
		t.Fatalf("FindAllByID: %v", err)
	}
	for _, product := range products {
		switch product.ID {
		case "p1":
			if product.Quantity != 10 {
				t.Fatalf("p1 quantity changed: %d", product.Quantity)
			}
		case "p2":
			if product.Quantity != 3 {
				t.Fatalf("p2 quantity changed: %d", product.Quantity)
			}
		}
	}
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	repo := seedProducts(t)

	err := repo.DecrementStock([]domain.StockAdjustment{{ProductID: "ghost", Quantity: 1}})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDecrementThenRestore(t *testing.T) {
	repo := seedProducts(t)

	adjustments := []domain.StockAdjustment{{ProductID: "p1", Quantity: 4}}
	if err := repo.DecrementStock(adjustments); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	if err := repo.RestoreStock(adjustments); err != nil {
		t.Fatalf("RestoreStock: %v", err)
	}

	product, err := repo.FindByName("widget")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if product.Quantity != 10 {
		t.Fatalf("expected quantity restored to 10, got %d", product.Quantity)
	}
}

func TestUpdateQuantitiesValidatesWholeBatch(t *testing.T) {
	repo := seedProducts(t)

	err := repo.UpdateQuantities([]domain.QuantityUpdate{
		{ProductID: "p1", NewQuantity: 7},
		{ProductID: "p2", NewQuantity: -1},
	})
	if !errors.Is(err, domain.ErrProductQuantityInvalid) {
		t.Fatalf("expected ErrProductQuantityInvalid, got %v", err)
	}

	product, err := repo.FindByName("widget")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if product.Quantity != 10 {
		t.Fatalf("p1 quantity changed: %d", product.Quantity)
	}
}

func TestDecrementStockConcurrent(t *testing.T) {
	repo := NewProductRepository()
	if err := repo.Create(domain.Product{ID: "p1", Name: "widget", PriceMinor: 100, Quantity: 50}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const workers = 100
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := repo.DecrementStock([]domain.StockAdjustment{{ProductID: "p1", Quantity: 1}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrOutOfStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Ровно 50 списаний проходит, остаток никогда не уходит в минус.
	if succeeded != 50 {
		t.Fatalf("expected 50 successful decrements, got %d", succeeded)
	}
	product, err := repo.FindByName("widget")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if product.Quantity != 0 {
		t.Fatalf("expected quantity 0, got %d", product.Quantity)
	}
}
