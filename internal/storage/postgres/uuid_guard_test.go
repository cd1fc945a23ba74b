package postgres

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vkozyrev/orderhub/internal/domain"
)

func TestIsUUID(t *testing.T) {
	if !isUUID(uuid.NewString()) {
		t.Fatal("generated uuid must pass the check")
	}
	for _, id := range []string{"", "P9", "not-a-uuid", "123"} {
		if isUUID(id) {
			t.Fatalf("id %q must not pass the check", id)
		}
	}
}

func TestFilterUUIDs(t *testing.T) {
	valid := uuid.NewString()
	got := filterUUIDs([]string{"P9", valid, "ghost"})
	if len(got) != 1 || got[0] != valid {
		t.Fatalf("expected only %q to survive, got %v", valid, got)
	}
}

// Некорректные идентификаторы отсекаются до обращения к базе, поэтому
// репозитории можно проверять без подключения: запрос не выполняется.
func TestMalformedIDsSkipDatabase(t *testing.T) {
	customers := &customerRepository{}
	if _, err := customers.FindByID("not-a-uuid"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	products := &productRepository{}
	found, err := products.FindAllByID([]string{"P9", "ghost"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("expected empty snapshot, got %v", found)
	}

	orders := &orderRepository{}
	if _, err := orders.Get("ghost"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	list, err := orders.ListByCustomer("ghost", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}
}
