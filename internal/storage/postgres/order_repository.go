package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkozyrev/orderhub/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create сохраняет заказ вместе с позициями одной транзакцией.
func (r *orderRepository) Create(order domain.Order) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, amount_minor, created_at)
		VALUES ($1,$2,$3,$4)
	`, order.ID, order.CustomerID, order.AmountMinor, order.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrOrderExists
			return err
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.LineItems {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_line_items (id, order_id, product_id, price_minor, quantity, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, item.ID, order.ID, item.ProductID, item.PriceMinor, item.Quantity, item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order line item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	if !isUUID(id) {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var order domain.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, amount_minor, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.AmountMinor, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	order.LineItems, err = r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}

	return order, nil
}

func (r *orderRepository) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	if !isUUID(customerID) {
		return []domain.Order{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, amount_minor, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []domain.Order
		ids    []string
	)
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.AmountMinor, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) == 0 {
		return []domain.Order{}, nil
	}

	items, err := r.loadItemsByOrder(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].LineItems = items[orders[i].ID]
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderIDs []string) ([]domain.OrderLineItem, error) {
	byOrder, err := r.loadItemsByOrder(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(orderIDs) != 1 {
		return nil, fmt.Errorf("loadItems expects a single order id, got %d", len(orderIDs))
	}
	return byOrder[orderIDs[0]], nil
}

func (r *orderRepository) loadItemsByOrder(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, price_minor, quantity, created_at
		FROM order_line_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY created_at ASC, id ASC
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select order line items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderLineItem, len(orderIDs))
	for rows.Next() {
		var (
			item    domain.OrderLineItem
			orderID string
		)
		if err := rows.Scan(
			&item.ID, &orderID, &item.ProductID, &item.PriceMinor,
			&item.Quantity, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		byOrder[orderID] = append(byOrder[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line item rows: %w", err)
	}

	return byOrder, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
