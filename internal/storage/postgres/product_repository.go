package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vkozyrev/orderhub/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_minor, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, product.ID, product.Name, product.PriceMinor, product.Quantity, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductExists
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *productRepository) FindByName(name string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE name = $1
	`, name).Scan(
		&product.ID, &product.Name, &product.PriceMinor, &product.Quantity,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

// FindAllByID возвращает существующие товары из набора идентификаторов.
// Неизвестные идентификаторы молча опускаются: это фильтр существования,
// поэтому значения, не разбирающиеся в uuid, тоже считаются неизвестными.
func (r *productRepository) FindAllByID(ids []string) ([]domain.Product, error) {
	ids = filterUUIDs(ids)
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, price_minor, quantity, created_at, updated_at
		FROM products
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.PriceMinor, &product.Quantity,
			&product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// UpdateQuantities выставляет абсолютные остатки одной транзакцией.
func (r *productRepository) UpdateQuantities(updates []domain.QuantityUpdate) error {
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

	for _, update := range updates {
		if update.NewQuantity < 0 {
			err = fmt.Errorf("product %s: %w", update.ProductID, domain.ErrProductQuantityInvalid)
			return err
		}
		if !isUUID(update.ProductID) {
			err = fmt.Errorf("product %s: %w", update.ProductID, domain.ErrProductNotFound)
			return err
		}

		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products SET quantity = $2, updated_at = NOW() WHERE id = $1
		`, update.ProductID, update.NewQuantity)
		if err != nil {
			return fmt.Errorf("update product quantity: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			err = fmt.Errorf("product %s: %w", update.ProductID, domain.ErrProductNotFound)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update quantities: %w", err)
	}

	return nil
}

// DecrementStock списывает остатки условно и атомарно для всей пачки:
// каждая строка уменьшается только при quantity >= запрошенного, любая
// несработавшая строка откатывает транзакцию целиком.
func (r *productRepository) DecrementStock(adjustments []domain.StockAdjustment) error {
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

	for _, adj := range adjustments {
		if !isUUID(adj.ProductID) {
			err = fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
			return err
		}

		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity - $2, updated_at = NOW()
			WHERE id = $1 AND quantity >= $2
		`, adj.ProductID, adj.Quantity)
		if err != nil {
			return fmt.Errorf("decrement product quantity: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			var exists bool
			exists, err = r.productExistsTx(ctx, tx, adj.ProductID)
			if err != nil {
				return err
			}
			if !exists {
				err = fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
				return err
			}
			err = fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrOutOfStock)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit decrement stock: %w", err)
	}

	return nil
}

// RestoreStock возвращает списанные остатки (компенсация после неудачной записи заказа).
func (r *productRepository) RestoreStock(adjustments []domain.StockAdjustment) error {
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

	for _, adj := range adjustments {
		if !isUUID(adj.ProductID) {
			err = fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
			return err
		}

		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE products
			SET quantity = quantity + $2, updated_at = NOW()
			WHERE id = $1
		`, adj.ProductID, adj.Quantity)
		if err != nil {
			return fmt.Errorf("restore product quantity: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			err = fmt.Errorf("product %s: %w", adj.ProductID, domain.ErrProductNotFound)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit restore stock: %w", err)
	}

	return nil
}

func (r *productRepository) productExistsTx(ctx context.Context, tx *sql.Tx, productID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1`, productID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check product exists: %w", err)
}

var _ domain.ProductRepository = (*productRepository)(nil)
