package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const productColumns = "id, name, price, stock_quantity, created_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt)
	return p, err
}

func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > 100 {
		return &ValidationError{Field: "name", Message: "must be at most 100 characters"}
	}
	return nil
}

func validateProductPrice(price float64) error {
	if price <= 0 {
		return &ValidationError{Field: "price", Message: "must be positive"}
	}
	return nil
}

func validateProductStock(stock int) error {
	if stock < 0 {
		return &ValidationError{Field: "stock_quantity", Message: "must not be negative"}
	}
	return nil
}

// CreateProduct inserts a new product. The name must be unique across all
// products, the price must be positive, and the initial stock non-negative;
// violating inputs are rejected before any row is written.
func (db *DB) CreateProduct(ctx context.Context, name string, price float64, stock int) (*Product, error) {
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validateProductPrice(price); err != nil {
		return nil, err
	}
	if err := validateProductStock(stock); err != nil {
		return nil, err
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, stock_quantity) VALUES ($1, $2, $3) RETURNING `+productColumns,
		name, price, stock,
	)
	p, err := scanProduct(row)
	if err != nil {
		if dup := mapPgError(err); dup != nil {
			var de *DuplicateError
			if errors.As(dup, &de) {
				de.Value = name
				return nil, de
			}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &p, nil
}

// GetProduct returns the product with the given id, or ErrNotFound.
func (db *DB) GetProduct(ctx context.Context, id int) (*Product, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by id ascending.
func (db *DB) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct applies the non-nil fields of upd to the product with the
// given id as one durable unit.
func (db *DB) UpdateProduct(ctx context.Context, id int, upd ProductUpdate) (*Product, error) {
	sets, args := buildProductSets(upd)
	if len(sets) == 0 {
		return nil, &ValidationError{Field: "update", Message: "no fields to update"}
	}
	if upd.Name != nil {
		if err := validateProductName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Price != nil {
		if err := validateProductPrice(*upd.Price); err != nil {
			return nil, err
		}
	}
	if upd.Stock != nil {
		if err := validateProductStock(*upd.Stock); err != nil {
			return nil, err
		}
	}

	args = append(args, id)
	sql := fmt.Sprintf(
		`UPDATE products SET %s WHERE id = $%d RETURNING `+productColumns,
		strings.Join(sets, ", "), len(args),
	)

	p, err := scanProduct(db.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if dup := mapPgError(err); dup != nil {
			var de *DuplicateError
			if errors.As(dup, &de) {
				if upd.Name != nil {
					de.Value = *upd.Name
				}
				return nil, de
			}
		}
		return nil, fmt.Errorf("failed to update product %d: %w", id, err)
	}
	return &p, nil
}

func buildProductSets(upd ProductUpdate) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.Price != nil {
		args = append(args, *upd.Price)
		sets = append(sets, fmt.Sprintf("price = $%d", len(args)))
	}
	if upd.Stock != nil {
		args = append(args, *upd.Stock)
		sets = append(sets, fmt.Sprintf("stock_quantity = $%d", len(args)))
	}
	return sets, args
}

// DeleteProduct removes a product. A product referenced by one or more order
// items cannot be deleted; the guard and the delete share a transaction.
func (db *DB) DeleteProduct(ctx context.Context, id int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE product_id = $1`, id).Scan(&itemCount)
	if err != nil {
		return fmt.Errorf("failed to count order items for product %d: %w", id, err)
	}
	if itemCount > 0 {
		return &ReferentialError{Entity: "product", ID: id, Dependents: "order items", Count: itemCount}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Op: "delete product", Err: err}
	}
	return nil
}
