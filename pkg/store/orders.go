package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const orderColumns = "id, user_id, total_amount, status, created_at"

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt)
	return o, err
}

// GetOrder returns the order with the given id, or ErrNotFound.
func (db *DB) GetOrder(ctx context.Context, id int) (*Order, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}
	return &o, nil
}

// ListOrders returns all orders ordered by id ascending.
func (db *DB) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListOrderItems returns the items of an order, ordered by item id.
func (db *DB) ListOrderItems(ctx context.Context, orderID int) ([]OrderItem, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price
		 FROM order_items WHERE order_id = $1 ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteOrder removes an order and all of its items in one transaction.
// Product stock decremented at sale time is NOT restored: an order deletion
// is an audit correction, not a return flow.
func (db *DB) DeleteOrder(ctx context.Context, id int) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete items of order %d: %w", id, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Op: "delete order", Err: err}
	}
	return nil
}
