// Package sale converts a cart of (product, quantity) lines into a
// persisted order, its order items, and the matching stock decrements as one
// atomic transaction.
package sale

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/tillpoint/pkg/store"
)

// CartLine is one requested line of a sale: a product and a quantity. Lines
// are never merged; two lines for the same product become two order items.
type CartLine struct {
	ProductID int
	Quantity  int
}

// Executor commits sales against a store.
type Executor struct {
	db *store.DB
}

// NewExecutor creates an executor bound to the given store handle.
func NewExecutor(db *store.DB) *Executor {
	return &Executor{db: db}
}

// ExecuteSale validates the cart and commits one order, one order item per
// line, and the stock decrements as a single transaction. On any failure the
// store is left untouched and the caller resubmits from scratch; no retries
// are performed here.
//
// Product rows are locked FOR UPDATE in id order before validation, so the
// stock read and the decrement happen under one atomic boundary and two
// concurrent sales cannot both pass validation against the same stock.
func (e *Executor) ExecuteSale(ctx context.Context, userID int, lines []CartLine) (*store.Order, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	tx, err := e.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userExists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&userExists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	if !userExists {
		return nil, &UserNotFoundError{UserID: userID}
	}

	products, err := lockProducts(ctx, tx, lines)
	if err != nil {
		return nil, err
	}

	plan, err := planOrder(lines, products)
	if err != nil {
		return nil, err
	}

	var order store.Order
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (user_id, total_amount, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, total_amount, status, created_at`,
		userID, plan.total, store.OrderStatusCompleted,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, &store.CommitError{Op: "create order", Err: err}
	}

	for _, item := range plan.items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			 VALUES ($1, $2, $3, $4)`,
			order.ID, item.ProductID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return nil, &store.CommitError{Op: "create order item", Err: err}
		}
	}

	for _, dec := range plan.decrements {
		_, err := tx.Exec(ctx,
			`UPDATE products SET stock_quantity = stock_quantity - $1 WHERE id = $2`,
			dec.quantity, dec.productID,
		)
		if err != nil {
			return nil, &store.CommitError{Op: "decrement stock", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &store.CommitError{Op: "execute sale", Err: err}
	}
	return &order, nil
}

func validateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}
	}
	return nil
}

// lockProducts reads and row-locks every product referenced by the cart.
// Rows are locked in id order so concurrent sales acquire locks
// deterministically and cannot deadlock against each other.
func lockProducts(ctx context.Context, tx pgx.Tx, lines []CartLine) (map[int]store.Product, error) {
	ids := distinctProductIDs(lines)

	rows, err := tx.Query(ctx,
		`SELECT id, name, price, stock_quantity, created_at
		 FROM products WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	products := make(map[int]store.Product, len(ids))
	for rows.Next() {
		var p store.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func distinctProductIDs(lines []CartLine) []int {
	seen := make(map[int]struct{}, len(lines))
	var ids []int
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	sort.Ints(ids)
	return ids
}
