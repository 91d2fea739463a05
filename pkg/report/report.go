// Package report provides read-only aggregate queries over the store. No
// caching: data volumes are bounded by a single operator driving a menu.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/marshallshelly/tillpoint/pkg/store"
)

// LowStockThreshold marks products worth restocking.
const LowStockThreshold = 10

// Reporter runs aggregate queries against a store handle.
type Reporter struct {
	db *store.DB
}

// NewReporter creates a reporter bound to the given store handle.
func NewReporter(db *store.DB) *Reporter {
	return &Reporter{db: db}
}

// Dashboard holds the key metrics of the main screen.
type Dashboard struct {
	ActiveUsers     int            `json:"active_users"`
	CompletedOrders int            `json:"completed_orders"`
	Revenue         float64        `json:"revenue"`
	TopProducts     []ProductSales `json:"top_products"`
}

// ProductSales is one row of a top-products ranking.
type ProductSales struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity_sold"`
	Revenue   float64 `json:"revenue"`
}

// Dashboard returns active user count, completed order count, total revenue
// over completed orders, and the top five products by quantity sold.
func (r *Reporter) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	pool := r.db.Pool()

	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE is_active`).Scan(&d.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	err = pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM orders WHERE status = $1`, store.OrderStatusCompleted,
	).Scan(&d.CompletedOrders, &d.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate completed orders: %w", err)
	}

	top, err := r.TopProducts(ctx, 5)
	if err != nil {
		return nil, err
	}
	d.TopProducts = top

	return d, nil
}

// TopProducts ranks products by total quantity sold across completed orders.
// Ties are broken by lower product id first, so the ranking is
// deterministic.
func (r *Reporter) TopProducts(ctx context.Context, n int) ([]ProductSales, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price)
		 FROM products p
		 JOIN order_items oi ON oi.product_id = p.id
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = $1
		 GROUP BY p.id, p.name
		 ORDER BY SUM(oi.quantity) DESC, p.id ASC
		 LIMIT $2`, store.OrderStatusCompleted, n)
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	defer rows.Close()

	return scanProductSales(rows)
}

// DailySales summarizes completed orders placed on one calendar day.
type DailySales struct {
	Day          time.Time      `json:"day"`
	OrderCount   int            `json:"order_count"`
	TotalSales   float64        `json:"total_sales"`
	AverageOrder float64        `json:"average_order_value"`
	TopProducts  []ProductSales `json:"top_products"`
}

// DailySales reports order count, total, average order value, and top five
// products for the given day (truncated to midnight, store timezone).
func (r *Reporter) DailySales(ctx context.Context, day time.Time) (*DailySales, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	ds := &DailySales{Day: start}
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM orders
		 WHERE status = $1 AND created_at >= $2 AND created_at < $3`,
		store.OrderStatusCompleted, start, end,
	).Scan(&ds.OrderCount, &ds.TotalSales)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily sales: %w", err)
	}
	if ds.OrderCount > 0 {
		ds.AverageOrder = ds.TotalSales / float64(ds.OrderCount)
	}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT p.id, p.name, SUM(oi.quantity), SUM(oi.quantity * oi.unit_price)
		 FROM products p
		 JOIN order_items oi ON oi.product_id = p.id
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
		 GROUP BY p.id, p.name
		 ORDER BY SUM(oi.quantity) DESC, p.id ASC
		 LIMIT 5`, store.OrderStatusCompleted, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to rank daily products: %w", err)
	}
	defer rows.Close()

	ds.TopProducts, err = scanProductSales(rows)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// InventoryLine is one product's stock position.
type InventoryLine struct {
	ProductID int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Value     float64 `json:"value"`
}

// Inventory is the full stock report.
type Inventory struct {
	Lines      []InventoryLine `json:"lines"`
	TotalValue float64         `json:"total_value"`
	LowStock   []InventoryLine `json:"low_stock"`
	OutOfStock []InventoryLine `json:"out_of_stock"`
}

// Inventory reports every product's stock value plus low-stock and
// out-of-stock subsets.
func (r *Reporter) Inventory(ctx context.Context) (*Inventory, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT id, name, price, stock_quantity, price * stock_quantity
		 FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	defer rows.Close()

	inv := &Inventory{}
	for rows.Next() {
		var line InventoryLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.Price, &line.Stock, &line.Value); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
		inv.TotalValue += line.Value
		if line.Stock == 0 {
			inv.OutOfStock = append(inv.OutOfStock, line)
		} else if line.Stock < LowStockThreshold {
			inv.LowStock = append(inv.LowStock, line)
		}
	}
	return inv, rows.Err()
}

// CustomerPurchases is one user's purchase history rollup.
type CustomerPurchases struct {
	UserID     int     `json:"user_id"`
	Name       string  `json:"name"`
	OrderCount int     `json:"order_count"`
	TotalSpent float64 `json:"total_spent"`
}

// CustomerPurchases reports order count and total spend per user, for users
// owning at least one order, ordered by user id.
func (r *Reporter) CustomerPurchases(ctx context.Context) ([]CustomerPurchases, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT u.id, u.name, COUNT(o.id), COALESCE(SUM(o.total_amount), 0)
		 FROM users u
		 JOIN orders o ON o.user_id = u.id
		 GROUP BY u.id, u.name
		 ORDER BY u.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate customer purchases: %w", err)
	}
	defer rows.Close()

	var result []CustomerPurchases
	for rows.Next() {
		var c CustomerPurchases
		if err := rows.Scan(&c.UserID, &c.Name, &c.OrderCount, &c.TotalSpent); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// OrderLine is one item of an order joined with its product name.
type OrderLine struct {
	Product   string  `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderDetail is an order header with its lines.
type OrderDetail struct {
	OrderID     int         `json:"order_id"`
	UserName    string      `json:"user_name"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	Lines       []OrderLine `json:"items"`
}

// OrderDetail returns one order with its owner's name and its item lines, or
// store.ErrNotFound.
func (r *Reporter) OrderDetail(ctx context.Context, orderID int) (*OrderDetail, error) {
	od := &OrderDetail{}
	err := r.db.Pool().QueryRow(ctx,
		`SELECT o.id, u.name, o.status, o.total_amount, o.created_at
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.id = $1`, orderID,
	).Scan(&od.OrderID, &od.UserName, &od.Status, &od.TotalAmount, &od.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT p.name, oi.quantity, oi.unit_price
		 FROM order_items oi JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = $1
		 ORDER BY oi.id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.Product, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		od.Lines = append(od.Lines, line)
	}
	return od, rows.Err()
}

// RecentOrder is one entry of the summary's recent-order list.
type RecentOrder struct {
	OrderID  int     `json:"id"`
	UserName string  `json:"user"`
	Amount   float64 `json:"amount"`
}

// Summary is a rollup of all completed orders.
type Summary struct {
	CompletedOrders int           `json:"total_completed_orders"`
	AverageOrder    float64       `json:"average_order_value"`
	RecentOrders    []RecentOrder `json:"recent_orders"`
}

// Summary reports completed order count, average order value, and the five
// most recent completed orders.
func (r *Reporter) Summary(ctx context.Context) (*Summary, error) {
	s := &Summary{}
	var total float64
	err := r.db.Pool().QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM orders WHERE status = $1`, store.OrderStatusCompleted,
	).Scan(&s.CompletedOrders, &total)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize orders: %w", err)
	}
	if s.CompletedOrders > 0 {
		s.AverageOrder = total / float64(s.CompletedOrders)
	}

	rows, err := r.db.Pool().Query(ctx,
		`SELECT o.id, u.name, o.total_amount
		 FROM orders o JOIN users u ON u.id = o.user_id
		 WHERE o.status = $1
		 ORDER BY o.created_at DESC, o.id DESC
		 LIMIT 5`, store.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ro RecentOrder
		if err := rows.Scan(&ro.OrderID, &ro.UserName, &ro.Amount); err != nil {
			return nil, err
		}
		s.RecentOrders = append(s.RecentOrders, ro)
	}
	return s, rows.Err()
}

func scanProductSales(rows pgx.Rows) ([]ProductSales, error) {
	var result []ProductSales
	for rows.Next() {
		var ps ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, err
		}
		result = append(result, ps)
	}
	return result, rows.Err()
}
