package store

import "time"

// Order status values.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// User represents a customer or staff member.
type User struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Active    bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// Product represents an item in inventory that can be sold.
type Product struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	Stock     int       `db:"stock_quantity"`
	CreatedAt time.Time `db:"created_at"`
}

// Order represents one sale owned by a user. TotalAmount is fixed at the
// moment the order is finalized and equals the sum of its items.
type Order struct {
	ID          int       `db:"id"`
	UserID      int       `db:"user_id"`
	TotalAmount float64   `db:"total_amount"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
}

// OrderItem is one line of an order. UnitPrice is the product price captured
// at sale time and may diverge from the product's current price.
type OrderItem struct {
	ID        int     `db:"id"`
	OrderID   int     `db:"order_id"`
	ProductID int     `db:"product_id"`
	Quantity  int     `db:"quantity"`
	UnitPrice float64 `db:"unit_price"`
}

// UserUpdate carries the optional fields of a user update. Nil fields are
// left unchanged.
type UserUpdate struct {
	Name   *string
	Email  *string
	Active *bool
}

// ProductUpdate carries the optional fields of a product update. Nil fields
// are left unchanged.
type ProductUpdate struct {
	Name  *string
	Price *float64
	Stock *int
}
