package sale

import (
	"errors"
	"fmt"
)

// ErrEmptyCart is returned when a sale is submitted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// UserNotFoundError reports a sale submitted for a user id with no row.
type UserNotFoundError struct {
	UserID int
}

// Error implements the error interface.
func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %d not found", e.UserID)
}

// ProductNotFoundError reports a cart line referencing a product id with no
// row.
type ProductNotFoundError struct {
	ProductID int
}

// Error implements the error interface.
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError reports a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int
	Quantity  int
}

// Error implements the error interface.
func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d: must be positive", e.Quantity, e.ProductID)
}

// InsufficientStockError reports a cart line requesting more than the
// product's available stock. Available is the stock remaining at the point
// the line was validated, so a human can correct the cart.
type InsufficientStockError struct {
	ProductID int
	Requested int
	Available int
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
