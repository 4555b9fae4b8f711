package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart     = errors.New("cart is empty")
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrForbidden     = errors.New("admin privilege required")
)

// InsufficientStockError aborts a placement whose demand exceeds available
// stock. ProductID is empty when the placement lost the stock race past
// retry exhaustion and no single product can be blamed.
type InsufficientStockError struct {
	ProductID string
}

func (e *InsufficientStockError) Error() string {
	if e.ProductID == "" {
		return "insufficient stock"
	}
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}
