package catalog

import "errors"

var (
	// ErrProductNotFound is returned when a product does not exist or
	// belongs to a different tenant.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrderNotFound is returned when an order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidProduct is returned when a product fails validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrEmptyOrder is returned when a cart submission contains no items.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// the available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)
