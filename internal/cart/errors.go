package cart

import "errors"

var (
	// ErrItemNotFound is returned when the referenced item id is not in the cart.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned when a quantity is outside the configured bounds.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrLimitExceeded is returned when a mutation would exceed the quantity
	// or distinct-item ceiling.
	ErrLimitExceeded = errors.New("cart limit exceeded")
)
