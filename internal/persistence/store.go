// Package persistence saves and restores cart state across sessions. The
// in-memory cart remains the source of truth: a failed save is logged by the
// caller and never rolls back a mutation.
package persistence

import (
	"context"
	"errors"

	"github.com/fjod/cart-engine/internal/domain"
)

// ErrNotFound is returned by Load when no cart has been saved yet.
var ErrNotFound = errors.New("cart not found")

// Store is the medium-agnostic persistence contract.
type Store interface {
	Load(ctx context.Context) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}
