// Package cart holds the in-memory line item store. It is the single source
// of truth for the current session: persistence is a registered side effect
// and a failed save never rolls back an in-memory mutation.
package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/cart-engine/internal/domain"
)

// Limits bounds what the store accepts. Zero values are replaced by defaults.
type Limits struct {
	MinQuantity int
	MaxQuantity int
	MaxItems    int
}

// DefaultLimits returns the standard cart bounds.
func DefaultLimits() Limits {
	return Limits{MinQuantity: 1, MaxQuantity: 99, MaxItems: 50}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MinQuantity <= 0 {
		l.MinQuantity = d.MinQuantity
	}
	if l.MaxQuantity <= 0 {
		l.MaxQuantity = d.MaxQuantity
	}
	if l.MaxItems <= 0 {
		l.MaxItems = d.MaxItems
	}
	return l
}

// Store owns the ordered item collection for one session. All mutations are
// serialized behind the mutex (single-writer discipline); reads hand out
// copies so concurrent pricing recomputes stay safe.
type Store struct {
	mu       sync.Mutex
	cart     domain.Cart
	limits   Limits
	onChange func(domain.Cart)
}

// NewStore creates an empty cart store.
func NewStore(limits Limits) *Store {
	now := time.Now()
	return &Store{
		cart: domain.Cart{
			ID:        uuid.NewString(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		limits: limits.withDefaults(),
	}
}

// OnChange registers a hook invoked with a snapshot after every successful
// mutation. Used by the service layer to persist without coupling the store
// to a storage medium.
func (s *Store) OnChange(fn func(domain.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Add appends a new line item or merges into an equivalent one (same product
// and same options). The unit price is the caller's snapshot from the
// catalog; it is locked in at add time.
func (s *Store) Add(productID, name string, unitPrice decimal.Decimal, compareAt *decimal.Decimal, qty int, opts domain.ItemOptions) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < s.limits.MinQuantity || qty > s.limits.MaxQuantity {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	for i := range s.cart.Items {
		if s.cart.Items[i].Equivalent(productID, opts) {
			merged := s.cart.Items[i].Quantity + qty
			if merged > s.limits.MaxQuantity {
				return domain.CartItem{}, ErrLimitExceeded
			}
			s.cart.Items[i].Quantity = merged
			s.touch()
			return s.cart.Items[i], nil
		}
	}

	if len(s.cart.Items) >= s.limits.MaxItems {
		return domain.CartItem{}, ErrLimitExceeded
	}

	item := domain.CartItem{
		ID:             uuid.NewString(),
		ProductID:      productID,
		Name:           name,
		UnitPrice:      unitPrice,
		CompareAtPrice: compareAt,
		Quantity:       qty,
		Options:        opts,
		AddedAt:        time.Now(),
	}
	s.cart.Items = append(s.cart.Items, item)
	s.touch()
	return item, nil
}

// UpdateQuantity sets the quantity of an existing item. Out-of-range values
// are rejected, not clamped; callers use Remove for quantity zero.
func (s *Store) UpdateQuantity(itemID string, qty int) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if qty < s.limits.MinQuantity || qty > s.limits.MaxQuantity {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items[i].Quantity = qty
			s.touch()
			return s.cart.Items[i], nil
		}
	}
	return domain.CartItem{}, ErrItemNotFound
}

// Remove deletes an item. A second call for the same id returns ErrItemNotFound.
func (s *Store) Remove(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart.Items {
		if s.cart.Items[i].ID == itemID {
			s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
			s.touch()
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear empties the collection. Always succeeds.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = nil
	s.cart.PromoCode = ""
	s.touch()
}

// ApplyPromo records the applied code on the cart. Validation is the
// resolver's job; the store only carries the reference.
func (s *Store) ApplyPromo(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.PromoCode = code
	s.touch()
}

// RemovePromo clears any applied code.
func (s *Store) RemovePromo() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.PromoCode = ""
	s.touch()
}

// Snapshot returns a deep copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Len returns the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cart.Items)
}

// Restore replaces the store contents with a previously persisted cart,
// typically on session start. Items beyond the configured ceilings are kept;
// limits apply to new mutations only.
func (s *Store) Restore(c domain.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = c.Clone()
	if s.cart.ID == "" {
		s.cart.ID = uuid.NewString()
	}
}

// touch must be called with the mutex held.
func (s *Store) touch() {
	s.cart.UpdatedAt = time.Now()
	if s.onChange != nil {
		s.onChange(s.cart.Clone())
	}
}
