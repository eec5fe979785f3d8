// Package service wires the cart store, pricing calculator, promo resolver,
// catalog and persistence into the session-level API the storefront uses.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/cart-engine/internal/cart"
	"github.com/fjod/cart-engine/internal/catalog"
	"github.com/fjod/cart-engine/internal/domain"
	"github.com/fjod/cart-engine/internal/persistence"
	"github.com/fjod/cart-engine/internal/pricing"
	"github.com/fjod/cart-engine/internal/promo"
	"github.com/fjod/cart-engine/pkg/logger"
)

// ErrEmptyCart is returned by Checkout when there is nothing to price.
var ErrEmptyCart = errors.New("cart is empty")

const saveTimeout = time.Second

// CartService owns one session's cart. Mutations go through the store, the
// summary is recomputed from scratch on every read, and every successful
// mutation is persisted best-effort through the registered change hook.
type CartService struct {
	store   *cart.Store
	catalog catalog.Catalog
	promos  *promo.Resolver
	persist persistence.Store
	pricing pricing.Config
	log     *zap.Logger
	country string
	applied *domain.PromoCode
}

// NewCartService builds the service and registers the persistence hook.
// persist may be nil when the session runs storage-less.
func NewCartService(
	store *cart.Store,
	cat catalog.Catalog,
	promos *promo.Resolver,
	persist persistence.Store,
	cfg pricing.Config,
	country string,
	log *zap.Logger,
) *CartService {
	s := &CartService{
		store:   store,
		catalog: cat,
		promos:  promos,
		persist: persist,
		pricing: cfg,
		country: country,
		log:     log,
	}
	store.OnChange(s.persistSnapshot)
	return s
}

// Load restores a previously persisted cart, typically on session start.
// Missing or unreadable state leaves the cart empty; only the former is silent.
func (s *CartService) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	saved, err := s.persist.Load(ctx)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	if err != nil {
		logger.WithTrace(ctx, s.log).Warn("loading persisted cart", zap.Error(err))
		return err
	}

	s.store.Restore(*saved)
	if saved.PromoCode != "" {
		// Re-resolve: the rule may have expired since it was applied.
		rule, err := s.promos.Resolve(ctx, saved.PromoCode)
		if err != nil {
			s.store.RemovePromo()
		} else {
			s.applied = rule
		}
	}
	return nil
}

// AddItem snapshots the product's current price from the catalog and adds it
// to the cart, merging with an equivalent line item if one exists.
func (s *CartService) AddItem(ctx context.Context, productID string, qty int, opts domain.ItemOptions) (domain.CartItem, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.CartItem{}, err
	}
	return s.store.Add(p.ID, p.Name, p.Price, p.CompareAtPrice, qty, opts)
}

// UpdateQuantity changes an item's quantity; out-of-range values are rejected.
func (s *CartService) UpdateQuantity(itemID string, qty int) (domain.CartItem, error) {
	return s.store.UpdateQuantity(itemID, qty)
}

// RemoveItem deletes a line item.
func (s *CartService) RemoveItem(itemID string) error {
	return s.store.Remove(itemID)
}

// Clear empties the cart and drops any applied promo.
func (s *CartService) Clear() {
	s.applied = nil
	s.store.Clear()
}

// ApplyPromo validates the code and records it on the cart.
func (s *CartService) ApplyPromo(ctx context.Context, code string) error {
	rule, err := s.promos.Resolve(ctx, code)
	if err != nil {
		return err
	}
	s.applied = rule
	s.store.ApplyPromo(promo.Normalize(code))
	return nil
}

// RemovePromo clears the applied code.
func (s *CartService) RemovePromo() {
	s.applied = nil
	s.store.RemovePromo()
}

// SetDestination switches the shipping/tax destination for future summaries.
func (s *CartService) SetDestination(country string) {
	s.country = country
}

// Cart returns a copy of the current cart contents.
func (s *CartService) Cart() domain.Cart {
	return s.store.Snapshot()
}

// Summary prices the current cart. Always a fresh computation; there is no
// cached total to go stale.
func (s *CartService) Summary() pricing.Summary {
	snap := s.store.Snapshot()
	return pricing.Quote(snap.Items, s.applied, s.country, s.pricing)
}

// Snapshot is the immutable priced view captured at checkout time.
type Snapshot struct {
	Cart       domain.Cart     `json:"cart"`
	Summary    pricing.Summary `json:"summary"`
	Country    string          `json:"country"`
	CapturedAt time.Time       `json:"captured_at"`
}

// Checkout captures the cart and its summary for hand-off to the external
// checkout flow. The cart itself is left untouched.
func (s *CartService) Checkout() (Snapshot, error) {
	snap := s.store.Snapshot()
	if len(snap.Items) == 0 {
		return Snapshot{}, ErrEmptyCart
	}
	return Snapshot{
		Cart:       snap,
		Summary:    pricing.Quote(snap.Items, s.applied, s.country, s.pricing),
		Country:    s.country,
		CapturedAt: time.Now(),
	}, nil
}

// persistSnapshot is the store's change hook. Failures are logged and
// swallowed: the in-memory cart stays authoritative for the session.
func (s *CartService) persistSnapshot(c domain.Cart) {
	if s.persist == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.persist.Save(ctx, &c); err != nil {
		s.log.Warn("persisting cart", zap.Error(err), zap.String("cart_id", c.ID))
	}
}
