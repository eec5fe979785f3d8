// Package promo resolves code strings against read-only reference data.
// The table is refreshed out of band (see Feed); resolution itself never
// mutates it.
package promo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fjod/cart-engine/internal/domain"
)

// ErrInvalidCode is returned when a code is unknown or outside its validity window.
var ErrInvalidCode = errors.New("invalid promo code")

// Repository provides lookup of promo rules by normalized code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*domain.PromoCode, error)
}

// Normalize maps user input to the canonical code form. Matching is
// case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MemoryRepository is the in-process promo table.
type MemoryRepository struct {
	mu    sync.RWMutex
	codes map[string]domain.PromoCode
}

// NewMemoryRepository builds a table from the given rules.
func NewMemoryRepository(rules ...domain.PromoCode) *MemoryRepository {
	r := &MemoryRepository{codes: make(map[string]domain.PromoCode, len(rules))}
	for _, rule := range rules {
		r.codes[Normalize(rule.Code)] = rule
	}
	return r
}

// FindByCode implements Repository.
func (r *MemoryRepository) FindByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.codes[Normalize(code)]
	if !ok {
		return nil, ErrInvalidCode
	}
	return &rule, nil
}

// Upsert inserts or replaces a single rule. Used by the reference feed.
func (r *MemoryRepository) Upsert(rule domain.PromoCode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[Normalize(rule.Code)] = rule
}

// Delete removes a rule if present.
func (r *MemoryRepository) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.codes, Normalize(code))
}

// Resolver validates codes against the repository.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a resolver over the given repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Resolve returns the discount rule for a code, or ErrInvalidCode when the
// code is unknown or expired.
func (r *Resolver) Resolve(ctx context.Context, code string) (*domain.PromoCode, error) {
	rule, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !rule.Active(r.now()) {
		return nil, ErrInvalidCode
	}
	return rule, nil
}
