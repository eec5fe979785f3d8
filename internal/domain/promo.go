package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promo discount strategies.
type DiscountType string

const (
	// DiscountPercentage takes a percentage off the subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed takes a fixed amount off, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// PromoCode is read-only reference data mapping a code to a discount rule.
// ValidFrom/ValidUntil are optional; a nil bound is open-ended.
type PromoCode struct {
	Code       string          `json:"code"`
	Type       DiscountType    `json:"type"`
	Value      decimal.Decimal `json:"value"`
	ValidFrom  *time.Time      `json:"valid_from,omitempty"`
	ValidUntil *time.Time      `json:"valid_until,omitempty"`
}

// Active reports whether the code is inside its validity window at the given time.
func (p PromoCode) Active(now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return false
	}
	return true
}
