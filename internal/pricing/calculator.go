// Package pricing derives a full order summary from a list of line items, an
// optionally applied promo rule and the destination country. The computation
// is a pure function: every field of the Summary is recomputed together, so a
// summary can never mix totals from different cart states.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/cart-engine/internal/domain"
)

// Config carries the externally supplied pricing constants: shipping tiers,
// the free-shipping threshold and the composable tax rates.
type Config struct {
	FreeShippingThreshold decimal.Decimal
	StandardShippingCost  decimal.Decimal
	ExpressShippingCost   decimal.Decimal
	SameDayShippingCost   decimal.Decimal

	// CountryShipping overrides the standard cost per destination country
	// (ISO alpha-2). Countries without an entry pay StandardShippingCost.
	CountryShipping map[string]decimal.Decimal

	// GSTRate applies to every destination; PSTRates adds a region-specific
	// component on top (zero when the country has no entry). Rates are
	// fractions, e.g. 0.07 for 7%.
	GSTRate  decimal.Decimal
	PSTRates map[string]decimal.Decimal
}

// Summary is the priced view of a cart. All fields are derived in one pass;
// only Total is rounded to minor-unit precision so per-line rounding error
// cannot compound.
type Summary struct {
	Subtotal                 decimal.Decimal `json:"subtotal"`
	Discount                 decimal.Decimal `json:"discount"`
	Shipping                 decimal.Decimal `json:"shipping"`
	Tax                      decimal.Decimal `json:"tax"`
	Total                    decimal.Decimal `json:"total"`
	RemainingForFreeShipping decimal.Decimal `json:"remaining_for_free_shipping"`
}

// Quote prices the given items. promo may be nil (no discount). The discount
// never exceeds the subtotal, shipping is waived once the discounted subtotal
// reaches the threshold, and tax applies to discounted merchandise only,
// never to shipping.
func Quote(items []domain.CartItem, promo *domain.PromoCode, country string, cfg Config) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}

	discount := discountFor(subtotal, promo)
	discounted := subtotal.Sub(discount)

	shipping := decimal.Zero
	remaining := decimal.Zero
	if discounted.LessThan(cfg.FreeShippingThreshold) {
		shipping = cfg.shippingFor(country)
		remaining = cfg.FreeShippingThreshold.Sub(discounted)
	}

	tax := discounted.Mul(cfg.taxRateFor(country))

	total := discounted.Add(shipping).Add(tax).Round(2)
	if total.IsNegative() {
		// Defensive floor; discountFor already caps at the subtotal.
		total = decimal.Zero
	}

	return Summary{
		Subtotal:                 subtotal,
		Discount:                 discount,
		Shipping:                 shipping,
		Tax:                      tax,
		Total:                    total,
		RemainingForFreeShipping: remaining,
	}
}

func discountFor(subtotal decimal.Decimal, promo *domain.PromoCode) decimal.Decimal {
	if promo == nil {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch promo.Type {
	case domain.DiscountPercentage:
		d = subtotal.Mul(promo.Value).Div(decimal.NewFromInt(100))
	case domain.DiscountFixed:
		d = promo.Value
	default:
		return decimal.Zero
	}

	if d.GreaterThan(subtotal) {
		return subtotal
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func (cfg Config) shippingFor(country string) decimal.Decimal {
	if cost, ok := cfg.CountryShipping[country]; ok {
		return cost
	}
	return cfg.StandardShippingCost
}

func (cfg Config) taxRateFor(country string) decimal.Decimal {
	rate := cfg.GSTRate
	if pst, ok := cfg.PSTRates[country]; ok {
		rate = rate.Add(pst)
	}
	return rate
}
