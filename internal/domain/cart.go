package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ItemOptions holds the variant selections for a line item. Two items with
// the same product and the same options are the same line item and are
// merged on add.
type ItemOptions struct {
	Shade string            `json:"shade,omitempty"`
	Size  string            `json:"size,omitempty"`
	Extra map[string]string `json:"extra,omitempty"`
}

// Key returns a canonical representation used for equivalence checks.
func (o ItemOptions) Key() string {
	var b strings.Builder
	b.WriteString("shade=")
	b.WriteString(o.Shade)
	b.WriteString(";size=")
	b.WriteString(o.Size)

	keys := make([]string, 0, len(o.Extra))
	for k := range o.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(o.Extra[k])
	}
	return b.String()
}

// CartItem is one distinct product+options entry in a cart. UnitPrice is
// snapshotted from the catalog when the item is added and never re-fetched.
type CartItem struct {
	ID             string           `json:"id"`
	ProductID      string           `json:"product_id"`
	Name           string           `json:"name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Quantity       int              `json:"quantity"`
	Options        ItemOptions      `json:"options"`
	AddedAt        time.Time        `json:"added_at"`
}

// LineTotal is unit price times quantity, unrounded.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Equivalent reports whether another item would merge into this one.
func (i CartItem) Equivalent(productID string, options ItemOptions) bool {
	return i.ProductID == productID && i.Options.Key() == options.Key()
}

// Cart owns an ordered sequence of items. Order is insertion order and only
// matters for display; totals are always derived from the current items.
type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	PromoCode string     `json:"promo_code,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand the cart across goroutine
// boundaries without aliasing the store's internal slice.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
