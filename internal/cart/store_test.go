package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/cart-engine/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStore_Add_NewItem(t *testing.T) {
	s := NewStore(DefaultLimits())

	item, err := s.Add("lipstick", "Ruby Lipstick", price("25.00"), nil, 2, domain.ItemOptions{Shade: "ruby"})
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "lipstick", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.False(t, item.AddedAt.IsZero())
	assert.Equal(t, 1, s.Len())
}

func TestStore_Add_MergesEquivalentItem(t *testing.T) {
	s := NewStore(DefaultLimits())
	opts := domain.ItemOptions{Shade: "ruby"}

	first, err := s.Add("lipstick", "Ruby Lipstick", price("25.00"), nil, 2, opts)
	require.NoError(t, err)
	merged, err := s.Add("lipstick", "Ruby Lipstick", price("25.00"), nil, 3, opts)
	require.NoError(t, err)

	assert.Equal(t, first.ID, merged.ID, "equivalent items must merge, not duplicate")
	assert.Equal(t, 5, merged.Quantity)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Add_DifferentOptionsStaySeparate(t *testing.T) {
	s := NewStore(DefaultLimits())

	_, err := s.Add("lipstick", "Ruby Lipstick", price("25.00"), nil, 1, domain.ItemOptions{Shade: "ruby"})
	require.NoError(t, err)
	_, err = s.Add("lipstick", "Coral Lipstick", price("25.00"), nil, 1, domain.ItemOptions{Shade: "coral"})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
}

func TestStore_Add_QuantityCeiling(t *testing.T) {
	s := NewStore(Limits{MaxQuantity: 10})

	_, err := s.Add("serum", "Night Serum", price("49.00"), nil, 8, domain.ItemOptions{})
	require.NoError(t, err)

	_, err = s.Add("serum", "Night Serum", price("49.00"), nil, 3, domain.ItemOptions{})
	assert.ErrorIs(t, err, ErrLimitExceeded)

	// Failed merge leaves the original quantity untouched.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 8, snap.Items[0].Quantity)
}

func TestStore_Add_ItemCountCeiling(t *testing.T) {
	s := NewStore(Limits{MaxItems: 2})

	_, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)
	_, err = s.Add("b", "B", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)

	_, err = s.Add("c", "C", price("1.00"), nil, 1, domain.ItemOptions{})
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Add_RejectsOutOfRangeQuantity(t *testing.T) {
	s := NewStore(DefaultLimits())

	_, err := s.Add("a", "A", price("1.00"), nil, 0, domain.ItemOptions{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.Add("a", "A", price("1.00"), nil, 100, domain.ItemOptions{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStore_UpdateQuantity(t *testing.T) {
	s := NewStore(DefaultLimits())
	item, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)

	updated, err := s.UpdateQuantity(item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)
}

func TestStore_UpdateQuantity_RejectsOutOfRange(t *testing.T) {
	s := NewStore(DefaultLimits())
	item, err := s.Add("a", "A", price("1.00"), nil, 3, domain.ItemOptions{})
	require.NoError(t, err)

	_, err = s.UpdateQuantity(item.ID, 150)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.UpdateQuantity(item.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	// Cart state is unchanged after the failed calls.
	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 3, snap.Items[0].Quantity)
}

func TestStore_UpdateQuantity_NotFound(t *testing.T) {
	s := NewStore(DefaultLimits())

	_, err := s.UpdateQuantity("missing", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestStore_Remove_NotIdempotent(t *testing.T) {
	s := NewStore(DefaultLimits())
	item, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Remove(item.ID))
	assert.ErrorIs(t, s.Remove(item.ID), ErrItemNotFound)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(DefaultLimits())
	_, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)
	s.ApplyPromo("WELCOME10")

	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Empty(t, snap.PromoCode)
}

func TestStore_InsertionOrderPreserved(t *testing.T) {
	s := NewStore(DefaultLimits())
	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Add(id, id, price("1.00"), nil, 1, domain.ItemOptions{})
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	got := make([]string, len(snap.Items))
	for i, it := range snap.Items {
		got[i] = it.ProductID
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestStore_OnChange_FiresPerMutation(t *testing.T) {
	s := NewStore(DefaultLimits())
	var seen []int
	s.OnChange(func(c domain.Cart) {
		seen = append(seen, len(c.Items))
	})

	item, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)
	_, err = s.UpdateQuantity(item.ID, 2)
	require.NoError(t, err)
	require.NoError(t, s.Remove(item.ID))

	assert.Equal(t, []int{1, 1, 0}, seen)
}

func TestStore_OnChange_NotFiredOnFailedMutation(t *testing.T) {
	s := NewStore(DefaultLimits())
	fired := 0
	s.OnChange(func(domain.Cart) { fired++ })

	_, err := s.UpdateQuantity("missing", 1)
	require.ErrorIs(t, err, ErrItemNotFound)
	assert.Zero(t, fired)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore(DefaultLimits())
	_, err := s.Add("a", "A", price("1.00"), nil, 1, domain.ItemOptions{})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Items[0].Quantity = 42

	assert.Equal(t, 1, s.Snapshot().Items[0].Quantity)
}

func TestStore_Restore(t *testing.T) {
	s := NewStore(DefaultLimits())
	saved := domain.Cart{
		ID:        "restored",
		PromoCode: "WELCOME10",
		Items: []domain.CartItem{
			{ID: "i1", ProductID: "a", UnitPrice: price("2.50"), Quantity: 4},
		},
	}

	s.Restore(saved)

	snap := s.Snapshot()
	assert.Equal(t, "restored", snap.ID)
	assert.Equal(t, "WELCOME10", snap.PromoCode)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 4, snap.Items[0].Quantity)
}
