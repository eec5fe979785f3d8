package luckydraw

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/cart-engine/internal/domain"
)

func testPrizes() []domain.Prize {
	return []domain.Prize{
		{ID: "a", Name: "Prize A", Weight: 50},
		{ID: "b", Name: "Prize B", Weight: 30},
		{ID: "c", Name: "Prize C", Weight: 15},
		{ID: "d", Name: "Prize D", Weight: 5},
	}
}

func TestPick_DistributionMatchesWeights(t *testing.T) {
	prizes := testPrizes()
	rng := rand.New(rand.NewSource(1))

	const draws = 100_000
	counts := make(map[string]int, len(prizes))
	for i := 0; i < draws; i++ {
		p, err := Pick(prizes, rng)
		require.NoError(t, err)
		counts[p.ID]++
	}

	for _, p := range prizes {
		expected := p.Weight / 100.0
		observed := float64(counts[p.ID]) / draws
		assert.InDelta(t, expected, observed, 0.01, "prize %s", p.ID)
	}
}

func TestPick_ZeroWeightNeverWins(t *testing.T) {
	prizes := []domain.Prize{
		{ID: "never", Weight: 0},
		{ID: "always", Weight: 1},
	}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		p, err := Pick(prizes, rng)
		require.NoError(t, err)
		assert.Equal(t, "always", p.ID)
	}
}

func TestPick_NoPositiveWeight(t *testing.T) {
	_, err := Pick(nil, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoPrizes)

	_, err = Pick([]domain.Prize{{ID: "zero", Weight: 0}}, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoPrizes)
}

func TestSelector_SpinLifecycle(t *testing.T) {
	s := NewSelector(testPrizes(), 10*time.Millisecond, WithRand(rand.New(rand.NewSource(1))))
	defer s.Close()

	require.Equal(t, StateIdle, s.State())

	ch, err := s.Spin()
	require.NoError(t, err)
	assert.Equal(t, StateSpinning, s.State())

	select {
	case result := <-ch:
		assert.Equal(t, StateResult, s.State())
		assert.NotEmpty(t, result.ID)
		assert.NotEmpty(t, result.PrizeID)
		assert.False(t, result.DrawnAt.IsZero())

		got, ok := s.Result()
		require.True(t, ok)
		assert.Equal(t, result, got)
	case <-time.After(time.Second):
		t.Fatal("spin never delivered a result")
	}

	require.NoError(t, s.Acknowledge())
	assert.Equal(t, StateIdle, s.State())

	_, ok := s.Result()
	assert.False(t, ok)
}

func TestSelector_SecondSpinWhileSpinning(t *testing.T) {
	s := NewSelector(testPrizes(), time.Second)
	defer s.Close()

	_, err := s.Spin()
	require.NoError(t, err)

	_, err = s.Spin()
	assert.ErrorIs(t, err, ErrAlreadySpinning)
}

func TestSelector_MinimumSpinDurationHolds(t *testing.T) {
	const spinFor = 50 * time.Millisecond
	s := NewSelector(testPrizes(), spinFor)
	defer s.Close()

	start := time.Now()
	ch, err := s.Spin()
	require.NoError(t, err)

	<-ch
	assert.GreaterOrEqual(t, time.Since(start), spinFor)
}

func TestSelector_AcknowledgeWithoutResult(t *testing.T) {
	s := NewSelector(testPrizes(), time.Second)
	defer s.Close()

	assert.ErrorIs(t, s.Acknowledge(), ErrNoResult)
}

func TestSelector_CloseCancelsPendingSpin(t *testing.T) {
	s := NewSelector(testPrizes(), 20*time.Millisecond)

	ch, err := s.Spin()
	require.NoError(t, err)
	s.Close()

	select {
	case <-ch:
		t.Fatal("cancelled spin must not deliver a result")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StateIdle, s.State())
}

func TestSelector_SpinWithNoPrizes(t *testing.T) {
	s := NewSelector(nil, time.Second)
	defer s.Close()

	_, err := s.Spin()
	assert.ErrorIs(t, err, ErrNoPrizes)
	assert.Equal(t, StateIdle, s.State())
}

func TestCooldownGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gate := CooldownGate{Interval: 24 * time.Hour, now: func() time.Time { return now }}

	assert.True(t, gate.Allowed(time.Time{}), "zero timestamp always allows")
	assert.False(t, gate.Allowed(now.Add(-time.Hour)))
	assert.True(t, gate.Allowed(now.Add(-25*time.Hour)))

	last := now.Add(-time.Hour)
	assert.Equal(t, last.Add(24*time.Hour), gate.NextAllowed(last))
}
