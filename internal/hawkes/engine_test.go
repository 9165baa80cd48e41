package hawkes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(muBuy, muSell float64) *State {
	alphasSelf := []float64{0.5, 0.4, 0.3, 0.2}
	alphasCross := []float64{0.1, 0.1, 0.05, 0.05}
	betas := []float64{100, 10, 1, 0.1}
	return New(muBuy, muSell, alphasSelf, alphasCross, betas)
}

func TestNewPanicsOnMismatchedKernelLengths(t *testing.T) {
	assert.Panics(t, func() {
		New(1, 1, []float64{1, 2}, []float64{1}, []float64{1, 2})
	})
}

func TestInitialIntensityEqualsMu(t *testing.T) {
	s := newTestEngine(10, 10)
	assert.Equal(t, 10.0, s.BuyIntensity(0))
	assert.Equal(t, 10.0, s.SellIntensity(0))
}

// TestHawkesBurstAndDecay is spec.md §8 scenario 3.
func TestHawkesBurstAndDecay(t *testing.T) {
	s := newTestEngine(10, 10)

	t0 := int64(0)
	for i := 0; i < 5; i++ {
		s.Update(t0, true)
	}
	burst := s.BuyIntensity(t0)
	require.Greater(t, burst, 10.0, "intensity must exceed mu after a burst")

	oneSecondLater := t0 + int64(1e9)
	s.Update(oneSecondLater, true)
	decayed := s.BuyIntensity(oneSecondLater)

	assert.Less(t, decayed, burst, "intensity must decay from the immediate post-burst value")
	assert.GreaterOrEqual(t, decayed, 10.0, "intensity never falls below mu")
}

// TestHawkesMonotonicity: after update(e) of side BUY, buy-intensity
// strictly increases, then returns strictly toward mu as time advances
// with no further events.
func TestHawkesMonotonicity(t *testing.T) {
	s := newTestEngine(5, 5)
	before := s.BuyIntensity(0)

	s.Update(0, true)
	after := s.BuyIntensity(0)
	assert.Greater(t, after, before)

	later := s.BuyIntensity(int64(5e9))
	assert.Less(t, later, after)
	assert.GreaterOrEqual(t, later, 5.0)
}

// TestHawkesSymmetry: with symmetric kernels and mu_buy == mu_sell, a
// BUY and a SELL event at the same time yield equal intensities.
func TestHawkesSymmetry(t *testing.T) {
	sBuyFirst := newTestEngine(10, 10)
	sBuyFirst.Update(0, true)

	sSellFirst := newTestEngine(10, 10)
	sSellFirst.Update(0, false)

	assert.InDelta(t, sBuyFirst.BuyIntensity(0), sSellFirst.SellIntensity(0), 1e-9)
	assert.InDelta(t, sBuyFirst.SellIntensity(0), sSellFirst.BuyIntensity(0), 1e-9)
}

func TestNegativeDtClampedToZero(t *testing.T) {
	s := newTestEngine(1, 1)
	s.Update(1000, true)
	v1 := s.BuyIntensity(1000)
	// an out-of-order event with an earlier arrival time must not panic
	// or decay backwards; dt is clamped to zero.
	s.Update(500, true)
	v2 := s.BuyIntensity(500)
	assert.Greater(t, v2, v1-1e-9)
}
