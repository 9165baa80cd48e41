package quoting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	p := DefaultAvellanedaStoikovParams()
	p.RiskAversion = 0.1
	p.ArrivalRate = 0.5
	p.TickSize = 0.01
	return p
}

// TestQuietMarketQuoting is spec.md §8 scenario 1.
func TestQuietMarketQuoting(t *testing.T) {
	s := New(testParams())
	q := s.Quote(100, 0, 0.2, 300)

	require.False(t, q.IsZero())
	assert.Less(t, q.BidPrice, 100.0)
	assert.Greater(t, q.AskPrice, 100.0)
	assert.InDelta(t, q.AskPrice-100, 100-q.BidPrice, 0.01)
	assert.Greater(t, q.Spread, 0.0)
}

// TestPositiveInventorySkew is spec.md §8 scenario 2.
func TestPositiveInventorySkew(t *testing.T) {
	s := New(testParams())
	base := s.Quote(100, 0, 0.2, 300)
	skewed := s.Quote(100, 500, 0.2, 300)

	assert.Less(t, skewed.BidPrice, base.BidPrice)
	assert.Less(t, skewed.AskPrice, base.AskPrice)
	assert.GreaterOrEqual(t, skewed.Spread, base.Spread-1e-9)
}

func TestQuoteSymmetryAroundMid(t *testing.T) {
	s := New(testParams())
	q := s.Quote(100, 0, 0.2, 300)
	assert.InDelta(t, 100-q.BidPrice, q.AskPrice-100, 0.01)
}

func TestQuoteDegeneracy(t *testing.T) {
	s := New(testParams())

	zeroT := s.Quote(100, 0, 0.2, 0)
	assert.True(t, zeroT.IsZero())

	negT := s.Quote(100, 0, 0.2, -1)
	assert.True(t, negT.IsZero())

	zeroMid := s.Quote(0, 0, 0.2, 300)
	assert.True(t, zeroMid.IsZero())
}

func TestSpreadMonotonicInVolatilityAndHorizon(t *testing.T) {
	s := New(testParams())

	low := s.Quote(100, 10, 0.1, 100)
	high := s.Quote(100, 10, 0.3, 100)
	assert.Greater(t, high.Spread, low.Spread)

	shortT := s.Quote(100, 10, 0.2, 10)
	longT := s.Quote(100, 10, 0.2, 1000)
	assert.Greater(t, longT.Spread, shortT.Spread)
}

func TestSpreadMonotonicInInventoryMagnitude(t *testing.T) {
	s := New(testParams())
	zero := s.Quote(100, 0, 0.2, 300)
	skewed := s.Quote(100, 500, 0.2, 300)
	assert.GreaterOrEqual(t, skewed.Spread, zero.Spread-1e-9)
}

func TestLatencyCostAndShouldQuote(t *testing.T) {
	s := New(testParams())
	cost := s.LatencyCost(0.2, 100)
	assert.Greater(t, cost, 0.0)

	assert.True(t, s.ShouldQuote(1.0, cost))
	assert.False(t, s.ShouldQuote(0.0, cost))
}

func TestSimpleMMVariant(t *testing.T) {
	s := New(DefaultSimpleMMParams())
	q := s.Quote(100, 0, 0.2, 300)
	require.False(t, q.IsZero())
	assert.Less(t, q.BidPrice, 100.0)
	assert.Greater(t, q.AskPrice, 100.0)
}
