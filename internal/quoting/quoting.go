// Package quoting implements the Avellaneda-Stoikov quoting strategy
// with latency awareness (spec component C), plus a SimpleMM fallback
// variant recovered from original_source/include/compile_time_dispatch.hpp
// (its compute_simple_mm). Both satisfy the Quoter interface and are
// selected by a closed tag at construction time, not runtime
// polymorphism.
package quoting

import (
	"math"

	"hftengine/internal/core"
)

// Quoter produces two-sided quotes from current market/inventory state.
type Quoter interface {
	Quote(mid, inventory, volatility, timeRemaining float64) core.Quotes
	LatencyCost(volatility, mid float64) float64
	ShouldQuote(spread, latencyCost float64) bool
}

// StrategyKind is the closed tag selecting a Quoter variant.
type StrategyKind int

const (
	AvellanedaStoikov StrategyKind = iota
	SimpleMM
)

// Params holds the construction-time constants for both strategy
// variants. Defaults mirror
// original_source/include/compile_time_dispatch.hpp's
// StrategyParameters<AvellanedaStoikovStrategy> /
// StrategyParameters<SimpleMarketMakingStrategy> tables.
type Params struct {
	Kind StrategyKind

	// Avellaneda-Stoikov parameters.
	RiskAversion    float64 // gamma
	ArrivalRate     float64 // k
	TickSize        float64
	UnitSize        float64
	LatencyNanos    int64

	// SimpleMM parameters.
	BaseSpreadBps     float64
	InventorySkewBps  float64
	MinSpreadBps      float64
	MaxSpreadBps      float64
}

// DefaultAvellanedaStoikovParams returns the original's boot-time
// defaults for the primary strategy.
func DefaultAvellanedaStoikovParams() Params {
	return Params{
		Kind:         AvellanedaStoikov,
		RiskAversion: 0.1,
		ArrivalRate:  0.5,
		TickSize:     0.01,
		UnitSize:     10.0,
		LatencyNanos: 400,
	}
}

// DefaultSimpleMMParams returns the original's boot-time defaults for
// the SimpleMM fallback.
func DefaultSimpleMMParams() Params {
	return Params{
		Kind:             SimpleMM,
		BaseSpreadBps:    5.0,
		InventorySkewBps: 0.1,
		MinSpreadBps:     2.0,
		MaxSpreadBps:     20.0,
		TickSize:         0.01,
		UnitSize:         10.0,
		LatencyNanos:     400,
	}
}

// Strategy wraps Params and dispatches Quote to the selected variant by
// a plain switch — the Go realization of the "compile-time policy tag"
// pattern (spec §9): a closed set of tagged variants with associated
// constant records, dispatched at the call site, no virtual dispatch.
type Strategy struct {
	p Params
}

// New constructs a Strategy for the given parameters.
func New(p Params) *Strategy {
	return &Strategy{p: p}
}

// Quote implements spec §4.C's algorithm. Degenerate inputs (T<=0 or
// mid<=0) return an all-zero Quotes — an explicit refuse-to-quote.
func (s *Strategy) Quote(mid, inventory, volatility, timeRemaining float64) core.Quotes {
	if timeRemaining <= 0 || mid <= 0 {
		return core.Quotes{}
	}

	switch s.p.Kind {
	case SimpleMM:
		return s.quoteSimpleMM(mid, inventory, volatility)
	default:
		return s.quoteAvellanedaStoikov(mid, inventory, volatility, timeRemaining)
	}
}

func (s *Strategy) quoteAvellanedaStoikov(mid, inventory, sigma, T float64) core.Quotes {
	gamma := s.p.RiskAversion
	k := s.p.ArrivalRate

	reservation := mid - gamma*sigma*sigma*T*inventory
	halfSpread := gamma*sigma*sigma*T/2.0 + (1.0/gamma)*math.Log(1.0+gamma/k)

	bid := roundToTick(reservation-halfSpread, s.p.TickSize)
	ask := roundToTick(reservation+halfSpread, s.p.TickSize)
	if ask < bid {
		ask = bid
	}

	bidSize, askSize := s.p.UnitSize, s.p.UnitSize

	return core.Quotes{
		MidPrice: mid,
		BidPrice: bid,
		AskPrice: ask,
		Spread:   ask - bid,
		BidSize:  bidSize,
		AskSize:  askSize,
	}
}

// quoteSimpleMM is grounded on
// original_source/include/compile_time_dispatch.hpp's compute_simple_mm:
// a fixed fractional spread around mid, skewed by inventory, with no
// time-horizon dependence.
func (s *Strategy) quoteSimpleMM(mid, inventory, sigma float64) core.Quotes {
	baseSpread := mid * s.p.BaseSpreadBps / 10000.0
	minSpread := mid * s.p.MinSpreadBps / 10000.0
	maxSpread := mid * s.p.MaxSpreadBps / 10000.0

	spread := clamp(baseSpread, minSpread, maxSpread)
	skew := inventory * s.p.InventorySkewBps / 10000.0 * spread

	bid := roundToTick(mid-0.5*spread+skew, s.p.TickSize)
	ask := roundToTick(mid+0.5*spread+skew, s.p.TickSize)
	if ask < bid {
		ask = bid
	}

	return core.Quotes{
		MidPrice: mid,
		BidPrice: bid,
		AskPrice: ask,
		Spread:   ask - bid,
		BidSize:  s.p.UnitSize,
		AskSize:  s.p.UnitSize,
	}
}

// LatencyCost is spec §4.C step 5: the option-like cost of holding a
// quote exposed for one latency window.
func (s *Strategy) LatencyCost(volatility, mid float64) float64 {
	return volatility * mid * math.Sqrt(float64(s.p.LatencyNanos)/1e9)
}

// ShouldQuote is spec §4.C step 6.
func (s *Strategy) ShouldQuote(spread, latencyCost float64) bool {
	return spread > latencyCost
}

func roundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	return math.Round(price/tick) * tick
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
