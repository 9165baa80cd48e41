// Package hawkes implements the self- and cross-exciting multi-kernel
// point-process intensity engine (spec component B): it tracks buy/sell
// arrival intensities as a sum of a base rate plus exponentially
// decaying excitation from past events.
package hawkes

import "math"

// maxDT caps the elapsed time applied in a single decay step, avoiding
// underflow from an unexpectedly large gap between updates (spec §4.B
// numerical guards).
const maxDT = 60.0 // seconds

// resetEpsilon is the threshold below which an accumulator is snapped
// to zero rather than left as a denormalized near-zero float.
const resetEpsilon = 1e-12

// State is the Hawkes engine's mutable state: base intensities, kernel
// parameters, and the running excitation accumulators. Exactly the
// spec's HawkesState data-model type (spec §3).
type State struct {
	MuBuy  float64
	MuSell float64

	// Kernel parameters, one entry per kernel, K entries total.
	AlphaSelf []float64
	AlphaCross []float64
	Beta       []float64

	// Running excitation accumulators, updated in place on every event.
	SBuy  []float64
	SSell []float64

	lastUpdateNanos int64
	hasUpdate       bool
}

// New constructs a Hawkes engine with K kernels. alphaSelf, alphaCross
// and beta must all have equal length K; a mismatched length is a
// boot-time misconfiguration and panics rather than producing silently
// wrong intensities (spec §7: "misconfigured kernel array lengths...
// caught at initialization and prevent startup").
func New(muBuy, muSell float64, alphaSelf, alphaCross, beta []float64) *State {
	k := len(alphaSelf)
	if len(alphaCross) != k || len(beta) != k {
		panic("hawkes: alphaSelf, alphaCross, and beta must have equal length")
	}
	return &State{
		MuBuy:      muBuy,
		MuSell:     muSell,
		AlphaSelf:  append([]float64(nil), alphaSelf...),
		AlphaCross: append([]float64(nil), alphaCross...),
		Beta:       append([]float64(nil), beta...),
		SBuy:       make([]float64, k),
		SSell:      make([]float64, k),
	}
}

// Update folds a new trading event into the running intensity state.
// side is true for BUY, false for SELL (to avoid an import cycle on
// core.Side, callers pass the boolean directly; the engine package has
// no dependency on the order-side enum).
func (s *State) Update(arrivalTimeNanos int64, isBuy bool) {
	dt := 0.0
	if s.hasUpdate {
		dtNanos := arrivalTimeNanos - s.lastUpdateNanos
		if dtNanos > 0 {
			dt = float64(dtNanos) / 1e9
		}
		// negative dt (clock jitter / out-of-order arrival) is clamped to zero
	}
	if dt > maxDT {
		dt = maxDT
	}

	decay(s.SBuy, s.Beta, dt)
	decay(s.SSell, s.Beta, dt)

	if isBuy {
		for k := range s.AlphaSelf {
			s.SBuy[k] += s.AlphaSelf[k]
			s.SSell[k] += s.AlphaCross[k]
		}
	} else {
		for k := range s.AlphaSelf {
			s.SSell[k] += s.AlphaSelf[k]
			s.SBuy[k] += s.AlphaCross[k]
		}
	}

	s.lastUpdateNanos = arrivalTimeNanos
	s.hasUpdate = true
}

// decay applies e^(-beta[k]*dt) to each accumulator in place, snapping
// to zero once a term falls below resetEpsilon.
func decay(sum, beta []float64, dt float64) {
	for k := range sum {
		sum[k] *= math.Exp(-beta[k] * dt)
		if sum[k] < resetEpsilon && sum[k] > -resetEpsilon {
			sum[k] = 0
		}
	}
}

// BuyIntensity returns μ_buy + Σ_k S_buy[k], decayed to nowNanos
// without mutating state (a "peek decay": see DESIGN.md for why reads
// are non-mutating rather than mutate-on-query — it lets a monitoring
// goroutine call this concurrently with the strategy thread's writes
// without synchronizing on the accumulators for every export).
func (s *State) BuyIntensity(nowNanos int64) float64 {
	return s.MuBuy + s.peekSum(s.SBuy, nowNanos)
}

// SellIntensity is the symmetric counterpart of BuyIntensity.
func (s *State) SellIntensity(nowNanos int64) float64 {
	return s.MuSell + s.peekSum(s.SSell, nowNanos)
}

func (s *State) peekSum(sum []float64, nowNanos int64) float64 {
	if !s.hasUpdate {
		total := 0.0
		for _, v := range sum {
			total += v
		}
		return total
	}

	dt := float64(nowNanos-s.lastUpdateNanos) / 1e9
	if dt < 0 {
		dt = 0
	}
	if dt > maxDT {
		dt = maxDT
	}

	total := 0.0
	for k, v := range sum {
		total += v * math.Exp(-s.Beta[k]*dt)
	}
	return total
}
