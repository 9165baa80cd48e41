// Package risk implements the pre-trade risk gate (spec component D): a
// pure, stateless precondition check parameterized by a closed
// RiskPolicy tag. Grounded on
// original_source/include/compile_time_dispatch.hpp's
// CompileTimeRiskChecker<Policy>::check_order and its
// RiskParameters<Policy> constant tables.
package risk

import "hftengine/internal/core"

// parameterTable holds the exact per-policy constants from the
// original's template specializations.
var parameterTable = map[core.RiskPolicy]core.RiskParameters{
	core.PolicyStrict: {
		MaxPositionSize:  100.0,
		MaxOrderSize:     10.0,
		MaxDailyLoss:     10000.0,
		MinSpreadBps:     5.0,
		AllowNakedShorts: false,
	},
	core.PolicyModerate: {
		MaxPositionSize:  500.0,
		MaxOrderSize:     50.0,
		MaxDailyLoss:     50000.0,
		MinSpreadBps:     2.0,
		AllowNakedShorts: false,
	},
	core.PolicyAggressive: {
		MaxPositionSize:  1000.0,
		MaxOrderSize:     100.0,
		MaxDailyLoss:     100000.0,
		MinSpreadBps:     1.0,
		AllowNakedShorts: true,
	},
}

// Parameters returns the constant table for a policy. Panics on an
// unknown policy value, since RiskPolicy is a closed enum fixed at
// construction time — an unknown value means a boot-time
// misconfiguration, not a runtime condition to recover from.
func Parameters(policy core.RiskPolicy) core.RiskParameters {
	p, ok := parameterTable[policy]
	if !ok {
		panic("risk: unknown RiskPolicy")
	}
	return p
}

// Gate is the pre-trade precondition check. It holds no mutable state
// beyond its fixed parameter table entry: every CheckOrder call is a
// pure function of its arguments.
type Gate struct {
	policy core.RiskPolicy
	params core.RiskParameters
}

// New constructs a Gate bound to policy for its lifetime.
func New(policy core.RiskPolicy) *Gate {
	return &Gate{policy: policy, params: Parameters(policy)}
}

// Policy returns the bound policy tag.
func (g *Gate) Policy() core.RiskPolicy { return g.policy }

// Params returns the bound parameter table.
func (g *Gate) Params() core.RiskParameters { return g.params }

// CheckOrder implements check_order's exact check ordering: position
// limit, order size, daily loss, minimum spread, then naked-short
// policy. The first violated check determines the rejection; the
// returned bool is the accept/reject verdict, the string names the
// failed check (empty on acceptance).
func (g *Gate) CheckOrder(currentPosition, orderSize float64, side core.Side, dailyPnL, quotedSpreadBps float64) (bool, string) {
	projectedPosition := currentPosition + side.Sign()*orderSize

	if abs(projectedPosition) > g.params.MaxPositionSize {
		return false, "position_limit_exceeded"
	}
	if orderSize > g.params.MaxOrderSize {
		return false, "order_size_exceeded"
	}
	if dailyPnL < 0 && -dailyPnL > g.params.MaxDailyLoss {
		return false, "daily_loss_limit_exceeded"
	}
	if quotedSpreadBps < g.params.MinSpreadBps {
		return false, "spread_below_minimum"
	}
	if !g.params.AllowNakedShorts && side == core.Sell && currentPosition <= 0 {
		return false, "naked_short_not_allowed"
	}

	return true, ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
