// Package router implements the smart order router (spec component G):
// it derives a per-order latency budget from quoting economics and
// market regime, filters registered venues against that budget and
// connectivity/liquidity constraints, and picks the highest composite
// score. Grounded on
// original_source/include/smart_order_router.hpp's SmartOrderRouter.
package router

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"hftengine/internal/core"
	"hftengine/internal/quoting"
	"hftengine/internal/venue"
)

// DefaultConfig mirrors smart_order_router.hpp's default_config().
func DefaultConfig() core.RoutingConfig {
	return core.RoutingConfig{
		LatencySafetyMargin:   0.8,
		LatencySpikeThreshold: 2.0,
		PriceWeight:           0.5,
		LatencyWeight:         0.3,
		LiquidityWeight:       0.2,
		MinFillRate:           0.85,
		MinCompositeScore:     0.6,
		HeartbeatIntervalMS:   100,
		HeartbeatTimeoutMS:    1000,
		RTTEMAAlpha:           0.2,
	}
}

// DefaultVenues mirrors smart_order_router.hpp's initialize_venues():
// the three hardcoded bootstrap venues.
func DefaultVenues() []core.Venue {
	return []core.Venue{
		{
			VenueID: "BINANCE", IsActive: true, BaselineLatencyUS: 500.0,
			FeeBps: 4.0, MinOrderSize: 0.001, MaxOrderSize: 10000.0,
			TypicalBidDepth: 5000.0, TypicalAskDepth: 5000.0, FillRate: 0.95,
		},
		{
			VenueID: "COINBASE", IsActive: true, BaselineLatencyUS: 800.0,
			FeeBps: 5.0, MinOrderSize: 0.01, MaxOrderSize: 5000.0,
			TypicalBidDepth: 3000.0, TypicalAskDepth: 3000.0, FillRate: 0.90,
		},
		{
			VenueID: "KRAKEN", IsActive: true, BaselineLatencyUS: 1200.0,
			FeeBps: 6.0, MinOrderSize: 0.01, MaxOrderSize: 3000.0,
			TypicalBidDepth: 2000.0, TypicalAskDepth: 2000.0, FillRate: 0.88,
		},
	}
}

// Router ties together a quoting strategy (for latency-budget
// derivation), a venue health tracker, and the static venue registry.
type Router struct {
	config  core.RoutingConfig
	quoter  quoting.Quoter
	tracker *venue.Tracker
	venues  map[string]core.Venue
}

// New constructs a Router. Callers typically Register DefaultVenues()
// immediately after.
func New(config core.RoutingConfig, quoter quoting.Quoter, tracker *venue.Tracker) *Router {
	return &Router{config: config, quoter: quoter, tracker: tracker, venues: make(map[string]core.Venue)}
}

// Tracker exposes the underlying venue health tracker, e.g. for an
// admin/introspection surface.
func (r *Router) Tracker() *venue.Tracker { return r.tracker }

// Venue returns the static registry entry for a venue, e.g. for an
// admin/introspection surface reporting order-size limits.
func (r *Router) Venue(venueID string) (core.Venue, bool) {
	v, ok := r.venues[venueID]
	return v, ok
}

// RegisterVenue adds a venue to both the static registry and the
// health tracker.
func (r *Router) RegisterVenue(v core.Venue) {
	r.venues[v.VenueID] = v
	r.tracker.Register(v)
}

// RemoveVenue drops a venue from both the registry and the tracker.
func (r *Router) RemoveVenue(venueID string) {
	delete(r.venues, venueID)
	r.tracker.Remove(venueID)
}

// CalculateLatencyBudget derives the per-order latency budget (in
// microseconds) from the quoting strategy's expected profit versus its
// latency cost, scaled by regime urgency and position size. Grounded
// on calculate_latency_budget; the fixed time_remaining=600.0 and
// inventory-as-position arguments to calculate_quotes match the
// original's call shape exactly.
func (r *Router) CalculateLatencyBudget(midPrice, volatility, position, orderSize float64, regime core.MarketRegime) float64 {
	quotes := r.quoter.Quote(midPrice, position, volatility, 600.0)
	latencyCost := r.quoter.LatencyCost(volatility, midPrice)

	bidSpread := midPrice - quotes.BidPrice
	askSpread := quotes.AskPrice - midPrice
	expectedProfit := bidSpread
	if orderSize > 0 {
		expectedProfit = askSpread
	}

	urgency := regime.UrgencyMultiplier()
	positionRatio := position / 1000.0
	urgency *= 1.0 + math.Abs(positionRatio)

	var budget float64
	if expectedProfit > latencyCost*1.1 {
		profitMargin := expectedProfit - latencyCost
		budget = (profitMargin / volatility) * (1000.0 / urgency)
		budget = clampBudget(budget, 100.0, 10000.0)
	} else {
		budget = 100.0
	}

	return budget * r.config.LatencySafetyMargin
}

// RouteOrder selects the best venue for an order, or returns a
// RoutingDecision with a non-empty RejectionReason and no
// SelectedVenue. Grounded on route_order.
func (r *Router) RouteOrder(midPrice, volatility, position, orderSize float64, regime core.MarketRegime, venuePrices map[string]float64) core.RoutingDecision {
	decision := core.RoutingDecision{}
	decision.LatencyBudgetUS = r.CalculateLatencyBudget(midPrice, volatility, position, orderSize, regime)

	states := r.tracker.AllStates()

	var candidates []string
	for id, v := range r.venues {
		if !v.IsActive {
			continue
		}
		state, ok := states[id]
		if !ok || !state.IsConnected {
			continue
		}
		if state.EMARTTUS > decision.LatencyBudgetUS {
			continue
		}
		spikeThreshold := state.EMARTTUS + r.config.LatencySpikeThreshold*state.StdDevRTTUS
		if state.CurrentRTTUS > spikeThreshold {
			continue
		}

		fillRate := v.FillRate
		if state.OrdersSent > 0 {
			fillRate = state.ObservedFillRate()
		}
		if fillRate < r.config.MinFillRate {
			continue
		}

		absSize := math.Abs(orderSize)
		if absSize < v.MinOrderSize || absSize > v.MaxOrderSize {
			continue
		}

		candidates = append(candidates, id)
	}

	if len(candidates) == 0 {
		decision.RejectionReason = fmt.Sprintf("no venues meet latency budget %.0f us and connectivity requirements", decision.LatencyBudgetUS)
		return decision
	}

	bestVenue := ""
	bestScore := math.Inf(-1)
	for _, id := range candidates {
		v := r.venues[id]
		state := states[id]

		priceQuality := scorePrice(id, orderSize, venuePrices)
		latencyRatio := state.EMARTTUS / decision.LatencyBudgetUS
		latencyQuality := math.Max(0.0, 1.0-latencyRatio)
		liquidityQuality := scoreLiquidity(v, orderSize)

		score := r.config.PriceWeight*priceQuality +
			r.config.LatencyWeight*latencyQuality +
			r.config.LiquidityWeight*liquidityQuality

		if score > bestScore {
			bestScore = score
			bestVenue = id
		}
	}

	if bestVenue == "" || bestScore < r.config.MinCompositeScore {
		decision.RejectionReason = fmt.Sprintf("no venues meet minimum composite score at latency budget %.0f us", decision.LatencyBudgetUS)
		return decision
	}

	v := r.venues[bestVenue]
	state := states[bestVenue]

	decision.SelectedVenue = bestVenue
	decision.CompositeScore = bestScore
	decision.ExpectedLatencyUS = state.EMARTTUS
	decision.PriceQuality = scorePrice(bestVenue, orderSize, venuePrices)
	decision.LatencyQuality = math.Max(0.0, 1.0-(state.EMARTTUS/decision.LatencyBudgetUS))
	decision.LiquidityQuality = scoreLiquidity(v, orderSize)

	return decision
}

// RecordOrderResult forwards a fill/reject/timeout outcome to the
// health tracker, feeding back into future ObservedFillRate filtering.
func (r *Router) RecordOrderResult(venueID string, filled, timeout bool) {
	r.tracker.RecordOrderResult(venueID, filled, timeout)
}

// NewOrderID generates an order identifier for a routed order.
func NewOrderID() string {
	return uuid.NewString()
}

func scorePrice(venueID string, orderSize float64, venuePrices map[string]float64) float64 {
	venuePrice, ok := venuePrices[venueID]
	if !ok {
		return 0.5
	}

	bestPrice := venuePrice
	for _, price := range venuePrices {
		if orderSize > 0 {
			bestPrice = math.Min(bestPrice, price)
		} else {
			bestPrice = math.Max(bestPrice, price)
		}
	}

	var priceDiff float64
	if orderSize > 0 {
		priceDiff = (venuePrice - bestPrice) / bestPrice
	} else {
		priceDiff = (bestPrice - venuePrice) / bestPrice
	}

	return math.Max(0.0, 1.0-priceDiff*100.0)
}

func scoreLiquidity(v core.Venue, orderSize float64) float64 {
	required := math.Abs(orderSize)
	available := v.TypicalBidDepth
	if orderSize > 0 {
		available = v.TypicalAskDepth
	}
	if required == 0 {
		return 1.0
	}
	return math.Min(1.0, available/required)
}

func clampBudget(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
