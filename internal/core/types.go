package core

// MaxDepthLevels bounds the per-level size arrays carried by a
// MarketTick. It is a compile-time constant, not a config value: the
// original source encodes depth as a fixed-size template array, and the
// Go analogue is a fixed-size array field sized to this bound.
const MaxDepthLevels = 10

// Side identifies the aggressor side of a trading event or order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// Sign returns +1 for Buy, -1 for Sell, matching the sign(side) term
// used by the risk gate's position-limit check.
func (s Side) Sign() float64 {
	if s == Sell {
		return -1
	}
	return 1
}

// MarketTick is a snapshot of a trading instrument's book.
type MarketTick struct {
	MidPrice    float64
	BidPrice    float64
	AskPrice    float64
	BidSize     float64
	AskSize     float64
	TradeVolume float64
	BidSizes    [MaxDepthLevels]float64
	AskSizes    [MaxDepthLevels]float64
	DepthLevels int
	Timestamp   int64 // nanoseconds, from Clock
}

// TradingEvent is a single arrival used to drive the Hawkes engine.
type TradingEvent struct {
	ArrivalTime int64 // nanoseconds
	Side        Side
}

// Quotes is the output of the quoting strategy. When the strategy
// refuses to quote on degenerate inputs, all four price/size fields are
// zero. Whether the spread covers the latency cost is decided
// separately and does not zero these fields.
type Quotes struct {
	MidPrice float64
	BidPrice float64
	AskPrice float64
	Spread   float64
	BidSize  float64
	AskSize  float64
}

// IsZero reports whether the strategy refused to quote.
func (q Quotes) IsZero() bool {
	return q.BidPrice == 0 && q.AskPrice == 0 && q.BidSize == 0 && q.AskSize == 0
}

// MicrostructureFeatures is the fixed-size input vector to the
// inference engine: 12 doubles, in a fixed, documented order.
type MicrostructureFeatures struct {
	OFIDepth1        float64 // order-flow imbalance at depth 1
	OFIDepth5        float64 // order-flow imbalance at depth 5
	OFIDepth10       float64 // order-flow imbalance at depth 10
	SpreadRatio      float64 // spread ratio vs a reference asset; neutral default 1.0
	PriceCorrelation float64 // reserved feature slot; always 0.0 until a correlation estimator exists (see DESIGN.md)
	VolumeImbalance  float64
	HawkesBuy        float64
	HawkesSell       float64
	HawkesImbalance  float64
	SpreadBps        float64
	MidPriceMomentum float64
	TradeFlowToxicity float64
}

// ToVector returns the 12 features in network input order.
func (f MicrostructureFeatures) ToVector() [12]float64 {
	return [12]float64{
		f.OFIDepth1, f.OFIDepth5, f.OFIDepth10,
		f.SpreadRatio, f.PriceCorrelation, f.VolumeImbalance,
		f.HawkesBuy, f.HawkesSell, f.HawkesImbalance,
		f.SpreadBps, f.MidPriceMomentum, f.TradeFlowToxicity,
	}
}

// MarketRegime classifies book stress, driving both the router's
// urgency multiplier and (optionally) inference-output interpretation.
type MarketRegime int

const (
	RegimeNormal MarketRegime = iota
	RegimeElevatedVolatility
	RegimeHighStress
	RegimeHalted
)

func (r MarketRegime) String() string {
	switch r {
	case RegimeElevatedVolatility:
		return "ELEVATED_VOLATILITY"
	case RegimeHighStress:
		return "HIGH_STRESS"
	case RegimeHalted:
		return "HALTED"
	default:
		return "NORMAL"
	}
}

// UrgencyMultiplier is the per-regime multiplier applied to the
// router's latency budget (spec §4.G).
func (r MarketRegime) UrgencyMultiplier() float64 {
	switch r {
	case RegimeElevatedVolatility:
		return 1.5
	case RegimeHighStress:
		return 3.0
	case RegimeHalted:
		return 10.0
	default:
		return 1.0
	}
}

// RiskPolicy is the closed set of compile/boot-time risk-policy tags.
// Each tag selects a RiskParameters table at construction time; there
// is no runtime polymorphism or virtual dispatch over this set.
type RiskPolicy int

const (
	PolicyStrict RiskPolicy = iota
	PolicyModerate
	PolicyAggressive
)

func (p RiskPolicy) String() string {
	switch p {
	case PolicyModerate:
		return "moderate"
	case PolicyAggressive:
		return "aggressive"
	default:
		return "strict"
	}
}

// RiskParameters holds the thresholds the risk gate checks every
// candidate order against. Indexed by RiskPolicy.
type RiskParameters struct {
	MaxPositionSize   float64
	MaxOrderSize      float64
	MaxDailyLoss      float64
	MinSpreadBps      float64
	AllowNakedShorts  bool
}

// Venue is a static-ish registry entry for a trading venue.
type Venue struct {
	VenueID           string
	IsActive          bool
	BaselineLatencyUS float64
	FeeBps            float64
	MinOrderSize      float64
	MaxOrderSize      float64
	TypicalBidDepth   float64
	TypicalAskDepth   float64
	FillRate          float64
}

// VenueState is the mutable per-venue connectivity/health record.
type VenueState struct {
	LastHBSentNanos     int64
	LastHBReceivedNanos int64
	CurrentRTTUS        float64
	EMARTTUS            float64
	StdDevRTTUS         float64
	IsConnected         bool
	ConsecutiveTimeouts int
	OrdersSent          int64
	OrdersFilled        int64
	OrdersRejected      int64
	OrdersTimeout       int64
	HBSent              int64
	HBReceived          int64
}

// ObservedFillRate returns the empirical fill rate, falling back to 1.0
// (optimistic) when no orders have been sent yet, so a brand-new venue
// is not immediately excluded by the router's min-fill-rate filter.
func (v VenueState) ObservedFillRate() float64 {
	if v.OrdersSent == 0 {
		return 1.0
	}
	return float64(v.OrdersFilled) / float64(v.OrdersSent)
}

// RoutingDecision is the output of a single route_order invocation.
type RoutingDecision struct {
	SelectedVenue     string
	ExpectedLatencyUS float64
	LatencyBudgetUS   float64
	PriceQuality      float64
	LatencyQuality    float64
	LiquidityQuality  float64
	CompositeScore    float64
	RejectionReason   string
}

// Rejected reports whether the router found no acceptable venue.
func (d RoutingDecision) Rejected() bool {
	return d.SelectedVenue == ""
}

// RoutingConfig parameterizes the router's budget derivation, candidate
// filter, and composite scoring weights.
type RoutingConfig struct {
	PriceWeight           float64
	LatencyWeight         float64
	LiquidityWeight       float64
	LatencySafetyMargin   float64 // in (0, 1]
	LatencySpikeThreshold float64 // stdev multiplier, typically 2-3
	MinFillRate           float64
	MinCompositeScore     float64
	HeartbeatIntervalMS   int64
	HeartbeatTimeoutMS    int64
	RTTEMAAlpha           float64 // in (0, 1)
}

// OrderEvent is the record handed to the (external) order-output
// collaborator: the routing decision plus the quotes that produced it.
type OrderEvent struct {
	OrderID   string
	Quotes    Quotes
	Decision  RoutingDecision
	Timestamp int64
}
