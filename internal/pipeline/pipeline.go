// Package pipeline wires the A->B->E->C->D->G data flow (spec §2) into
// concurrent stages connected by the SPSC ring buffer (Component A):
// a market-data thread that only decodes/ingests raw ticks and writes
// them into the ring, and a strategy thread that exclusively owns the
// Hawkes engine, the quoting strategy, and the inference engine,
// popping ticks from the ring and invoking the router directly (spec
// §5 permits router invocation from the strategy thread). A third,
// independent thread drives venue heartbeats/timeouts. Grounded on the
// teacher's internal/bootstrap.Runner convention: each stage is a
// Runner started under the same errgroup.
package pipeline

import (
	"context"
	"time"

	"hftengine/internal/clock"
	"hftengine/internal/core"
	"hftengine/internal/hawkes"
	"hftengine/internal/inference"
	"hftengine/internal/quoting"
	"hftengine/internal/ringbuffer"
	"hftengine/internal/risk"
	"hftengine/internal/router"
	"hftengine/internal/venue"
)

// TickSource is the market-data collaborator. The pipeline owns no
// exchange connectivity (spec Non-goals); production wiring supplies a
// TickSource backed by a real feed, tests supply a synthetic one.
type TickSource interface {
	Next(ctx context.Context) (core.MarketTick, error)
}

// OrderSink receives routed order events for downstream bookkeeping
// (persistence, alerting, telemetry export are all out of the
// pipeline's own concern — it just hands the event off).
type OrderSink interface {
	Accept(core.OrderEvent)
}

// OrderSinkFunc adapts a function to OrderSink.
type OrderSinkFunc func(core.OrderEvent)

// Accept implements OrderSink.
func (f OrderSinkFunc) Accept(e core.OrderEvent) { f(e) }

// HawkesConfig parameterizes the multi-kernel intensity engine.
type HawkesConfig struct {
	MuBuy      float64
	MuSell     float64
	AlphaSelf  []float64
	AlphaCross []float64
	Beta       []float64
}

// Config aggregates every knob the pipeline's stages need.
type Config struct {
	Hawkes       HawkesConfig
	Quoting      quoting.Params
	RiskPolicy   core.RiskPolicy
	Routing      core.RoutingConfig
	Venues       []core.Venue
	RingCapacity int // must be a power of two; reserves one slot
}

// DefaultConfig returns boot-time defaults grounded on the original
// tool's per-component default_config()/constructor values.
func DefaultConfig() Config {
	return Config{
		Hawkes: HawkesConfig{
			MuBuy: 10, MuSell: 10,
			AlphaSelf:  []float64{0.5, 0.4, 0.3, 0.2},
			AlphaCross: []float64{0.1, 0.1, 0.05, 0.05},
			Beta:       []float64{100, 10, 1, 0.1},
		},
		Quoting:      quoting.DefaultAvellanedaStoikovParams(),
		RiskPolicy:   core.PolicyModerate,
		Routing:      router.DefaultConfig(),
		Venues:       router.DefaultVenues(),
		RingCapacity: 1024,
	}
}

// Pipeline owns the shared components and the ring buffer connecting
// the market-data producer to the strategy consumer.
type Pipeline struct {
	cfg    Config
	clock  clock.Clock
	logger core.ILogger

	hawkesEngine *hawkes.State
	inferEngine  *inference.Engine
	strategy     *quoting.Strategy
	riskGate     *risk.Gate
	tracker      *venue.Tracker
	rt           *router.Router

	ticks *ringbuffer.Ring[core.MarketTick]

	position float64
	dailyPnL float64
	lastTick core.MarketTick
	sink     OrderSink
}

// New constructs a Pipeline from cfg. logger and sink must be
// non-nil; clk defaults to clock.NewSystem() if nil.
func New(cfg Config, clk clock.Clock, logger core.ILogger, sink OrderSink) *Pipeline {
	if clk == nil {
		clk = clock.NewSystem()
	}

	tracker := venue.New(cfg.Routing)
	strategy := quoting.New(cfg.Quoting)
	rt := router.New(cfg.Routing, strategy, tracker)
	for _, v := range cfg.Venues {
		rt.RegisterVenue(v)
	}

	return &Pipeline{
		cfg:          cfg,
		clock:        clk,
		logger:       logger,
		hawkesEngine: hawkes.New(cfg.Hawkes.MuBuy, cfg.Hawkes.MuSell, cfg.Hawkes.AlphaSelf, cfg.Hawkes.AlphaCross, cfg.Hawkes.Beta),
		inferEngine:  inference.New(),
		strategy:     strategy,
		riskGate:     risk.New(cfg.RiskPolicy),
		tracker:      tracker,
		rt:           rt,
		ticks:        ringbuffer.New[core.MarketTick](cfg.RingCapacity),
		sink:         sink,
	}
}

// Tracker exposes the venue health tracker for the admin surface.
func (p *Pipeline) Tracker() *venue.Tracker { return p.tracker }

// Router exposes the smart order router for the admin surface.
func (p *Pipeline) Router() *router.Router { return p.rt }

// MarketDataRunner is the market-data thread (spec §5 producer): it
// owns the inbound feed decoder exclusively and does nothing but drain
// TickSource and publish raw ticks into the SPSC ring. It never
// touches the Hawkes engine, inference, quoting, or the risk gate, so
// a slow strategy consumer cannot stall feed decoding and a burst of
// ticks is absorbed by the ring rather than by blocking ingestion on
// the inference engine's fixed-latency pad.
type MarketDataRunner struct {
	p      *Pipeline
	source TickSource
}

// NewMarketDataRunner constructs the ingest stage.
func NewMarketDataRunner(p *Pipeline, source TickSource) *MarketDataRunner {
	return &MarketDataRunner{p: p, source: source}
}

// Run implements bootstrap.Runner.
func (r *MarketDataRunner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tick, err := r.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.p.logger.Warn("market data source error", "error", err)
			continue
		}

		if !r.p.ticks.Push(tick) {
			r.p.logger.Warn("market tick ring buffer full, dropping tick")
		}
	}
}

// StrategyRunner is the strategy thread (spec §5 consumer, hot path):
// it exclusively owns the Hawkes engine, the quoting strategy, and the
// inference engine. It pops raw ticks from the ring and runs the full
// B->E->C->D->G portion of the data flow synchronously: Hawkes update,
// feature extraction, inference, quoting, risk gating, and router
// invocation (spec §5 permits the router to run from the strategy
// thread rather than a thread of its own). A rejection at any gate is
// not an error, it is the gate doing its job, so processing simply
// moves on to the next tick.
type StrategyRunner struct {
	p *Pipeline
}

// NewStrategyRunner constructs the strategy/consumer stage.
func NewStrategyRunner(p *Pipeline) *StrategyRunner {
	return &StrategyRunner{p: p}
}

// Run implements bootstrap.Runner.
func (r *StrategyRunner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tick, ok := r.p.ticks.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
			}
			continue
		}

		r.p.processTick(tick)
	}
}

// processTick runs the B->E->C->D->G portion of the data flow: Hawkes
// update, feature extraction, inference, quoting, risk gating, and
// routing. Accepted orders are handed to the sink; rejected ones are
// dropped at whichever gate rejected them.
func (p *Pipeline) processTick(tick core.MarketTick) {
	now := p.clock.Now().Nanos()

	isBuy := tick.MidPrice >= p.lastTick.MidPrice
	p.hawkesEngine.Update(now, isBuy)

	buyIntensity := p.hawkesEngine.BuyIntensity(now)
	sellIntensity := p.hawkesEngine.SellIntensity(now)

	features := inference.ExtractFeatures(tick, p.lastTick, tick, buyIntensity, sellIntensity)
	regimeOutput := p.inferEngine.Predict(features)
	regime := classifyRegime(regimeOutput)

	volatility := estimateVolatility(tick, p.lastTick)
	timeRemaining := 300.0 // seconds; a fixed quoting horizon, spec §4.C has no venue-fed horizon source

	quotes := p.strategy.Quote(tick.MidPrice, p.position, volatility, timeRemaining)
	p.lastTick = tick

	if quotes.IsZero() {
		return
	}

	latencyCost := p.strategy.LatencyCost(volatility, tick.MidPrice)
	if !p.strategy.ShouldQuote(quotes.Spread, latencyCost) {
		return
	}

	side := core.Buy
	size := quotes.BidSize
	if buyIntensity < sellIntensity {
		side = core.Sell
		size = quotes.AskSize
	}

	spreadBps := (quotes.Spread / tick.MidPrice) * 10000.0
	ok, reason := p.riskGate.CheckOrder(p.position, size, side, p.dailyPnL, spreadBps)
	if !ok {
		p.logger.Debug("order rejected by risk gate", "reason", reason)
		return
	}

	orderSize := size
	if side == core.Sell {
		orderSize = -orderSize
	}

	decision := p.rt.RouteOrder(tick.MidPrice, volatility, p.position, orderSize, regime, nil)
	if decision.Rejected() {
		p.logger.Warn("router rejected order", "reason", decision.RejectionReason)
		return
	}

	p.sink.Accept(core.OrderEvent{
		OrderID:   router.NewOrderID(),
		Quotes:    quotes,
		Decision:  decision,
		Timestamp: p.clock.Now().Nanos(),
	})
}

// RouterRunner periodically sends heartbeat probes and checks
// venue-timeout state. A real deployment's venue transport answers the
// probes asynchronously (via ReceiveHeartbeat); this pipeline owns no
// venue transport (spec Non-goals), so it only drives the send/timeout
// side of the state machine.
type RouterRunner struct {
	p        *Pipeline
	interval time.Duration
}

// NewRouterRunner constructs the heartbeat-and-timeout stage.
func NewRouterRunner(p *Pipeline, interval time.Duration) *RouterRunner {
	return &RouterRunner{p: p, interval: interval}
}

// Run implements bootstrap.Runner.
func (r *RouterRunner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := r.p.clock.Now().Nanos()
			for id := range r.p.tracker.AllStates() {
				r.p.tracker.SendHeartbeat(id, now)
			}
			r.p.tracker.CheckTimeouts(now)
		}
	}
}

func classifyRegime(softmaxOutput [3]float64) core.MarketRegime {
	maxIdx := 0
	for i := 1; i < 3; i++ {
		if softmaxOutput[i] > softmaxOutput[maxIdx] {
			maxIdx = i
		}
	}
	switch maxIdx {
	case 1:
		return core.RegimeElevatedVolatility
	case 2:
		return core.RegimeHighStress
	default:
		return core.RegimeNormal
	}
}

func estimateVolatility(current, previous core.MarketTick) float64 {
	if previous.MidPrice <= 0 {
		return 0.01
	}
	ret := (current.MidPrice - previous.MidPrice) / previous.MidPrice
	if ret < 0 {
		ret = -ret
	}
	if ret < 1e-6 {
		return 0.01
	}
	return ret
}
