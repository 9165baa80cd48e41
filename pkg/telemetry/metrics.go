package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names
const (
	MetricHawkesBuyIntensity    = "hftengine_hawkes_buy_intensity"
	MetricHawkesSellIntensity   = "hftengine_hawkes_sell_intensity"
	MetricQuoteSpread           = "hftengine_quote_spread"
	MetricQuotesRefusedTotal    = "hftengine_quotes_refused_total"
	MetricInferenceOverrunTotal = "hftengine_inference_overrun_total"
	MetricRiskRejectedTotal     = "hftengine_risk_rejected_total"
	MetricRouterCompositeScore  = "hftengine_router_composite_score"
	MetricRouterRejectedTotal   = "hftengine_router_rejected_total"
	MetricVenueRTT              = "hftengine_venue_rtt_us"
	MetricVenueConnected        = "hftengine_venue_connected"
	MetricPositionSize          = "hftengine_position_size"
)

// MetricsHolder holds initialized instruments
type MetricsHolder struct {
	HawkesBuyIntensity    metric.Float64ObservableGauge
	HawkesSellIntensity   metric.Float64ObservableGauge
	QuoteSpread           metric.Float64Histogram
	QuotesRefusedTotal    metric.Int64Counter
	InferenceOverrunTotal metric.Int64Counter
	RiskRejectedTotal     metric.Int64Counter
	RouterCompositeScore  metric.Float64Histogram
	RouterRejectedTotal   metric.Int64Counter
	VenueRTT              metric.Float64ObservableGauge
	VenueConnected        metric.Int64ObservableGauge
	PositionSize          metric.Float64ObservableGauge

	mu               sync.RWMutex
	hawkesBuyMap     map[string]float64
	hawkesSellMap    map[string]float64
	venueRTTMap      map[string]float64
	venueConnMap     map[string]int64
	positionSizeMap  map[string]float64
}

var (
	globalMetrics *MetricsHolder
	initOnce      sync.Once
)

// GetGlobalMetrics returns the singleton metrics holder
func GetGlobalMetrics() *MetricsHolder {
	initOnce.Do(func() {
		globalMetrics = &MetricsHolder{
			hawkesBuyMap:    make(map[string]float64),
			hawkesSellMap:   make(map[string]float64),
			venueRTTMap:     make(map[string]float64),
			venueConnMap:    make(map[string]int64),
			positionSizeMap: make(map[string]float64),
		}
	})
	return globalMetrics
}

// InitMetrics initializes instruments using the meter
func (m *MetricsHolder) InitMetrics(meter metric.Meter) error {
	var err error

	m.QuoteSpread, err = meter.Float64Histogram(MetricQuoteSpread, metric.WithDescription("Quoted bid/ask spread"))
	if err != nil {
		return err
	}

	m.QuotesRefusedTotal, err = meter.Int64Counter(MetricQuotesRefusedTotal, metric.WithDescription("Total quotes refused (degenerate input or spread below latency cost)"))
	if err != nil {
		return err
	}

	m.InferenceOverrunTotal, err = meter.Int64Counter(MetricInferenceOverrunTotal, metric.WithDescription("Total inference calls whose forward pass alone exceeded the fixed latency floor"))
	if err != nil {
		return err
	}

	m.RiskRejectedTotal, err = meter.Int64Counter(MetricRiskRejectedTotal, metric.WithDescription("Total orders rejected by the risk gate"))
	if err != nil {
		return err
	}

	m.RouterCompositeScore, err = meter.Float64Histogram(MetricRouterCompositeScore, metric.WithDescription("Composite score of the selected venue per routed order"))
	if err != nil {
		return err
	}

	m.RouterRejectedTotal, err = meter.Int64Counter(MetricRouterRejectedTotal, metric.WithDescription("Total orders the router could not place at any venue"))
	if err != nil {
		return err
	}

	m.HawkesBuyIntensity, err = meter.Float64ObservableGauge(MetricHawkesBuyIntensity, metric.WithDescription("Current buy-side Hawkes intensity"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for sym, val := range m.hawkesBuyMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("symbol", sym)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.HawkesSellIntensity, err = meter.Float64ObservableGauge(MetricHawkesSellIntensity, metric.WithDescription("Current sell-side Hawkes intensity"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for sym, val := range m.hawkesSellMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("symbol", sym)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.VenueRTT, err = meter.Float64ObservableGauge(MetricVenueRTT, metric.WithDescription("Current EMA round-trip time per venue, microseconds"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for venueID, val := range m.venueRTTMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("venue", venueID)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.VenueConnected, err = meter.Int64ObservableGauge(MetricVenueConnected, metric.WithDescription("Venue connectivity state (1=connected, 0=disconnected)"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for venueID, val := range m.venueConnMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("venue", venueID)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	m.PositionSize, err = meter.Float64ObservableGauge(MetricPositionSize, metric.WithDescription("Current inventory position"),
		metric.WithFloat64Callback(func(ctx context.Context, obs metric.Float64Observer) error {
			m.mu.RLock()
			defer m.mu.RUnlock()
			for sym, val := range m.positionSizeMap {
				obs.Observe(val, metric.WithAttributes(attribute.String("symbol", sym)))
			}
			return nil
		}))
	if err != nil {
		return err
	}

	return nil
}

// Helpers to update observable state

func (m *MetricsHolder) SetHawkesIntensity(symbol string, buy, sell float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hawkesBuyMap[symbol] = buy
	m.hawkesSellMap[symbol] = sell
}

func (m *MetricsHolder) SetVenueRTT(venueID string, rttUS float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venueRTTMap[venueID] = rttUS
}

func (m *MetricsHolder) SetVenueConnected(venueID string, connected bool) {
	val := int64(0)
	if connected {
		val = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venueConnMap[venueID] = val
}

func (m *MetricsHolder) SetPositionSize(symbol string, size float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionSizeMap[symbol] = size
}

func (m *MetricsHolder) GetHawkesBuyIntensity() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]float64, len(m.hawkesBuyMap))
	for k, v := range m.hawkesBuyMap {
		res[k] = v
	}
	return res
}

func (m *MetricsHolder) GetPositionSize() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]float64, len(m.positionSizeMap))
	for k, v := range m.positionSizeMap {
		res[k] = v
	}
	return res
}
