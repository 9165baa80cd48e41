// Package feed adapts the infrastructure transport clients (WebSocket,
// HTTP) to the pipeline's TickSource/OrderSink interfaces.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"hftengine/internal/core"
	"hftengine/internal/infrastructure/websocket"
)

// tickMessage is the wire shape of an inbound market data message.
type tickMessage struct {
	BidPrice    float64 `json:"bid_price"`
	AskPrice    float64 `json:"ask_price"`
	BidSize     float64 `json:"bid_size"`
	AskSize     float64 `json:"ask_size"`
	TradeVolume float64 `json:"trade_volume"`
	TimestampNS int64   `json:"timestamp_ns"`
}

// WSTickSource turns a resilient WebSocket feed into a pipeline.TickSource.
// Messages that fail to parse are dropped; the feed keeps running.
type WSTickSource struct {
	client *websocket.Client
	ticks  chan core.MarketTick
	logger core.ILogger
}

// NewWSTickSource dials url lazily (via Start) and decodes every
// inbound message as a tickMessage.
func NewWSTickSource(url string, logger core.ILogger) *WSTickSource {
	s := &WSTickSource{
		ticks:  make(chan core.MarketTick, 1024),
		logger: logger,
	}
	s.client = websocket.NewClient(url, s.onMessage, logger)
	return s
}

func (s *WSTickSource) onMessage(raw []byte) {
	var msg tickMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		if s.logger != nil {
			s.logger.Warn("discarding unparseable tick message", "error", err)
		}
		return
	}

	tick := core.MarketTick{
		BidPrice:    msg.BidPrice,
		AskPrice:    msg.AskPrice,
		BidSize:     msg.BidSize,
		AskSize:     msg.AskSize,
		TradeVolume: msg.TradeVolume,
		Timestamp:   msg.TimestampNS,
	}
	tick.MidPrice = (tick.BidPrice + tick.AskPrice) / 2

	select {
	case s.ticks <- tick:
	default:
		if s.logger != nil {
			s.logger.Warn("tick buffer full, dropping tick")
		}
	}
}

// Start begins the underlying WebSocket read loop.
func (s *WSTickSource) Start() { s.client.Start() }

// Stop tears down the underlying WebSocket connection.
func (s *WSTickSource) Stop() { s.client.Stop() }

// Next implements pipeline.TickSource.
func (s *WSTickSource) Next(ctx context.Context) (core.MarketTick, error) {
	select {
	case tick := <-s.ticks:
		return tick, nil
	case <-ctx.Done():
		return core.MarketTick{}, fmt.Errorf("tick source stopped: %w", ctx.Err())
	}
}
