package feed

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hftengine/internal/core"
	infrahttp "hftengine/internal/infrastructure/http"
	apperrors "hftengine/pkg/errors"
)

// HMACSigner signs outbound venue requests the way the teacher's
// exchange adapters sign Binance requests: an API key header plus an
// HMAC-SHA256 query signature over the request's query string.
type HMACSigner struct {
	APIKey    string
	SecretKey string
}

// SignRequest implements infrastructure/http.Signer.
func (s HMACSigner) SignRequest(req *http.Request) error {
	req.Header.Set("X-API-KEY", s.APIKey)

	q := req.URL.Query()
	if q.Get("timestamp") == "" {
		q.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))
	}

	mac := hmac.New(sha256.New, []byte(s.SecretKey))
	mac.Write([]byte(q.Encode()))
	q.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	req.URL.RawQuery = q.Encode()

	return nil
}

// HTTPOrderSink posts routed order events to the selected venue's
// REST endpoint. It implements pipeline.OrderSink.
type HTTPOrderSink struct {
	clients map[string]*infrahttp.Client
	logger  core.ILogger
}

// NewHTTPOrderSink builds a sink with one signed client per venue
// endpoint.
func NewHTTPOrderSink(logger core.ILogger) *HTTPOrderSink {
	return &HTTPOrderSink{
		clients: make(map[string]*infrahttp.Client),
		logger:  logger,
	}
}

// RegisterVenue wires a venue's REST endpoint and credentials into
// the sink. Calling it again for the same venueID replaces the
// client.
func (s *HTTPOrderSink) RegisterVenue(venueID, endpoint string, signer HMACSigner) {
	s.clients[venueID] = infrahttp.NewClient(endpoint, 5*time.Second, signer)
}

type orderRequest struct {
	OrderID   string  `json:"order_id"`
	Side      string  `json:"side"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
}

// Accept implements pipeline.OrderSink. A venue with no registered
// REST client (e.g. in tests, or a venue added through the admin API
// without credentials) is logged and dropped rather than treated as
// a fatal error: routing already happened, this is best-effort
// delivery to the chosen venue.
func (s *HTTPOrderSink) Accept(e core.OrderEvent) {
	client, ok := s.clients[e.Decision.SelectedVenue]
	if !ok {
		if s.logger != nil {
			s.logger.Warn("no REST client registered for selected venue, dropping order", "venue", e.Decision.SelectedVenue)
		}
		return
	}

	side := "BUY"
	price := e.Quotes.BidPrice
	size := e.Quotes.BidSize
	if e.Quotes.AskSize > 0 && e.Quotes.BidSize == 0 {
		side = "SELL"
		price = e.Quotes.AskPrice
		size = e.Quotes.AskSize
	}

	req := orderRequest{
		OrderID:   e.OrderID,
		Side:      side,
		Price:     price,
		Size:      size,
		Timestamp: e.Timestamp,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Post(ctx, "/orders", req); err != nil {
		classified := classifyVenueError(err)
		if s.logger != nil {
			s.logger.Error("order submission failed", "venue", e.Decision.SelectedVenue, "order_id", e.OrderID, "error", classified)
		}
	}
}

// classifyVenueError maps a venue's HTTP status code onto the shared
// sentinel errors, the way the teacher's Binance adapter maps Binance's
// numeric error codes in parseError.
func classifyVenueError(err error) error {
	var apiErr *infrahttp.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.ErrAuthenticationFailed
	case http.StatusTooManyRequests:
		return apperrors.ErrRateLimitExceeded
	case http.StatusConflict:
		return apperrors.ErrDuplicateOrder
	case http.StatusNotFound:
		return apperrors.ErrOrderNotFound
	case http.StatusServiceUnavailable:
		return apperrors.ErrExchangeMaintenance
	default:
		return err
	}
}
