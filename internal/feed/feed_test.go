package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftengine/internal/core"
	infrahttp "hftengine/internal/infrastructure/http"
	apperrors "hftengine/pkg/errors"
)

type testLogger struct{}

func (testLogger) Debug(msg string, fields ...interface{}) {}
func (testLogger) Info(msg string, fields ...interface{})  {}
func (testLogger) Warn(msg string, fields ...interface{})  {}
func (testLogger) Error(msg string, fields ...interface{}) {}
func (testLogger) Fatal(msg string, fields ...interface{}) {}
func (l testLogger) WithField(key string, value interface{}) core.ILogger   { return l }
func (l testLogger) WithFields(fields map[string]interface{}) core.ILogger  { return l }

func TestWSTickSourceParsesValidMessage(t *testing.T) {
	s := NewWSTickSource("ws://unused", testLogger{})
	s.onMessage([]byte(`{"bid_price":100.0,"ask_price":100.2,"bid_size":5,"ask_size":5,"timestamp_ns":123}`))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tick, err := s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100.0, tick.BidPrice)
	assert.Equal(t, 100.2, tick.AskPrice)
	assert.InDelta(t, 100.1, tick.MidPrice, 1e-9)
}

func TestWSTickSourceDropsUnparseableMessage(t *testing.T) {
	s := NewWSTickSource("ws://unused", testLogger{})
	s.onMessage([]byte(`not json`))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	assert.Error(t, err)
}

func TestWSTickSourceNextRespectsContextCancellation(t *testing.T) {
	s := NewWSTickSource("ws://unused", testLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Next(ctx)
	assert.Error(t, err)
}

func TestHMACSignerAddsHeaderAndSignature(t *testing.T) {
	signer := HMACSigner{APIKey: "key123", SecretKey: "secret"}
	req, err := http.NewRequest(http.MethodGet, "http://example.com/orders?timestamp=1000", nil)
	require.NoError(t, err)

	require.NoError(t, signer.SignRequest(req))

	assert.Equal(t, "key123", req.Header.Get("X-API-KEY"))
	q := req.URL.Query()
	assert.NotEmpty(t, q.Get("signature"))
	assert.Equal(t, "1000", q.Get("timestamp"))
}

func TestHTTPOrderSinkPostsToRegisteredVenue(t *testing.T) {
	received := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewHTTPOrderSink(testLogger{})
	sink.RegisterVenue("BINANCE", srv.URL, HMACSigner{APIKey: "k", SecretKey: "s"})

	sink.Accept(core.OrderEvent{
		OrderID: "abc123",
		Quotes:  core.Quotes{BidPrice: 100, BidSize: 5},
		Decision: core.RoutingDecision{
			SelectedVenue: "BINANCE",
		},
		Timestamp: time.Now().UnixNano(),
	})

	select {
	case r := <-received:
		u, _ := url.Parse(r.URL.String())
		assert.Equal(t, "/orders", u.Path)
	case <-time.After(time.Second):
		t.Fatal("expected the sink to POST to the registered venue")
	}
}

func TestClassifyVenueErrorMapsKnownStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, apperrors.ErrAuthenticationFailed},
		{http.StatusForbidden, apperrors.ErrAuthenticationFailed},
		{http.StatusTooManyRequests, apperrors.ErrRateLimitExceeded},
		{http.StatusConflict, apperrors.ErrDuplicateOrder},
		{http.StatusNotFound, apperrors.ErrOrderNotFound},
		{http.StatusServiceUnavailable, apperrors.ErrExchangeMaintenance},
	}
	for _, tc := range cases {
		err := &infrahttp.APIError{StatusCode: tc.status, Body: []byte("{}")}
		assert.Equal(t, tc.want, classifyVenueError(err))
	}
}

func TestClassifyVenueErrorPassesThroughUnknownStatus(t *testing.T) {
	err := &infrahttp.APIError{StatusCode: http.StatusInternalServerError, Body: []byte("boom")}
	assert.Same(t, err, classifyVenueError(err).(*infrahttp.APIError))
}

func TestClassifyVenueErrorPassesThroughNonAPIError(t *testing.T) {
	err := errors.New("dial tcp: connection refused")
	assert.Equal(t, err, classifyVenueError(err))
}

func TestHTTPOrderSinkDropsUnknownVenue(t *testing.T) {
	sink := NewHTTPOrderSink(testLogger{})
	// No venue registered; Accept must not panic.
	sink.Accept(core.OrderEvent{
		OrderID:  "xyz",
		Decision: core.RoutingDecision{SelectedVenue: "UNKNOWN"},
	})
}
