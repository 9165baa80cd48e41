package adminapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftengine/internal/core"
	"hftengine/internal/quoting"
	"hftengine/internal/router"
	"hftengine/internal/venue"
)

func newTestRouter() *router.Router {
	cfg := router.DefaultConfig()
	q := quoting.New(quoting.DefaultAvellanedaStoikovParams())
	tr := venue.New(cfg)
	r := router.New(cfg, q, tr)
	for _, v := range router.DefaultVenues() {
		r.RegisterVenue(v)
	}
	return r
}

func TestListVenuesReturnsSnapshot(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var snapshots []venueSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	assert.Len(t, snapshots, 3)
}

func TestAddVenueRegistersWithRouter(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	body, _ := json.Marshal(core.Venue{VenueID: "OKX", IsActive: true, BaselineLatencyUS: 600})
	req := httptest.NewRequest(http.MethodPost, "/venues", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	_, ok := rt.Tracker().State("OKX")
	assert.True(t, ok)
}

func TestRemoveVenueDropsFromRouter(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	body, _ := json.Marshal(map[string]string{"venue_id": "BINANCE"})
	req := httptest.NewRequest(http.MethodPost, "/venues/remove", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	_, ok := rt.Tracker().State("BINANCE")
	assert.False(t, ok)
}

func TestListVenuesRoundsDisplayValues(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var snapshots []venueSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	for _, s := range snapshots {
		assert.LessOrEqual(t, decimalPlaces(s.FillRate), 4)
	}
}

func decimalPlaces(v float64) int {
	s := fmt.Sprintf("%v", v)
	for i, c := range s {
		if c == '.' {
			return len(s) - i - 1
		}
	}
	return 0
}

func TestListVenuesIncludesOrderSizeLimits(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	req := httptest.NewRequest(http.MethodGet, "/venues", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var snapshots []venueSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshots))
	for _, s := range snapshots {
		assert.Greater(t, s.MaxOrderSize, s.MinOrderSize)
	}
}

func TestAddVenueRejectsEmptyID(t *testing.T) {
	rt := newTestRouter()
	h := Handler(rt)

	body, _ := json.Marshal(core.Venue{})
	req := httptest.NewRequest(http.MethodPost, "/venues", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
