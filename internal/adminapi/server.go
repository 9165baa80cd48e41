// Package adminapi exposes the operator/control-plane surface: a gRPC
// health-check service (the standard grpc_health_v1, so no
// application-specific protobuf codegen is required) plus a JSON HTTP
// handler for venue/router introspection and operator add/remove-venue
// actions. The gRPC server is authenticated by internal/auth's API-key
// interceptor when a validator is supplied; the HTTP handler performs
// no authentication of its own.
package adminapi

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"hftengine/internal/auth"
	"hftengine/internal/core"
	"hftengine/internal/router"
	"hftengine/pkg/tradingutils"
)

// GRPCServer wraps a grpc.Server serving the standard health-check
// service behind the API-key interceptor.
type GRPCServer struct {
	server  *grpc.Server
	health  *health.Server
	logger  core.ILogger
}

// NewGRPCServer constructs the admin gRPC server. validator may be nil
// in a development/test build to skip authentication.
func NewGRPCServer(validator *auth.APIKeyValidator, logger core.ILogger) *GRPCServer {
	var opts []grpc.ServerOption
	if validator != nil {
		opts = append(opts,
			grpc.UnaryInterceptor(validator.UnaryServerInterceptor()),
			grpc.StreamInterceptor(validator.StreamServerInterceptor()),
		)
	}

	s := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)

	return &GRPCServer{server: s, health: healthServer, logger: logger}
}

// SetServing updates the health status reported for the overall
// service (the empty service name, per grpc_health_v1 convention).
func (g *GRPCServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	g.health.SetServingStatus("", status)
}

// Serve blocks accepting connections on lis.
func (g *GRPCServer) Serve(lis net.Listener) error {
	return g.server.Serve(lis)
}

// GracefulStop drains in-flight RPCs and stops the server.
func (g *GRPCServer) GracefulStop() {
	g.server.GracefulStop()
}

// venueSnapshot is the JSON wire shape for the admin HTTP surface.
type venueSnapshot struct {
	VenueID      string  `json:"venue_id"`
	IsConnected  bool    `json:"is_connected"`
	EMARTTUS     float64 `json:"ema_rtt_us"`
	StdDevRTTUS  float64 `json:"std_dev_rtt_us"`
	OrdersSent   int64   `json:"orders_sent"`
	OrdersFilled int64   `json:"orders_filled"`
	FillRate     float64 `json:"fill_rate"`
	MinOrderSize float64 `json:"min_order_size"`
	MaxOrderSize float64 `json:"max_order_size"`
}

// Handler builds the JSON admin HTTP mux: GET /venues for a snapshot,
// POST /venues to register a new venue, POST /venues/remove with a JSON
// body {"venue_id": ...} to remove one. rt is the live router instance
// whose registry and tracker this mutates.
func Handler(rt *router.Router) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/venues", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handleListVenues(w, rt)
		case http.MethodPost:
			handleAddVenue(w, r, rt)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/venues/remove", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleRemoveVenue(w, r, rt)
	})

	return mux
}

func handleListVenues(w http.ResponseWriter, rt *router.Router) {
	states := rt.Tracker().AllStates()
	snapshots := make([]venueSnapshot, 0, len(states))
	for id, s := range states {
		snap := venueSnapshot{
			VenueID:      id,
			IsConnected:  s.IsConnected,
			EMARTTUS:     roundDisplay(s.EMARTTUS, 2),
			StdDevRTTUS:  roundDisplay(s.StdDevRTTUS, 2),
			OrdersSent:   s.OrdersSent,
			OrdersFilled: s.OrdersFilled,
			FillRate:     roundDisplay(s.ObservedFillRate(), 4),
		}
		if v, ok := rt.Venue(id); ok {
			snap.MinOrderSize = roundQuantityDisplay(v.MinOrderSize)
			snap.MaxOrderSize = roundQuantityDisplay(v.MaxOrderSize)
		}
		snapshots = append(snapshots, snap)
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func handleAddVenue(w http.ResponseWriter, r *http.Request, rt *router.Router) {
	var v core.Venue
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "invalid venue payload", http.StatusBadRequest)
		return
	}
	if v.VenueID == "" {
		http.Error(w, "venue_id is required", http.StatusBadRequest)
		return
	}
	rt.RegisterVenue(v)
	w.WriteHeader(http.StatusCreated)
}

func handleRemoveVenue(w http.ResponseWriter, r *http.Request, rt *router.Router) {
	var req struct {
		VenueID string `json:"venue_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VenueID == "" {
		http.Error(w, "venue_id is required", http.StatusBadRequest)
		return
	}
	rt.RemoveVenue(req.VenueID)
	w.WriteHeader(http.StatusNoContent)
}

// roundDisplay rounds a price-like value for operator display,
// avoiding raw float noise (e.g. 499.99999999997) in the JSON surface.
func roundDisplay(v float64, decimals int32) float64 {
	rounded := tradingutils.RoundPrice(decimal.NewFromFloat(v), int(decimals))
	f, _ := rounded.Float64()
	return f
}

// roundQuantityDisplay rounds an order-size value for operator display.
func roundQuantityDisplay(v float64) float64 {
	rounded := tradingutils.RoundQuantity(decimal.NewFromFloat(v), 6)
	f, _ := rounded.Float64()
	return f
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
