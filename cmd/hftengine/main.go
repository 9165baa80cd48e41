// Command hftengine runs the market-making engine: ingesting ticks,
// estimating order-flow intensity and regime, quoting, risk-gating,
// and routing accepted orders to a venue.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"hftengine/internal/adminapi"
	"hftengine/internal/alert"
	"hftengine/internal/auth"
	"hftengine/internal/bootstrap"
	"hftengine/internal/config"
	"hftengine/internal/core"
	"hftengine/internal/feed"
	"hftengine/internal/infrastructure/health"
	inframetrics "hftengine/internal/infrastructure/metrics"
	infraserver "hftengine/internal/infrastructure/server"
	"hftengine/internal/pipeline"
	"hftengine/internal/quoting"
	"hftengine/pkg/logging"
	"hftengine/pkg/telemetry"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	feedURL    = flag.String("feed-url", "", "WebSocket market data feed URL")
)

func main() {
	flag.Parse()

	if envConfig := os.Getenv("CONFIG_FILE"); envConfig != "" {
		*configFile = envConfig
	}
	if envFeed := os.Getenv("FEED_URL"); envFeed != "" {
		*feedURL = envFeed
	}

	cfg, err := bootstrap.LoadConfig(*configFile)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		panic(err)
	}
	var logger core.ILogger = zapLogger
	logger.Info("starting hftengine", "symbol", cfg.App.Symbol, "service", cfg.App.ServiceName)

	tel, err := telemetry.Setup(cfg.App.ServiceName)
	if err != nil {
		logger.Fatal("telemetry setup failed", "error", err)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	riskPolicy, err := bootstrap.ParseRiskPolicy(cfg.Risk.Policy)
	if err != nil {
		logger.Fatal("invalid risk policy", "error", err)
	}

	pipelineCfg := pipeline.Config{
		Hawkes: pipeline.HawkesConfig{
			MuBuy:      cfg.Hawkes.MuBuy,
			MuSell:     cfg.Hawkes.MuSell,
			AlphaSelf:  cfg.Hawkes.AlphaSelf,
			AlphaCross: cfg.Hawkes.AlphaCross,
			Beta:       cfg.Hawkes.Beta,
		},
		Quoting:      quotingParamsFromConfig(cfg),
		RiskPolicy:   riskPolicy,
		Routing:      routingConfigFromConfig(cfg),
		Venues:       venuesFromConfig(cfg),
		RingCapacity: cfg.Concurrency.IntentRingCapacity,
	}
	if pipelineCfg.RingCapacity <= 0 {
		pipelineCfg.RingCapacity = 1024
	}

	sink := feed.NewHTTPOrderSink(logger)
	for id, v := range cfg.Venues {
		if !v.IsActive || v.Endpoint == "" {
			continue
		}
		sink.RegisterVenue(id, v.Endpoint, feed.HMACSigner{APIKey: v.APIKey.Plaintext(), SecretKey: v.SecretKey.Plaintext()})
	}

	pl := pipeline.New(pipelineCfg, nil, logger, sink)

	var source pipeline.TickSource
	if *feedURL != "" {
		ws := feed.NewWSTickSource(*feedURL, logger)
		ws.Start()
		defer ws.Stop()
		source = ws
	} else {
		logger.Warn("no feed-url configured, market data stage will idle until shutdown")
		source = noopTickSource{}
	}

	healthManager := health.NewHealthManager(logger)
	healthManager.Register("venue_connectivity", func() error {
		for _, s := range pl.Tracker().AllStates() {
			if s.IsConnected {
				return nil
			}
		}
		return fmt.Errorf("no venue currently connected")
	})

	alertManager := alert.NewAlertManager(logger)

	healthSrv := infraserver.NewHealthServer(fmt.Sprintf("%d", cfg.Telemetry.HealthPort), logger, healthManager)
	healthSrv.Start()
	defer func() { _ = healthSrv.Stop(context.Background()) }()

	if cfg.Telemetry.EnableMetrics {
		metricsSrv := inframetrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsSrv.Start()
		defer func() { _ = metricsSrv.Stop(context.Background()) }()
	}

	validator := auth.NewAPIKeyValidator(adminAPIKeys(cfg), 0, logger)
	grpcSrv := adminapi.NewGRPCServer(validator, logger)
	grpcSrv.SetServing(true)

	lis, err := net.Listen("tcp", cfg.Admin.GRPCPort)
	if err != nil {
		logger.Fatal("admin gRPC listen failed", "error", err)
	}
	go func() {
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("admin gRPC server stopped", "error", err)
		}
	}()
	defer grpcSrv.GracefulStop()

	adminHTTP := &http.Server{Addr: cfg.Admin.HTTPPort, Handler: adminapi.Handler(pl.Router())}
	go func() {
		if err := adminHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin HTTP server stopped", "error", err)
		}
	}()
	defer func() { _ = adminHTTP.Shutdown(context.Background()) }()

	runners := []bootstrap.Runner{
		pipeline.NewMarketDataRunner(pl, source),
		pipeline.NewStrategyRunner(pl),
		pipeline.NewRouterRunner(pl, time.Duration(cfg.Routing.HeartbeatIntervalMS)*time.Millisecond),
	}

	if err := run(runners, logger, alertManager); err != nil {
		logger.Fatal("engine stopped with error", "error", err)
	}
}

// run mirrors bootstrap.App.Run's signal-driven errgroup lifecycle,
// adapted to core.ILogger (bootstrap.App.Run is wired to *slog.Logger
// for the teacher's own CLI; this command uses the zap/OTel logger
// throughout instead).
func run(runners []bootstrap.Runner, logger core.ILogger, alertManager *alert.AlertManager) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		runner := r
		g.Go(func() error { return runner.Run(gctx) })
	}

	err := g.Wait()
	if err != nil && err != context.Canceled {
		alertManager.Alert(context.Background(), "engine stopped", err.Error(), alert.Critical, nil)
		return err
	}

	logger.Info("engine shut down gracefully")
	return nil
}

// noopTickSource blocks until the context is canceled, used when no
// live feed is configured (e.g. smoke-testing the admin surface alone).
type noopTickSource struct{}

func (noopTickSource) Next(ctx context.Context) (core.MarketTick, error) {
	<-ctx.Done()
	return core.MarketTick{}, ctx.Err()
}

func quotingParamsFromConfig(cfg *config.Config) quoting.Params {
	kind := quoting.AvellanedaStoikov
	if cfg.Quoting.Strategy == "simple_mm" {
		kind = quoting.SimpleMM
	}
	return quoting.Params{
		Kind:             kind,
		RiskAversion:     cfg.Quoting.RiskAversion,
		ArrivalRate:      cfg.Quoting.ArrivalRate,
		TickSize:         cfg.Quoting.TickSize,
		UnitSize:         cfg.Quoting.UnitSize,
		LatencyNanos:     cfg.Quoting.LatencyNanos,
		BaseSpreadBps:    cfg.Quoting.BaseSpreadBps,
		InventorySkewBps: cfg.Quoting.InventorySkewBps,
		MinSpreadBps:     cfg.Quoting.MinSpreadBps,
		MaxSpreadBps:     cfg.Quoting.MaxSpreadBps,
	}
}

func routingConfigFromConfig(cfg *config.Config) core.RoutingConfig {
	return core.RoutingConfig{
		PriceWeight:           cfg.Routing.PriceWeight,
		LatencyWeight:         cfg.Routing.LatencyWeight,
		LiquidityWeight:       cfg.Routing.LiquidityWeight,
		LatencySafetyMargin:   cfg.Routing.LatencySafetyMargin,
		LatencySpikeThreshold: cfg.Routing.LatencySpikeThreshold,
		MinFillRate:           cfg.Routing.MinFillRate,
		MinCompositeScore:     cfg.Routing.MinCompositeScore,
		HeartbeatIntervalMS:   cfg.Routing.HeartbeatIntervalMS,
		HeartbeatTimeoutMS:    cfg.Routing.HeartbeatTimeoutMS,
		RTTEMAAlpha:           cfg.Routing.RTTEMAAlpha,
	}
}

func venuesFromConfig(cfg *config.Config) []core.Venue {
	venues := make([]core.Venue, 0, len(cfg.Venues))
	for id, v := range cfg.Venues {
		if !v.IsActive {
			continue
		}
		venues = append(venues, core.Venue{
			VenueID:           id,
			IsActive:          v.IsActive,
			BaselineLatencyUS: v.BaselineLatencyUS,
			FeeBps:            v.FeeBps,
			MinOrderSize:      v.MinOrderSize,
			MaxOrderSize:      v.MaxOrderSize,
			TypicalBidDepth:   v.TypicalBidDepth,
			TypicalAskDepth:   v.TypicalAskDepth,
			FillRate:          v.FillRate,
		})
	}
	return venues
}

func adminAPIKeys(cfg *config.Config) []string {
	if cfg.Admin.GRPCAPIKeys == "" {
		return nil
	}
	return []string{cfg.Admin.GRPCAPIKeys}
}
