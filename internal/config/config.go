// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	App         AppConfig         `yaml:"app"`
	Hawkes      HawkesConfig      `yaml:"hawkes"`
	Quoting     QuotingConfig     `yaml:"quoting"`
	Risk        RiskConfig        `yaml:"risk"`
	Routing     RoutingConfig     `yaml:"routing"`
	Venues      map[string]VenueConfig `yaml:"venues"`
	System      SystemConfig      `yaml:"system"`
	Timing      TimingConfig      `yaml:"timing"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Admin       AdminConfig       `yaml:"admin"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
	HealthPort    int  `yaml:"health_port"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Symbol      string `yaml:"symbol" validate:"required"`
}

// HawkesConfig parameterizes the multi-kernel intensity engine.
type HawkesConfig struct {
	MuBuy      float64   `yaml:"mu_buy" validate:"required,min=0"`
	MuSell     float64   `yaml:"mu_sell" validate:"required,min=0"`
	AlphaSelf  []float64 `yaml:"alpha_self" validate:"required,min=1"`
	AlphaCross []float64 `yaml:"alpha_cross" validate:"required,min=1"`
	Beta       []float64 `yaml:"beta" validate:"required,min=1"`
}

// QuotingConfig parameterizes the quoting strategy.
type QuotingConfig struct {
	Strategy         string  `yaml:"strategy" validate:"required,oneof=avellaneda_stoikov simple_mm"`
	RiskAversion     float64 `yaml:"risk_aversion" validate:"min=0"`
	ArrivalRate      float64 `yaml:"arrival_rate" validate:"min=0"`
	TickSize         float64 `yaml:"tick_size" validate:"required,min=0"`
	UnitSize         float64 `yaml:"unit_size" validate:"required,min=0"`
	LatencyNanos     int64   `yaml:"latency_nanos" validate:"required,min=1"`
	BaseSpreadBps    float64 `yaml:"base_spread_bps" validate:"min=0"`
	InventorySkewBps float64 `yaml:"inventory_skew_bps" validate:"min=0"`
	MinSpreadBps     float64 `yaml:"min_spread_bps" validate:"min=0"`
	MaxSpreadBps     float64 `yaml:"max_spread_bps" validate:"min=0"`
}

// RiskConfig selects the compile-time risk policy tag.
type RiskConfig struct {
	Policy string `yaml:"policy" validate:"required,oneof=strict moderate aggressive"`
}

// RoutingConfig parameterizes the smart order router.
type RoutingConfig struct {
	LatencySafetyMargin   float64 `yaml:"latency_safety_margin" validate:"required,min=0,max=1"`
	LatencySpikeThreshold float64 `yaml:"latency_spike_threshold" validate:"required,min=0"`
	PriceWeight           float64 `yaml:"price_weight" validate:"min=0,max=1"`
	LatencyWeight         float64 `yaml:"latency_weight" validate:"min=0,max=1"`
	LiquidityWeight       float64 `yaml:"liquidity_weight" validate:"min=0,max=1"`
	MinFillRate           float64 `yaml:"min_fill_rate" validate:"min=0,max=1"`
	MinCompositeScore     float64 `yaml:"min_composite_score" validate:"min=0,max=1"`
	HeartbeatIntervalMS   int64   `yaml:"heartbeat_interval_ms" validate:"required,min=1"`
	HeartbeatTimeoutMS    int64   `yaml:"heartbeat_timeout_ms" validate:"required,min=1"`
	RTTEMAAlpha           float64 `yaml:"rtt_ema_alpha" validate:"required,min=0,max=1"`
}

// VenueConfig contains venue-specific configuration, including
// connection credentials masked on display.
type VenueConfig struct {
	IsActive          bool    `yaml:"is_active"`
	APIKey            Secret  `yaml:"api_key"`
	SecretKey         Secret  `yaml:"secret_key"`
	Endpoint          string  `yaml:"endpoint"`
	BaselineLatencyUS float64 `yaml:"baseline_latency_us" validate:"min=0"`
	FeeBps            float64 `yaml:"fee_bps"`
	MinOrderSize      float64 `yaml:"min_order_size" validate:"min=0"`
	MaxOrderSize      float64 `yaml:"max_order_size" validate:"min=0"`
	TypicalBidDepth   float64 `yaml:"typical_bid_depth" validate:"min=0"`
	TypicalAskDepth   float64 `yaml:"typical_ask_depth" validate:"min=0"`
	FillRate          float64 `yaml:"fill_rate" validate:"min=0,max=1"`
	GRPCAPIKeys       string  `yaml:"grpc_api_keys"`
	GRPCRateLimit     int     `yaml:"grpc_rate_limit"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel     string `yaml:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
	CancelOnExit bool   `yaml:"cancel_on_exit"`
}

// AdminConfig contains the admin/control-plane surface settings.
type AdminConfig struct {
	GRPCPort    string `yaml:"grpc_port"`
	HTTPPort    string `yaml:"http_port"`
	GRPCAPIKeys string `yaml:"grpc_api_keys"`
}

// TimingConfig contains timing-related settings
type TimingConfig struct {
	HeartbeatIntervalMS int `yaml:"heartbeat_interval_ms" validate:"min=1,max=60000"`
	StatusPrintInterval int `yaml:"status_print_interval" validate:"min=1,max=60"`
}

// ConcurrencyConfig contains worker pool and ring-buffer settings
type ConcurrencyConfig struct {
	IntentRingCapacity int `yaml:"intent_ring_capacity" validate:"min=2,max=1048576"`
	WorkerPoolSize     int `yaml:"worker_pool_size" validate:"min=1,max=100"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateAppConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateHawkesConfig(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateVenues(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateAppConfig() error {
	if c.App.Symbol == "" {
		return ValidationError{Field: "app.symbol", Message: "trading symbol is required"}
	}
	return nil
}

func (c *Config) validateHawkesConfig() error {
	k := len(c.Hawkes.AlphaSelf)
	if k == 0 {
		return ValidationError{Field: "hawkes.alpha_self", Message: "at least one kernel is required"}
	}
	if len(c.Hawkes.AlphaCross) != k || len(c.Hawkes.Beta) != k {
		return ValidationError{
			Field:   "hawkes",
			Message: fmt.Sprintf("alpha_self, alpha_cross and beta must all have equal length (got %d, %d, %d)", k, len(c.Hawkes.AlphaCross), len(c.Hawkes.Beta)),
		}
	}
	return nil
}

func (c *Config) validateVenues() error {
	if len(c.Venues) == 0 {
		return ValidationError{Field: "venues", Message: "at least one venue must be configured"}
	}
	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

// String returns a string representation of the configuration (with sensitive data masked)
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Helper functions

func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		value := os.Getenv(key)
		if value == "" && isCriticalEnvVar(key) {
			return ""
		}
		return value
	})
}

// isCriticalEnvVar checks if an environment variable is critical for operation
func isCriticalEnvVar(key string) bool {
	criticalVars := []string{
		"BINANCE_API_KEY", "BINANCE_SECRET_KEY",
		"COINBASE_API_KEY", "COINBASE_SECRET_KEY",
		"KRAKEN_API_KEY", "KRAKEN_SECRET_KEY",
	}
	return contains(criticalVars, key)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns a default configuration for testing, mirroring
// the original's per-component bootstrap defaults (Hawkes kernel
// params from test_multi_kernel_hawkes.cpp; quoting/routing/venue
// constants from compile_time_dispatch.hpp and
// smart_order_router.hpp's default_config()/initialize_venues()).
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{ServiceName: "hftengine", Symbol: "BTC-USD"},
		Hawkes: HawkesConfig{
			MuBuy: 10, MuSell: 10,
			AlphaSelf:  []float64{0.5, 0.4, 0.3, 0.2},
			AlphaCross: []float64{0.1, 0.1, 0.05, 0.05},
			Beta:       []float64{100, 10, 1, 0.1},
		},
		Quoting: QuotingConfig{
			Strategy:     "avellaneda_stoikov",
			RiskAversion: 0.1,
			ArrivalRate:  0.5,
			TickSize:     0.01,
			UnitSize:     10,
			LatencyNanos: 400,
		},
		Risk: RiskConfig{Policy: "moderate"},
		Routing: RoutingConfig{
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
		},
		Venues: map[string]VenueConfig{
			"BINANCE": {
				IsActive: true, BaselineLatencyUS: 500, FeeBps: 4,
				MinOrderSize: 0.001, MaxOrderSize: 10000,
				TypicalBidDepth: 5000, TypicalAskDepth: 5000, FillRate: 0.95,
			},
			"COINBASE": {
				IsActive: true, BaselineLatencyUS: 800, FeeBps: 5,
				MinOrderSize: 0.01, MaxOrderSize: 5000,
				TypicalBidDepth: 3000, TypicalAskDepth: 3000, FillRate: 0.90,
			},
			"KRAKEN": {
				IsActive: true, BaselineLatencyUS: 1200, FeeBps: 6,
				MinOrderSize: 0.01, MaxOrderSize: 3000,
				TypicalBidDepth: 2000, TypicalAskDepth: 2000, FillRate: 0.88,
			},
		},
		System: SystemConfig{LogLevel: "INFO", CancelOnExit: true},
		Telemetry: TelemetryConfig{MetricsPort: 9090, EnableMetrics: true, HealthPort: 9091},
		Admin:     AdminConfig{GRPCPort: ":50052", HTTPPort: ":8081"},
	}
}
