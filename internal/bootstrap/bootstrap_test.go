package bootstrap

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftengine/internal/config"
	"hftengine/internal/core"
)

func TestParseRiskPolicyKnownNames(t *testing.T) {
	cases := []struct {
		name string
		want core.RiskPolicy
	}{
		{"strict", core.PolicyStrict},
		{"moderate", core.PolicyModerate},
		{"aggressive", core.PolicyAggressive},
	}
	for _, tc := range cases {
		got, err := ParseRiskPolicy(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseRiskPolicyUnknownNameErrors(t *testing.T) {
	_, err := ParseRiskPolicy("reckless")
	assert.Error(t, err)
}

func TestCheckPreFlightRejectsMismatchedHawkesKernelLengths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Hawkes.AlphaCross = []float64{0.1}
	err := checkPreFlight(cfg)
	assert.Error(t, err)
}

func TestCheckPreFlightRejectsUnknownRiskPolicy(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Risk.Policy = "reckless"
	err := checkPreFlight(cfg)
	assert.Error(t, err)
}

func TestCheckPreFlightRejectsInvertedOrderSizeBounds(t *testing.T) {
	cfg := config.DefaultConfig()
	v := cfg.Venues["BINANCE"]
	v.IsActive = true
	v.MinOrderSize = 100
	v.MaxOrderSize = 1
	cfg.Venues["BINANCE"] = v

	err := checkPreFlight(cfg)
	assert.Error(t, err)
}

func TestCheckPreFlightAcceptsDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, checkPreFlight(cfg))
}

func TestLoadConfigAppliesPreFlightChecks(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "bootstrap-config-*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	// BINANCE is active with min_order_size above max_order_size:
	// checkPreFlight must reject it even though schema validation alone
	// (config.Validate) accepts the YAML.
	_, err = tmpFile.WriteString(`app:
  service_name: "hftengine"
  symbol: "BTC-USD"
hawkes:
  mu_buy: 10
  mu_sell: 10
  alpha_self: [0.5, 0.4]
  alpha_cross: [0.1, 0.1]
  beta: [100, 10]
risk:
  policy: "moderate"
venues:
  BINANCE:
    is_active: true
    min_order_size: 100
    max_order_size: 1
system:
  log_level: "INFO"
`)
	require.NoError(t, err)
	tmpFile.Close()

	_, err = LoadConfig(tmpFile.Name())
	assert.Error(t, err)
}

type stubRunner struct {
	err error
}

func (s stubRunner) Run(ctx context.Context) error {
	return s.err
}

func TestAppRunPropagatesRunnerError(t *testing.T) {
	app := &App{Cfg: config.DefaultConfig(), Logger: InitLogger(config.DefaultConfig())}

	wantErr := errors.New("runner exploded")
	err := app.Run(stubRunner{err: wantErr})
	assert.ErrorIs(t, err, wantErr)
}

func TestAppRunSucceedsWhenRunnersReturnNil(t *testing.T) {
	app := &App{Cfg: config.DefaultConfig(), Logger: InitLogger(config.DefaultConfig())}

	err := app.Run(stubRunner{err: nil})
	assert.NoError(t, err)
}
