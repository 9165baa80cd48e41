package bootstrap

import (
	"fmt"

	"hftengine/internal/config"
	"hftengine/internal/core"
)

// Config is an alias for the project's main configuration struct
type Config = config.Config

// LoadConfig delegates to the project's config loader
func LoadConfig(path string) (*Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := checkPreFlight(cfg); err != nil {
		return nil, fmt.Errorf("pre-flight checks failed: %w", err)
	}

	return cfg, nil
}

// ParseRiskPolicy maps the config's policy name to the closed
// core.RiskPolicy tag.
func ParseRiskPolicy(name string) (core.RiskPolicy, error) {
	switch name {
	case "strict":
		return core.PolicyStrict, nil
	case "moderate":
		return core.PolicyModerate, nil
	case "aggressive":
		return core.PolicyAggressive, nil
	default:
		return 0, fmt.Errorf("unknown risk policy %q", name)
	}
}

// checkPreFlight performs environment/cross-field checks beyond schema
// validation: the kernel array lengths (required equal by
// hawkes.New, which panics on mismatch) and the risk policy name are
// caught here, at boot, instead of surfacing as a panic once the
// strategy stage starts.
func checkPreFlight(cfg *Config) error {
	k := len(cfg.Hawkes.AlphaSelf)
	if len(cfg.Hawkes.AlphaCross) != k || len(cfg.Hawkes.Beta) != k {
		return fmt.Errorf("hawkes kernel arrays must have equal length: alpha_self=%d alpha_cross=%d beta=%d",
			k, len(cfg.Hawkes.AlphaCross), len(cfg.Hawkes.Beta))
	}

	if _, err := ParseRiskPolicy(cfg.Risk.Policy); err != nil {
		return err
	}

	for id, v := range cfg.Venues {
		if v.IsActive && v.MinOrderSize > v.MaxOrderSize {
			return fmt.Errorf("venue %s: min_order_size (%v) exceeds max_order_size (%v)", id, v.MinOrderSize, v.MaxOrderSize)
		}
	}

	return nil
}
