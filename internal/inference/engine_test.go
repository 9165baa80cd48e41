package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hftengine/internal/core"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	out := softmax([outputDim]float64{1.0, 2.0, 0.5})
	sum := out[0] + out[1] + out[2]
	assert.InDelta(t, 1.0, sum, 1e-9)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestSoftmaxUniformInput(t *testing.T) {
	out := softmax([outputDim]float64{5.0, 5.0, 5.0})
	assert.InDelta(t, 1.0/3.0, out[0], 1e-9)
	assert.InDelta(t, 1.0/3.0, out[1], 1e-9)
	assert.InDelta(t, 1.0/3.0, out[2], 1e-9)
}

// TestInferenceLatencyFloor is spec.md §8 scenario 4: 1,000 repeated
// calls all take at least fixed_latency_ns.
func TestInferenceLatencyFloor(t *testing.T) {
	e := New()
	features := core.MicrostructureFeatures{SpreadRatio: 1.0}

	for i := 0; i < 1000; i++ {
		start := time.Now()
		out := e.Predict(features)
		elapsed := time.Since(start).Nanoseconds()

		require.GreaterOrEqual(t, elapsed, e.FixedLatencyNS())
		sum := out[0] + out[1] + out[2]
		assert.InDelta(t, 1.0, sum, 1e-6)
	}
}

func TestExtractFeaturesDefaults(t *testing.T) {
	var empty core.MarketTick
	f := ExtractFeatures(empty, empty, empty, 0, 0)
	assert.Equal(t, 1.0, f.SpreadRatio, "zero reference spread must fall back to neutral 1.0")
	assert.Equal(t, 0.0, f.VolumeImbalance)
	assert.Equal(t, 0.0, f.HawkesImbalance)
}

func TestExtractFeaturesOFIAndMomentum(t *testing.T) {
	previous := core.MarketTick{
		MidPrice: 100, BidPrice: 99.9, AskPrice: 100.1,
		BidSize: 10, AskSize: 10, DepthLevels: 2,
	}
	previous.BidSizes[0] = 5
	previous.AskSizes[0] = 5

	current := previous
	current.MidPrice = 100.5
	current.AskPrice = 100.6
	current.BidSizes[0] = 8
	current.TradeVolume = 2

	f := ExtractFeatures(current, previous, previous, 1, 1)
	assert.Greater(t, f.OFIDepth1, 0.0, "a bid-size increase with flat ask size is positive order-flow imbalance")
	assert.Equal(t, 0.5, f.MidPriceMomentum)
	assert.Equal(t, 0.0, f.HawkesImbalance, "equal hawkes intensities yield zero imbalance")
	assert.Greater(t, f.TradeFlowToxicity, 0.0)
}

func TestComputeOFIClampsToDepthLevels(t *testing.T) {
	previous := core.MarketTick{DepthLevels: 1}
	current := core.MarketTick{DepthLevels: 1}
	current.BidSizes[0] = 10
	current.BidSizes[5] = 999 // beyond depth_levels, must be ignored

	ofi := computeOFI(current, previous, 10)
	assert.Equal(t, 10.0, ofi)
}
