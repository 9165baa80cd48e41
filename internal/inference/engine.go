// Package inference implements the fixed-latency microstructure
// classifier (spec component E): a small dense network (12->8->3,
// ReLU + softmax) whose predict call busy-waits out to a fixed
// latency floor regardless of how fast the forward pass actually
// runs. Grounded on
// original_source/include/fpga_inference.hpp's FPGA_DNN_Inference.
package inference

import (
	"math"
	"math/rand"
	"runtime"
	"time"

	"hftengine/internal/core"
)

const (
	inputDim  = 12
	hiddenDim = 8
	outputDim = 3

	// defaultFixedLatencyNS mirrors the original's fixed_latency_ns_.
	defaultFixedLatencyNS = int64(400)
)

// Engine holds the network weights and the fixed-latency floor.
// Weights are randomized at construction (spec: "a simulated/untrained
// network is acceptable; the fixed-latency behavior is what's tested",
// matching the original's explicit "random values (simulation)"
// comment), not trained from data.
type Engine struct {
	fixedLatencyNS int64

	weightsH [hiddenDim * inputDim]float64
	biasH    [hiddenDim]float64
	weightsO [outputDim * hiddenDim]float64
	biasO    [outputDim]float64
}

// New constructs an Engine with randomized weights, matching the
// original's (rand() % 200 - 100) / 1000.0 scheme: uniform in
// [-0.1, 0.1).
func New() *Engine {
	e := &Engine{fixedLatencyNS: defaultFixedLatencyNS}
	for i := range e.weightsH {
		e.weightsH[i] = float64(rand.Intn(200)-100) / 1000.0
	}
	for i := range e.weightsO {
		e.weightsO[i] = float64(rand.Intn(200)-100) / 1000.0
	}
	return e
}

// FixedLatencyNS returns the configured latency floor.
func (e *Engine) FixedLatencyNS() int64 { return e.fixedLatencyNS }

// Predict runs the forward pass and pads elapsed wall time up to the
// fixed latency floor via a busy-wait spin loop. runtime.Gosched() is
// the Go stand-in for the original's _mm_pause/yield CPU hint: it lets
// the scheduler run other goroutines between spins without blocking on
// a channel or timer, preserving the busy-wait (not sleep-based)
// character the spec calls for.
func (e *Engine) Predict(features core.MicrostructureFeatures) [outputDim]float64 {
	start := time.Now()

	input := features.ToVector()
	output := e.forwardPass(input)

	for time.Since(start).Nanoseconds() < e.fixedLatencyNS {
		runtime.Gosched()
	}

	return output
}

func (e *Engine) forwardPass(input [inputDim]float64) [outputDim]float64 {
	var hidden [hiddenDim]float64
	for i := 0; i < hiddenDim; i++ {
		sum := e.biasH[i]
		for col := 0; col < inputDim; col++ {
			sum += e.weightsH[i*inputDim+col] * input[col]
		}
		hidden[i] = math.Max(0.0, sum) // ReLU
	}

	var output [outputDim]float64
	for i := 0; i < outputDim; i++ {
		sum := e.biasO[i]
		for col := 0; col < hiddenDim; col++ {
			sum += e.weightsO[i*hiddenDim+col] * hidden[col]
		}
		output[i] = sum
	}

	return softmax(output)
}

// softmax is the stable (max-subtracted) variant, matching the
// original's "fast softmax" shape without its fast_exp approximation —
// Go has no equivalent spin_loop::fast_exp, so this uses math.Exp; the
// law the test suite checks (outputs sum to 1, each in [0,1]) is
// unaffected by that substitution.
func softmax(x [outputDim]float64) [outputDim]float64 {
	maxVal := x[0]
	for _, v := range x[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var exps [outputDim]float64
	sum := 0.0
	for i, v := range x {
		exps[i] = math.Exp(v - maxVal)
		sum += exps[i]
	}

	invSum := 1.0 / sum
	for i := range exps {
		exps[i] *= invSum
	}
	return exps
}

// ExtractFeatures builds the 12-dimensional feature vector from the
// current/previous ticks, a reference-asset tick, and the current
// Hawkes intensities. Grounded on
// original_source/include/fpga_inference.hpp's extract_features /
// compute_ofi.
func ExtractFeatures(current, previous, reference core.MarketTick, hawkesBuy, hawkesSell float64) core.MicrostructureFeatures {
	var f core.MicrostructureFeatures

	f.OFIDepth1 = computeOFI(current, previous, 1)
	f.OFIDepth5 = computeOFI(current, previous, 5)
	f.OFIDepth10 = computeOFI(current, previous, 10)

	currentSpread := current.AskPrice - current.BidPrice
	refSpread := reference.AskPrice - reference.BidPrice
	if refSpread > 1e-10 {
		f.SpreadRatio = currentSpread / refSpread
	} else {
		f.SpreadRatio = 1.0
	}

	totalVolume := current.BidSize + current.AskSize
	if totalVolume > 0 {
		f.VolumeImbalance = (current.BidSize - current.AskSize) / totalVolume
	}

	f.HawkesBuy = hawkesBuy
	f.HawkesSell = hawkesSell
	if hawkesBuy+hawkesSell > 1e-10 {
		f.HawkesImbalance = (hawkesBuy - hawkesSell) / (hawkesBuy + hawkesSell)
	}

	if current.MidPrice > 1e-10 {
		f.SpreadBps = (currentSpread / current.MidPrice) * 10000.0
	}

	f.MidPriceMomentum = current.MidPrice - previous.MidPrice

	if current.TradeVolume > 0 && previous.MidPrice > 1e-10 {
		priceImpact := math.Abs(current.MidPrice - previous.MidPrice)
		f.TradeFlowToxicity = priceImpact / current.TradeVolume
	}

	return f
}

func computeOFI(current, previous core.MarketTick, depth int) float64 {
	levels := depth
	if current.DepthLevels < levels {
		levels = current.DepthLevels
	}
	if levels > core.MaxDepthLevels {
		levels = core.MaxDepthLevels
	}

	ofi := 0.0
	for i := 0; i < levels; i++ {
		bidDelta := current.BidSizes[i] - previous.BidSizes[i]
		askDelta := current.AskSizes[i] - previous.AskSizes[i]
		weight := 1.0 / float64(i+1)
		ofi += weight * (bidDelta - askDelta)
	}
	return ofi
}
