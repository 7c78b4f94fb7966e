// Package detector decides, block by block, whether microphone audio
// contains a hand clap.
//
// Each block runs through an early-exit pipeline:
//
//	energy -> noise floor update -> above-noise gate -> onset gate -> spectral check
//
// The two gates only compare scalars already computed, so the O(n*bins)
// spectral check runs for a small fraction of blocks.
//
// Analyze is a pure function over an explicit State. Session wraps it for
// callers that want the state threaded for them.
package detector

import (
	"github.com/RyanBlaney/sonido-clap/algorithms/common"
	"github.com/RyanBlaney/sonido-clap/algorithms/spectral"
	"github.com/RyanBlaney/sonido-clap/algorithms/temporal"
	"github.com/RyanBlaney/sonido-clap/detector/config"
)

// Analyze runs the detection pipeline over one block.
//
// The noise floor update happens before any gate and depends only on the
// block's energy, never on the clap decision. Analyze does not allocate and
// never fails: a block that does not Validate, or whose energy overflows,
// produces a not-detected result with zero energy and the noise floor
// unchanged.
func Analyze(block AudioBlock, cfg config.DetectorConfig, state State) Result {
	noiseFloor := common.NonNegative(state.NoiseFloor)
	prevEnergy := common.NonNegative(state.PrevEnergy)

	invalid := Result{
		UpdatedNoiseFloor: noiseFloor,
		Stage:             StageInvalid,
	}
	if !block.analyzable() {
		return invalid
	}

	// Finite samples near the float64 limit overflow the sum of squares
	energy := temporal.ScaledRMS(block.Samples)
	if !common.IsFinite(energy) {
		return invalid
	}
	alpha := common.Clamp(common.NonNegative(cfg.NoiseAlpha), 0, 1)
	updatedFloor, _ := temporal.UpdateNoiseFloor(noiseFloor, energy, cfg.Threshold, alpha)

	result := Result{
		Energy:            energy,
		UpdatedNoiseFloor: updatedFloor,
	}

	// Gates compare against the floor as it was before this block
	if !temporal.AboveNoiseFloor(energy, noiseFloor, cfg.ClapRatio, cfg.Threshold) {
		result.Stage = StageBelowNoise
		return result
	}

	if !temporal.IsTransientOnset(energy, prevEnergy, cfg.OnsetRatio, cfg.Threshold) {
		result.Stage = StageNoOnset
		return result
	}

	result.HFRatio = spectral.HighFrequencyRatio(block.Samples)
	if result.HFRatio >= cfg.HFRatioMin {
		result.Detected = true
		result.Stage = StageDetected
	} else {
		result.Stage = StageSpectralReject
	}

	return result
}
