package temporal

const (
	// MinPrevEnergy is the previous-block energy below which the relative
	// onset test is replaced by an absolute one
	MinPrevEnergy = 0.01

	// SilentOnsetFactor multiplies the threshold for the absolute onset test
	SilentOnsetFactor = 2.0
)

// AboveNoiseFloor is the first cheap gate: the block must exceed the
// adaptive floor by clapRatio and also clear the absolute threshold
func AboveNoiseFloor(energy, noiseFloor, clapRatio, threshold float64) bool {
	return energy > noiseFloor*clapRatio && energy > threshold
}

// IsTransientOnset is the second cheap gate: the block must jump sharply
// from the previous one.
//
// When the previous block carries meaningful energy the jump is relative,
// energy/prevEnergy > onsetRatio. After a near-silent block (or on the first
// block of a session) the ratio would explode, so an absolute jump of
// SilentOnsetFactor times the threshold is demanded instead.
func IsTransientOnset(energy, prevEnergy, onsetRatio, threshold float64) bool {
	if prevEnergy > MinPrevEnergy {
		return OnsetRatio(energy, prevEnergy) > onsetRatio
	}
	return energy > threshold*SilentOnsetFactor
}

// OnsetRatio returns the relative energy jump between two blocks, with the
// previous energy floored at MinPrevEnergy
func OnsetRatio(energy, prevEnergy float64) float64 {
	return energy / max(prevEnergy, MinPrevEnergy)
}
