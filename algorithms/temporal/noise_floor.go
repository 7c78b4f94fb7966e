package temporal

// QuietFraction is the fraction of the detection threshold below which a
// block counts as ambient noise
const QuietFraction = 0.5

// IsQuiet reports whether a block with the given energy may feed the noise
// floor estimate
func IsQuiet(energy, threshold float64) bool {
	return energy < threshold*QuietFraction
}

// UpdateNoiseFloor applies one step of the adaptive noise floor.
//
// Quiet blocks pull the floor toward their energy with exponential smoothing
// factor alpha; any other block leaves the floor exactly as it was, so loud
// events never bias the estimate they are compared against. The second return
// value reports whether the update fired.
func UpdateNoiseFloor(floor, energy, threshold, alpha float64) (float64, bool) {
	if !IsQuiet(energy, threshold) {
		return floor, false
	}
	return (1-alpha)*floor + alpha*energy, true
}
