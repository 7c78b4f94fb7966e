package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-clap/algorithms/common"
)

// EnergyScale brings block RMS values for [-1, 1] audio into a convenient
// working range: full-scale white noise sits near 57, a quiet room near 1.
const EnergyScale = 100.0

// ScaledRMS computes the block energy used throughout detection: the RMS of
// the samples multiplied by EnergyScale. An empty block has zero energy.
//
// The result is scale consistent, ScaledRMS(k*x) == k*ScaledRMS(x) for k > 0.
func ScaledRMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}
	return common.RMS(samples) * EnergyScale
}

// ComputeLogEnergy converts scaled energies to dB relative to EnergyScale,
// so that a full-scale sine reads about -3 dB
func ComputeLogEnergy(energies []float64, floor float64) []float64 {
	logEnergies := make([]float64, len(energies))

	for i, energy := range energies {
		if energy < floor {
			energy = floor
		}
		logEnergies[i] = 20.0 * math.Log10(energy/EnergyScale)
	}

	return logEnergies
}
