package spectral

import (
	"math"
)

const (
	// MinBins is the spectrum length at or below which the two-band split
	// carries no usable information
	MinBins = 4

	// MinSplitBin is the lowest bin the high band may start at
	MinSplitBin = 2
)

// NumBins returns the length of the real-signal spectrum of n samples
func NumBins(n int) int {
	if n <= 0 {
		return 0
	}
	return n/2 + 1
}

// SplitBin returns the first bin of the high band for a spectrum of nBins
// bins: a quarter of the spectrum, but never below MinSplitBin
func SplitBin(nBins int) int {
	return max(MinSplitBin, nBins/4)
}

// BandEnergies computes the energy of the low band [0, split) and the high
// band [split, nBins) of samples with a direct discrete Fourier transform
// restricted to those bins. No full spectrum is materialised and nothing is
// allocated; the cost is O(n * nBins).
//
// ok is false when the spectrum has MinBins bins or fewer; both energies are
// then zero.
func BandEnergies(samples []float64) (low, high float64, ok bool) {
	n := len(samples)
	nBins := NumBins(n)
	if nBins <= MinBins {
		return 0, 0, false
	}

	split := SplitBin(nBins)
	twoPiOverN := 2 * math.Pi / float64(n)

	low = bandEnergy(samples, 0, split, twoPiOverN)
	high = bandEnergy(samples, split, nBins, twoPiOverN)

	return low, high, true
}

// HighFrequencyRatio returns the fraction of spectral energy in the high
// band, always within [0, 1]. Blocks too short to split, blocks with no
// spectral energy and blocks whose energy overflows float64 yield 0.
func HighFrequencyRatio(samples []float64) float64 {
	low, high, ok := BandEnergies(samples)
	if !ok {
		return 0.0
	}
	return bandRatio(low, high)
}

// bandEnergy accumulates |X[k]|^2 over bins [from, to)
func bandEnergy(samples []float64, from, to int, twoPiOverN float64) float64 {
	energy := 0.0
	for k := from; k < to; k++ {
		re, im := binCorrelation(samples, k, twoPiOverN)
		energy += re*re + im*im
	}
	return energy
}

// binCorrelation correlates samples against the cosine and sine of bin k:
// re = sum x[n]cos(2*pi*k*n/N), im = -sum x[n]sin(2*pi*k*n/N)
func binCorrelation(samples []float64, k int, twoPiOverN float64) (re, im float64) {
	w := twoPiOverN * float64(k)
	for n, x := range samples {
		sin, cos := math.Sincos(w * float64(n))
		re += x * cos
		im -= x * sin
	}
	return re, im
}

// bandRatio is 0 when the total is zero or overflowed, so the result stays
// within [0, 1] for any finite input
func bandRatio(low, high float64) float64 {
	total := low + high
	if !(total > 0) || math.IsInf(total, 0) {
		return 0.0
	}
	return min(max(high/total, 0.0), 1.0)
}
