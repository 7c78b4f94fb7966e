package spectral

import (
	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// FFT computes full spectra with mjibson/go-dsp. Detection never needs it;
// it backs offline verification of the two-band direct transform. go-dsp
// keeps its own plan cache, so the type carries no fields.
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes Fast Fourier Transform using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// PowerSpectrum returns |X[k]|^2 for the NumBins(len(x)) non-negative
// frequency bins
func (f *FFT) PowerSpectrum(x []float64) []float64 {
	spectrum := f.Compute(x)
	nBins := NumBins(len(x))

	power := make([]float64, nBins)
	for k := range nBins {
		re, im := real(spectrum[k]), imag(spectrum[k])
		power[k] = re*re + im*im
	}

	return power
}

// BandEnergies computes the same low/high split as the package-level
// BandEnergies, from a full FFT
func (f *FFT) BandEnergies(x []float64) (low, high float64, ok bool) {
	nBins := NumBins(len(x))
	if nBins <= MinBins {
		return 0, 0, false
	}

	power := f.PowerSpectrum(x)
	split := SplitBin(nBins)

	return floats.Sum(power[:split]), floats.Sum(power[split:]), true
}

// HighFrequencyRatio is the FFT counterpart of the package-level
// HighFrequencyRatio
func (f *FFT) HighFrequencyRatio(x []float64) float64 {
	low, high, ok := f.BandEnergies(x)
	if !ok {
		return 0.0
	}
	return bandRatio(low, high)
}
