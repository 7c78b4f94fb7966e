package filters

import (
	"math"
)

// DefaultPole gives a cutoff near 8 Hz at 44.1 kHz
const DefaultPole = 0.995

// DCBlocker is a one-pole high-pass filter removing the DC offset cheap
// microphones and some recordings carry. An offset adds to block RMS, which
// would read as a raised noise floor.
//
// y[n] = x[n] - x[n-1] + R*y[n-1]
//
// See https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
type DCBlocker struct {
	pole float64

	x1 float64
	y1 float64
}

// NewDCBlocker creates a blocker with pole location R, 0 < R < 1. Values
// outside that range fall back to DefaultPole.
func NewDCBlocker(pole float64) *DCBlocker {
	if !(pole > 0 && pole < 1) {
		pole = DefaultPole
	}
	return &DCBlocker{pole: pole}
}

// NewDCBlockerWithCutoff derives R from a -3dB cutoff frequency using
// R = 1 - 2*pi*fc/fs, valid for fc << fs/2
func NewDCBlockerWithCutoff(sampleRate int, cutoffHz float64) *DCBlocker {
	if sampleRate <= 0 || cutoffHz <= 0 {
		return NewDCBlocker(DefaultPole)
	}

	pole := 1.0 - 2.0*math.Pi*cutoffHz/float64(sampleRate)
	return NewDCBlocker(min(max(pole, 0.001), 0.999))
}

// Process filters one sample
func (dc *DCBlocker) Process(x float64) float64 {
	y := x - dc.x1 + dc.pole*dc.y1
	dc.x1 = x
	dc.y1 = y
	return y
}

// ProcessInPlace filters samples in place, carrying state across calls so a
// stream can be fed block by block
func (dc *DCBlocker) ProcessInPlace(samples []float64) {
	for i, x := range samples {
		samples[i] = dc.Process(x)
	}
}

// Reset clears the filter memory, e.g. between unrelated recordings
func (dc *DCBlocker) Reset() {
	dc.x1, dc.y1 = 0, 0
}

// Pole returns the pole location R
func (dc *DCBlocker) Pole() float64 {
	return dc.pole
}

// CutoffFrequency returns the approximate -3dB cutoff at sampleRate
func (dc *DCBlocker) CutoffFrequency(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0.0
	}
	return (1.0 - dc.pole) * float64(sampleRate) / (2.0 * math.Pi)
}
