package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFFT_PowerSpectrum(t *testing.T) {
	f := NewFFT()

	assert.Empty(t, f.Compute(nil))

	power := f.PowerSpectrum(impulse(16, 2))
	assert.Len(t, power, 9)
	for k, p := range power {
		assert.InDelta(t, 4.0, p, 1e-9, "bin %d", k)
	}
}

func TestFFT_ShortBlock(t *testing.T) {
	f := NewFFT()

	_, _, ok := f.BandEnergies(noise(6, 2))
	assert.False(t, ok)
	assert.Zero(t, f.HighFrequencyRatio(noise(6, 2)))
}
