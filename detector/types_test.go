package detector

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAudioBlock_Validate(t *testing.T) {
	assert.NoError(t, NewAudioBlock([]float64{0, 0.5, -1}, testRate).Validate())
	assert.ErrorIs(t, NewAudioBlock([]float64{}, testRate).Validate(), ErrEmptyBlock)
	assert.ErrorIs(t, NewAudioBlock([]float64{0}, -1).Validate(), ErrInvalidSampleRate)
	assert.ErrorIs(t, NewAudioBlock([]float64{math.Inf(1)}, testRate).Validate(), ErrNonFiniteSample)
}

func TestAudioBlock_Duration(t *testing.T) {
	assert.Equal(t, 10*time.Millisecond, NewAudioBlock(make([]float64, 441), 44100).Duration())
	assert.Zero(t, NewAudioBlock(make([]float64, 441), 0).Duration())
	assert.Equal(t, 441, NewAudioBlock(make([]float64, 441), 0).Len())
}

func TestNewState(t *testing.T) {
	assert.Equal(t, State{NoiseFloor: 2}, NewState(2))
	assert.Equal(t, State{}, NewState(-3))
	assert.Equal(t, State{}, NewState(math.NaN()))
}

func TestState_Next(t *testing.T) {
	next := State{NoiseFloor: 2, PrevEnergy: 9}.Next(Result{Energy: 1.5, UpdatedNoiseFloor: 1.99})
	assert.Equal(t, State{NoiseFloor: 1.99, PrevEnergy: 1.5}, next)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "invalid", StageInvalid.String())
	assert.Equal(t, "below_noise", StageBelowNoise.String())
	assert.Equal(t, "no_onset", StageNoOnset.String())
	assert.Equal(t, "spectral_reject", StageSpectralReject.String())
	assert.Equal(t, "detected", StageDetected.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
