package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAboveNoiseFloor(t *testing.T) {
	tests := []struct {
		name      string
		energy    float64
		floor     float64
		clapRatio float64
		threshold float64
		want      bool
	}{
		{name: "clears both", energy: 13.26, floor: 1, clapRatio: 4, threshold: 10, want: true},
		{name: "below threshold", energy: 9, floor: 1, clapRatio: 4, threshold: 10, want: false},
		{name: "below floor multiple", energy: 20, floor: 6, clapRatio: 4, threshold: 10, want: false},
		{name: "equal is not above", energy: 10, floor: 1, clapRatio: 4, threshold: 10, want: false},
		{name: "zero floor", energy: 10.1, floor: 0, clapRatio: 4, threshold: 10, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AboveNoiseFloor(tt.energy, tt.floor, tt.clapRatio, tt.threshold))
		})
	}
}

func TestIsTransientOnset(t *testing.T) {
	tests := []struct {
		name       string
		energy     float64
		prevEnergy float64
		onsetRatio float64
		threshold  float64
		want       bool
	}{
		{name: "sharp relative jump", energy: 40, prevEnergy: 2, onsetRatio: 6, threshold: 15, want: true},
		{name: "gradual rise", energy: 40, prevEnergy: 10, onsetRatio: 6, threshold: 15, want: false},
		{name: "silent prev needs absolute jump", energy: 25, prevEnergy: 0, onsetRatio: 6, threshold: 15, want: false},
		{name: "silent prev absolute jump met", energy: 31, prevEnergy: 0, onsetRatio: 6, threshold: 15, want: true},
		{name: "prev at cutoff uses absolute test", energy: 20, prevEnergy: MinPrevEnergy, onsetRatio: 6, threshold: 10, want: false},
		{name: "prev just above cutoff uses ratio", energy: 1, prevEnergy: 0.011, onsetRatio: 6, threshold: 10, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientOnset(tt.energy, tt.prevEnergy, tt.onsetRatio, tt.threshold))
		})
	}
}

func TestOnsetRatio(t *testing.T) {
	assert.InDelta(t, 5.0, OnsetRatio(10, 2), 1e-12)
	assert.InDelta(t, 100.0, OnsetRatio(1, 0), 1e-12)
	assert.InDelta(t, 100.0, OnsetRatio(1, 0.001), 1e-12)
}
