package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateNoiseFloor(t *testing.T) {
	tests := []struct {
		name      string
		floor     float64
		energy    float64
		threshold float64
		alpha     float64
		want      float64
		updated   bool
	}{
		{name: "silence decays floor", floor: 1.0, energy: 0, threshold: 12, alpha: 0.02, want: 0.98, updated: true},
		{name: "quiet block pulls floor up", floor: 1.0, energy: 3.0, threshold: 12, alpha: 0.5, want: 2.0, updated: true},
		{name: "exactly half threshold is not quiet", floor: 1.0, energy: 6.0, threshold: 12, alpha: 0.5, want: 1.0},
		{name: "loud block leaves floor", floor: 2.5, energy: 40, threshold: 15, alpha: 0.02, want: 2.5},
		{name: "alpha zero freezes floor", floor: 2.0, energy: 1.0, threshold: 15, alpha: 0, want: 2.0, updated: true},
		{name: "alpha one jumps to energy", floor: 2.0, energy: 1.0, threshold: 15, alpha: 1, want: 1.0, updated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, updated := UpdateNoiseFloor(tt.floor, tt.energy, tt.threshold, tt.alpha)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.Equal(t, tt.updated, updated)
		})
	}
}

func TestUpdateNoiseFloor_StaysNonNegative(t *testing.T) {
	floor := 5.0
	for range 1000 {
		floor, _ = UpdateNoiseFloor(floor, 0, 15, 0.02)
		assert.GreaterOrEqual(t, floor, 0.0)
	}
	assert.Less(t, floor, 0.01)
}

func TestIsQuiet(t *testing.T) {
	assert.True(t, IsQuiet(7.4, 15))
	assert.False(t, IsQuiet(7.5, 15))
	assert.False(t, IsQuiet(0, 0))
}
