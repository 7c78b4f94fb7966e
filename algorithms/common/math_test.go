package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{name: "empty", data: nil, want: 0},
		{name: "zeros", data: []float64{0, 0, 0, 0}, want: 0},
		{name: "constant", data: []float64{0.5, -0.5, 0.5, -0.5}, want: 0.5},
		{name: "single impulse", data: []float64{2, 0, 0, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RMS(tt.data), 1e-12)
		})
	}
}

func TestSumSquares(t *testing.T) {
	assert.Equal(t, 0.0, SumSquares(nil))
	assert.InDelta(t, 14.0, SumSquares([]float64{1, 2, 3}), 1e-12)
}

func TestStatistics(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 3.0, Mean(data), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), StandardDeviation(data), 1e-12)
	assert.Equal(t, 5.0, Max(data))
	assert.Equal(t, 5.0, Percentile(data, 1))
	assert.Equal(t, 1.0, Percentile(data, 0))

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StandardDeviation([]float64{7}))
	assert.Equal(t, 0.0, Max(nil))
	assert.Equal(t, 0.0, Percentile(data, 1.5))
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}
	Percentile(data, 0.5)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.25, Clamp(0.25, 0, 1))
}

func TestFiniteHelpers(t *testing.T) {
	assert.True(t, IsFinite(1.5))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite(math.Inf(-1)))

	assert.True(t, AllFinite([]float64{0, 1, -1}))
	assert.True(t, AllFinite(nil))
	assert.False(t, AllFinite([]float64{0, math.Inf(1)}))

	assert.Equal(t, 0.0, NonNegative(-2))
	assert.Equal(t, 0.0, NonNegative(math.NaN()))
	assert.Equal(t, 0.0, NonNegative(math.Inf(1)))
	assert.Equal(t, 3.0, NonNegative(3))
}
