package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestBlockAssembler_AddSamples(t *testing.T) {
	ba := NewBlockAssembler(4)

	blocks := ba.AddSamples(ramp(3, 0))
	assert.Empty(t, blocks)
	assert.Equal(t, 3, ba.Pending())

	blocks = ba.AddSamples(ramp(6, 3))
	require.Len(t, blocks, 2)
	assert.Equal(t, []float64{0, 1, 2, 3}, blocks[0])
	assert.Equal(t, []float64{4, 5, 6, 7}, blocks[1])
	assert.Equal(t, 1, ba.Pending())
	assert.Equal(t, 2, ba.Emitted())
}

func TestBlockAssembler_BlocksAreIndependent(t *testing.T) {
	ba := NewBlockAssembler(2)
	blocks := ba.AddSamples([]float64{1, 2, 3, 4})
	require.Len(t, blocks, 2)

	blocks[0][0] = 99
	assert.Equal(t, []float64{3, 4}, blocks[1])
}

func TestBlockAssembler_Each(t *testing.T) {
	ba := NewBlockAssembler(3)

	var got [][]float64
	err := ba.Each(ramp(7, 0), func(block []float64) error {
		got = append(got, append([]float64(nil), block...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1, 2}, {3, 4, 5}}, got)
	assert.Equal(t, 1, ba.Pending())

	// The pending sample starts the next block
	err = ba.Each([]float64{7, 8}, func(block []float64) error {
		got = append(got, append([]float64(nil), block...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 7, 8}, got[2])
}

func TestBlockAssembler_EachStopsOnError(t *testing.T) {
	ba := NewBlockAssembler(2)
	stop := errors.New("stop")

	calls := 0
	err := ba.Each(ramp(10, 0), func(block []float64) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestBlockAssembler_Reset(t *testing.T) {
	ba := NewBlockAssembler(4)
	ba.AddSamples(ramp(6, 0))
	ba.Reset()

	assert.Equal(t, 0, ba.Pending())
	assert.Equal(t, 0, ba.Emitted())
	assert.Equal(t, 4, ba.BlockSize())
}

func TestNewBlockAssembler_NonPositiveSize(t *testing.T) {
	ba := NewBlockAssembler(0)
	assert.Equal(t, 1, ba.BlockSize())
	assert.Len(t, ba.AddSamples([]float64{1, 2}), 2)
}
