package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries(t *testing.T) {
	s, err := NewSeries([]float64{0, 1, 2.5}, []float64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	wt, wp := s.Window(1, 2)
	assert.Equal(t, []float64{1, 2.5}, wt)
	assert.Equal(t, []float64{20, 30}, wp)
}

func TestNewSeries_Errors(t *testing.T) {
	_, err := NewSeries([]float64{0, 1}, []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewSeries([]float64{0, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotAscending)

	_, err = NewSeries([]float64{0, 1}, []float64{1, math.NaN()})
	assert.ErrorIs(t, err, ErrNaN)
}

func TestIndexSeries(t *testing.T) {
	s, err := IndexSeries([]float64{5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, s.T)

	one, err := IndexSeries([]float64{5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, one.T)

	empty, err := IndexSeries(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}
