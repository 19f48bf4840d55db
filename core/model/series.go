package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLengthMismatch is returned when timestamps and power values differ in length.
	ErrLengthMismatch = errors.New("timestamps and power values have different lengths")
	// ErrNotAscending is returned when timestamps are not strictly ascending.
	ErrNotAscending = errors.New("timestamps are not strictly ascending")
	// ErrNaN is returned when a series contains NaN values.
	ErrNaN = errors.New("series contains NaN")
)

// Series is a fully materialised power recording. T holds sample timestamps
// in seconds and P the power in watts at each timestamp.
type Series struct {
	T []float64
	P []float64
}

// NewSeries validates and wraps the given samples.
func NewSeries(t, p []float64) (Series, error) {
	if len(t) != len(p) {
		return Series{}, fmt.Errorf("%d timestamps, %d values: %w", len(t), len(p), ErrLengthMismatch)
	}
	if floats.HasNaN(t) || floats.HasNaN(p) {
		return Series{}, ErrNaN
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return Series{}, fmt.Errorf("t[%d]=%g after t[%d]=%g: %w", i, t[i], i-1, t[i-1], ErrNotAscending)
		}
	}
	return Series{T: t, P: p}, nil
}

// IndexSeries builds a series whose timestamps are the sample indices
// 0..len(p)-1. Appliance recordings are stored this way.
func IndexSeries(p []float64) (Series, error) {
	t := make([]float64, len(p))
	if len(p) >= 2 {
		floats.Span(t, 0, float64(len(p)-1))
	}
	return NewSeries(t, p)
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.P) }

// Window returns the samples in [i, i+w). The slices alias the series.
func (s Series) Window(i, w int) (t, p []float64) {
	return s.T[i : i+w], s.P[i : i+w]
}
