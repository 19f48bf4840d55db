package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/amice/core/feature"
	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/timeline"
)

func series(t *testing.T, y ...float64) model.Series {
	t.Helper()
	s, err := model.IndexSeries(y)
	require.NoError(t, err)
	return s
}

func TestBuild_StepUpAndDown(t *testing.T) {
	y := make([]float64, 20)
	for i := 7; i < 15; i++ {
		y[i] = 100
	}
	tl, err := Build(series(t, y...), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 7.0, tl.Origin())
	assert.Equal(t, []timeline.Record{
		{ID: 1, T: 0, Feature: feature.LoadStep(100)},
		{ID: 2, T: 8, Feature: feature.LoadStep(-100)},
	}, tl.Records())
}

func TestBuild_ShortSeriesYieldsNothing(t *testing.T) {
	tl, err := Build(series(t, 0, 100, 100), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, tl.Len())
}

func TestBuild_TrailingSamplesAfterMatchAreDropped(t *testing.T) {
	tl, err := Build(series(t, 0, 0, 100, 100, 100, 100, 100, 300), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 1, tl.Len())
	assert.Equal(t, feature.LoadStep(100), tl.At(0).Feature)
	assert.Equal(t, 2.0, tl.Origin())
}

func TestScan_FirstTemplateWins(t *testing.T) {
	var secondCalls int
	first := TemplateFunc(func(t, y []float64) (bool, float64, feature.Value) {
		return true, t[0], feature.LoadStep(1)
	})
	second := TemplateFunc(func(t, y []float64) (bool, float64, feature.Value) {
		secondCalls++
		return true, t[0], feature.LoadStep(2)
	})
	tl, err := Scan(series(t, make([]float64, 10)...), 5, first, second)
	require.NoError(t, err)

	assert.Equal(t, 2, tl.Len())
	assert.Equal(t, 0, secondCalls)
	assert.Equal(t, 5.0, tl.At(1).T, "window advances by its width after a match")
}

func TestScan_NoMatchAdvancesByOne(t *testing.T) {
	var starts []float64
	probe := TemplateFunc(func(t, y []float64) (bool, float64, feature.Value) {
		starts = append(starts, t[0])
		return false, 0, feature.Value{}
	})
	_, err := Scan(series(t, make([]float64, 7)...), 5, probe)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, starts)
}

func TestScan_OutOfOrderTemplate(t *testing.T) {
	backwards := TemplateFunc(func(t, y []float64) (bool, float64, feature.Value) {
		return true, 100 - t[0], feature.LoadStep(1)
	})
	_, err := Scan(series(t, make([]float64, 10)...), 5, backwards)
	assert.ErrorIs(t, err, timeline.ErrOutOfOrder)
}
