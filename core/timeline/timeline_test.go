package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/amice/core/feature"
)

func build(t *testing.T, times ...float64) *Timeline {
	t.Helper()
	tl := New()
	for i, at := range times {
		_, err := tl.Add(at, feature.LoadStep(float64(100*(i+1))))
		require.NoError(t, err)
	}
	return tl
}

func ids(recs []Record) []int {
	out := make([]int, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestAdd_AnchorsAndAssignsIDs(t *testing.T) {
	tl := build(t, 10, 12, 20)
	assert.Equal(t, 10.0, tl.Origin())
	recs := tl.Records()
	assert.Equal(t, []int{1, 2, 3}, ids(recs))
	assert.Equal(t, []float64{0, 2, 10}, []float64{recs[0].T, recs[1].T, recs[2].T})
}

func TestAdd_RejectsOutOfOrder(t *testing.T) {
	tl := build(t, 10, 20)
	_, err := tl.Add(15, feature.LoadStep(1))
	assert.ErrorIs(t, err, ErrOutOfOrder)
	id, err := tl.Add(20, feature.LoadStep(1))
	require.NoError(t, err)
	assert.Equal(t, 3, id, "rejected insert must not consume an id")
}

func TestFind_InclusiveRange(t *testing.T) {
	tl := build(t, 0, 1, 2, 3, 4, 5)
	assert.Equal(t, []int{2, 3, 4}, ids(tl.Find(1, 3)))
	assert.Equal(t, []int{1}, ids(tl.Find(-5, 0)))
	assert.Empty(t, tl.Find(5.5, 9))
	assert.Empty(t, tl.Find(3, 2))
}

func TestRemove_PreservesOrderAndNeverReusesIDs(t *testing.T) {
	tl := build(t, 0, 1, 2, 3)
	tl.Remove(2, 4, 99)
	assert.Equal(t, []int{1, 3}, ids(tl.Records()))
	for _, r := range tl.Find(-100, 100) {
		assert.NotContains(t, []int{2, 4}, r.ID)
	}

	id, err := tl.Add(10, feature.LoadStep(5))
	require.NoError(t, err)
	assert.Equal(t, 5, id)
}

func TestRemove_AllThenReanchor(t *testing.T) {
	tl := build(t, 5, 6)
	tl.Remove(1, 2)
	assert.Equal(t, 0, tl.Len())
	id, err := tl.Add(50, feature.LoadStep(5))
	require.NoError(t, err)
	assert.Equal(t, 3, id)
	assert.Equal(t, 50.0, tl.Origin())
	assert.Equal(t, 0.0, tl.At(0).T)
}

func TestClone_IsIndependent(t *testing.T) {
	tl := build(t, 0, 1, 2)
	cp := tl.Clone()
	cp.Remove(1)
	assert.Equal(t, 3, tl.Len())
	assert.Equal(t, 2, cp.Len())
}
