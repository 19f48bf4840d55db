package profile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/feature"
	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/timeline"
)

type step struct {
	at    float64
	delta float64
}

func timelineOf(t *testing.T, steps ...step) *timeline.Timeline {
	t.Helper()
	tl := timeline.New()
	for _, s := range steps {
		_, err := tl.Add(s.at, feature.LoadStep(s.delta))
		require.NoError(t, err)
	}
	return tl
}

func kettle(t *testing.T) *Profile {
	return New("kettle", timelineOf(t, step{10, 1000}, step{40, -1000}))
}

func TestMatch_ExactSignature(t *testing.T) {
	target := timelineOf(t, step{100, 1000}, step{130, -1000})
	fit := kettle(t).Match(target, 0, DefaultMatchOptions())

	require.True(t, fit.OK())
	assert.Equal(t, 0.0, fit.Score())
	assert.Equal(t, []int{1, 2}, fit.IDs)
}

func TestMatch_WithinTolerances(t *testing.T) {
	target := timelineOf(t, step{100, 1010}, step{133, -980})
	fit := kettle(t).Match(target, 0, DefaultMatchOptions())

	require.True(t, fit.OK())
	assert.InDelta(t, 30.0, fit.FeatureErr, 1e-9)
	assert.InDelta(t, 3.0, fit.TimeErr, 1e-9)
	assert.Len(t, fit.IDs, kettle(t).Len())
}

func TestMatch_AllOrNothing(t *testing.T) {
	opts := DefaultMatchOptions()
	cases := map[string]*timeline.Timeline{
		"second feature outside time window": timelineOf(t, step{100, 1000}, step{140, -1000}),
		"second feature outside tolerance":   timelineOf(t, step{100, 1000}, step{130, -900}),
		"second feature of other sign":       timelineOf(t, step{100, 1000}, step{130, 1000}),
		"target empty":                       timeline.New(),
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			fit := kettle(t).Match(target, 0, opts)
			assert.False(t, fit.OK())
			assert.True(t, math.IsInf(fit.FeatureErr, 1))
			assert.True(t, math.IsInf(fit.TimeErr, 1))
			assert.Empty(t, fit.IDs)
		})
	}
}

func TestMatch_PicksClosestCandidateEarliestOnTie(t *testing.T) {
	p := New("heater", timelineOf(t, step{0, 500}))
	target := timelineOf(t,
		step{0, 530},
		step{1, 490},
		step{2, 510},
		step{3, 502},
	)
	fit := p.Match(target, 1, DefaultMatchOptions())
	require.True(t, fit.OK())
	assert.Equal(t, []int{4}, fit.IDs)

	tie := timelineOf(t, step{0, 510}, step{1, 490})
	fit = p.Match(tie, 0, DefaultMatchOptions())
	require.True(t, fit.OK())
	assert.Equal(t, []int{1}, fit.IDs)
}

func TestMatch_DoesNotConsumeRecordTwice(t *testing.T) {
	p := New("double", timelineOf(t, step{0, 200}, step{2, 200}))
	target := timelineOf(t, step{0, 200})
	assert.False(t, p.Match(target, 0, DefaultMatchOptions()).OK())

	target = timelineOf(t, step{0, 200}, step{1, 210})
	fit := p.Match(target, 0, DefaultMatchOptions())
	require.True(t, fit.OK())
	assert.Equal(t, []int{1, 2}, fit.IDs)
}

func TestMatch_IsReadOnly(t *testing.T) {
	target := timelineOf(t, step{100, 1000}, step{130, -1000}, step{150, 20})
	before := target.Records()
	p := kettle(t)
	for i := 0; i < 5; i++ {
		_ = p.Match(target, 0, DefaultMatchOptions())
		_ = p.Match(target, 30, DefaultMatchOptions())
	}
	assert.Equal(t, before, target.Records())
	assert.Equal(t, 2, p.Len())
}

func TestMatch_EmptyProfile(t *testing.T) {
	p := New("idle", timeline.New())
	assert.False(t, p.Match(timelineOf(t, step{0, 1}), 0, DefaultMatchOptions()).OK())
}

func TestNew_CopiesTimeline(t *testing.T) {
	tl := timelineOf(t, step{0, 100})
	p := New("lamp", tl)
	tl.Remove(1)
	assert.Equal(t, 1, p.Len())
}

func TestFromSeries(t *testing.T) {
	y := make([]float64, 30)
	for i := 5; i < 20; i++ {
		y[i] = 300
	}
	s, err := model.IndexSeries(y)
	require.NoError(t, err)
	p, err := FromSeries("toaster", s, extract.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "toaster", p.Name())
	assert.Equal(t, 5.0, p.Origin())
	recs := p.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 15.0, recs[1].T)
	assert.Equal(t, feature.LoadStep(-300), recs[1].Feature)
}

func TestLibrary(t *testing.T) {
	lib := Library{}
	require.NoError(t, lib.Add(New("tv", timeline.New())))
	require.NoError(t, lib.Add(New("oven", timeline.New())))
	assert.Error(t, lib.Add(New("tv", timeline.New())))
	assert.Equal(t, []string{"oven", "tv"}, lib.Names())
}

func TestMatchOptions(t *testing.T) {
	var o MatchOptions
	o.SetDefaults()
	assert.Equal(t, DefaultMatchOptions(), o)
	assert.NoError(t, o.Validate())
	assert.Error(t, MatchOptions{TolT: -1}.Validate())
	assert.Error(t, MatchOptions{TolF: -1}.Validate())
	assert.Error(t, MatchOptions{TolT: math.NaN(), TolF: 1}.Validate())
	assert.Error(t, MatchOptions{TolT: 1, TolF: math.NaN()}.Validate())
}
