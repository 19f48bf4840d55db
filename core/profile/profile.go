package profile

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/timeline"
)

// Profile is the canonical feature signature of one appliance.
type Profile struct {
	name string
	tl   *timeline.Timeline
}

// New wraps a copy of tl as the signature of the named appliance.
func New(name string, tl *timeline.Timeline) *Profile {
	return &Profile{name: name, tl: tl.Clone()}
}

// FromSeries extracts the signature of the named appliance from a raw recording.
func FromSeries(name string, s model.Series, cfg extract.Config) (*Profile, error) {
	tl, err := extract.Build(s, cfg)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", name, err)
	}
	return &Profile{name: name, tl: tl}, nil
}

// Name returns the appliance name.
func (p *Profile) Name() string { return p.name }

// Len returns the number of features in the signature.
func (p *Profile) Len() int { return p.tl.Len() }

// Origin returns the absolute time of the signature's first feature within
// the recording it was built from.
func (p *Profile) Origin() float64 { return p.tl.Origin() }

// Records returns a copy of the signature's features.
func (p *Profile) Records() []timeline.Record { return p.tl.Records() }

// Fit is the outcome of matching a profile at an anchor.
type Fit struct {
	FeatureErr float64
	TimeErr    float64
	// IDs are the target record ids consumed by the match, one per profile
	// feature in profile order.
	IDs []int
}

// NoFit is returned when a profile cannot be matched.
var NoFit = Fit{FeatureErr: math.Inf(1), TimeErr: math.Inf(1)}

// Score is the combined error used to rank fits.
func (f Fit) Score() float64 { return f.FeatureErr + f.TimeErr }

// OK reports whether the fit has a finite score.
func (f Fit) OK() bool { return !math.IsInf(f.Score(), 0) && !math.IsNaN(f.Score()) }

// Match anchors the profile at relative time t0 of target. For each profile
// feature, the target records within TolT of the expected time are compared
// and the closest one within TolF is consumed. Among equally close
// candidates the earliest wins. A target record is consumed at most once per
// match. If any profile feature finds no partner,
// NoFit is returned. An empty profile never matches.
func (p *Profile) Match(target *timeline.Timeline, t0 float64, opts MatchOptions) Fit {
	if p.tl.Len() == 0 {
		return NoFit
	}
	fit := Fit{IDs: make([]int, 0, p.tl.Len())}
	for i := 0; i < p.tl.Len(); i++ {
		rec := p.tl.At(i)
		expected := t0 + rec.T
		cands := target.Find(expected-opts.TolT, expected+opts.TolT)
		if len(cands) == 0 {
			return NoFit
		}

		best := -1
		bestErr := math.Inf(1)
		for j, c := range cands {
			if slices.Contains(fit.IDs, c.ID) {
				continue
			}
			d := rec.Feature.Distance(c.Feature)
			if d > opts.TolF {
				continue
			}
			if d < bestErr {
				best, bestErr = j, d
			}
		}
		if best < 0 {
			return NoFit
		}

		fit.FeatureErr += bestErr
		fit.TimeErr += math.Abs(expected - cands[best].T)
		fit.IDs = append(fit.IDs, cands[best].ID)
	}
	return fit
}

// Library maps appliance names to their profiles.
type Library map[string]*Profile

// Add stores p under its name. Adding a second profile with the same name is an error.
func (l Library) Add(p *Profile) error {
	if _, ok := l[p.Name()]; ok {
		return fmt.Errorf("profile %s already registered", p.Name())
	}
	l[p.Name()] = p
	return nil
}

// Names returns the profile names in ascending order. This is the order in
// which the disaggregation engine evaluates profiles.
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for n := range l {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
