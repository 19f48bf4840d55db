package scenarios

import (
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/amice/core/model"
)

// StepDef is a change of the power level at a sample index.
type StepDef struct {
	At    int     `yaml:"at"`
	Watts float64 `yaml:"watts"`
}

// ApplianceDef describes an appliance recording as a sequence of level
// changes starting from zero.
type ApplianceDef struct {
	Name   string    `yaml:"name"`
	Length int       `yaml:"length"`
	Steps  []StepDef `yaml:"steps"`
}

// ToSeries renders the recording with sample indices as timestamps.
func (a ApplianceDef) ToSeries() (model.Series, error) {
	p := make([]float64, a.Length)
	if err := applySteps(p, a.Steps); err != nil {
		return model.Series{}, fmt.Errorf("appliance %s: %w", a.Name, err)
	}
	return model.IndexSeries(p)
}

// PlacementDef places an appliance recording into the aggregate so that the
// recording's first sample lands at Offset.
type PlacementDef struct {
	Appliance string `yaml:"appliance"`
	Offset    int    `yaml:"offset"`
}

// AggregateDef describes the synthetic aggregate recording.
type AggregateDef struct {
	Length     int            `yaml:"length"`
	Base       float64        `yaml:"base"`
	Noise      float64        `yaml:"noise"`
	Seed       uint64         `yaml:"seed"`
	Placements []PlacementDef `yaml:"placements"`
	// Extra adds level changes from appliances outside the library.
	Extra []StepDef `yaml:"extra,omitempty"`
}

type ExpectedMatch struct {
	Appliance string  `yaml:"appliance"`
	At        float64 `yaml:"at"`
}

type Expected struct {
	Matches  []ExpectedMatch `yaml:"matches"`
	Residual int             `yaml:"residual"`
}

type Options struct {
	TolT        float64 `yaml:"tol_t,omitempty"`
	TolF        float64 `yaml:"tol_f,omitempty"`
	Parallelism int     `yaml:"parallelism,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Appliances  []ApplianceDef `yaml:"appliances"`
	Aggregate   AggregateDef   `yaml:"aggregate"`
	Options     Options        `yaml:"options,omitempty"`
	Expected    Expected       `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Synthesize renders the appliance recordings and the aggregate they add up
// to. Noise is uniform in [-Noise, Noise] and reproducible from Seed.
func (sc *Scenario) Synthesize() (map[string]model.Series, model.Series, error) {
	recs := make(map[string]model.Series, len(sc.Appliances))
	for _, a := range sc.Appliances {
		s, err := a.ToSeries()
		if err != nil {
			return nil, model.Series{}, err
		}
		recs[a.Name] = s
	}

	agg := make([]float64, sc.Aggregate.Length)
	for i := range agg {
		agg[i] = sc.Aggregate.Base
	}
	for _, pl := range sc.Aggregate.Placements {
		rec, ok := recs[pl.Appliance]
		if !ok {
			return nil, model.Series{}, fmt.Errorf("placement of unknown appliance %q", pl.Appliance)
		}
		if pl.Offset < 0 || pl.Offset+rec.Len() > len(agg) {
			return nil, model.Series{}, fmt.Errorf("placement of %s at %d exceeds aggregate", pl.Appliance, pl.Offset)
		}
		for i, v := range rec.P {
			agg[pl.Offset+i] += v
		}
	}
	if err := applySteps(agg, sc.Aggregate.Extra); err != nil {
		return nil, model.Series{}, fmt.Errorf("aggregate: %w", err)
	}
	if sc.Aggregate.Noise > 0 {
		rng := rand.New(rand.NewPCG(sc.Aggregate.Seed, sc.Aggregate.Seed))
		for i := range agg {
			agg[i] += (2*rng.Float64() - 1) * sc.Aggregate.Noise
		}
	}
	s, err := model.IndexSeries(agg)
	return recs, s, err
}

// applySteps adds the level of every step to p from its index onwards.
func applySteps(p []float64, steps []StepDef) error {
	for _, st := range steps {
		if st.At < 0 || st.At >= len(p) {
			return fmt.Errorf("step at %d outside [0,%d)", st.At, len(p))
		}
		for i := st.At; i < len(p); i++ {
			p[i] += st.Watts
		}
	}
	return nil
}
