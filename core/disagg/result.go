package disagg

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/amice/core/timeline"
)

// Result describes one committed match.
type Result struct {
	Appliance string `json:"appliance"`
	// Anchor is the aggregate-relative time of the record the profile's
	// first feature was anchored at.
	Anchor float64 `json:"anchor"`
	// AbsoluteAnchor is the estimated start of the appliance recording in
	// aggregate time, see AbsoluteAnchor.
	AbsoluteAnchor float64 `json:"absolute_anchor"`
	FeatureErr     float64 `json:"feature_error"`
	TimeErr        float64 `json:"time_error"`
	// IDs are the consumed aggregate record ids in profile feature order.
	IDs []int `json:"consumed_ids"`
}

// Score is the combined error the match was selected on.
func (r Result) Score() float64 { return r.FeatureErr + r.TimeErr }

// Consumed returns the number of aggregate records the match removed.
func (r Result) Consumed() int { return len(r.IDs) }

// AbsoluteAnchor converts an aggregate-relative anchor into the time at which
// the matched appliance's recording would have started, expressed on the
// aggregate's absolute clock. The profile origin is the offset of the
// signature's first feature inside its own recording, so subtracting it
// shifts from "first feature" to "recording start".
func AbsoluteAnchor(aggregateOrigin, anchor, profileOrigin float64) float64 {
	return anchor + aggregateOrigin - profileOrigin
}

// Report is the outcome of a disaggregation run.
type Report struct {
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
	// Residual is the number of aggregate records no profile could explain.
	Residual  int               `json:"residual"`
	Unmatched []timeline.Record `json:"unmatched"`
}

// Summary aggregates statistics over a report.
type Summary struct {
	Matches      int            `json:"matches"`
	Consumed     int            `json:"consumed"`
	Residual     int            `json:"residual"`
	MeanScore    float64        `json:"mean_score"`
	MaxScore     float64        `json:"max_score"`
	PerAppliance map[string]int `json:"per_appliance"`
}

// Summary computes statistics over the committed matches.
func (r Report) Summary() Summary {
	s := Summary{
		Matches:      len(r.Results),
		Residual:     r.Residual,
		PerAppliance: make(map[string]int),
	}
	if len(r.Results) == 0 {
		return s
	}
	scores := make([]float64, len(r.Results))
	for i, res := range r.Results {
		scores[i] = res.Score()
		s.Consumed += res.Consumed()
		s.PerAppliance[res.Appliance]++
	}
	s.MeanScore = stat.Mean(scores, nil)
	s.MaxScore = floats.Max(scores)
	return s
}
