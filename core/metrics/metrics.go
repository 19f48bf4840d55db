package metrics

import "time"

// MatchRecord is one committed appliance match.
type MatchRecord struct {
	RunID          string
	Appliance      string
	Anchor         float64
	AbsoluteAnchor float64
	FeatureErr     float64
	TimeErr        float64
	Consumed       int
	Time           time.Time
}

// Score returns the combined match error.
func (r MatchRecord) Score() float64 { return r.FeatureErr + r.TimeErr }

// MetricsSink records committed matches for observability purposes.
type MetricsSink interface {
	RecordMatches(recs []MatchRecord) error
}

// RunRecord summarises a finished disaggregation run.
type RunRecord struct {
	RunID    string
	Matches  int
	Residual int
	Duration time.Duration
	Failed   bool
	Time     time.Time
}

// RunRecorder records run summaries.
type RunRecorder interface {
	RecordRun(rec RunRecord) error
}

// NopSink discards every record.
type NopSink struct{}

// RecordMatches implements MetricsSink.
func (NopSink) RecordMatches([]MatchRecord) error { return nil }

// RecordRun implements RunRecorder.
func (NopSink) RecordRun(RunRecord) error { return nil }
