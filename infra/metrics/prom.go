package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/amice/core/metrics"
)

// ScoreBuckets are the histogram buckets of the match score, spanning exact
// matches up to a few times the default feature tolerance.
var ScoreBuckets = []float64{0, 1, 5, 10, 20, 40, 80, 160}

// PromSink records disaggregation outcomes in Prometheus metrics.
type PromSink struct {
	matches  *prometheus.CounterVec
	consumed *prometheus.CounterVec
	score    *prometheus.HistogramVec
	runs     *prometheus.CounterVec
	residual prometheus.Gauge
	duration prometheus.Histogram
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.matches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appliance_matches_total",
		Help: "Total number of committed appliance matches",
	}, []string{"appliance"})); err != nil {
		return nil, err
	}
	if s.consumed, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "appliance_features_consumed_total",
		Help: "Aggregate features explained by appliance matches",
	}, []string{"appliance"})); err != nil {
		return nil, err
	}
	if s.score, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appliance_match_score",
		Help:    "Combined feature and time error of committed matches",
		Buckets: ScoreBuckets,
	}, []string{"appliance"})); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "disaggregation_runs_total",
		Help: "Total number of disaggregation runs",
	}, []string{"status"})); err != nil {
		return nil, err
	}
	if s.residual, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "disaggregation_residual_features",
		Help: "Aggregate features left unexplained by the last run",
	})); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "disaggregation_run_duration_seconds",
		Help:    "Wall time of disaggregation runs",
		Buckets: prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordMatches updates the per-appliance counters and score histogram.
func (s *PromSink) RecordMatches(recs []coremetrics.MatchRecord) error {
	for _, r := range recs {
		s.matches.WithLabelValues(r.Appliance).Inc()
		s.consumed.WithLabelValues(r.Appliance).Add(float64(r.Consumed))
		s.score.WithLabelValues(r.Appliance).Observe(r.Score())
	}
	return nil
}

// RecordRun counts the run and sets the residual gauge.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	status := "completed"
	if rec.Failed {
		status = "failed"
	}
	s.runs.WithLabelValues(status).Inc()
	s.residual.Set(float64(rec.Residual))
	s.duration.Observe(rec.Duration.Seconds())
	return nil
}

func boolLabel(b bool) string { return strconv.FormatBool(b) }
