package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatches forwards the records to every sink. All sinks are attempted;
// their errors are joined.
func (m *MultiSink) RecordMatches(recs []MatchRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordMatches(recs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the run summary to sinks that support it.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	var errs []error
	for _, s := range m.Sinks {
		if rr, ok := s.(RunRecorder); ok {
			if err := rr.RecordRun(rec); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
