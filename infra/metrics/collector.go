package metrics

import (
	"context"

	"github.com/kilianp07/amice/core/events"
	coremetrics "github.com/kilianp07/amice/core/metrics"
	"github.com/kilianp07/amice/infra/logger"
	"github.com/kilianp07/amice/internal/eventbus"
)

// StartEventCollector subscribes to the bus and forwards engine events to the
// sink. The returned channel is closed once the collector stops, which
// happens when the context is canceled or the bus is closed and drained.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %s event: %v", ev.EventName(), err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.MatchEvent:
		return sink.RecordMatches([]coremetrics.MatchRecord{{
			RunID:          e.RunID,
			Appliance:      e.Appliance,
			Anchor:         e.Anchor,
			AbsoluteAnchor: e.AbsoluteAnchor,
			FeatureErr:     e.FeatureErr,
			TimeErr:        e.TimeErr,
			Consumed:       e.Consumed,
			Time:           e.Time,
		}})
	case events.RunEvent:
		if r, ok := sink.(coremetrics.RunRecorder); ok {
			return r.RecordRun(coremetrics.RunRecord{
				RunID:    e.RunID,
				Matches:  e.Matches,
				Residual: e.Residual,
				Duration: e.Duration,
				Failed:   e.Err != nil,
				Time:     e.Time,
			})
		}
	}
	return nil
}
