package events

import "time"

// Event is implemented by every engine event.
type Event interface {
	EventName() string
}

// MatchEvent is published each time the engine commits a match.
type MatchEvent struct {
	RunID          string
	Appliance      string
	Anchor         float64
	AbsoluteAnchor float64
	FeatureErr     float64
	TimeErr        float64
	Consumed       int
	Time           time.Time
}

// EventName implements Event.
func (MatchEvent) EventName() string { return "match" }

// RunEvent is published once when a run terminates. Err is set when the run
// was interrupted.
type RunEvent struct {
	RunID    string
	Matches  int
	Residual int
	Duration time.Duration
	Err      error
	Time     time.Time
}

// EventName implements Event.
func (RunEvent) EventName() string { return "run" }
