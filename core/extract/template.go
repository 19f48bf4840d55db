package extract

import (
	"math"

	"github.com/kilianp07/amice/core/feature"
)

// Template recognises one kind of event inside a sample window. t and y have
// the same length. When ok is true, at is the event time and v its value.
type Template interface {
	Match(t, y []float64) (ok bool, at float64, v feature.Value)
}

// TemplateFunc adapts a function to the Template interface.
type TemplateFunc func(t, y []float64) (bool, float64, feature.Value)

// Match calls f.
func (f TemplateFunc) Match(t, y []float64) (bool, float64, feature.Value) { return f(t, y) }

// LoadStepTemplate detects a step change in power across the window.
type LoadStepTemplate struct {
	StepTol float64 `json:"step_tol"`
}

// Match reports a load step when the window's end-to-end change is at least
// StepTol. The event time is the midpoint between the first jump found
// scanning forward and the last jump found scanning backward; a jump is a
// sample-to-sample change greater than StepTol.
func (l LoadStepTemplate) Match(t, y []float64) (bool, float64, feature.Value) {
	n := len(y)
	if n < 2 || len(t) != n {
		return false, 0, feature.Value{}
	}
	if math.Abs(y[n-1]-y[0]) < l.StepTol {
		return false, 0, feature.Value{}
	}

	first := n - 1
	for i := 1; i < n; i++ {
		first = i
		if math.Abs(y[i-1]-y[i]) > l.StepTol {
			break
		}
	}

	last := n - 1
	for i := n - 1; i > 1; i-- {
		last = i
		if math.Abs(y[i-1]-y[i]) > l.StepTol {
			break
		}
	}

	return true, (t[first] + t[last]) / 2, feature.LoadStep(y[n-1] - y[0])
}

// DefaultTemplates returns the built-in templates in priority order.
func DefaultTemplates(cfg Config) []Template {
	return []Template{LoadStepTemplate{StepTol: cfg.StepTol}}
}
