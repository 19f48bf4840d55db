package extract

import "fmt"

const (
	// DefaultWindow is the number of samples evaluated per window.
	DefaultWindow = 5
	// DefaultStepTol is the minimal power change in watts recognised as a load step.
	DefaultStepTol = 50.0
)

// Config defines extraction parameters.
type Config struct {
	Window  int     `json:"window"`
	StepTol float64 `json:"step_tol"`
}

// DefaultConfig returns the default extraction parameters.
func DefaultConfig() Config {
	return Config{Window: DefaultWindow, StepTol: DefaultStepTol}
}

// SetDefaults fills zero fields with their default values.
func (c *Config) SetDefaults() {
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.StepTol == 0 {
		c.StepTol = DefaultStepTol
	}
}

// Validate checks the parameters are usable.
func (c Config) Validate() error {
	if c.Window < 2 {
		return fmt.Errorf("extraction window must be at least 2, got %d", c.Window)
	}
	if c.StepTol <= 0 {
		return fmt.Errorf("step_tol must be positive, got %g", c.StepTol)
	}
	return nil
}
