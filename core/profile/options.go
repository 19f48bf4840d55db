package profile

import (
	"fmt"
	"math"
)

const (
	// DefaultTolT is the default time tolerance in seconds.
	DefaultTolT = 5.0
	// DefaultTolF is the default feature value tolerance.
	DefaultTolF = 40.0
)

// MatchOptions holds the tolerances used when matching a profile.
type MatchOptions struct {
	// TolT is the maximum time offset between a profile feature and its partner.
	TolT float64 `json:"tol_t"`
	// TolF is the maximum feature distance accepted for a partner.
	TolF float64 `json:"tol_f"`
}

// DefaultMatchOptions returns the default tolerances.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{TolT: DefaultTolT, TolF: DefaultTolF}
}

// SetDefaults fills zero tolerances with their default values.
func (o *MatchOptions) SetDefaults() {
	if o.TolT == 0 {
		o.TolT = DefaultTolT
	}
	if o.TolF == 0 {
		o.TolF = DefaultTolF
	}
}

// Validate rejects negative and NaN tolerances.
func (o MatchOptions) Validate() error {
	if math.IsNaN(o.TolT) || math.IsNaN(o.TolF) {
		return fmt.Errorf("tolerances must be numbers, got tol_t=%g tol_f=%g", o.TolT, o.TolF)
	}
	if o.TolT < 0 {
		return fmt.Errorf("tol_t must not be negative, got %g", o.TolT)
	}
	if o.TolF < 0 {
		return fmt.Errorf("tol_f must not be negative, got %g", o.TolF)
	}
	return nil
}
