package disagg

import (
	"fmt"

	"github.com/kilianp07/amice/core/profile"
)

// Config defines engine settings.
type Config struct {
	Match profile.MatchOptions `json:"match"`
	// Parallelism bounds the number of anchors evaluated concurrently. Values
	// below 2 evaluate sequentially. The selected match does not depend on it.
	Parallelism int `json:"parallelism"`
}

// DefaultConfig returns the sequential engine with default tolerances.
func DefaultConfig() Config {
	return Config{Match: profile.DefaultMatchOptions(), Parallelism: 1}
}

// SetDefaults fills zero fields with their default values.
func (c *Config) SetDefaults() {
	c.Match.SetDefaults()
	if c.Parallelism == 0 {
		c.Parallelism = 1
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism)
	}
	return c.Match.Validate()
}
