package config

import (
	"fmt"
	"strings"
)

// DataConfig locates the input recordings.
type DataConfig struct {
	// ApplianceDir holds one CSV recording per appliance.
	ApplianceDir string `json:"appliance_dir"`
	// Aggregate is the t,p CSV recording to disaggregate.
	Aggregate string `json:"aggregate"`
	// Truth optionally lists the known appliance activations.
	Truth string `json:"truth"`
}

// Validate checks the mandatory inputs are set.
func (c DataConfig) Validate() error {
	if c.ApplianceDir == "" {
		return fmt.Errorf("appliance_dir is required")
	}
	if c.Aggregate == "" {
		return fmt.Errorf("aggregate is required")
	}
	return nil
}

// StoreConfig enables report persistence. An empty path disables it.
type StoreConfig struct {
	Path string `json:"path"`
}

// APIConfig protects the HTTP endpoints served next to /metrics.
type APIConfig struct {
	// Token is the bearer token required by /api routes. Empty disables
	// authentication.
	Token string `json:"token"`
}

// ExportConfig controls the report written after a run.
type ExportConfig struct {
	// Format is "json" or "csv".
	Format string `json:"format"`
	// Path is the output file. Empty disables the export.
	Path string `json:"path"`
	// Chart is an optional HTML chart of the aggregate with the matches.
	Chart string `json:"chart"`
}

// SetDefaults applies sane defaults.
func (c *ExportConfig) SetDefaults() {
	if c.Format == "" {
		c.Format = "json"
	}
	c.Format = strings.ToLower(c.Format)
}

// Validate checks the format is known.
func (c ExportConfig) Validate() error {
	if c.Format != "json" && c.Format != "csv" {
		return fmt.Errorf("unknown format %s", c.Format)
	}
	return nil
}
