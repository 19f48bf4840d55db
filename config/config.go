package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/factory"
	"github.com/kilianp07/amice/core/metrics"
)

// EnvPrefix marks environment variables that override file values.
// K_ENGINE__MATCH__TOL_T=3 sets engine.match.tol_t.
const EnvPrefix = "K_"

type Config struct {
	Extraction extract.Config `json:"extraction"`
	// Templates selects the feature templates in priority order. Empty
	// selects the load step template.
	Templates []factory.ModuleConfig `json:"templates"`
	Engine    disagg.Config          `json:"engine"`
	Data      DataConfig             `json:"data"`
	Metrics   metrics.Config         `json:"metrics"`
	Store     StoreConfig            `json:"store"`
	API       APIConfig              `json:"api"`
	Export    ExportConfig           `json:"export"`
	Logging   LoggingConfig          `json:"logging"`
}

// Load reads the configuration file at path and applies environment
// overrides. An empty path loads defaults and environment values only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	c.Extraction.SetDefaults()
	c.Engine.SetDefaults()
	c.Export.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
