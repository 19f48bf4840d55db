// Package plugins holds the named feature templates that can be selected
// from configuration.
package plugins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/factory"
)

// TemplateFactory builds a feature template from the extraction settings and
// a raw configuration map.
type TemplateFactory func(cfg extract.Config, conf map[string]any) (extract.Template, error)

var Templates = map[string]TemplateFactory{}

func RegisterTemplate(name string, f TemplateFactory) { Templates[name] = f }

// BuildTemplates instantiates the configured templates in priority order.
// An empty list yields the built-in defaults.
func BuildTemplates(cfg extract.Config, mods []factory.ModuleConfig) ([]extract.Template, error) {
	if len(mods) == 0 {
		return extract.DefaultTemplates(cfg), nil
	}
	out := make([]extract.Template, 0, len(mods))
	for _, m := range mods {
		f, ok := Templates[m.Type]
		if !ok {
			return nil, fmt.Errorf("unknown template %q (known: %s)", m.Type, strings.Join(templateNames(), ", "))
		}
		t, err := f(cfg, m.Conf)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", m.Type, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func templateNames() []string {
	names := make([]string, 0, len(Templates))
	for n := range Templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
