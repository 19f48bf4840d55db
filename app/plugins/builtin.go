package plugins

import (
	"fmt"

	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/factory"
)

func init() {
	RegisterTemplate("load_step", func(cfg extract.Config, conf map[string]any) (extract.Template, error) {
		t := extract.LoadStepTemplate{StepTol: cfg.StepTol}
		if err := factory.Decode(conf, &t); err != nil {
			return nil, err
		}
		if t.StepTol <= 0 {
			return nil, fmt.Errorf("step_tol must be positive, got %g", t.StepTol)
		}
		return t, nil
	})
}
