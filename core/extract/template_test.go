package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/amice/core/feature"
)

var idx5 = []float64{0, 1, 2, 3, 4}

func TestLoadStepTemplate_Match(t *testing.T) {
	tmpl := LoadStepTemplate{StepTol: DefaultStepTol}
	cases := []struct {
		name  string
		y     []float64
		ok    bool
		at    float64
		delta float64
	}{
		{"rising edge", []float64{0, 0, 0, 100, 100}, true, 3, 100},
		{"falling edge", []float64{100, 100, 0, 0, 0}, true, 2, -100},
		{"flat", []float64{10, 10, 10, 10, 10}, false, 0, 0},
		{"below tolerance", []float64{0, 10, 20, 30, 40}, false, 0, 0},
		{"ramp without single jump", []float64{0, 30, 60, 90, 120}, true, 3, 120},
		{"exactly at tolerance", []float64{0, 0, 50, 50, 50}, true, 3, 50},
		{"spike returning to base", []float64{0, 500, 0, 0, 0}, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, at, v := tmpl.Match(idx5, tc.y)
			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				return
			}
			assert.Equal(t, tc.at, at)
			assert.Equal(t, feature.LoadStep(tc.delta), v)
		})
	}
}

func TestLoadStepTemplate_UsesTimestamps(t *testing.T) {
	tmpl := LoadStepTemplate{StepTol: 50}
	ok, at, _ := tmpl.Match([]float64{100, 110, 120, 130, 140}, []float64{0, 0, 0, 100, 100})
	assert.True(t, ok)
	assert.Equal(t, 130.0, at)
}

func TestLoadStepTemplate_DegenerateWindows(t *testing.T) {
	tmpl := LoadStepTemplate{StepTol: 50}
	ok, _, _ := tmpl.Match([]float64{0}, []float64{100})
	assert.False(t, ok)
	ok, _, _ = tmpl.Match([]float64{0, 1}, []float64{0, 100, 100})
	assert.False(t, ok, "mismatched lengths")
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultConfig(), c)
	assert.NoError(t, c.Validate())

	assert.Error(t, Config{Window: 1, StepTol: 50}.Validate())
	assert.Error(t, Config{Window: 5, StepTol: -1}.Validate())
}
