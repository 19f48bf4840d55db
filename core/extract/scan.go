package extract

import (
	"fmt"

	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/timeline"
)

// Scan extracts features from s into a new timeline using the given templates
// in priority order. A series shorter than the window yields an empty
// timeline. An error is only returned if a template reports events out of
// time order.
func Scan(s model.Series, window int, tmpls ...Template) (*timeline.Timeline, error) {
	tl := timeline.New()
	if window < 1 {
		return tl, nil
	}
	i := 0
	for i+window <= s.Len() {
		t, y := s.Window(i, window)
		matched := false
		for _, tmpl := range tmpls {
			ok, at, v := tmpl.Match(t, y)
			if !ok {
				continue
			}
			if _, err := tl.Add(at, v); err != nil {
				return nil, fmt.Errorf("window at sample %d: %w", i, err)
			}
			matched = true
			break
		}
		if matched {
			i += window
		} else {
			i++
		}
	}
	return tl, nil
}

// Build extracts a timeline from s with the default templates configured by cfg.
func Build(s model.Series, cfg Config) (*timeline.Timeline, error) {
	return Scan(s, cfg.Window, DefaultTemplates(cfg)...)
}
