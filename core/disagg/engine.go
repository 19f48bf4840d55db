package disagg

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/amice/core/events"
	"github.com/kilianp07/amice/core/logger"
	"github.com/kilianp07/amice/core/profile"
	"github.com/kilianp07/amice/core/timeline"
	"github.com/kilianp07/amice/internal/eventbus"
)

// Engine runs greedy disaggregation over an aggregate timeline.
type Engine struct {
	lib   profile.Library
	names []string
	cfg   Config
	log   logger.Logger
	pub   eventbus.Publisher[events.Event]
}

// NewEngine creates an engine for the given profile library. cfg is used as
// given; zero tolerances demand exact matches. log and pub may be nil.
func NewEngine(lib profile.Library, cfg Config, log logger.Logger, pub eventbus.Publisher[events.Event]) *Engine {
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{lib: lib, names: lib.Names(), cfg: cfg, log: log, pub: pub}
}

// candidate is the best fit found for one anchor record.
type candidate struct {
	index   int
	profile *profile.Profile
	fit     profile.Fit
}

func (c candidate) score() float64 { return c.fit.Score() }

var none = candidate{index: -1, fit: profile.NoFit}

// bestAt evaluates every profile anchored at the i-th record of agg. Profiles
// are tried in name order and only a strictly lower score replaces the
// current best.
func (e *Engine) bestAt(agg *timeline.Timeline, i int) candidate {
	best := none
	anchor := agg.At(i).T
	for _, name := range e.names {
		p := e.lib[name]
		fit := p.Match(agg, anchor, e.cfg.Match)
		if !fit.OK() {
			continue
		}
		if fit.Score() < best.score() {
			best = candidate{index: i, profile: p, fit: fit}
		}
	}
	return best
}

// best returns the globally best (record, profile) pair. Ties resolve to the
// earliest record, then the earliest profile name, whether or not anchors
// are evaluated concurrently.
func (e *Engine) best(ctx context.Context, agg *timeline.Timeline) (candidate, error) {
	n := agg.Len()
	if e.cfg.Parallelism < 2 || n < 2 {
		best := none
		for i := 0; i < n; i++ {
			if c := e.bestAt(agg, i); c.score() < best.score() {
				best = c
			}
		}
		return best, nil
	}

	perAnchor := make([]candidate, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Parallelism)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perAnchor[i] = e.bestAt(agg, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return none, err
	}
	best := none
	for _, c := range perAnchor {
		if c.score() < best.score() {
			best = c
		}
	}
	return best, nil
}

// Best returns the match the engine would commit next without modifying agg.
// ok is false when no profile matches anywhere.
func (e *Engine) Best(ctx context.Context, agg *timeline.Timeline) (res Result, ok bool, err error) {
	c, err := e.best(ctx, agg)
	if err != nil || c.index < 0 || math.IsInf(c.score(), 1) {
		return Result{}, false, err
	}
	return e.result(agg, c), true, nil
}

func (e *Engine) result(agg *timeline.Timeline, c candidate) Result {
	anchor := agg.At(c.index).T
	return Result{
		Appliance:      c.profile.Name(),
		Anchor:         anchor,
		AbsoluteAnchor: AbsoluteAnchor(agg.Origin(), anchor, c.profile.Origin()),
		FeatureErr:     c.fit.FeatureErr,
		TimeErr:        c.fit.TimeErr,
		IDs:            c.fit.IDs,
	}
}

// Run disaggregates agg in place: committed matches remove their records,
// and whatever remains at the end is the residual. The context is checked
// between iterations; on cancellation the partial report is returned with
// the context error.
func (e *Engine) Run(ctx context.Context, agg *timeline.Timeline) (Report, error) {
	start := time.Now()
	rep := Report{RunID: uuid.NewString()}
	var runErr error
	for agg.Len() > 0 {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		res, ok, err := e.Best(ctx, agg)
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			e.log.Infof("no more matches found, %d unmatched features", agg.Len())
			break
		}
		agg.Remove(res.IDs...)
		rep.Results = append(rep.Results, res)
		e.log.Infof("found profile %q at t=%g (err=%g, %d features)", res.Appliance, res.AbsoluteAnchor, res.Score(), res.Consumed())
		e.publish(events.MatchEvent{
			RunID:          rep.RunID,
			Appliance:      res.Appliance,
			Anchor:         res.Anchor,
			AbsoluteAnchor: res.AbsoluteAnchor,
			FeatureErr:     res.FeatureErr,
			TimeErr:        res.TimeErr,
			Consumed:       res.Consumed(),
			Time:           time.Now(),
		})
	}
	rep.Residual = agg.Len()
	rep.Unmatched = agg.Records()
	e.log.Debugw("disaggregation finished", map[string]any{
		"run_id":   rep.RunID,
		"matches":  len(rep.Results),
		"residual": rep.Residual,
	})
	e.publish(events.RunEvent{
		RunID:    rep.RunID,
		Matches:  len(rep.Results),
		Residual: rep.Residual,
		Duration: time.Since(start),
		Err:      runErr,
		Time:     time.Now(),
	})
	return rep, runErr
}

func (e *Engine) publish(ev events.Event) {
	if e.pub != nil {
		e.pub.Publish(ev)
	}
}

// Disaggregate runs a sequential engine with the given tolerances over agg.
// agg is consumed by the run.
func Disaggregate(agg *timeline.Timeline, lib profile.Library, opts profile.MatchOptions) Report {
	rep, _ := NewEngine(lib, Config{Match: opts}, nil, nil).Run(context.Background(), agg)
	return rep
}
