package scenarios

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/core/events"
	"github.com/kilianp07/amice/core/extract"
	"github.com/kilianp07/amice/core/profile"
	"github.com/kilianp07/amice/infra/logger"
	"github.com/kilianp07/amice/infra/metrics"
	"github.com/kilianp07/amice/internal/eventbus"
)

// anchorTol absorbs float noise in the reported anchors.
const anchorTol = 1e-9

// RunScenario synthesizes the scenario, disaggregates it and checks the
// outcome against the expectations.
func RunScenario(t *testing.T, sc *Scenario) disagg.Report {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	recs, aggSeries, err := sc.Synthesize()
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	ecfg := extract.DefaultConfig()
	lib := make(profile.Library, len(recs))
	for name, s := range recs {
		p, err := profile.FromSeries(name, s, ecfg)
		if err != nil {
			t.Fatalf("profile %s: %v", name, err)
		}
		if err := lib.Add(p); err != nil {
			t.Fatalf("library: %v", err)
		}
	}
	agg, err := extract.Build(aggSeries, ecfg)
	if err != nil {
		t.Fatalf("extract aggregate: %v", err)
	}

	cfg := disagg.Config{
		Match:       profile.MatchOptions{TolT: sc.Options.TolT, TolF: sc.Options.TolF},
		Parallelism: sc.Options.Parallelism,
	}
	cfg.SetDefaults()
	bus := eventbus.New[events.Event](agg.Len() + 1)
	done := metrics.StartEventCollector(context.Background(), bus, sink, logger.NopLogger{})
	rep, err := disagg.NewEngine(lib, cfg, logger.NopLogger{}, bus).Run(context.Background(), agg)
	bus.Close()
	<-done
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := append([]disagg.Result(nil), rep.Results...)
	sort.SliceStable(got, func(i, j int) bool { return got[i].AbsoluteAnchor < got[j].AbsoluteAnchor })
	want := append([]ExpectedMatch(nil), sc.Expected.Matches...)
	sort.SliceStable(want, func(i, j int) bool { return want[i].At < want[j].At })
	if len(got) != len(want) {
		t.Fatalf("expected %d matches, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].Appliance != want[i].Appliance || math.Abs(got[i].AbsoluteAnchor-want[i].At) > anchorTol {
			t.Errorf("match %d: expected %s at %g, got %s at %g", i, want[i].Appliance, want[i].At, got[i].Appliance, got[i].AbsoluteAnchor)
		}
		if n := lib[got[i].Appliance].Len(); got[i].Consumed() != n {
			t.Errorf("match %d consumed %d features, profile has %d", i, got[i].Consumed(), n)
		}
	}
	if rep.Residual != sc.Expected.Residual {
		t.Errorf("expected residual %d, got %d", sc.Expected.Residual, rep.Residual)
	}

	perAppliance := make(map[string]bool)
	for _, w := range want {
		perAppliance[w.Appliance] = true
	}
	if c, err := testutil.GatherAndCount(reg, "appliance_matches_total"); err != nil || c != len(perAppliance) {
		t.Errorf("expected %d appliance_matches_total series, got %d (%v)", len(perAppliance), c, err)
	}
	if v := gaugeValue(t, reg, "disaggregation_residual_features"); int(v) != rep.Residual {
		t.Errorf("residual gauge %v, want %d", v, rep.Residual)
	}
	return rep
}

func gaugeValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	mfs, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
