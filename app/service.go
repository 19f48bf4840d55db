package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/kilianp07/amice/api/runs"
	"github.com/kilianp07/amice/app/plugins"
	"github.com/kilianp07/amice/config"
	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/core/events"
	"github.com/kilianp07/amice/core/extract"
	coremetrics "github.com/kilianp07/amice/core/metrics"
	"github.com/kilianp07/amice/core/model"
	"github.com/kilianp07/amice/core/profile"
	"github.com/kilianp07/amice/core/timeline"
	"github.com/kilianp07/amice/infra/loader"
	"github.com/kilianp07/amice/infra/logger"
	"github.com/kilianp07/amice/infra/metrics"
	_ "github.com/kilianp07/amice/infra/mqtt"
	"github.com/kilianp07/amice/infra/store"
	"github.com/kilianp07/amice/internal/eventbus"
	"github.com/kilianp07/amice/pkg/export"
)

// Service wires the loaders, the disaggregation engine and the configured
// sinks and stores.
type Service struct {
	cfg     *config.Config
	tmpls   []extract.Template
	sink    coremetrics.MetricsSink
	store   *store.SQLiteStore
	logFile io.Closer
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	tmpls, err := plugins.BuildTemplates(cfg.Extraction, cfg.Templates)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	logFile, err := logger.SetFile(logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("log file: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc := &Service{cfg: cfg, tmpls: tmpls, sink: sink, logFile: logFile, log: logger.New("service")}
	if cfg.Store.Path != "" {
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("store: %w", err)
		}
		svc.store = st
	}
	return svc, nil
}

// Library builds a profile for every recording of the appliance directory.
func (s *Service) Library() (profile.Library, error) {
	recs, err := loader.LoadApplianceDir(s.cfg.Data.ApplianceDir)
	if err != nil {
		return nil, err
	}
	lib := make(profile.Library, len(recs))
	for name, series := range recs {
		tl, err := extract.Scan(series, s.cfg.Extraction.Window, s.tmpls...)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		if err := lib.Add(profile.New(name, tl)); err != nil {
			return nil, err
		}
		s.log.Debugw("profile loaded", map[string]any{"appliance": name, "features": tl.Len()})
	}
	return lib, nil
}

// Aggregate extracts the feature timeline of the aggregate recording.
func (s *Service) Aggregate() (*timeline.Timeline, error) {
	_, tl, err := s.aggregate()
	return tl, err
}

func (s *Service) aggregate() (model.Series, *timeline.Timeline, error) {
	series, err := loader.LoadAggregate(s.cfg.Data.Aggregate)
	if err != nil {
		return model.Series{}, nil, err
	}
	tl, err := extract.Scan(series, s.cfg.Extraction.Window, s.tmpls...)
	if err != nil {
		return model.Series{}, nil, fmt.Errorf("extract aggregate: %w", err)
	}
	return series, tl, nil
}

// Truth returns the known activations, or nil when none are configured.
func (s *Service) Truth() ([]loader.Truth, error) {
	if s.cfg.Data.Truth == "" {
		return nil, nil
	}
	return loader.LoadTruth(s.cfg.Data.Truth)
}

// Run disaggregates the configured aggregate, records the outcome in the
// metrics sink and the store, and writes the export file when configured.
// A canceled context yields the partial report together with the error.
func (s *Service) Run(ctx context.Context) (disagg.Report, error) {
	if err := s.cfg.Data.Validate(); err != nil {
		return disagg.Report{}, fmt.Errorf("data: %w", err)
	}
	lib, err := s.Library()
	if err != nil {
		return disagg.Report{}, fmt.Errorf("appliances: %w", err)
	}
	series, agg, err := s.aggregate()
	if err != nil {
		return disagg.Report{}, fmt.Errorf("aggregate: %w", err)
	}
	s.log.Infof("%d profiles, %d aggregate features", len(lib), agg.Len())

	// One event per committed match plus the run event always fit.
	bus := eventbus.New[events.Event](agg.Len() + 1)
	done := metrics.StartEventCollector(context.WithoutCancel(ctx), bus, s.sink, logger.New("collector"))

	eng := disagg.NewEngine(lib, s.cfg.Engine, logger.New("engine"), bus)
	rep, runErr := eng.Run(ctx, agg)
	bus.Close()
	<-done
	if n := bus.Dropped(); n > 0 {
		s.log.Warnf("%d engine events dropped", n)
	}

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), rep, time.Now()); err != nil {
			return rep, fmt.Errorf("store report: %w", err)
		}
	}
	if s.cfg.Export.Path != "" {
		err := writeFile(s.cfg.Export.Path, func(w io.Writer) error {
			return export.Write(w, s.cfg.Export.Format, rep)
		})
		if err != nil {
			return rep, fmt.Errorf("export report: %w", err)
		}
	}
	if s.cfg.Export.Chart != "" {
		err := writeFile(s.cfg.Export.Chart, func(w io.Writer) error {
			return export.WriteChart(w, series, rep)
		})
		if err != nil {
			return rep, fmt.Errorf("export chart: %w", err)
		}
	}
	return rep, runErr
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ServeMetrics exposes the Prometheus registry, and the stored runs when
// persistence is enabled, until ctx is canceled. It returns immediately when
// no address is configured.
func (s *Service) ServeMetrics(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusAddr == "" {
		return nil
	}
	routes := map[string]http.Handler{}
	if s.store != nil {
		h := runs.NewHandler(s.store, s.cfg.API.Token)
		routes[runs.Prefix] = h
		routes[runs.Prefix+"/"] = h
	}
	return metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, nil, routes)
}

// Store returns the report store, or nil when persistence is disabled.
func (s *Service) Store() *store.SQLiteStore { return s.store }

// Close releases resources held by the service.
func (s *Service) Close() error {
	closeSink(s.sink)
	var errs []error
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
		if s.cfg.Logging.File != "" {
			_, _ = logger.SetFile(logger.FileConfig{})
		}
	}
	return errors.Join(errs...)
}

func closeSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, sub := range v.Sinks {
			closeSink(sub)
		}
	case interface{ Close() }:
		v.Close()
	case interface{ Disconnect() }:
		v.Disconnect()
	}
}
