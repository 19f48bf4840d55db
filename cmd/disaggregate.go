package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kilianp07/amice/app"
	"github.com/kilianp07/amice/core/disagg"
	"github.com/kilianp07/amice/infra/loader"
	"github.com/kilianp07/amice/infra/logger"
)

var disaggOpts struct {
	appliances   string
	aggregate    string
	truth        string
	format       string
	output       string
	chart        string
	parallelism  int
	serveMetrics bool
}

var disaggregateCmd = &cobra.Command{
	Use:   "disaggregate",
	Short: "Identify appliance activations in an aggregate recording",
	RunE:  disaggregate,
}

func init() {
	f := disaggregateCmd.Flags()
	f.StringVar(&disaggOpts.appliances, "appliances", "", "directory of appliance CSV recordings")
	f.StringVar(&disaggOpts.aggregate, "aggregate", "", "aggregate t,p CSV recording")
	f.StringVar(&disaggOpts.truth, "truth", "", "optional CSV of known activations (appliance,time)")
	f.StringVar(&disaggOpts.format, "format", "", "export format (json or csv)")
	f.StringVarP(&disaggOpts.output, "output", "o", "", "export file")
	f.StringVar(&disaggOpts.chart, "chart", "", "HTML chart of the aggregate with the matches")
	f.IntVar(&disaggOpts.parallelism, "parallelism", 0, "anchors evaluated concurrently")
	f.BoolVar(&disaggOpts.serveMetrics, "serve-metrics", false, "keep serving /metrics after the run until interrupted")
	rootCmd.AddCommand(disaggregateCmd)
}

func disaggregate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if disaggOpts.appliances != "" {
		cfg.Data.ApplianceDir = disaggOpts.appliances
	}
	if disaggOpts.aggregate != "" {
		cfg.Data.Aggregate = disaggOpts.aggregate
	}
	if disaggOpts.truth != "" {
		cfg.Data.Truth = disaggOpts.truth
	}
	if disaggOpts.format != "" {
		cfg.Export.Format = disaggOpts.format
	}
	if disaggOpts.output != "" {
		cfg.Export.Path = disaggOpts.output
	}
	if disaggOpts.chart != "" {
		cfg.Export.Chart = disaggOpts.chart
	}
	if disaggOpts.parallelism > 0 {
		cfg.Engine.Parallelism = disaggOpts.parallelism
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	out := cmd.OutOrStdout()
	truth, err := svc.Truth()
	if err != nil {
		return fmt.Errorf("truth: %w", err)
	}
	if truth != nil {
		printTruth(out, truth)
	}

	serveErr := make(chan error, 1)
	if disaggOpts.serveMetrics {
		go func() { serveErr <- svc.ServeMetrics(ctx) }()
	}

	rep, err := svc.Run(ctx)
	printReport(out, rep)
	if err != nil {
		return err
	}
	if disaggOpts.serveMetrics {
		<-ctx.Done()
		return <-serveErr
	}
	return nil
}

func printTruth(w io.Writer, truth []loader.Truth) {
	_, _ = fmt.Fprintln(w, "DATA CONTAINS:")
	for _, t := range truth {
		_, _ = fmt.Fprintf(w, "  %q at t=%g\n", t.Appliance, t.T)
	}
}

func printReport(w io.Writer, rep disagg.Report) {
	_, _ = fmt.Fprintln(w, "FOUND DATA:")
	for _, r := range rep.Results {
		_, _ = fmt.Fprintf(w, "  Found profile %q at t=%g (err=%g, %d features)\n", r.Appliance, r.AbsoluteAnchor, r.Score(), r.Consumed())
	}
	if rep.Residual > 0 {
		_, _ = fmt.Fprintf(w, "  no more matches found, %d unmatched features\n", rep.Residual)
	}
}
