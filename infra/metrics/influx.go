package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/amice/core/metrics"
	"github.com/kilianp07/amice/infra/logger"
)

// InfluxConfig holds the InfluxDB connection parameters.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes disaggregation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// MatchPoint converts a match record into its line protocol point.
func MatchPoint(r coremetrics.MatchRecord) *write.Point {
	return write.NewPointWithMeasurement("appliance_match").
		AddTag("run_id", r.RunID).
		AddTag("appliance", r.Appliance).
		AddTag("component", "disaggregation_engine").
		AddField("anchor", round3(r.Anchor)).
		AddField("absolute_anchor", round3(r.AbsoluteAnchor)).
		AddField("feature_error", round3(r.FeatureErr)).
		AddField("time_error", round3(r.TimeErr)).
		AddField("score", round3(r.Score())).
		AddField("consumed", r.Consumed).
		SetTime(r.Time)
}

// RecordMatches writes one appliance_match point per record.
func (s *InfluxSink) RecordMatches(recs []coremetrics.MatchRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range recs {
		if err := s.writeAPI.WritePoint(ctx, MatchPoint(r)); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun writes the run summary.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("disaggregation_run").
		AddTag("run_id", rec.RunID).
		AddTag("failed", boolLabel(rec.Failed)).
		AddField("matches", rec.Matches).
		AddField("residual", rec.Residual).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
