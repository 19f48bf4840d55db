// Package metrics defines the sinks that record disaggregation outcomes.
// Sinks like PromSink, InfluxSink or the MQTT publisher receive every
// committed match and optionally a per-run summary. They are built from
// configuration through the sink registry; NewMetricsSink returns a
// MultiSink when several are configured.
package metrics
