// Package feature defines the values attached to detected power events.
//
// A Value is a closed tagged variant: its Kind selects the metric used by
// Distance. Values of different kinds are never comparable and their distance
// is +Inf. New kinds register a Metric in the kind table.
package feature
