// Package events defines the events published by the disaggregation engine.
//
// Available event types:
//   - MatchEvent: a profile match was committed and its features removed
//   - RunEvent: a run terminated, with its residual feature count
package events
