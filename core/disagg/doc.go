// Package disagg explains an aggregate timeline as a sequence of appliance
// matches.
//
// The Engine repeatedly evaluates every profile anchored at every remaining
// aggregate record, commits the pair with the lowest finite score and removes
// the consumed records. It stops when the timeline is empty or nothing can be
// matched any more; the records left over are reported as residual. The
// search is greedy: an early match is never revisited.
package disagg
