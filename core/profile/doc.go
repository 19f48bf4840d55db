// Package profile implements appliance signatures and matching them against
// an aggregate timeline.
//
// A Profile is an immutable timeline describing the sequence of features one
// appliance produces. Match anchors the profile's first feature at a candidate
// time in a target timeline and requires every profile feature to find a
// partner within the time and value tolerances. Matching is all or nothing and
// never modifies either timeline, so profiles can be shared between goroutines.
package profile
