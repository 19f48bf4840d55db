// Package timeline stores detected features in time order.
//
// A Timeline is anchored at the absolute time of the first feature added to
// it; records carry times relative to that origin. Records stay sorted by
// relative time after every mutation, which lets Find stop at the first
// record past the queried range.
package timeline

import (
	"errors"
	"fmt"

	"github.com/kilianp07/amice/core/feature"
)

// ErrOutOfOrder is returned by Add when the feature would precede the last record.
var ErrOutOfOrder = errors.New("feature is earlier than the last record")

// Record is a single feature in a timeline.
type Record struct {
	ID      int           `json:"id"`
	T       float64       `json:"t"`
	Feature feature.Value `json:"feature"`
}

// Timeline is an append and prune only store of features.
type Timeline struct {
	t0      float64
	nextID  int
	records []Record
}

// New returns an empty timeline. The first id handed out is 1.
func New() *Timeline {
	return &Timeline{nextID: 1}
}

// Add appends a feature observed at the absolute time at. If the timeline is
// empty, at becomes its origin. The assigned id is returned.
func (tl *Timeline) Add(at float64, f feature.Value) (int, error) {
	if len(tl.records) == 0 {
		tl.t0 = at
	} else if last := tl.records[len(tl.records)-1].T; at-tl.t0 < last {
		return 0, fmt.Errorf("add at %g (relative %g < %g): %w", at, at-tl.t0, last, ErrOutOfOrder)
	}
	id := tl.nextID
	tl.nextID++
	tl.records = append(tl.records, Record{ID: id, T: at - tl.t0, Feature: f})
	return id, nil
}

// Find returns the records whose relative time lies in [lo, hi], in stored order.
func (tl *Timeline) Find(lo, hi float64) []Record {
	var res []Record
	for _, r := range tl.records {
		if r.T < lo {
			continue
		}
		if r.T > hi {
			break
		}
		res = append(res, r)
	}
	return res
}

// Remove deletes every record whose id is in ids. Survivors keep their order
// and ids.
func (tl *Timeline) Remove(ids ...int) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := tl.records[:0]
	for _, r := range tl.records {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	clear(tl.records[len(kept):])
	tl.records = kept
}

// Origin returns the absolute time of the first feature ever anchored.
func (tl *Timeline) Origin() float64 { return tl.t0 }

// Len returns the number of records.
func (tl *Timeline) Len() int { return len(tl.records) }

// At returns the i-th record in stored order.
func (tl *Timeline) At(i int) Record { return tl.records[i] }

// Records returns a copy of all records in stored order.
func (tl *Timeline) Records() []Record {
	cp := make([]Record, len(tl.records))
	copy(cp, tl.records)
	return cp
}

// Clone returns an independent copy of the timeline, including its id counter.
func (tl *Timeline) Clone() *Timeline {
	return &Timeline{t0: tl.t0, nextID: tl.nextID, records: tl.Records()}
}
