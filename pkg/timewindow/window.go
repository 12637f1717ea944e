// Package timewindow models half-open [start, end) time intervals.
//
// All comparisons are instant comparisons: two windows built from times in
// different locations compare by the absolute instants they denote.
package timewindow

import (
	"errors"
	"sort"
	"time"
)

var ErrInvalidWindow = errors.New("end time must be after start time")

type Window struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Validate fails with ErrInvalidWindow when end <= start.
func Validate(w Window) error {
	if !w.End.After(w.Start) {
		return ErrInvalidWindow
	}
	return nil
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func DurationMinutes(w Window) float64 {
	return w.Duration().Minutes()
}

// Overlaps reports whether a and b share any instant. Touching edges
// (a.End == b.Start) are not an overlap.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner Window) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}

// Gaps returns the parts of bounds not covered by any of busy, in order.
func Gaps(bounds Window, busy []Window) []Window {
	sorted := make([]Window, 0, len(busy))
	for _, b := range busy {
		if Overlaps(bounds, b) {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	gaps := []Window{}
	cursor := bounds.Start
	for _, b := range sorted {
		if b.Start.After(cursor) {
			gaps = append(gaps, Window{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if bounds.End.After(cursor) {
		gaps = append(gaps, Window{Start: cursor, End: bounds.End})
	}
	return gaps
}
