package calendar

import (
	"slices"
	"time"
)

// FindFreeSlots returns the gaps of at least minDuration between busy intervals
// inside window, in chronological order.
//
// Busy intervals may be unordered and may overlap. Intervals with End not
// after Start are ignored, as are intervals entirely outside the window;
// the rest are clipped to the window before merging. Touching intervals are
// merged, so no zero-length gap is ever reported.
func FindFreeSlots(window TimeRange, busy []TimeRange, minDuration time.Duration) []TimeRange {
	if !window.End.After(window.Start) {
		return []TimeRange{}
	}

	clipped := make([]TimeRange, 0, len(busy))
	for _, b := range busy {
		if !b.End.After(b.Start) || !b.End.After(window.Start) || !b.Start.Before(window.End) {
			continue
		}
		clipped = append(clipped, b.clip(window))
	}
	slices.SortFunc(clipped, func(a, b TimeRange) int { return a.Start.Compare(b.Start) })

	slots := []TimeRange{}
	emit := func(start, end time.Time) {
		if end.Sub(start) >= minDuration && end.After(start) {
			slots = append(slots, TimeRange{Start: start, End: end})
		}
	}

	cursor := window.Start
	for i := 0; i < len(clipped); {
		// Merge the run of intervals overlapping or touching clipped[i].
		start, end := clipped[i].Start, clipped[i].End
		j := i + 1
		for ; j < len(clipped) && !clipped[j].Start.After(end); j++ {
			if clipped[j].End.After(end) {
				end = clipped[j].End
			}
		}
		emit(cursor, start)
		cursor = end
		i = j
	}
	emit(cursor, window.End)
	return slots
}

func (r TimeRange) clip(window TimeRange) TimeRange {
	if r.Start.Before(window.Start) {
		r.Start = window.Start
	}
	if r.End.After(window.End) {
		r.End = window.End
	}
	return r
}
