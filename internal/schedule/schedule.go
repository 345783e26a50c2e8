// Package schedule holds the availability-aggregation core: it discretizes
// the submitted windows of one event into fixed-width slots, counts how many
// windows fully contain each slot, and picks the best one.
package schedule

import (
	"errors"
	"time"
)

// DefaultSlotWidth is the discretization unit used when the configuration
// does not override it.
const DefaultSlotWidth = 30 * time.Minute

var (
	// ErrNoAvailability means aggregation was attempted with zero windows.
	ErrNoAvailability = errors.New("no availability windows recorded")
	// ErrNoCandidate means selection was attempted over an empty slot sequence.
	ErrNoCandidate = errors.New("no candidate slots")
)

// Window is one participant's availability range, [Start, End), UTC.
type Window struct {
	ParticipantID string
	Start         time.Time
	End           time.Time
}

// SlotCoverage pairs one half-open slot [Start, End) with the number of
// windows that fully contain it.
type SlotCoverage struct {
	Start time.Time
	End   time.Time
	Count int
}

// Aggregate discretizes [min start, max end) over all windows into slots of
// the given width and counts, per slot, the windows containing the entire
// slot. Partial overlap earns no credit: a participant must cover a whole
// slot to be counted for it. The returned sequence is chronological; the
// final slot may extend past the latest window end.
func Aggregate(windows []Window, width time.Duration) ([]SlotCoverage, error) {
	if len(windows) == 0 {
		return nil, ErrNoAvailability
	}
	if width <= 0 {
		width = DefaultSlotWidth
	}

	globalStart := windows[0].Start
	globalEnd := windows[0].End
	for _, w := range windows[1:] {
		if w.Start.Before(globalStart) {
			globalStart = w.Start
		}
		if w.End.After(globalEnd) {
			globalEnd = w.End
		}
	}

	var slots []SlotCoverage
	for t := globalStart; t.Before(globalEnd); t = t.Add(width) {
		slot := SlotCoverage{Start: t, End: t.Add(width)}
		for _, w := range windows {
			if !w.Start.After(slot.Start) && !w.End.Before(slot.End) {
				slot.Count++
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// BestSlot returns the start of the highest-coverage slot. Ties go to the
// chronologically earliest slot, which a stable scan over the ordered input
// gives for free: later slots replace the best only on strictly greater
// coverage.
func BestSlot(slots []SlotCoverage) (time.Time, error) {
	if len(slots) == 0 {
		return time.Time{}, ErrNoCandidate
	}
	best := slots[0]
	for _, s := range slots[1:] {
		if s.Count > best.Count {
			best = s
		}
	}
	return best.Start, nil
}
