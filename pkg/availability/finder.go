package availability

import (
	"sort"
	"time"
)

// FreeTimeSlot finds the earliest interval of at least the given duration
// inside [fromDate, toDate] that does not overlap any busy slot. It returns
// nil when no such interval exists.
//
// Busy slots are swept left to right after sorting by (start, end); touching
// or overlapping slots are merged on the fly. The first sufficiently long gap
// wins, so the result is first-fit, not the globally widest gap.
//
// One asymmetry is intentional and kept for compatibility with the rest of
// the system: when the free time lies before the first busy slot, the whole
// gap [fromDate, firstBusy.start] is returned instead of a duration-sized
// slot, and the gap qualifies only when it is entirely long enough.
func FreeTimeSlot(busySlots []TimeSlot, duration time.Duration, fromDate, toDate time.Time) *TimeSlot {
	sorted := make([]TimeSlot, len(busySlots))
	copy(sorted, busySlots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartDate.Equal(sorted[j].StartDate) {
			return sorted[i].EndDate.Before(sorted[j].EndDate)
		}
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})

	if len(sorted) == 0 {
		endDate := fromDate.Add(duration)
		if !endDate.After(toDate) {
			return &TimeSlot{StartDate: fromDate, EndDate: endDate}
		}
		return nil
	}

	busy := sorted[0]
	if fromDate.Before(busy.StartDate) {
		if busy.StartDate.Sub(fromDate) >= duration {
			if !busy.StartDate.After(toDate) {
				return &TimeSlot{StartDate: fromDate, EndDate: busy.StartDate}
			}
			return nil
		}
	}

	for _, next := range sorted[1:] {
		if busy.EndDate.Before(next.StartDate) {
			if next.StartDate.Sub(busy.EndDate) >= duration {
				if !busy.EndDate.Add(duration).After(toDate) {
					return &TimeSlot{StartDate: busy.EndDate, EndDate: busy.EndDate.Add(duration)}
				}
			}
			busy = next
		} else {
			if next.EndDate.After(busy.EndDate) {
				busy.EndDate = next.EndDate
			}
		}
	}

	if !busy.EndDate.Add(duration).After(toDate) {
		return &TimeSlot{StartDate: busy.EndDate, EndDate: busy.EndDate.Add(duration)}
	}
	return nil
}
