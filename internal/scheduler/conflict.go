package scheduler

import "time"

// Status tracks the lifecycle of a booked event. Cancelled is terminal.
type Status string

const (
	// StatusScheduled marks an event that occupies its owner's calendar.
	StatusScheduled Status = "scheduled"
	// StatusCancelled marks an event that no longer blocks bookings.
	StatusCancelled Status = "cancelled"
)

// Event is the unit of conflict: a booked interval on an owner's calendar,
// padded by the idle buffers recorded when it was booked.
type Event struct {
	ID           string
	OwnerID      string
	Start        time.Time
	End          time.Time
	BufferBefore time.Duration
	BufferAfter  time.Duration
	Status       Status
}

// Buffers holds the idle padding applied around a candidate interval.
type Buffers struct {
	Before time.Duration
	After  time.Duration
}

// Blocked reports whether the candidate interval [start, end), padded by the
// supplied buffers, overlaps any non-cancelled existing event padded by that
// event's own buffers (falling back to the supplied buffers when the event
// recorded none). Padding both sides guarantees the configured gap holds no
// matter which meeting contributes the buffer.
func Blocked(existing []Event, start, end time.Time, buf Buffers) bool {
	return len(Conflicts(existing, start, end, buf)) > 0
}

// Conflicts returns the ids of every existing event whose padded interval
// intersects the padded candidate, for callers that surface specifics.
func Conflicts(existing []Event, start, end time.Time, buf Buffers) []string {
	candStart := start.Add(-buf.Before)
	candEnd := end.Add(buf.After)

	var ids []string
	for _, ev := range existing {
		if ev.Status == StatusCancelled {
			continue
		}
		before, after := ev.BufferBefore, ev.BufferAfter
		if before == 0 && after == 0 {
			before, after = buf.Before, buf.After
		}
		evStart := ev.Start.Add(-before)
		evEnd := ev.End.Add(after)

		// Half-open interval overlap on the buffer-expanded bounds.
		if candStart.Before(evEnd) && candEnd.After(evStart) {
			ids = append(ids, ev.ID)
		}
	}
	return ids
}
