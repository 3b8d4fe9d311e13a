package scheduler

import (
	"fmt"
	"time"

	"github.com/example/portal-scheduler/internal/availability"
	"github.com/example/portal-scheduler/internal/timezone"
)

const (
	// DefaultStep is the slot-walk granularity.
	DefaultStep = 15 * time.Minute
	// MaxSlots caps a single generation run to bound response size. Hitting
	// the cap truncates the result; it is not an error.
	MaxSlots = 500
)

// Slot is a discrete bookable start/end instant pair.
type Slot struct {
	Start time.Time
	End   time.Time
}

// GenerateParams describes one slot-generation run. Generation is a pure
// function of these inputs, so a run can be repeated or restarted safely.
type GenerateParams struct {
	Days     []availability.DayWindows
	Location *time.Location
	Duration time.Duration
	Buffers  Buffers
	// MinLead is the minimum notice between Now and a bookable start.
	MinLead time.Duration
	// MaxHorizonDays bounds how far past Now a slot may start. Zero means
	// unbounded.
	MaxHorizonDays int
	Step           time.Duration
	Now            time.Time
	Existing       []Event
	// Limit overrides MaxSlots when positive.
	Limit int
}

// GenerateSlots walks each day's windows at the step granularity and emits
// every candidate interval that satisfies lead-time and horizon policy and
// passes the conflict engine against the existing events.
func GenerateSlots(p GenerateParams) ([]Slot, error) {
	if p.Location == nil {
		return nil, fmt.Errorf("scheduler: location is required")
	}
	if p.Duration <= 0 {
		return nil, fmt.Errorf("scheduler: duration must be positive")
	}
	step := p.Step
	if step <= 0 {
		step = DefaultStep
	}
	limit := p.Limit
	if limit <= 0 || limit > MaxSlots {
		limit = MaxSlots
	}

	notBefore := p.Now.Add(p.MinLead)
	var horizonEnd time.Time
	if p.MaxHorizonDays > 0 {
		horizonEnd = p.Now.AddDate(0, 0, p.MaxHorizonDays)
	}

	slots := make([]Slot, 0)
	for _, day := range p.Days {
		midnight, err := timezone.LocalMidnight(day.Date, p.Location)
		if err != nil {
			return nil, err
		}

		for _, w := range day.Windows {
			windowStart := midnight.Add(time.Duration(w.StartMinutes) * time.Minute)
			windowEnd := midnight.Add(time.Duration(w.EndMinutes) * time.Minute)

			// Buffers guard the gap between meetings, not the window
			// edges: a slot may start at the window boundary and its
			// buffer spill outside the window.
			earliest := windowStart
			if earliest.Before(notBefore) {
				// Advance to the lead-time bound while staying on the
				// window's step grid.
				steps := (notBefore.Sub(earliest) + step - 1) / step
				earliest = earliest.Add(steps * step)
			}
			latest := windowEnd.Add(-p.Duration)
			if earliest.After(latest) {
				continue
			}

			for t := earliest; !t.After(latest); t = t.Add(step) {
				if !horizonEnd.IsZero() && t.After(horizonEnd) {
					break
				}
				end := t.Add(p.Duration)
				if Blocked(p.Existing, t, end, p.Buffers) {
					continue
				}
				slots = append(slots, Slot{Start: t, End: end})
				if len(slots) >= limit {
					return slots, nil
				}
			}
		}
	}
	return slots, nil
}
