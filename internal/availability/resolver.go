// Package availability resolves an owner's bookable windows per calendar
// date by layering weekly recurring rules under date-specific overrides.
package availability

import (
	"sort"
	"time"

	"github.com/example/portal-scheduler/internal/timezone"
)

// Window is a bookable span within a single day, expressed as minutes from
// local midnight. Windows are half-open: [StartMinutes, EndMinutes).
type Window struct {
	StartMinutes int
	EndMinutes   int
}

// WeeklyRule describes a recurring bookable span on a weekday.
type WeeklyRule struct {
	ID           string
	OwnerID      string
	Weekday      int // 0=Sunday .. 6=Saturday
	StartMinutes int
	EndMinutes   int
	Timezone     string
	Active       bool
}

// Override replaces the weekly rules for one calendar date. A nil
// StartMinutes/EndMinutes pair on an available override means the whole day.
type Override struct {
	ID           string
	OwnerID      string
	Date         string // date key, "YYYY-MM-DD"
	Available    bool
	StartMinutes *int
	EndMinutes   *int
	Timezone     string
}

// DayWindows pairs a date key with its resolved bookable windows.
type DayWindows struct {
	Date    string
	Windows []Window
}

// WindowsForDate resolves the bookable windows of a single date.
//
// Override precedence is all-or-nothing: when any override exists for the
// date, weekly rules are ignored entirely for that date. If every matching
// override is unavailable the day is fully blocked; otherwise only the
// available overrides' windows apply. This replace-not-merge policy is
// intentional and pending product confirmation, since it differs from the
// merge semantics of typical calendar tools.
func WindowsForDate(date string, weekday int, rules []WeeklyRule, overrides []Override) []Window {
	var windows []Window

	matched := false
	for _, o := range overrides {
		if o.Date != date {
			continue
		}
		matched = true
		if !o.Available {
			continue
		}
		windows = append(windows, overrideWindow(o))
	}
	if matched {
		return normalize(windows)
	}

	for _, r := range rules {
		if !r.Active || r.Weekday != weekday {
			continue
		}
		windows = append(windows, Window{StartMinutes: r.StartMinutes, EndMinutes: r.EndMinutes})
	}
	return normalize(windows)
}

// Resolve computes the bookable windows for each date key in order, using
// the location to determine each date's weekday. Dates without windows are
// excluded from the result.
func Resolve(dates []string, loc *time.Location, rules []WeeklyRule, overrides []Override) ([]DayWindows, error) {
	days := make([]DayWindows, 0, len(dates))
	for _, date := range dates {
		midnight, err := timezone.LocalMidnight(date, loc)
		if err != nil {
			return nil, err
		}
		weekday := timezone.WeekdayInZone(midnight, loc)

		windows := WindowsForDate(date, weekday, rules, overrides)
		if len(windows) == 0 {
			continue
		}
		days = append(days, DayWindows{Date: date, Windows: windows})
	}
	return days, nil
}

func overrideWindow(o Override) Window {
	w := Window{StartMinutes: 0, EndMinutes: timezone.MinutesPerDay}
	if o.StartMinutes != nil {
		w.StartMinutes = *o.StartMinutes
	}
	if o.EndMinutes != nil {
		w.EndMinutes = *o.EndMinutes
	}
	return w
}

func normalize(windows []Window) []Window {
	valid := windows[:0]
	for _, w := range windows {
		if w.StartMinutes < 0 || w.EndMinutes > timezone.MinutesPerDay {
			continue
		}
		if w.EndMinutes <= w.StartMinutes {
			continue
		}
		valid = append(valid, w)
	}
	if len(valid) == 0 {
		return nil
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].StartMinutes == valid[j].StartMinutes {
			return valid[i].EndMinutes < valid[j].EndMinutes
		}
		return valid[i].StartMinutes < valid[j].StartMinutes
	})
	return valid
}
