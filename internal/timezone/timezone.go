package timezone

import (
	"fmt"
	"time"
)

// DateKeyLayout is the calendar-date wire format used throughout the
// scheduling subsystem ("YYYY-MM-DD"). A date key names a civil day, not an
// instant; it only becomes an instant relative to an IANA timezone.
const DateKeyLayout = "2006-01-02"

// MinutesPerDay bounds the minute-of-day fields on rules and overrides.
const MinutesPerDay = 24 * 60

// LoadZone resolves an IANA timezone name, failing fast on malformed input.
// Callers must never substitute a default for a bad zone name.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone: empty zone name")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone: unknown zone %q: %w", name, err)
	}
	return loc, nil
}

// LocalMidnight returns the absolute instant at which the given calendar date
// begins in the given location. Constructing the wall-clock time directly in
// the location keeps the result correct across DST transitions; when a zone
// skips midnight on a spring-forward date the first valid instant of the day
// is returned.
func LocalMidnight(dateKey string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		return time.Time{}, fmt.Errorf("timezone: nil location")
	}
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc), nil
}

// WeekdayInZone reports the weekday (0=Sunday .. 6=Saturday) of the instant
// as observed in the given location.
func WeekdayInZone(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return int(t.In(loc).Weekday())
}

// DateKeyInZone formats the calendar date of the instant as observed in the
// given location.
func DateKeyInZone(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateKeyLayout)
}

// ParseDateKey validates and parses a "YYYY-MM-DD" date key. The returned
// time is midnight UTC of that date and is only suitable for calendar
// arithmetic, not for scheduling instants.
func ParseDateKey(dateKey string) (time.Time, error) {
	day, err := time.Parse(DateKeyLayout, dateKey)
	if err != nil {
		return time.Time{}, fmt.Errorf("timezone: invalid date %q: %w", dateKey, err)
	}
	return day, nil
}

// DateRange enumerates the date keys in the half-open range [start, end).
// An inverted or empty range yields no dates.
func DateRange(startKey, endKey string) ([]string, error) {
	start, err := ParseDateKey(startKey)
	if err != nil {
		return nil, err
	}
	end, err := ParseDateKey(endKey)
	if err != nil {
		return nil, err
	}

	var keys []string
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		keys = append(keys, day.Format(DateKeyLayout))
	}
	return keys, nil
}

// AddDays shifts a date key by a number of calendar days.
func AddDays(dateKey string, days int) (string, error) {
	day, err := ParseDateKey(dateKey)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, days).Format(DateKeyLayout), nil
}
