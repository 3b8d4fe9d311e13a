package timezone

import (
	"testing"
	"time"
)

func TestLoadZone_RejectsMalformedNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "Not/AZone", "America/NoSuchCity"} {
		if _, err := LoadZone(name); err == nil {
			t.Errorf("expected error for zone %q", name)
		}
	}
}

func TestLocalMidnight_StandardOffset(t *testing.T) {
	t.Parallel()

	loc, err := LoadZone("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	got, err := LocalMidnight("2024-01-15", loc)
	if err != nil {
		t.Fatalf("LocalMidnight: %v", err)
	}

	// PST is UTC-8 in January.
	want := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestLocalMidnight_AcrossDSTTransition(t *testing.T) {
	t.Parallel()

	loc, err := LoadZone("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	// 2024-03-10 is the US spring-forward date; midnight itself exists
	// (clocks jump at 02:00) and is still UTC-8.
	before, err := LocalMidnight("2024-03-10", loc)
	if err != nil {
		t.Fatalf("LocalMidnight: %v", err)
	}
	if want := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC); !before.Equal(want) {
		t.Fatalf("expected %v, got %v", want, before)
	}

	// The following day the offset is UTC-7.
	after, err := LocalMidnight("2024-03-11", loc)
	if err != nil {
		t.Fatalf("LocalMidnight: %v", err)
	}
	if want := time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC); !after.Equal(want) {
		t.Fatalf("expected %v, got %v", want, after)
	}
}

func TestWeekdayInZone_DiffersAcrossDateLine(t *testing.T) {
	t.Parallel()

	tokyo, err := LoadZone("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	la, err := LoadZone("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	// 2024-03-11 23:30 UTC is already Tuesday in Tokyo but still Monday in LA.
	instant := time.Date(2024, 3, 11, 23, 30, 0, 0, time.UTC)

	if got := WeekdayInZone(instant, tokyo); got != int(time.Tuesday) {
		t.Fatalf("expected Tuesday in Tokyo, got weekday %d", got)
	}
	if got := WeekdayInZone(instant, la); got != int(time.Monday) {
		t.Fatalf("expected Monday in LA, got weekday %d", got)
	}
}

func TestDateRange_HalfOpen(t *testing.T) {
	t.Parallel()

	keys, err := DateRange("2024-03-09", "2024-03-12")
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}

	want := []string{"2024-03-09", "2024-03-10", "2024-03-11"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), keys)
	}
	for i, key := range want {
		if keys[i] != key {
			t.Fatalf("expected %s at index %d, got %s", key, i, keys[i])
		}
	}
}

func TestDateRange_EmptyWhenInverted(t *testing.T) {
	t.Parallel()

	keys, err := DateRange("2024-03-12", "2024-03-09")
	if err != nil {
		t.Fatalf("DateRange: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no dates, got %v", keys)
	}
}

func TestAddDays(t *testing.T) {
	t.Parallel()

	got, err := AddDays("2024-02-28", 2)
	if err != nil {
		t.Fatalf("AddDays: %v", err)
	}
	if got != "2024-03-01" {
		t.Fatalf("expected leap-year rollover to 2024-03-01, got %s", got)
	}
}
