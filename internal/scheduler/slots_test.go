package scheduler

import (
	"testing"
	"time"

	"github.com/example/portal-scheduler/internal/availability"
)

func laLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func slotStarts(slots []Slot, loc *time.Location) []string {
	starts := make([]string, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.Start.In(loc).Format("15:04"))
	}
	return starts
}

func containsStart(slots []Slot, loc *time.Location, hhmm string) bool {
	for _, s := range slotStarts(slots, loc) {
		if s == hhmm {
			return true
		}
	}
	return false
}

// Owner works Mondays 09:00-17:00 Pacific with a 30m/15m/15m event type and
// one existing 10:00-10:30 meeting: the buffer-padded band around it must be
// excluded while 09:00 and 11:00 remain bookable.
func TestGenerateSlots_BufferedConflictScenario(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)
	buf := Buffers{Before: 15 * time.Minute, After: 15 * time.Minute}
	existing := []Event{{
		ID:           "ev-1",
		OwnerID:      "owner-1",
		Start:        time.Date(2024, 3, 11, 10, 0, 0, 0, loc),
		End:          time.Date(2024, 3, 11, 10, 30, 0, 0, loc),
		BufferBefore: buf.Before,
		BufferAfter:  buf.After,
		Status:       StatusScheduled,
	}}

	slots, err := GenerateSlots(GenerateParams{
		Days:     []availability.DayWindows{{Date: "2024-03-11", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 17 * 60}}}},
		Location: loc,
		Duration: 30 * time.Minute,
		Buffers:  buf,
		Now:      time.Date(2024, 3, 4, 12, 0, 0, 0, loc),
		Existing: existing,
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	if !containsStart(slots, loc, "09:00") {
		t.Errorf("expected 09:00 start, got %v", slotStarts(slots, loc))
	}
	if !containsStart(slots, loc, "11:00") {
		t.Errorf("expected 11:00 start, got %v", slotStarts(slots, loc))
	}
	for _, blocked := range []string{"09:15", "09:30", "09:45", "10:00", "10:15", "10:30", "10:45"} {
		if containsStart(slots, loc, blocked) {
			t.Errorf("expected %s to be excluded, got %v", blocked, slotStarts(slots, loc))
		}
	}
}

func TestGenerateSlots_EveryEmittedSlotPassesConflictEngine(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)
	buf := Buffers{Before: 10 * time.Minute, After: 10 * time.Minute}
	existing := []Event{
		{ID: "ev-1", Start: time.Date(2024, 3, 11, 9, 30, 0, 0, loc), End: time.Date(2024, 3, 11, 10, 0, 0, 0, loc), Status: StatusScheduled},
		{ID: "ev-2", Start: time.Date(2024, 3, 11, 14, 0, 0, 0, loc), End: time.Date(2024, 3, 11, 15, 0, 0, 0, loc), Status: StatusScheduled},
	}

	slots, err := GenerateSlots(GenerateParams{
		Days:     []availability.DayWindows{{Date: "2024-03-11", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 17 * 60}}}},
		Location: loc,
		Duration: 45 * time.Minute,
		Buffers:  buf,
		Now:      time.Date(2024, 3, 4, 12, 0, 0, 0, loc),
		Existing: existing,
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots to be generated")
	}

	for _, s := range slots {
		if Blocked(existing, s.Start, s.End, buf) {
			t.Fatalf("generated slot %v fails the conflict engine", s)
		}
	}
}

func TestGenerateSlots_WindowTooSmallEmitsNothing(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)
	slots, err := GenerateSlots(GenerateParams{
		Days:     []availability.DayWindows{{Date: "2024-03-11", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 9*60 + 20}}}},
		Location: loc,
		Duration: 30 * time.Minute,
		Now:      time.Date(2024, 3, 4, 12, 0, 0, 0, loc),
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots from a 20-minute window, got %v", slots)
	}
}

func TestGenerateSlots_MinLeadAdvancesOnStepGrid(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)
	now := time.Date(2024, 3, 11, 9, 10, 0, 0, loc)

	slots, err := GenerateSlots(GenerateParams{
		Days:     []availability.DayWindows{{Date: "2024-03-11", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 12 * 60}}}},
		Location: loc,
		Duration: 30 * time.Minute,
		MinLead:  60 * time.Minute,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}

	// Lead bound is 10:10; the first grid point at or after it is 10:15.
	first := slots[0].Start.In(loc).Format("15:04")
	if first != "10:15" {
		t.Fatalf("expected first slot 10:15, got %s", first)
	}
	if slots[0].Start.Before(now.Add(60 * time.Minute)) {
		t.Fatal("slot violates the lead-time bound")
	}
}

func TestGenerateSlots_HorizonExcludesDistantStarts(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, loc)

	slots, err := GenerateSlots(GenerateParams{
		Days: []availability.DayWindows{
			{Date: "2024-03-11", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 10 * 60}}},
			{Date: "2024-03-18", Windows: []availability.Window{{StartMinutes: 9 * 60, EndMinutes: 10 * 60}}},
		},
		Location:       loc,
		Duration:       30 * time.Minute,
		MaxHorizonDays: 10,
		Now:            now,
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	horizon := now.AddDate(0, 0, 10)
	if len(slots) == 0 {
		t.Fatal("expected slots inside the horizon")
	}
	for _, s := range slots {
		if s.Start.After(horizon) {
			t.Fatalf("slot %v exceeds the horizon", s.Start)
		}
	}
}

func TestGenerateSlots_TruncatesAtCap(t *testing.T) {
	t.Parallel()

	loc := laLocation(t)

	// 30 all-day windows at 15m steps produce far more than the cap.
	days := make([]availability.DayWindows, 0, 30)
	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 30; i++ {
		days = append(days, availability.DayWindows{
			Date:    day.AddDate(0, 0, i).Format("2006-01-02"),
			Windows: []availability.Window{{StartMinutes: 0, EndMinutes: 24 * 60}},
		})
	}

	slots, err := GenerateSlots(GenerateParams{
		Days:     days,
		Location: loc,
		Duration: 30 * time.Minute,
		Now:      time.Date(2024, 3, 4, 12, 0, 0, 0, loc),
	})
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != MaxSlots {
		t.Fatalf("expected truncation at %d slots, got %d", MaxSlots, len(slots))
	}
}

func TestGenerateSlots_RequiresLocationAndDuration(t *testing.T) {
	t.Parallel()

	if _, err := GenerateSlots(GenerateParams{Duration: time.Hour}); err == nil {
		t.Fatal("expected error for missing location")
	}
	if _, err := GenerateSlots(GenerateParams{Location: time.UTC}); err == nil {
		t.Fatal("expected error for missing duration")
	}
}
