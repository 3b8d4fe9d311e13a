package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/rsvp"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type eventServiceFixture struct {
	service   *EventService
	events    *stubEventRepo
	attendees *stubAttendeeRepo
	links     *stubLinkRepo
	types     *stubEventTypeRepo
	rules     *stubAvailabilityRepo
	notifier  *recordingNotifier
	tokens    *rsvp.Service
	now       time.Time
}

func newEventServiceFixture(t *testing.T) *eventServiceFixture {
	t.Helper()
	f := &eventServiceFixture{
		events:    newStubEventRepo(),
		attendees: newStubAttendeeRepo(),
		links:     newStubLinkRepo(),
		types:     newStubEventTypeRepo(),
		rules:     &stubAvailabilityRepo{},
		notifier:  &recordingNotifier{},
		tokens:    rsvp.NewService(testSecret),
		now:       time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}
	f.service = NewEventService(
		f.events, f.attendees, f.links, f.types, f.rules,
		f.tokens, f.notifier,
		sequenceIDs(),
		func() time.Time { return f.now },
		nil,
	)
	return f
}

// addBusinessHours installs a Mon-Fri 09:00-17:00 UTC rule set for owner-1.
func (f *eventServiceFixture) addBusinessHours() {
	for weekday := 1; weekday <= 5; weekday++ {
		f.rules.rules = append(f.rules.rules, persistence.WeeklyRule{
			ID: "rule", OwnerID: "owner-1", Weekday: weekday,
			StartMinutes: 540, EndMinutes: 1020, Timezone: "UTC", Active: true,
		})
	}
}

func TestEventService_Book(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	event, err := f.service.Book(ctx, Principal{UserID: "owner-1"}, BookEventInput{
		Start:     start,
		Title:     "Kickoff",
		Attendees: []AttendeeInput{{Email: "guest@example.com", Name: "Guest"}},
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if event.End.Sub(event.Start) != 30*time.Minute {
		t.Fatalf("expected default 30 minute duration, got %v", event.End.Sub(event.Start))
	}
	if event.ConfirmationCode == nil || *event.ConfirmationCode == "" {
		t.Fatal("expected a confirmation code")
	}
	if f.notifier.invitations != 1 {
		t.Fatalf("expected 1 invitation, got %d", f.notifier.invitations)
	}
}

func TestEventService_BookConflictSurfacesSlotUnavailable(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.events.bookErr = persistence.ErrOverlap

	_, err := f.service.Book(context.Background(), Principal{UserID: "owner-1"}, BookEventInput{
		Start:     time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
		Title:     "Kickoff",
		Attendees: []AttendeeInput{{Email: "guest@example.com"}},
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if f.notifier.invitations != 0 {
		t.Fatal("failed booking must not notify")
	}
}

func TestEventService_BookUsesEventTypeDefaults(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.types.types["type-1"] = persistence.EventType{
		ID: "type-1", OwnerID: "owner-1", Name: "Demo",
		DurationMinutes: 45, BufferBeforeMinutes: 10, BufferAfterMinutes: 5,
	}

	typeID := "type-1"
	event, err := f.service.Book(context.Background(), Principal{UserID: "owner-1"}, BookEventInput{
		TypeID:    &typeID,
		Start:     time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
		Title:     "Demo",
		Attendees: []AttendeeInput{{Email: "guest@example.com"}},
	})
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if event.End.Sub(event.Start) != 45*time.Minute {
		t.Fatalf("expected 45 minute duration from event type, got %v", event.End.Sub(event.Start))
	}
	if event.BufferBeforeMinutes != 10 || event.BufferAfterMinutes != 5 {
		t.Fatalf("event type buffers not applied: %d/%d", event.BufferBeforeMinutes, event.BufferAfterMinutes)
	}
}

func TestEventService_BookFromLink(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.addBusinessHours()
	f.links.links["link-1"] = persistence.Link{
		ID: "link-1", OwnerID: "owner-1", Slug: "intro", Timezone: "UTC",
	}

	// Monday 14:00 inside business hours.
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	event, err := f.service.BookFromLink(context.Background(), BookFromLinkInput{
		Slug:     "intro",
		Start:    start,
		Attendee: AttendeeInput{Email: "guest@example.com", Name: "Dana"},
	})
	if err != nil {
		t.Fatalf("BookFromLink failed: %v", err)
	}
	if event.OwnerID != "owner-1" {
		t.Fatalf("event not attributed to link owner: %s", event.OwnerID)
	}
	if f.events.linkUses["link-1"] != 1 {
		t.Fatalf("expected link use recorded, got %d", f.events.linkUses["link-1"])
	}
	if f.notifier.invitations != 1 {
		t.Fatalf("expected 1 invitation, got %d", f.notifier.invitations)
	}
	if len(f.notifier.lastAttendees) != 1 || f.notifier.lastAttendees[0].Status != RSVPAccepted {
		t.Fatalf("self-booked attendee must start accepted, got %+v", f.notifier.lastAttendees)
	}
}

func TestEventService_BookFromLinkPolicyRejections(t *testing.T) {
	t.Parallel()

	expired := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	maxUses := 1
	minLead := 120
	maxHorizon := 7

	cases := []struct {
		name   string
		link   persistence.Link
		start  time.Time
		reason string
	}{
		{
			name:   "expired link",
			link:   persistence.Link{ID: "l", OwnerID: "owner-1", Slug: "s", Timezone: "UTC", ExpiresAt: &expired},
			start:  time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
			reason: PolicyReasonLinkExpired,
		},
		{
			name:   "exhausted link",
			link:   persistence.Link{ID: "l", OwnerID: "owner-1", Slug: "s", Timezone: "UTC", MaxUses: &maxUses, Uses: 1},
			start:  time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC),
			reason: PolicyReasonLinkExhausted,
		},
		{
			name: "lead time too short",
			link: persistence.Link{ID: "l", OwnerID: "owner-1", Slug: "s", Timezone: "UTC", MinLeadMinutes: &minLead},
			// Now is 09:00; anything before 11:00 violates the 2h lead.
			start:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			reason: PolicyReasonLeadTime,
		},
		{
			name: "beyond horizon",
			link: persistence.Link{ID: "l", OwnerID: "owner-1", Slug: "s", Timezone: "UTC", MaxHorizonDays: &maxHorizon},
			// 10 days out against a 7 day horizon.
			start:  time.Date(2026, 9, 11, 14, 0, 0, 0, time.UTC),
			reason: PolicyReasonHorizon,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := newEventServiceFixture(t)
			f.addBusinessHours()
			f.links.links[tc.link.ID] = tc.link

			_, err := f.service.BookFromLink(context.Background(), BookFromLinkInput{
				Slug:     tc.link.Slug,
				Start:    tc.start,
				Attendee: AttendeeInput{Email: "guest@example.com"},
			})
			var pErr *PolicyError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected PolicyError, got %v", err)
			}
			if pErr.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, pErr.Reason)
			}
		})
	}
}

func TestEventService_BookFromLinkOutsideAvailability(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.addBusinessHours()
	f.links.links["link-1"] = persistence.Link{
		ID: "link-1", OwnerID: "owner-1", Slug: "intro", Timezone: "UTC",
	}

	// Monday 20:00, after the 17:00 close.
	_, err := f.service.BookFromLink(context.Background(), BookFromLinkInput{
		Slug:     "intro",
		Start:    time.Date(2026, 9, 7, 20, 0, 0, 0, time.UTC),
		Attendee: AttendeeInput{Email: "guest@example.com"},
	})
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable outside windows, got %v", err)
	}
}

func TestEventService_Reschedule(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(45 * time.Minute),
		Title: "Kickoff", Status: "scheduled",
	}

	newStart := start.Add(2 * time.Hour)
	event, err := f.service.Reschedule(context.Background(), Principal{UserID: "owner-1"}, "ev-1", newStart)
	if err != nil {
		t.Fatalf("Reschedule failed: %v", err)
	}
	if !event.Start.Equal(newStart) || event.End.Sub(event.Start) != 45*time.Minute {
		t.Fatalf("duration not preserved: %v - %v", event.Start, event.End)
	}
	if f.notifier.updates != 1 {
		t.Fatalf("expected 1 update notification, got %d", f.notifier.updates)
	}
}

func TestEventService_RescheduleConflict(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Status: "scheduled",
	}
	f.events.bookErr = persistence.ErrOverlap

	_, err := f.service.Reschedule(context.Background(), Principal{UserID: "owner-1"}, "ev-1", start.Add(time.Hour))
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if f.notifier.updates != 0 {
		t.Fatal("failed reschedule must not notify")
	}
}

func TestEventService_RescheduleForeignEvent(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-2", Start: start, End: start.Add(30 * time.Minute),
		Status: "scheduled",
	}

	_, err := f.service.Reschedule(context.Background(), Principal{UserID: "owner-1"}, "ev-1", start.Add(time.Hour))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEventService_CancelIsIdempotent(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Status: "scheduled",
	}

	principal := Principal{UserID: "owner-1"}
	event, err := f.service.Cancel(context.Background(), principal, "ev-1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if event.Status != "cancelled" {
		t.Fatalf("expected cancelled status, got %s", event.Status)
	}

	// Second cancel succeeds without another notification.
	if _, err := f.service.Cancel(context.Background(), principal, "ev-1"); err != nil {
		t.Fatalf("repeat Cancel failed: %v", err)
	}
	if f.notifier.cancels != 1 {
		t.Fatalf("expected exactly 1 cancellation notice, got %d", f.notifier.cancels)
	}
}

func TestEventService_UpdateEventPatchesOnlySuppliedFields(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	location := "Room 4"
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Title: "Kickoff", Location: &location, Status: "scheduled",
	}

	newTitle := "Kickoff (moved online)"
	event, err := f.service.UpdateEvent(context.Background(), Principal{UserID: "owner-1"}, "ev-1", EventPatch{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if event.Title != newTitle {
		t.Fatalf("title not updated: %s", event.Title)
	}
	if event.Location == nil || *event.Location != "Room 4" {
		t.Fatal("unpatched field was modified")
	}
}

func TestEventService_RespondRSVP(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.attendees.attendees["att-1"] = persistence.Attendee{
		ID: "att-1", EventID: "ev-1", Email: "guest@example.com", Status: RSVPPending,
	}

	token := f.tokens.Issue("att-1", "ev-1")
	attendee, err := f.service.RespondRSVP(context.Background(), "att-1", token, RSVPAccepted)
	if err != nil {
		t.Fatalf("RespondRSVP failed: %v", err)
	}
	if attendee.Status != RSVPAccepted {
		t.Fatalf("expected accepted, got %s", attendee.Status)
	}
}

func TestEventService_RespondRSVPRejectsBadToken(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	f.attendees.attendees["att-1"] = persistence.Attendee{
		ID: "att-1", EventID: "ev-1", Email: "guest@example.com", Status: RSVPPending,
	}

	// A token issued for a different event must not answer this one.
	token := f.tokens.Issue("att-1", "ev-other")
	_, err := f.service.RespondRSVP(context.Background(), "att-1", token, RSVPDeclined)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := f.service.RespondRSVP(context.Background(), "att-1", f.tokens.Issue("att-1", "ev-1"), "maybe"); err == nil {
		t.Fatal("expected validation error for unknown status")
	}
}

func TestEventService_SendReminderResendsToAllAttendees(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Status: "scheduled",
	}
	f.attendees.attendees["att-1"] = persistence.Attendee{ID: "att-1", EventID: "ev-1", Email: "a@example.com", Status: RSVPPending}
	f.attendees.attendees["att-2"] = persistence.Attendee{ID: "att-2", EventID: "ev-1", Email: "b@example.com", Status: RSVPAccepted}

	if err := f.service.SendReminder(context.Background(), Principal{UserID: "owner-1"}, "ev-1"); err != nil {
		t.Fatalf("SendReminder failed: %v", err)
	}
	if f.notifier.invitations != 1 {
		t.Fatalf("expected 1 reminder batch, got %d", f.notifier.invitations)
	}

	// Cancelled events have nothing to remind about.
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Status: "cancelled",
	}
	if err := f.service.SendReminder(context.Background(), Principal{UserID: "owner-1"}, "ev-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cancelled event, got %v", err)
	}
}

func TestEventService_DeleteEvent(t *testing.T) {
	t.Parallel()
	f := newEventServiceFixture(t)
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, time.UTC)
	f.events.events["ev-1"] = persistence.Event{
		ID: "ev-1", OwnerID: "owner-1", Start: start, End: start.Add(30 * time.Minute),
		Status: "scheduled",
	}

	if err := f.service.DeleteEvent(context.Background(), Principal{UserID: "owner-2"}, "ev-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for foreign event, got %v", err)
	}

	if err := f.service.DeleteEvent(context.Background(), Principal{UserID: "owner-1"}, "ev-1"); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if _, ok := f.events.events["ev-1"]; ok {
		t.Fatal("event still present after delete")
	}
	if f.notifier.cancels != 0 || f.notifier.invitations != 0 {
		t.Fatal("delete must not notify")
	}
}
