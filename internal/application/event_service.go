package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/portal-scheduler/internal/availability"
	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/rsvp"
	"github.com/example/portal-scheduler/internal/timezone"
)

// Attendee role and status values stored in persistence.
const (
	RoleOrganizer = "organizer"
	RoleAttendee  = "attendee"
	RoleOptional  = "optional"

	RSVPPending   = "pending"
	RSVPAccepted  = "accepted"
	RSVPDeclined  = "declined"
	RSVPTentative = "tentative"
)

// EventService orchestrates booking, rescheduling, and cancellation. All
// writes that could double-book delegate the final conflict decision to the
// repository, which re-validates inside the write transaction.
type EventService struct {
	events      persistence.EventRepository
	attendees   persistence.AttendeeRepository
	links       persistence.LinkRepository
	eventTypes  persistence.EventTypeRepository
	rules       persistence.AvailabilityRepository
	tokens      *rsvp.Service
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(events persistence.EventRepository, attendees persistence.AttendeeRepository, links persistence.LinkRepository, eventTypes persistence.EventTypeRepository, rules persistence.AvailabilityRepository, tokens *rsvp.Service, notifier Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		attendees:   attendees,
		links:       links,
		eventTypes:  eventTypes,
		rules:       rules,
		tokens:      tokens,
		notifier:    notifier,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Book creates an ad-hoc event on the principal's own calendar. Owner
// bookings skip link policy but still go through the write-time conflict
// re-validation.
func (s *EventService) Book(ctx context.Context, principal Principal, input BookEventInput) (persistence.Event, error) {
	if principal.UserID == "" {
		return persistence.Event{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	validateAttendeeInputs(input.Attendees, vErr)
	if vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	duration := input.DurationMinutes
	bufferBefore, bufferAfter := 0, 0
	if input.TypeID != nil {
		eventType, err := s.eventTypes.GetEventType(ctx, *input.TypeID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("type_id", "event type does not exist")
				return persistence.Event{}, vErr
			}
			return persistence.Event{}, mapRepoError(err)
		}
		if duration == 0 {
			duration = eventType.DurationMinutes
		}
		bufferBefore = eventType.BufferBeforeMinutes
		bufferAfter = eventType.BufferAfterMinutes
	}
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if input.BufferBefore != nil {
		bufferBefore = *input.BufferBefore
	}
	if input.BufferAfter != nil {
		bufferAfter = *input.BufferAfter
	}

	now := s.now()
	code := s.idGenerator()
	event := persistence.Event{
		ID:                  s.idGenerator(),
		OwnerID:             principal.UserID,
		TypeID:              input.TypeID,
		ContactID:           input.ContactID,
		LeadID:              input.LeadID,
		Start:               input.Start,
		End:                 input.Start.Add(time.Duration(duration) * time.Minute),
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		Location:            input.Location,
		MeetingMode:         input.MeetingMode,
		Status:              "scheduled",
		BufferBeforeMinutes: bufferBefore,
		BufferAfterMinutes:  bufferAfter,
		ConfirmationCode:    &code,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	attendees := s.buildAttendees(event.ID, input.Attendees, now)
	booking := persistence.Booking{Event: event, Attendees: attendees, Now: now}
	if err := s.events.Book(ctx, booking); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	s.notify(func(n Notifier) { n.EventInvitation(event, attendees) })
	serviceLogger(ctx, s.logger, "events", "book", "owner_id", principal.UserID).
		InfoContext(ctx, "event booked", "event_id", event.ID, "start", event.Start)
	return event, nil
}

// BookFromLink books through a public scheduling link. The lead-time,
// horizon, expiry, and use-count policies are checked here against the
// caller's clock; expiry and use count are re-checked atomically when the
// booking commits.
func (s *EventService) BookFromLink(ctx context.Context, input BookFromLinkInput) (persistence.Event, error) {
	vErr := &ValidationError{}
	if input.Slug == "" {
		vErr.add("slug", "link slug is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	validateAttendeeInputs([]AttendeeInput{input.Attendee}, vErr)
	if vErr.HasErrors() {
		return persistence.Event{}, vErr
	}

	link, err := s.links.GetLinkBySlug(ctx, input.Slug)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	now := s.now()
	if link.ExpiresAt != nil && !link.ExpiresAt.After(now) {
		return persistence.Event{}, &PolicyError{Reason: PolicyReasonLinkExpired}
	}
	if link.MaxUses != nil && link.Uses >= *link.MaxUses {
		return persistence.Event{}, &PolicyError{Reason: PolicyReasonLinkExhausted}
	}
	if link.MinLeadMinutes != nil {
		notBefore := now.Add(time.Duration(*link.MinLeadMinutes) * time.Minute)
		if input.Start.Before(notBefore) {
			return persistence.Event{}, &PolicyError{Reason: PolicyReasonLeadTime}
		}
	}
	if link.MaxHorizonDays != nil && *link.MaxHorizonDays > 0 {
		horizonEnd := now.AddDate(0, 0, *link.MaxHorizonDays)
		if input.Start.After(horizonEnd) {
			return persistence.Event{}, &PolicyError{Reason: PolicyReasonHorizon}
		}
	}

	duration := DefaultDurationMinutes
	bufferBefore, bufferAfter := 0, 0
	title := "Meeting"
	meetingMode := link.MeetingMode
	if link.EventTypeID != nil {
		eventType, err := s.eventTypes.GetEventType(ctx, *link.EventTypeID)
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return persistence.Event{}, mapRepoError(err)
		}
		if err == nil {
			duration = eventType.DurationMinutes
			bufferBefore = eventType.BufferBeforeMinutes
			bufferAfter = eventType.BufferAfterMinutes
			title = eventType.Name
			if meetingMode == nil && eventType.MeetingMode != "" {
				mode := eventType.MeetingMode
				meetingMode = &mode
			}
		}
	}
	end := input.Start.Add(time.Duration(duration) * time.Minute)

	within, err := s.withinAvailability(ctx, link.OwnerID, link.Timezone, input.Start, end)
	if err != nil {
		return persistence.Event{}, err
	}
	if !within {
		return persistence.Event{}, ErrSlotUnavailable
	}

	if input.Attendee.Name != "" {
		title = fmt.Sprintf("%s with %s", title, input.Attendee.Name)
	}

	code := s.idGenerator()
	event := persistence.Event{
		ID:                  s.idGenerator(),
		OwnerID:             link.OwnerID,
		TypeID:              link.EventTypeID,
		Start:               input.Start,
		End:                 end,
		Title:               title,
		Description:         input.Notes,
		MeetingMode:         meetingMode,
		Status:              "scheduled",
		BufferBeforeMinutes: bufferBefore,
		BufferAfterMinutes:  bufferAfter,
		ConfirmationCode:    &code,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	attendees := s.buildAttendees(event.ID, []AttendeeInput{input.Attendee}, now)
	// The invitee chose this slot themselves, so their RSVP starts accepted.
	attendees[0].Status = RSVPAccepted
	booking := persistence.Booking{Event: event, Attendees: attendees, LinkID: &link.ID, Now: now}
	if err := s.events.Book(ctx, booking); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	s.notify(func(n Notifier) { n.EventInvitation(event, attendees) })
	serviceLogger(ctx, s.logger, "events", "book_from_link", "owner_id", link.OwnerID).
		InfoContext(ctx, "event booked via link", "event_id", event.ID, "slug", link.Slug)
	return event, nil
}

// Reschedule moves an event to a new start, preserving its duration. The
// interval swap and the conflict re-check commit together.
func (s *EventService) Reschedule(ctx context.Context, principal Principal, eventID string, newStart time.Time) (persistence.Event, error) {
	event, err := s.authorizedEvent(ctx, principal, eventID)
	if err != nil {
		return persistence.Event{}, err
	}
	if event.Status != "scheduled" {
		return persistence.Event{}, ErrNotFound
	}
	if newStart.IsZero() {
		vErr := &ValidationError{}
		vErr.add("start", "start is required")
		return persistence.Event{}, vErr
	}

	duration := event.End.Sub(event.Start)
	newEnd := newStart.Add(duration)
	updatedAt := s.now()
	if err := s.events.Reschedule(ctx, eventID, newStart, newEnd, updatedAt); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	event.Start = newStart
	event.End = newEnd
	event.UpdatedAt = updatedAt

	attendees, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	s.notify(func(n Notifier) { n.EventUpdated(event, attendees) })
	serviceLogger(ctx, s.logger, "events", "reschedule", "owner_id", principal.UserID).
		InfoContext(ctx, "event rescheduled", "event_id", eventID, "start", newStart)
	return event, nil
}

// Cancel marks an event cancelled. Cancelling an already-cancelled event is
// a no-op and does not notify again.
func (s *EventService) Cancel(ctx context.Context, principal Principal, eventID string) (persistence.Event, error) {
	event, err := s.authorizedEvent(ctx, principal, eventID)
	if err != nil {
		return persistence.Event{}, err
	}
	if event.Status == "cancelled" {
		return event, nil
	}

	updatedAt := s.now()
	if err := s.events.UpdateEventStatus(ctx, eventID, "cancelled", updatedAt); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	event.Status = "cancelled"
	event.UpdatedAt = updatedAt

	attendees, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	s.notify(func(n Notifier) { n.EventCancelled(event, attendees) })
	serviceLogger(ctx, s.logger, "events", "cancel", "owner_id", principal.UserID).
		InfoContext(ctx, "event cancelled", "event_id", eventID)
	return event, nil
}

// UpdateEvent patches detail fields. Nil patch fields are left unchanged.
func (s *EventService) UpdateEvent(ctx context.Context, principal Principal, eventID string, patch EventPatch) (persistence.Event, error) {
	event, err := s.authorizedEvent(ctx, principal, eventID)
	if err != nil {
		return persistence.Event{}, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			vErr := &ValidationError{}
			vErr.add("title", "title cannot be empty")
			return persistence.Event{}, vErr
		}
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		event.Description = patch.Description
	}
	if patch.Location != nil {
		event.Location = patch.Location
	}
	if patch.MeetingMode != nil {
		event.MeetingMode = patch.MeetingMode
	}
	if patch.ContactID != nil {
		event.ContactID = patch.ContactID
	}
	if patch.LeadID != nil {
		event.LeadID = patch.LeadID
	}
	event.UpdatedAt = s.now()

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return persistence.Event{}, mapRepoError(err)
	}

	attendees, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	s.notify(func(n Notifier) { n.EventUpdated(event, attendees) })
	return event, nil
}

// GetEvent returns the principal's event by id.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, eventID string) (persistence.Event, error) {
	return s.authorizedEvent(ctx, principal, eventID)
}

// ListEvents enumerates the principal's events matching the query.
func (s *EventService) ListEvents(ctx context.Context, principal Principal, query ListEventsQuery) ([]persistence.Event, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		OwnerID:     principal.UserID,
		StartsAfter: query.StartsAfter,
		EndsBefore:  query.EndsBefore,
		Statuses:    query.Statuses,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return events, nil
}

// AddAttendee invites another participant to an existing event.
func (s *EventService) AddAttendee(ctx context.Context, principal Principal, eventID string, input AttendeeInput) (persistence.Attendee, error) {
	event, err := s.authorizedEvent(ctx, principal, eventID)
	if err != nil {
		return persistence.Attendee{}, err
	}

	vErr := &ValidationError{}
	validateAttendeeInputs([]AttendeeInput{input}, vErr)
	if vErr.HasErrors() {
		return persistence.Attendee{}, vErr
	}

	now := s.now()
	attendee := s.buildAttendees(eventID, []AttendeeInput{input}, now)[0]
	if err := s.attendees.CreateAttendee(ctx, attendee); err != nil {
		return persistence.Attendee{}, mapRepoError(err)
	}

	s.notify(func(n Notifier) { n.EventInvitation(event, []persistence.Attendee{attendee}) })
	return attendee, nil
}

// ListAttendees returns the event's participants.
func (s *EventService) ListAttendees(ctx context.Context, principal Principal, eventID string) ([]persistence.Attendee, error) {
	if _, err := s.authorizedEvent(ctx, principal, eventID); err != nil {
		return nil, err
	}
	attendees, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return attendees, nil
}

// RemoveAttendee uninvites a participant.
func (s *EventService) RemoveAttendee(ctx context.Context, principal Principal, eventID, attendeeID string) error {
	if _, err := s.authorizedEvent(ctx, principal, eventID); err != nil {
		return err
	}
	attendee, err := s.attendees.GetAttendee(ctx, attendeeID)
	if err != nil {
		return mapRepoError(err)
	}
	if attendee.EventID != eventID {
		return ErrNotFound
	}
	return mapRepoError(s.attendees.DeleteAttendee(ctx, attendeeID))
}

// RespondRSVP records an attendee's response. The token binds the attendee
// to the event, so a link leaked for one invitation cannot answer another.
func (s *EventService) RespondRSVP(ctx context.Context, attendeeID, token, status string) (persistence.Attendee, error) {
	switch status {
	case RSVPAccepted, RSVPDeclined, RSVPTentative:
	default:
		vErr := &ValidationError{}
		vErr.add("status", "status must be accepted, declined, or tentative")
		return persistence.Attendee{}, vErr
	}

	attendee, err := s.attendees.GetAttendee(ctx, attendeeID)
	if err != nil {
		return persistence.Attendee{}, mapRepoError(err)
	}
	if !s.tokens.Verify(attendeeID, attendee.EventID, token) {
		return persistence.Attendee{}, ErrInvalidToken
	}

	updatedAt := s.now()
	if err := s.attendees.UpdateAttendeeStatus(ctx, attendeeID, status, updatedAt); err != nil {
		return persistence.Attendee{}, mapRepoError(err)
	}
	attendee.Status = status
	attendee.UpdatedAt = updatedAt

	serviceLogger(ctx, s.logger, "events", "rsvp").
		InfoContext(ctx, "rsvp recorded", "attendee_id", attendeeID, "status", status)
	return attendee, nil
}

// SendReminder re-sends the invitation to every attendee of a scheduled event.
func (s *EventService) SendReminder(ctx context.Context, principal Principal, eventID string) error {
	event, err := s.authorizedEvent(ctx, principal, eventID)
	if err != nil {
		return err
	}
	if event.Status != "scheduled" {
		return ErrNotFound
	}

	attendees, err := s.attendees.ListAttendees(ctx, eventID)
	if err != nil {
		return mapRepoError(err)
	}
	if len(attendees) == 0 {
		return nil
	}
	s.notify(func(n Notifier) { n.EventInvitation(event, attendees) })
	return nil
}

// DeleteEvent removes an event and its attendees outright. Unlike Cancel this
// leaves no record and sends no notification.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if _, err := s.authorizedEvent(ctx, principal, eventID); err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "events", "delete", "owner_id", principal.UserID).
		InfoContext(ctx, "event deleted", "event_id", eventID)
	return nil
}

func (s *EventService) authorizedEvent(ctx context.Context, principal Principal, eventID string) (persistence.Event, error) {
	if principal.UserID == "" {
		return persistence.Event{}, ErrUnauthorized
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.Event{}, mapRepoError(err)
	}
	if event.OwnerID != principal.UserID {
		return persistence.Event{}, ErrUnauthorized
	}
	return event, nil
}

// withinAvailability checks that [start, end) falls inside one of the
// owner's resolved windows for the start's local date.
func (s *EventService) withinAvailability(ctx context.Context, ownerID, tzName string, start, end time.Time) (bool, error) {
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := timezone.LoadZone(tzName)
	if err != nil {
		return false, fmt.Errorf("load link timezone: %w", err)
	}

	date := timezone.DateKeyInZone(start, loc)
	rules, err := s.rules.ListWeeklyRules(ctx, ownerID)
	if err != nil {
		return false, mapRepoError(err)
	}
	next, err := timezone.AddDays(date, 1)
	if err != nil {
		return false, err
	}
	overrides, err := s.rules.ListOverrides(ctx, ownerID, date, next)
	if err != nil {
		return false, mapRepoError(err)
	}

	midnight, err := timezone.LocalMidnight(date, loc)
	if err != nil {
		return false, err
	}
	weekday := timezone.WeekdayInZone(midnight, loc)
	windows := availability.WindowsForDate(date, weekday, toAvailabilityRules(rules), toAvailabilityOverrides(overrides))

	for _, w := range windows {
		windowStart := midnight.Add(time.Duration(w.StartMinutes) * time.Minute)
		windowEnd := midnight.Add(time.Duration(w.EndMinutes) * time.Minute)
		if !start.Before(windowStart) && !end.After(windowEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *EventService) buildAttendees(eventID string, inputs []AttendeeInput, now time.Time) []persistence.Attendee {
	attendees := make([]persistence.Attendee, 0, len(inputs))
	for _, input := range inputs {
		role := RoleAttendee
		if input.Optional {
			role = RoleOptional
		}
		var name *string
		if input.Name != "" {
			n := input.Name
			name = &n
		}
		attendees = append(attendees, persistence.Attendee{
			ID:        s.idGenerator(),
			EventID:   eventID,
			Email:     input.Email,
			Name:      name,
			Role:      role,
			Status:    RSVPPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return attendees
}

func (s *EventService) notify(send func(Notifier)) {
	if s.notifier == nil {
		return
	}
	send(s.notifier)
}

func validateAttendeeInputs(inputs []AttendeeInput, vErr *ValidationError) {
	for i, input := range inputs {
		if input.Email == "" || !strings.Contains(input.Email, "@") {
			vErr.add(fmt.Sprintf("attendees[%d].email", i), "a valid email is required")
		}
	}
}
