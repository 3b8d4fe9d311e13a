package application

import (
	"context"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/testfixtures"
)

// stubAvailabilityRepo is an in-memory AvailabilityRepository.
type stubAvailabilityRepo struct {
	rules     []persistence.WeeklyRule
	overrides []persistence.Override
	err       error
}

func (s *stubAvailabilityRepo) ReplaceWeeklyRules(_ context.Context, ownerID string, rules []persistence.WeeklyRule) error {
	if s.err != nil {
		return s.err
	}
	kept := s.rules[:0]
	for _, r := range s.rules {
		if r.OwnerID != ownerID {
			kept = append(kept, r)
		}
	}
	s.rules = append(kept, rules...)
	return nil
}

func (s *stubAvailabilityRepo) ListWeeklyRules(_ context.Context, ownerID string) ([]persistence.WeeklyRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []persistence.WeeklyRule
	for _, r := range s.rules {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubAvailabilityRepo) CreateOverride(_ context.Context, override persistence.Override) error {
	if s.err != nil {
		return s.err
	}
	s.overrides = append(s.overrides, override)
	return nil
}

func (s *stubAvailabilityRepo) GetOverride(_ context.Context, id string) (persistence.Override, error) {
	for _, o := range s.overrides {
		if o.ID == id {
			return o, nil
		}
	}
	return persistence.Override{}, persistence.ErrNotFound
}

func (s *stubAvailabilityRepo) ListOverrides(_ context.Context, ownerID, fromDate, toDate string) ([]persistence.Override, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []persistence.Override
	for _, o := range s.overrides {
		if o.OwnerID != ownerID {
			continue
		}
		if fromDate != "" && o.Date < fromDate {
			continue
		}
		if toDate != "" && o.Date >= toDate {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *stubAvailabilityRepo) DeleteOverride(_ context.Context, id string) error {
	for i, o := range s.overrides {
		if o.ID == id {
			s.overrides = append(s.overrides[:i], s.overrides[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

// stubEventRepo is an in-memory EventRepository. bookErr forces Book and
// Reschedule outcomes to exercise the write-time re-validation paths.
type stubEventRepo struct {
	events  map[string]persistence.Event
	bookErr error
	// linkUses mirrors the usage bump a real Book performs.
	linkUses map[string]int
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{events: map[string]persistence.Event{}, linkUses: map[string]int{}}
}

func (s *stubEventRepo) Book(_ context.Context, booking persistence.Booking) error {
	if s.bookErr != nil {
		return s.bookErr
	}
	s.events[booking.Event.ID] = booking.Event
	if booking.LinkID != nil {
		s.linkUses[*booking.LinkID]++
	}
	return nil
}

func (s *stubEventRepo) Reschedule(_ context.Context, id string, start, end time.Time, updatedAt time.Time) error {
	if s.bookErr != nil {
		return s.bookErr
	}
	ev, ok := s.events[id]
	if !ok || ev.Status != "scheduled" {
		return persistence.ErrNotFound
	}
	ev.Start, ev.End, ev.UpdatedAt = start, end, updatedAt
	s.events[id] = ev
	return nil
}

func (s *stubEventRepo) UpdateEvent(_ context.Context, event persistence.Event) error {
	if _, ok := s.events[event.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.events[event.ID] = event
	return nil
}

func (s *stubEventRepo) UpdateEventStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	ev, ok := s.events[id]
	if !ok {
		return persistence.ErrNotFound
	}
	ev.Status, ev.UpdatedAt = status, updatedAt
	s.events[id] = ev
	return nil
}

func (s *stubEventRepo) GetEvent(_ context.Context, id string) (persistence.Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return ev, nil
}

func (s *stubEventRepo) ListEvents(_ context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	var out []persistence.Event
	for _, ev := range s.events {
		if ev.OwnerID != filter.OwnerID {
			continue
		}
		if filter.StartsAfter != nil && ev.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && ev.End.After(*filter.EndsBefore) {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ev.Status == status {
					matched = true
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *stubEventRepo) DeleteEvent(_ context.Context, id string) error {
	if _, ok := s.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// stubAttendeeRepo is an in-memory AttendeeRepository.
type stubAttendeeRepo struct {
	attendees map[string]persistence.Attendee
}

func newStubAttendeeRepo() *stubAttendeeRepo {
	return &stubAttendeeRepo{attendees: map[string]persistence.Attendee{}}
}

func (s *stubAttendeeRepo) CreateAttendee(_ context.Context, attendee persistence.Attendee) error {
	s.attendees[attendee.ID] = attendee
	return nil
}

func (s *stubAttendeeRepo) GetAttendee(_ context.Context, id string) (persistence.Attendee, error) {
	a, ok := s.attendees[id]
	if !ok {
		return persistence.Attendee{}, persistence.ErrNotFound
	}
	return a, nil
}

func (s *stubAttendeeRepo) ListAttendees(_ context.Context, eventID string) ([]persistence.Attendee, error) {
	var out []persistence.Attendee
	for _, a := range s.attendees {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAttendeeRepo) UpdateAttendeeStatus(_ context.Context, id, status string, updatedAt time.Time) error {
	a, ok := s.attendees[id]
	if !ok {
		return persistence.ErrNotFound
	}
	a.Status, a.UpdatedAt = status, updatedAt
	s.attendees[id] = a
	return nil
}

func (s *stubAttendeeRepo) DeleteAttendee(_ context.Context, id string) error {
	if _, ok := s.attendees[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.attendees, id)
	return nil
}

// stubLinkRepo is an in-memory LinkRepository.
type stubLinkRepo struct {
	links map[string]persistence.Link
	err   error
}

func newStubLinkRepo() *stubLinkRepo {
	return &stubLinkRepo{links: map[string]persistence.Link{}}
}

func (s *stubLinkRepo) CreateLink(_ context.Context, link persistence.Link) error {
	if s.err != nil {
		return s.err
	}
	for _, l := range s.links {
		if l.Slug == link.Slug {
			return persistence.ErrDuplicate
		}
	}
	s.links[link.ID] = link
	return nil
}

func (s *stubLinkRepo) GetLink(_ context.Context, id string) (persistence.Link, error) {
	l, ok := s.links[id]
	if !ok {
		return persistence.Link{}, persistence.ErrNotFound
	}
	return l, nil
}

func (s *stubLinkRepo) GetLinkBySlug(_ context.Context, slug string) (persistence.Link, error) {
	for _, l := range s.links {
		if l.Slug == slug {
			return l, nil
		}
	}
	return persistence.Link{}, persistence.ErrNotFound
}

func (s *stubLinkRepo) ListLinks(_ context.Context, ownerID string) ([]persistence.Link, error) {
	var out []persistence.Link
	for _, l := range s.links {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *stubLinkRepo) DeleteExpiredLinks(_ context.Context, before time.Time) (int64, error) {
	var purged int64
	for id, l := range s.links {
		if l.ExpiresAt != nil && l.ExpiresAt.Before(before) {
			delete(s.links, id)
			purged++
		}
	}
	return purged, nil
}

// stubEventTypeRepo is an in-memory EventTypeRepository.
type stubEventTypeRepo struct {
	types map[string]persistence.EventType
}

func newStubEventTypeRepo() *stubEventTypeRepo {
	return &stubEventTypeRepo{types: map[string]persistence.EventType{}}
}

func (s *stubEventTypeRepo) CreateEventType(_ context.Context, eventType persistence.EventType) error {
	s.types[eventType.ID] = eventType
	return nil
}

func (s *stubEventTypeRepo) GetEventType(_ context.Context, id string) (persistence.EventType, error) {
	et, ok := s.types[id]
	if !ok {
		return persistence.EventType{}, persistence.ErrNotFound
	}
	return et, nil
}

func (s *stubEventTypeRepo) ListEventTypes(_ context.Context, ownerID string) ([]persistence.EventType, error) {
	var out []persistence.EventType
	for _, et := range s.types {
		if et.OwnerID == ownerID {
			out = append(out, et)
		}
	}
	return out, nil
}

func (s *stubEventTypeRepo) DeleteEventType(_ context.Context, id string) error {
	if _, ok := s.types[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.types, id)
	return nil
}

// recordingNotifier counts notifications per kind.
type recordingNotifier struct {
	invitations   int
	updates       int
	cancels       int
	lastEvent     persistence.Event
	lastAttendees []persistence.Attendee
}

func (r *recordingNotifier) EventInvitation(event persistence.Event, attendees []persistence.Attendee) {
	r.invitations++
	r.lastEvent = event
	r.lastAttendees = attendees
}

func (r *recordingNotifier) EventUpdated(event persistence.Event, _ []persistence.Attendee) {
	r.updates++
	r.lastEvent = event
}

func (r *recordingNotifier) EventCancelled(event persistence.Event, _ []persistence.Attendee) {
	r.cancels++
	r.lastEvent = event
}

// sequenceIDs returns an id generator yielding id-1, id-2, ...
func sequenceIDs() func() string {
	return testfixtures.NewIDGenerator("id").NextFunc()
}
