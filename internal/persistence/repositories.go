package persistence

import (
	"context"
	"time"
)

// AvailabilityRepository stores weekly rules and date overrides.
type AvailabilityRepository interface {
	// ReplaceWeeklyRules swaps the owner's entire weekly rule set in one
	// transaction.
	ReplaceWeeklyRules(ctx context.Context, ownerID string, rules []WeeklyRule) error
	ListWeeklyRules(ctx context.Context, ownerID string) ([]WeeklyRule, error)
	CreateOverride(ctx context.Context, override Override) error
	GetOverride(ctx context.Context, id string) (Override, error)
	// ListOverrides returns the owner's overrides for date keys in
	// [fromDate, toDate); empty bounds mean unbounded.
	ListOverrides(ctx context.Context, ownerID, fromDate, toDate string) ([]Override, error)
	DeleteOverride(ctx context.Context, id string) error
}

// EventTypeRepository stores meeting templates.
type EventTypeRepository interface {
	CreateEventType(ctx context.Context, eventType EventType) error
	GetEventType(ctx context.Context, id string) (EventType, error)
	ListEventTypes(ctx context.Context, ownerID string) ([]EventType, error)
	DeleteEventType(ctx context.Context, id string) error
}

// EventFilter narrows event queries.
type EventFilter struct {
	OwnerID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Statuses    []string
}

// EventRepository stores events and performs the write-time conflict
// re-validation. Book and Reschedule run the buffered conflict check against
// the owner's current events inside the same transaction as the write, which
// is the defense against the double-booking race.
type EventRepository interface {
	// Book inserts the event (and attendees, and link-usage bump) if the
	// buffered interval is free. Returns ErrOverlap, ErrLinkExpired, or
	// ErrLinkExhausted on the corresponding failed re-validation.
	Book(ctx context.Context, booking Booking) error
	// Reschedule moves an event to a new interval if the interval is free,
	// ignoring the event itself during the conflict check.
	Reschedule(ctx context.Context, id string, start, end time.Time, updatedAt time.Time) error
	UpdateEvent(ctx context.Context, event Event) error
	UpdateEventStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// AttendeeRepository stores event attendees.
type AttendeeRepository interface {
	CreateAttendee(ctx context.Context, attendee Attendee) error
	GetAttendee(ctx context.Context, id string) (Attendee, error)
	ListAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	UpdateAttendeeStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	DeleteAttendee(ctx context.Context, id string) error
}

// LinkRepository stores public scheduling links.
type LinkRepository interface {
	CreateLink(ctx context.Context, link Link) error
	GetLink(ctx context.Context, id string) (Link, error)
	GetLinkBySlug(ctx context.Context, slug string) (Link, error)
	ListLinks(ctx context.Context, ownerID string) ([]Link, error)
	// DeleteExpiredLinks removes links whose expiry passed before the cutoff
	// and reports how many were purged.
	DeleteExpiredLinks(ctx context.Context, before time.Time) (int64, error)
}
