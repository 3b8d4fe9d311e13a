package application

import (
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
)

// Principal identifies the authenticated calendar owner performing an
// operation. Public booking endpoints act without a principal.
type Principal struct {
	UserID string
}

// WeeklyRuleInput describes one recurring bookable span. The whole rule set
// is replaced per request.
type WeeklyRuleInput struct {
	Weekday      int
	StartMinutes int
	EndMinutes   int
	Timezone     string
}

// OverrideInput describes a single-date exception to the weekly rules.
type OverrideInput struct {
	Date         string
	Available    bool
	StartMinutes *int
	EndMinutes   *int
	Timezone     string
}

// AttendeeInput describes a participant supplied at booking time.
type AttendeeInput struct {
	Email    string
	Name     string
	Optional bool
}

// BookEventInput books an ad-hoc event directly on the owner's calendar.
type BookEventInput struct {
	TypeID          *string
	ContactID       *string
	LeadID          *string
	Start           time.Time
	DurationMinutes int
	Title           string
	Description     *string
	Location        *string
	MeetingMode     *string
	BufferBefore    *int
	BufferAfter     *int
	Attendees       []AttendeeInput
}

// BookFromLinkInput books through a public scheduling link.
type BookFromLinkInput struct {
	Slug     string
	Start    time.Time
	Attendee AttendeeInput
	Notes    *string
}

// EventPatch updates detail fields of an event. Nil fields are left
// unchanged; the interval and status have dedicated operations.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	MeetingMode *string
	ContactID   *string
	LeadID      *string
}

// EventTypeInput describes a reusable meeting template.
type EventTypeInput struct {
	Name                string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MeetingMode         string
	MeetingLinkTemplate *string
}

// LinkInput describes a public scheduling link.
type LinkInput struct {
	Slug           string
	EventTypeID    *string
	ExpiresAt      *time.Time
	MaxUses        *int
	Timezone       string
	MeetingMode    *string
	MinLeadMinutes *int
	MaxHorizonDays *int
}

// SlotQuery asks for open slots on an owner's calendar. Either OwnerID (for
// the authenticated owner view) or Slug (for the public link view) selects
// the calendar.
type SlotQuery struct {
	OwnerID         string
	Slug            string
	EventTypeID     string
	FromDate        string
	ToDate          string
	Timezone        string
	DurationMinutes int
}

// Slot is one bookable interval, expressed as instants.
type Slot struct {
	Start time.Time
	End   time.Time
}

// ListEventsQuery narrows the owner's event listing.
type ListEventsQuery struct {
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Statuses    []string
}

// Notifier receives event lifecycle notifications. Implementations must not
// block; delivery failures are logged, never surfaced to the booking path.
type Notifier interface {
	EventInvitation(event persistence.Event, attendees []persistence.Attendee)
	EventUpdated(event persistence.Event, attendees []persistence.Attendee)
	EventCancelled(event persistence.Event, attendees []persistence.Attendee)
}
