package persistence

import "time"

// WeeklyRule is a recurring bookable span on an owner's weekday. Rules are
// replaced wholesale per owner; they have no independent lifecycle.
type WeeklyRule struct {
	ID           string
	OwnerID      string
	Weekday      int // 0=Sunday .. 6=Saturday
	StartMinutes int
	EndMinutes   int
	Timezone     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Override replaces the weekly rules for one calendar date. Available=false
// blocks the whole day; nil minute bounds on an available override mean all
// day.
type Override struct {
	ID           string
	OwnerID      string
	Date         string // "YYYY-MM-DD"
	Available    bool
	StartMinutes *int
	EndMinutes   *int
	Timezone     string
	CreatedAt    time.Time
}

// EventType carries the default duration and buffers applied when a link or
// ad-hoc booking does not override them.
type EventType struct {
	ID                  string
	OwnerID             string
	Name                string
	DurationMinutes     int
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	MeetingMode         string
	MeetingLinkTemplate *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Event is a booked meeting. Start/End are stored as instants; the buffers
// recorded at booking time travel with the event for conflict padding.
type Event struct {
	ID                  string
	OwnerID             string
	TypeID              *string
	ContactID           *string
	LeadID              *string
	Start               time.Time
	End                 time.Time
	Title               string
	Description         *string
	Location            *string
	MeetingMode         *string
	Status              string
	BufferBeforeMinutes int
	BufferAfterMinutes  int
	ConfirmationCode    *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Attendee is an invited or self-booked participant of an event.
type Attendee struct {
	ID        string
	EventID   string
	Email     string
	Name      *string
	Role      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Link is a public scheduling slug bound to an owner and booking policy.
// Effectively immutable after creation except for the Uses counter.
type Link struct {
	ID             string
	OwnerID        string
	EventTypeID    *string
	Slug           string
	ExpiresAt      *time.Time
	MaxUses        *int
	Uses           int
	Timezone       string
	MeetingMode    *string
	MinLeadMinutes *int
	MaxHorizonDays *int
	CreatedAt      time.Time
}

// Booking bundles everything one public or owner booking writes atomically:
// the event, its initial attendees, and (for link bookings) the link whose
// usage counter must be bumped in the same transaction.
type Booking struct {
	Event     Event
	Attendees []Attendee
	LinkID    *string
	// Now is the wall clock read once by the caller; the link expiry is
	// re-checked against it at commit time.
	Now time.Time
}
