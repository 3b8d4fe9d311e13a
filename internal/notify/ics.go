package notify

import (
	"strconv"

	ics "github.com/arran4/golang-ical"

	"github.com/example/portal-scheduler/internal/persistence"
)

// buildInvite renders a VEVENT for the event with METHOD:REQUEST, inviting
// each attendee with RSVP requested.
func buildInvite(event persistence.Event, attendees []persistence.Attendee, organizerEmail string, sequence int) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)

	ve := newVEvent(cal, event, sequence)
	for _, a := range attendees {
		props := []ics.PropertyParameter{
			ics.CalendarUserTypeIndividual,
			ics.ParticipationStatusNeedsAction,
			ics.ParticipationRoleReqParticipant,
			ics.WithRSVP(true),
		}
		ve.AddAttendee(a.Email, props...)
	}
	if organizerEmail != "" {
		ve.SetOrganizer("mailto:" + organizerEmail)
	}

	return cal.Serialize()
}

// buildCancel renders the event with METHOD:CANCEL and STATUS:CANCELLED so
// mail clients retract the original invite.
func buildCancel(event persistence.Event, attendees []persistence.Attendee, organizerEmail string, sequence int) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodCancel)

	ve := newVEvent(cal, event, sequence)
	ve.SetStatus(ics.ObjectStatusCancelled)
	for _, a := range attendees {
		ve.AddAttendee(a.Email, ics.CalendarUserTypeIndividual)
	}
	if organizerEmail != "" {
		ve.SetOrganizer("mailto:" + organizerEmail)
	}

	return cal.Serialize()
}

func newVEvent(cal *ics.Calendar, event persistence.Event, sequence int) *ics.VEvent {
	ve := cal.AddEvent(event.ID)
	ve.SetDtStampTime(event.UpdatedAt)
	ve.SetStartAt(event.Start)
	ve.SetEndAt(event.End)
	ve.SetSummary(event.Title)
	if event.Description != nil {
		ve.SetDescription(*event.Description)
	}
	if event.Location != nil {
		ve.SetLocation(*event.Location)
	}
	// SEQUENCE lets clients order updates to the same UID.
	ve.AddProperty(ics.ComponentPropertySequence, strconv.Itoa(sequence))
	return ve
}
