package http

import (
	"time"

	"github.com/example/portal-scheduler/internal/application"
	"github.com/example/portal-scheduler/internal/persistence"
)

type weeklyRuleRequest struct {
	Weekday      int    `json:"weekday"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Timezone     string `json:"timezone"`
}

type setRulesRequest struct {
	Rules []weeklyRuleRequest `json:"rules"`
}

func (r setRulesRequest) toInputs() []application.WeeklyRuleInput {
	inputs := make([]application.WeeklyRuleInput, 0, len(r.Rules))
	for _, rule := range r.Rules {
		inputs = append(inputs, application.WeeklyRuleInput{
			Weekday:      rule.Weekday,
			StartMinutes: rule.StartMinutes,
			EndMinutes:   rule.EndMinutes,
			Timezone:     rule.Timezone,
		})
	}
	return inputs
}

type overrideRequest struct {
	Date         string `json:"date"`
	Available    bool   `json:"available"`
	StartMinutes *int   `json:"start_minutes,omitempty"`
	EndMinutes   *int   `json:"end_minutes,omitempty"`
	Timezone     string `json:"timezone"`
}

type attendeeRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

func (a attendeeRequest) toInput() application.AttendeeInput {
	return application.AttendeeInput{Email: a.Email, Name: a.Name, Optional: a.Optional}
}

type bookEventRequest struct {
	TypeID          *string           `json:"type_id,omitempty"`
	ContactID       *string           `json:"contact_id,omitempty"`
	LeadID          *string           `json:"lead_id,omitempty"`
	Start           time.Time         `json:"start"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	Title           string            `json:"title"`
	Description     *string           `json:"description,omitempty"`
	Location        *string           `json:"location,omitempty"`
	MeetingMode     *string           `json:"meeting_mode,omitempty"`
	BufferBefore    *int              `json:"buffer_before_minutes,omitempty"`
	BufferAfter     *int              `json:"buffer_after_minutes,omitempty"`
	Attendees       []attendeeRequest `json:"attendees"`
}

func (r bookEventRequest) toInput() application.BookEventInput {
	attendees := make([]application.AttendeeInput, 0, len(r.Attendees))
	for _, a := range r.Attendees {
		attendees = append(attendees, a.toInput())
	}
	return application.BookEventInput{
		TypeID:          r.TypeID,
		ContactID:       r.ContactID,
		LeadID:          r.LeadID,
		Start:           r.Start,
		DurationMinutes: r.DurationMinutes,
		Title:           r.Title,
		Description:     r.Description,
		Location:        r.Location,
		MeetingMode:     r.MeetingMode,
		BufferBefore:    r.BufferBefore,
		BufferAfter:     r.BufferAfter,
		Attendees:       attendees,
	}
}

type bookFromLinkRequest struct {
	Start    time.Time       `json:"start"`
	Attendee attendeeRequest `json:"attendee"`
	Notes    *string         `json:"notes,omitempty"`
}

type rescheduleRequest struct {
	Start time.Time `json:"start"`
}

type patchEventRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
	MeetingMode *string `json:"meeting_mode,omitempty"`
	ContactID   *string `json:"contact_id,omitempty"`
	LeadID      *string `json:"lead_id,omitempty"`
}

func (r patchEventRequest) toPatch() application.EventPatch {
	return application.EventPatch{
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		MeetingMode: r.MeetingMode,
		ContactID:   r.ContactID,
		LeadID:      r.LeadID,
	}
}

type rsvpRequest struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

type linkRequest struct {
	Slug           string     `json:"slug"`
	EventTypeID    *string    `json:"event_type_id,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	Timezone       string     `json:"timezone"`
	MeetingMode    *string    `json:"meeting_mode,omitempty"`
	MinLeadMinutes *int       `json:"min_lead_minutes,omitempty"`
	MaxHorizonDays *int       `json:"max_horizon_days,omitempty"`
}

func (r linkRequest) toInput() application.LinkInput {
	return application.LinkInput{
		Slug:           r.Slug,
		EventTypeID:    r.EventTypeID,
		ExpiresAt:      r.ExpiresAt,
		MaxUses:        r.MaxUses,
		Timezone:       r.Timezone,
		MeetingMode:    r.MeetingMode,
		MinLeadMinutes: r.MinLeadMinutes,
		MaxHorizonDays: r.MaxHorizonDays,
	}
}

type eventTypeRequest struct {
	Name                string  `json:"name"`
	DurationMinutes     int     `json:"duration_minutes"`
	BufferBeforeMinutes int     `json:"buffer_before_minutes,omitempty"`
	BufferAfterMinutes  int     `json:"buffer_after_minutes,omitempty"`
	MeetingMode         string  `json:"meeting_mode,omitempty"`
	MeetingLinkTemplate *string `json:"meeting_link_template,omitempty"`
}

func (r eventTypeRequest) toInput() application.EventTypeInput {
	return application.EventTypeInput{
		Name:                r.Name,
		DurationMinutes:     r.DurationMinutes,
		BufferBeforeMinutes: r.BufferBeforeMinutes,
		BufferAfterMinutes:  r.BufferAfterMinutes,
		MeetingMode:         r.MeetingMode,
		MeetingLinkTemplate: r.MeetingLinkTemplate,
	}
}

type ruleDTO struct {
	ID           string `json:"id"`
	Weekday      int    `json:"weekday"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Timezone     string `json:"timezone"`
	Active       bool   `json:"active"`
}

func toRuleDTOs(rules []persistence.WeeklyRule) []ruleDTO {
	out := make([]ruleDTO, 0, len(rules))
	for _, r := range rules {
		out = append(out, ruleDTO{
			ID:           r.ID,
			Weekday:      r.Weekday,
			StartMinutes: r.StartMinutes,
			EndMinutes:   r.EndMinutes,
			Timezone:     r.Timezone,
			Active:       r.Active,
		})
	}
	return out
}

type overrideDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Available    bool   `json:"available"`
	StartMinutes *int   `json:"start_minutes,omitempty"`
	EndMinutes   *int   `json:"end_minutes,omitempty"`
	Timezone     string `json:"timezone"`
}

func toOverrideDTO(o persistence.Override) overrideDTO {
	return overrideDTO{
		ID:           o.ID,
		Date:         o.Date,
		Available:    o.Available,
		StartMinutes: o.StartMinutes,
		EndMinutes:   o.EndMinutes,
		Timezone:     o.Timezone,
	}
}

func toOverrideDTOs(overrides []persistence.Override) []overrideDTO {
	out := make([]overrideDTO, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, toOverrideDTO(o))
	}
	return out
}

type slotDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type slotsResponse struct {
	Timezone string    `json:"timezone"`
	Slots    []slotDTO `json:"slots"`
}

func toSlotsResponse(slots []application.Slot, tzName string) slotsResponse {
	out := make([]slotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotDTO{Start: s.Start, End: s.End})
	}
	return slotsResponse{Timezone: tzName, Slots: out}
}

type eventDTO struct {
	ID                  string    `json:"id"`
	TypeID              *string   `json:"type_id,omitempty"`
	ContactID           *string   `json:"contact_id,omitempty"`
	LeadID              *string   `json:"lead_id,omitempty"`
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	Title               string    `json:"title"`
	Description         *string   `json:"description,omitempty"`
	Location            *string   `json:"location,omitempty"`
	MeetingMode         *string   `json:"meeting_mode,omitempty"`
	Status              string    `json:"status"`
	BufferBeforeMinutes int       `json:"buffer_before_minutes"`
	BufferAfterMinutes  int       `json:"buffer_after_minutes"`
	ConfirmationCode    *string   `json:"confirmation_code,omitempty"`
}

func toEventDTO(e persistence.Event) eventDTO {
	return eventDTO{
		ID:                  e.ID,
		TypeID:              e.TypeID,
		ContactID:           e.ContactID,
		LeadID:              e.LeadID,
		Start:               e.Start,
		End:                 e.End,
		Title:               e.Title,
		Description:         e.Description,
		Location:            e.Location,
		MeetingMode:         e.MeetingMode,
		Status:              e.Status,
		BufferBeforeMinutes: e.BufferBeforeMinutes,
		BufferAfterMinutes:  e.BufferAfterMinutes,
		ConfirmationCode:    e.ConfirmationCode,
	}
}

func toEventDTOs(events []persistence.Event) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, e := range events {
		out = append(out, toEventDTO(e))
	}
	return out
}

type attendeeDTO struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Name   *string `json:"name,omitempty"`
	Role   string  `json:"role"`
	Status string  `json:"status"`
}

func toAttendeeDTO(a persistence.Attendee) attendeeDTO {
	return attendeeDTO{ID: a.ID, Email: a.Email, Name: a.Name, Role: a.Role, Status: a.Status}
}

func toAttendeeDTOs(attendees []persistence.Attendee) []attendeeDTO {
	out := make([]attendeeDTO, 0, len(attendees))
	for _, a := range attendees {
		out = append(out, toAttendeeDTO(a))
	}
	return out
}

type linkDTO struct {
	ID             string     `json:"id"`
	Slug           string     `json:"slug"`
	EventTypeID    *string    `json:"event_type_id,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	MaxUses        *int       `json:"max_uses,omitempty"`
	Uses           int        `json:"uses"`
	Timezone       string     `json:"timezone"`
	MeetingMode    *string    `json:"meeting_mode,omitempty"`
	MinLeadMinutes *int       `json:"min_lead_minutes,omitempty"`
	MaxHorizonDays *int       `json:"max_horizon_days,omitempty"`
}

func toLinkDTO(l persistence.Link) linkDTO {
	return linkDTO{
		ID:             l.ID,
		Slug:           l.Slug,
		EventTypeID:    l.EventTypeID,
		ExpiresAt:      l.ExpiresAt,
		MaxUses:        l.MaxUses,
		Uses:           l.Uses,
		Timezone:       l.Timezone,
		MeetingMode:    l.MeetingMode,
		MinLeadMinutes: l.MinLeadMinutes,
		MaxHorizonDays: l.MaxHorizonDays,
	}
}

func toLinkDTOs(links []persistence.Link) []linkDTO {
	out := make([]linkDTO, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkDTO(l))
	}
	return out
}

// publicLinkDTO hides the owner and usage counters from anonymous callers.
type publicLinkDTO struct {
	Slug           string  `json:"slug"`
	Timezone       string  `json:"timezone"`
	MeetingMode    *string `json:"meeting_mode,omitempty"`
	MinLeadMinutes *int    `json:"min_lead_minutes,omitempty"`
	MaxHorizonDays *int    `json:"max_horizon_days,omitempty"`
}

func toPublicLinkDTO(l persistence.Link) publicLinkDTO {
	return publicLinkDTO{
		Slug:           l.Slug,
		Timezone:       l.Timezone,
		MeetingMode:    l.MeetingMode,
		MinLeadMinutes: l.MinLeadMinutes,
		MaxHorizonDays: l.MaxHorizonDays,
	}
}

type eventTypeDTO struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	DurationMinutes     int     `json:"duration_minutes"`
	BufferBeforeMinutes int     `json:"buffer_before_minutes"`
	BufferAfterMinutes  int     `json:"buffer_after_minutes"`
	MeetingMode         string  `json:"meeting_mode,omitempty"`
	MeetingLinkTemplate *string `json:"meeting_link_template,omitempty"`
}

func toEventTypeDTO(et persistence.EventType) eventTypeDTO {
	return eventTypeDTO{
		ID:                  et.ID,
		Name:                et.Name,
		DurationMinutes:     et.DurationMinutes,
		BufferBeforeMinutes: et.BufferBeforeMinutes,
		BufferAfterMinutes:  et.BufferAfterMinutes,
		MeetingMode:         et.MeetingMode,
		MeetingLinkTemplate: et.MeetingLinkTemplate,
	}
}

func toEventTypeDTOs(types []persistence.EventType) []eventTypeDTO {
	out := make([]eventTypeDTO, 0, len(types))
	for _, et := range types {
		out = append(out, toEventTypeDTO(et))
	}
	return out
}
