package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/portal-scheduler/internal/availability"
	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/scheduler"
	"github.com/example/portal-scheduler/internal/timezone"
)

const (
	// DefaultDurationMinutes applies when neither the query, the link, nor
	// the event type specifies a meeting length.
	DefaultDurationMinutes = 30
	// DefaultQueryDays is the date span queried when the caller gives no
	// upper bound.
	DefaultQueryDays = 14
)

// AvailabilityService manages weekly rules and overrides and answers slot
// queries for both the owner view and the public link view.
type AvailabilityService struct {
	rules       persistence.AvailabilityRepository
	events      persistence.EventRepository
	links       persistence.LinkRepository
	eventTypes  persistence.EventTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(rules persistence.AvailabilityRepository, events persistence.EventRepository, links persistence.LinkRepository, eventTypes persistence.EventTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AvailabilityService{
		rules:       rules,
		events:      events,
		links:       links,
		eventTypes:  eventTypes,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// SetWeeklyRules replaces the principal's entire weekly rule set.
func (s *AvailabilityService) SetWeeklyRules(ctx context.Context, principal Principal, inputs []WeeklyRuleInput) ([]persistence.WeeklyRule, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	for i, input := range inputs {
		validateWeeklyRule(i, input, vErr)
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	now := s.now()
	rules := make([]persistence.WeeklyRule, 0, len(inputs))
	for _, input := range inputs {
		rules = append(rules, persistence.WeeklyRule{
			ID:           s.idGenerator(),
			OwnerID:      principal.UserID,
			Weekday:      input.Weekday,
			StartMinutes: input.StartMinutes,
			EndMinutes:   input.EndMinutes,
			Timezone:     input.Timezone,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.rules.ReplaceWeeklyRules(ctx, principal.UserID, rules); err != nil {
		return nil, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "availability", "set_weekly_rules", "owner_id", principal.UserID).
		InfoContext(ctx, "weekly rules replaced", "count", len(rules))
	return rules, nil
}

// ListWeeklyRules returns the principal's weekly rules.
func (s *AvailabilityService) ListWeeklyRules(ctx context.Context, principal Principal) ([]persistence.WeeklyRule, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	rules, err := s.rules.ListWeeklyRules(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rules, nil
}

// CreateOverride records a single-date exception for the principal.
func (s *AvailabilityService) CreateOverride(ctx context.Context, principal Principal, input OverrideInput) (persistence.Override, error) {
	if principal.UserID == "" {
		return persistence.Override{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if _, err := timezone.ParseDateKey(input.Date); err != nil {
		vErr.add("date", "date must be formatted YYYY-MM-DD")
	}
	if input.Timezone == "" {
		vErr.add("timezone", "timezone is required")
	} else if _, err := timezone.LoadZone(input.Timezone); err != nil {
		vErr.add("timezone", "unknown timezone")
	}
	if input.Available {
		validateMinuteBounds(input.StartMinutes, input.EndMinutes, vErr)
	}
	if vErr.HasErrors() {
		return persistence.Override{}, vErr
	}

	override := persistence.Override{
		ID:           s.idGenerator(),
		OwnerID:      principal.UserID,
		Date:         input.Date,
		Available:    input.Available,
		StartMinutes: input.StartMinutes,
		EndMinutes:   input.EndMinutes,
		Timezone:     input.Timezone,
		CreatedAt:    s.now(),
	}
	if err := s.rules.CreateOverride(ctx, override); err != nil {
		return persistence.Override{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "availability", "create_override", "owner_id", principal.UserID).
		InfoContext(ctx, "override created", "date", input.Date, "available", input.Available)
	return override, nil
}

// ListOverrides returns the principal's overrides, optionally bounded to
// [fromDate, toDate).
func (s *AvailabilityService) ListOverrides(ctx context.Context, principal Principal, fromDate, toDate string) ([]persistence.Override, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	overrides, err := s.rules.ListOverrides(ctx, principal.UserID, fromDate, toDate)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return overrides, nil
}

// DeleteOverride removes one of the principal's overrides.
func (s *AvailabilityService) DeleteOverride(ctx context.Context, principal Principal, id string) error {
	existing, err := s.rules.GetOverride(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if existing.OwnerID != principal.UserID {
		return ErrUnauthorized
	}
	return mapRepoError(s.rules.DeleteOverride(ctx, id))
}

// QuerySlots computes bookable slots for an owner's calendar. The public
// link view (query.Slug) applies the link's duration, buffer, lead-time, and
// horizon policy; the owner view (query.OwnerID) applies defaults only.
func (s *AvailabilityService) QuerySlots(ctx context.Context, query SlotQuery) ([]Slot, string, error) {
	policy, err := s.resolvePolicy(ctx, query)
	if err != nil {
		return nil, "", err
	}

	rules, err := s.rules.ListWeeklyRules(ctx, policy.ownerID)
	if err != nil {
		return nil, "", mapRepoError(err)
	}

	tzName := query.Timezone
	if tzName == "" {
		tzName = policy.timezone
	}
	if tzName == "" && len(rules) > 0 {
		tzName = rules[0].Timezone
	}
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := timezone.LoadZone(tzName)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("timezone", "unknown timezone")
		return nil, "", vErr
	}

	now := s.now()
	fromDate := query.FromDate
	if fromDate == "" {
		fromDate = timezone.DateKeyInZone(now, loc)
	}
	toDate := query.ToDate
	if toDate == "" {
		days := DefaultQueryDays
		if policy.maxHorizonDays > 0 && policy.maxHorizonDays < days {
			days = policy.maxHorizonDays
		}
		toDate, err = timezone.AddDays(fromDate, days)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("from", "date must be formatted YYYY-MM-DD")
			return nil, "", vErr
		}
	}
	dates, err := timezone.DateRange(fromDate, toDate)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("range", "invalid date range")
		return nil, "", vErr
	}

	overrides, err := s.rules.ListOverrides(ctx, policy.ownerID, fromDate, toDate)
	if err != nil {
		return nil, "", mapRepoError(err)
	}

	days, err := availability.Resolve(dates, loc, toAvailabilityRules(rules), toAvailabilityOverrides(overrides))
	if err != nil {
		return nil, "", fmt.Errorf("resolve availability: %w", err)
	}

	existing, err := s.scheduledEvents(ctx, policy.ownerID, fromDate, toDate, loc)
	if err != nil {
		return nil, "", err
	}

	generated, err := scheduler.GenerateSlots(scheduler.GenerateParams{
		Days:           days,
		Location:       loc,
		Duration:       time.Duration(policy.durationMinutes) * time.Minute,
		Buffers:        policy.buffers,
		MinLead:        policy.minLead,
		MaxHorizonDays: policy.maxHorizonDays,
		Now:            now,
		Existing:       existing,
	})
	if err != nil {
		return nil, "", err
	}

	slots := make([]Slot, 0, len(generated))
	for _, g := range generated {
		slots = append(slots, Slot{Start: g.Start, End: g.End})
	}
	return slots, tzName, nil
}

// slotPolicy is the effective booking policy after applying the precedence
// link > event type > defaults.
type slotPolicy struct {
	ownerID         string
	timezone        string
	durationMinutes int
	buffers         scheduler.Buffers
	minLead         time.Duration
	maxHorizonDays  int
	link            *persistence.Link
}

func (s *AvailabilityService) resolvePolicy(ctx context.Context, query SlotQuery) (slotPolicy, error) {
	policy := slotPolicy{durationMinutes: DefaultDurationMinutes}

	if query.Slug != "" {
		link, err := s.links.GetLinkBySlug(ctx, query.Slug)
		if err != nil {
			return slotPolicy{}, mapRepoError(err)
		}
		policy.ownerID = link.OwnerID
		policy.timezone = link.Timezone
		policy.link = &link
		if link.MinLeadMinutes != nil {
			policy.minLead = time.Duration(*link.MinLeadMinutes) * time.Minute
		}
		if link.MaxHorizonDays != nil {
			policy.maxHorizonDays = *link.MaxHorizonDays
		}
		if link.EventTypeID != nil {
			eventType, err := s.eventTypes.GetEventType(ctx, *link.EventTypeID)
			if err != nil && !errors.Is(err, persistence.ErrNotFound) {
				return slotPolicy{}, mapRepoError(err)
			}
			if err == nil {
				policy.durationMinutes = eventType.DurationMinutes
				policy.buffers = scheduler.Buffers{
					Before: time.Duration(eventType.BufferBeforeMinutes) * time.Minute,
					After:  time.Duration(eventType.BufferAfterMinutes) * time.Minute,
				}
			}
		}
	} else if query.OwnerID != "" {
		policy.ownerID = query.OwnerID
		if query.EventTypeID != "" {
			eventType, err := s.eventTypes.GetEventType(ctx, query.EventTypeID)
			if err != nil {
				if errors.Is(err, persistence.ErrNotFound) {
					vErr := &ValidationError{}
					vErr.add("event_type_id", "event type does not exist")
					return slotPolicy{}, vErr
				}
				return slotPolicy{}, mapRepoError(err)
			}
			policy.durationMinutes = eventType.DurationMinutes
			policy.buffers = scheduler.Buffers{
				Before: time.Duration(eventType.BufferBeforeMinutes) * time.Minute,
				After:  time.Duration(eventType.BufferAfterMinutes) * time.Minute,
			}
		}
	} else {
		vErr := &ValidationError{}
		vErr.add("owner", "owner or link slug is required")
		return slotPolicy{}, vErr
	}

	if query.DurationMinutes > 0 {
		policy.durationMinutes = query.DurationMinutes
	}
	return policy, nil
}

func (s *AvailabilityService) scheduledEvents(ctx context.Context, ownerID, fromDate, toDate string, loc *time.Location) ([]scheduler.Event, error) {
	windowStart, err := timezone.LocalMidnight(fromDate, loc)
	if err != nil {
		return nil, err
	}
	windowEnd, err := timezone.LocalMidnight(toDate, loc)
	if err != nil {
		return nil, err
	}
	// Pad the load window so events just outside the range still contribute
	// their buffers to conflicts within it.
	after := windowStart.Add(-24 * time.Hour)
	before := windowEnd.Add(24 * time.Hour)

	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		OwnerID:     ownerID,
		StartsAfter: &after,
		EndsBefore:  &before,
		Statuses:    []string{"scheduled"},
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return toSchedulerEvents(events), nil
}

func toSchedulerEvents(events []persistence.Event) []scheduler.Event {
	out := make([]scheduler.Event, 0, len(events))
	for _, ev := range events {
		out = append(out, scheduler.Event{
			ID:           ev.ID,
			OwnerID:      ev.OwnerID,
			Start:        ev.Start,
			End:          ev.End,
			BufferBefore: time.Duration(ev.BufferBeforeMinutes) * time.Minute,
			BufferAfter:  time.Duration(ev.BufferAfterMinutes) * time.Minute,
			Status:       scheduler.Status(ev.Status),
		})
	}
	return out
}

func toAvailabilityRules(rules []persistence.WeeklyRule) []availability.WeeklyRule {
	out := make([]availability.WeeklyRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, availability.WeeklyRule{
			ID:           r.ID,
			OwnerID:      r.OwnerID,
			Weekday:      r.Weekday,
			StartMinutes: r.StartMinutes,
			EndMinutes:   r.EndMinutes,
			Timezone:     r.Timezone,
			Active:       r.Active,
		})
	}
	return out
}

func toAvailabilityOverrides(overrides []persistence.Override) []availability.Override {
	out := make([]availability.Override, 0, len(overrides))
	for _, o := range overrides {
		out = append(out, availability.Override{
			ID:           o.ID,
			OwnerID:      o.OwnerID,
			Date:         o.Date,
			Available:    o.Available,
			StartMinutes: o.StartMinutes,
			EndMinutes:   o.EndMinutes,
			Timezone:     o.Timezone,
		})
	}
	return out
}

func validateWeeklyRule(index int, input WeeklyRuleInput, vErr *ValidationError) {
	field := func(name string) string { return fmt.Sprintf("rules[%d].%s", index, name) }
	if input.Weekday < 0 || input.Weekday > 6 {
		vErr.add(field("weekday"), "weekday must be between 0 (Sunday) and 6 (Saturday)")
	}
	if input.StartMinutes < 0 || input.StartMinutes >= timezone.MinutesPerDay {
		vErr.add(field("start_minutes"), "start must be within the day")
	}
	if input.EndMinutes <= input.StartMinutes || input.EndMinutes > timezone.MinutesPerDay {
		vErr.add(field("end_minutes"), "end must be after start and within the day")
	}
	if input.Timezone == "" {
		vErr.add(field("timezone"), "timezone is required")
	} else if _, err := timezone.LoadZone(input.Timezone); err != nil {
		vErr.add(field("timezone"), "unknown timezone")
	}
}

func validateMinuteBounds(start, end *int, vErr *ValidationError) {
	if start == nil && end == nil {
		return
	}
	if start == nil || end == nil {
		vErr.add("window", "start and end minutes must be supplied together")
		return
	}
	if *start < 0 || *start >= timezone.MinutesPerDay {
		vErr.add("start_minutes", "start must be within the day")
	}
	if *end <= *start || *end > timezone.MinutesPerDay {
		vErr.add("end_minutes", "end must be after start and within the day")
	}
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrOverlap):
		return ErrSlotUnavailable
	case errors.Is(err, persistence.ErrLinkExpired):
		return &PolicyError{Reason: PolicyReasonLinkExpired}
	case errors.Is(err, persistence.ErrLinkExhausted):
		return &PolicyError{Reason: PolicyReasonLinkExhausted}
	}
	return err
}
