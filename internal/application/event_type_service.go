package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
)

// EventTypeService manages reusable meeting templates.
type EventTypeService struct {
	eventTypes  persistence.EventTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventTypeService wires dependencies for event type operations.
func NewEventTypeService(eventTypes persistence.EventTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventTypeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventTypeService{
		eventTypes:  eventTypes,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateEventType stores a new template for the principal.
func (s *EventTypeService) CreateEventType(ctx context.Context, principal Principal, input EventTypeInput) (persistence.EventType, error) {
	if principal.UserID == "" {
		return persistence.EventType{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}
	if input.BufferBeforeMinutes < 0 || input.BufferAfterMinutes < 0 {
		vErr.add("buffers", "buffers cannot be negative")
	}
	if vErr.HasErrors() {
		return persistence.EventType{}, vErr
	}

	now := s.now()
	eventType := persistence.EventType{
		ID:                  s.idGenerator(),
		OwnerID:             principal.UserID,
		Name:                strings.TrimSpace(input.Name),
		DurationMinutes:     input.DurationMinutes,
		BufferBeforeMinutes: input.BufferBeforeMinutes,
		BufferAfterMinutes:  input.BufferAfterMinutes,
		MeetingMode:         input.MeetingMode,
		MeetingLinkTemplate: input.MeetingLinkTemplate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.eventTypes.CreateEventType(ctx, eventType); err != nil {
		return persistence.EventType{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "event_types", "create", "owner_id", principal.UserID).
		InfoContext(ctx, "event type created", "event_type_id", eventType.ID)
	return eventType, nil
}

// GetEventType returns one of the principal's templates.
func (s *EventTypeService) GetEventType(ctx context.Context, principal Principal, id string) (persistence.EventType, error) {
	if principal.UserID == "" {
		return persistence.EventType{}, ErrUnauthorized
	}
	eventType, err := s.eventTypes.GetEventType(ctx, id)
	if err != nil {
		return persistence.EventType{}, mapRepoError(err)
	}
	if eventType.OwnerID != principal.UserID {
		return persistence.EventType{}, ErrUnauthorized
	}
	return eventType, nil
}

// ListEventTypes enumerates the principal's templates.
func (s *EventTypeService) ListEventTypes(ctx context.Context, principal Principal) ([]persistence.EventType, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	types, err := s.eventTypes.ListEventTypes(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return types, nil
}

// DeleteEventType removes one of the principal's templates.
func (s *EventTypeService) DeleteEventType(ctx context.Context, principal Principal, id string) error {
	eventType, err := s.eventTypes.GetEventType(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if eventType.OwnerID != principal.UserID {
		return ErrUnauthorized
	}
	return mapRepoError(s.eventTypes.DeleteEventType(ctx, id))
}
