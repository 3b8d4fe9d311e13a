package application

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/timezone"
)

// linkRetention keeps expired links queryable for a grace period before the
// purge job removes them, so recent bookings can still resolve their source.
const linkRetention = 30 * 24 * time.Hour

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// LinkService manages public scheduling links.
type LinkService struct {
	links       persistence.LinkRepository
	eventTypes  persistence.EventTypeRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewLinkService wires dependencies for scheduling link operations.
func NewLinkService(links persistence.LinkRepository, eventTypes persistence.EventTypeRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LinkService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &LinkService{
		links:       links,
		eventTypes:  eventTypes,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateLink publishes a new scheduling link for the principal.
func (s *LinkService) CreateLink(ctx context.Context, principal Principal, input LinkInput) (persistence.Link, error) {
	if principal.UserID == "" {
		return persistence.Link{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if !slugPattern.MatchString(input.Slug) {
		vErr.add("slug", "slug must be lowercase letters, digits, and hyphens")
	}
	if input.Timezone == "" {
		vErr.add("timezone", "timezone is required")
	} else if _, err := timezone.LoadZone(input.Timezone); err != nil {
		vErr.add("timezone", "unknown timezone")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		vErr.add("max_uses", "max uses must be positive")
	}
	if input.MinLeadMinutes != nil && *input.MinLeadMinutes < 0 {
		vErr.add("min_lead_minutes", "lead time cannot be negative")
	}
	if input.MaxHorizonDays != nil && *input.MaxHorizonDays <= 0 {
		vErr.add("max_horizon_days", "horizon must be positive")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		vErr.add("expires_at", "expiry must be in the future")
	}
	if vErr.HasErrors() {
		return persistence.Link{}, vErr
	}

	if input.EventTypeID != nil {
		eventType, err := s.eventTypes.GetEventType(ctx, *input.EventTypeID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr.add("event_type_id", "event type does not exist")
				return persistence.Link{}, vErr
			}
			return persistence.Link{}, mapRepoError(err)
		}
		if eventType.OwnerID != principal.UserID {
			return persistence.Link{}, ErrUnauthorized
		}
	}

	link := persistence.Link{
		ID:             s.idGenerator(),
		OwnerID:        principal.UserID,
		EventTypeID:    input.EventTypeID,
		Slug:           input.Slug,
		ExpiresAt:      input.ExpiresAt,
		MaxUses:        input.MaxUses,
		Uses:           0,
		Timezone:       input.Timezone,
		MeetingMode:    input.MeetingMode,
		MinLeadMinutes: input.MinLeadMinutes,
		MaxHorizonDays: input.MaxHorizonDays,
		CreatedAt:      s.now(),
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		return persistence.Link{}, mapRepoError(err)
	}

	serviceLogger(ctx, s.logger, "links", "create", "owner_id", principal.UserID).
		InfoContext(ctx, "scheduling link created", "slug", link.Slug)
	return link, nil
}

// GetLinkBySlug resolves the public view of a link. Expired or exhausted
// links stay resolvable here; the policy rejection happens at booking time.
func (s *LinkService) GetLinkBySlug(ctx context.Context, slug string) (persistence.Link, error) {
	link, err := s.links.GetLinkBySlug(ctx, slug)
	if err != nil {
		return persistence.Link{}, mapRepoError(err)
	}
	return link, nil
}

// ListLinks enumerates the principal's links.
func (s *LinkService) ListLinks(ctx context.Context, principal Principal) ([]persistence.Link, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	links, err := s.links.ListLinks(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return links, nil
}

// PurgeExpiredLinks removes links whose expiry passed the retention window.
// Run periodically by the background job in main.
func (s *LinkService) PurgeExpiredLinks(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-linkRetention)
	purged, err := s.links.DeleteExpiredLinks(ctx, cutoff)
	if err != nil {
		return 0, mapRepoError(err)
	}
	if purged > 0 {
		serviceLogger(ctx, s.logger, "links", "purge").
			InfoContext(ctx, "expired links purged", "count", purged)
	}
	return purged, nil
}
