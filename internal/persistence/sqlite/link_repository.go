package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
)

// LinkRepository implements persistence.LinkRepository. The usage counter is
// only ever bumped through EventRepository.Book, inside the booking
// transaction.
type LinkRepository struct {
	pool *ConnectionPool
}

// NewLinkRepository creates the SQLite-backed scheduling link store.
func NewLinkRepository(pool *ConnectionPool) *LinkRepository {
	return &LinkRepository{pool: pool}
}

// CreateLink stores a new scheduling link.
func (r *LinkRepository) CreateLink(ctx context.Context, link persistence.Link) error {
	var expiresAt sql.NullString
	if link.ExpiresAt != nil {
		expiresAt = sql.NullString{String: link.ExpiresAt.UTC().Format(timeLayout), Valid: true}
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO scheduling_links (id, owner_id, event_type_id, slug, expires_at, max_uses, uses, timezone, meeting_mode, min_lead_minutes, max_horizon_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.OwnerID,
		nullString(link.EventTypeID),
		link.Slug,
		expiresAt,
		nullInt(link.MaxUses),
		link.Uses,
		link.Timezone,
		nullString(link.MeetingMode),
		nullInt(link.MinLeadMinutes),
		nullInt(link.MaxHorizonDays),
		link.CreatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// GetLink retrieves a link by id.
func (r *LinkRepository) GetLink(ctx context.Context, id string) (persistence.Link, error) {
	row := r.pool.db.QueryRowContext(ctx, linkSelect+" WHERE id = ?", id)
	return scanLink(row)
}

// GetLinkBySlug retrieves a link by its public slug.
func (r *LinkRepository) GetLinkBySlug(ctx context.Context, slug string) (persistence.Link, error) {
	row := r.pool.db.QueryRowContext(ctx, linkSelect+" WHERE slug = ?", slug)
	return scanLink(row)
}

// ListLinks returns the owner's links newest first.
func (r *LinkRepository) ListLinks(ctx context.Context, ownerID string) ([]persistence.Link, error) {
	rows, err := r.pool.db.QueryContext(ctx, linkSelect+" WHERE owner_id = ? ORDER BY created_at DESC, id ASC", ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var links []persistence.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return links, nil
}

// DeleteExpiredLinks purges links whose expiry passed before the cutoff.
func (r *LinkRepository) DeleteExpiredLinks(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM scheduling_links WHERE expires_at IS NOT NULL AND expires_at < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return affected, nil
}

const linkSelect = `
	SELECT id, owner_id, event_type_id, slug, expires_at, max_uses, uses, timezone, meeting_mode, min_lead_minutes, max_horizon_days, created_at
	FROM scheduling_links`

func scanLink(row rowScanner) (persistence.Link, error) {
	var link persistence.Link
	var eventTypeID, expiresAt, meetingMode sql.NullString
	var maxUses, minLead, maxHorizon sql.NullInt64
	var createdAt string

	err := row.Scan(
		&link.ID,
		&link.OwnerID,
		&eventTypeID,
		&link.Slug,
		&expiresAt,
		&maxUses,
		&link.Uses,
		&link.Timezone,
		&meetingMode,
		&minLead,
		&maxHorizon,
		&createdAt,
	)
	if err != nil {
		return persistence.Link{}, mapError(err)
	}
	link.EventTypeID = stringPtr(eventTypeID)
	link.MeetingMode = stringPtr(meetingMode)
	link.MaxUses = intPtr(maxUses)
	link.MinLeadMinutes = intPtr(minLead)
	link.MaxHorizonDays = intPtr(maxHorizon)
	if expiresAt.Valid {
		t, err := parseTime(expiresAt.String, "expires_at")
		if err != nil {
			return persistence.Link{}, err
		}
		link.ExpiresAt = &t
	}
	if link.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Link{}, err
	}
	return link, nil
}
