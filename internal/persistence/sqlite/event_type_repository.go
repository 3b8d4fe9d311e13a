package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/portal-scheduler/internal/persistence"
)

// EventTypeRepository implements persistence.EventTypeRepository.
type EventTypeRepository struct {
	pool *ConnectionPool
}

// NewEventTypeRepository creates the SQLite-backed meeting template store.
func NewEventTypeRepository(pool *ConnectionPool) *EventTypeRepository {
	return &EventTypeRepository{pool: pool}
}

// CreateEventType stores a new meeting template.
func (r *EventTypeRepository) CreateEventType(ctx context.Context, eventType persistence.EventType) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO event_types (id, owner_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes, meeting_mode, meeting_link_template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eventType.ID,
		eventType.OwnerID,
		eventType.Name,
		eventType.DurationMinutes,
		eventType.BufferBeforeMinutes,
		eventType.BufferAfterMinutes,
		eventType.MeetingMode,
		nullString(eventType.MeetingLinkTemplate),
		eventType.CreatedAt.UTC().Format(timeLayout),
		eventType.UpdatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// GetEventType retrieves a meeting template by id.
func (r *EventTypeRepository) GetEventType(ctx context.Context, id string) (persistence.EventType, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes, meeting_mode, meeting_link_template, created_at, updated_at
		FROM event_types
		WHERE id = ?`, id)
	return scanEventType(row)
}

// ListEventTypes returns the owner's templates ordered by name.
func (r *EventTypeRepository) ListEventTypes(ctx context.Context, ownerID string) ([]persistence.EventType, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, owner_id, name, duration_minutes, buffer_before_minutes, buffer_after_minutes, meeting_mode, meeting_link_template, created_at, updated_at
		FROM event_types
		WHERE owner_id = ?
		ORDER BY name ASC, id ASC`, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var types []persistence.EventType
	for rows.Next() {
		eventType, err := scanEventType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, eventType)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return types, nil
}

// DeleteEventType removes a template by id.
func (r *EventTypeRepository) DeleteEventType(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM event_types WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanEventType(row rowScanner) (persistence.EventType, error) {
	var eventType persistence.EventType
	var linkTemplate sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&eventType.ID,
		&eventType.OwnerID,
		&eventType.Name,
		&eventType.DurationMinutes,
		&eventType.BufferBeforeMinutes,
		&eventType.BufferAfterMinutes,
		&eventType.MeetingMode,
		&linkTemplate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.EventType{}, mapError(err)
	}
	eventType.MeetingLinkTemplate = stringPtr(linkTemplate)
	if eventType.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.EventType{}, err
	}
	if eventType.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.EventType{}, err
	}
	return eventType, nil
}
