package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
)

// AttendeeRepository implements persistence.AttendeeRepository.
type AttendeeRepository struct {
	pool *ConnectionPool
}

// NewAttendeeRepository creates the SQLite-backed attendee store.
func NewAttendeeRepository(pool *ConnectionPool) *AttendeeRepository {
	return &AttendeeRepository{pool: pool}
}

// CreateAttendee adds a participant to an event.
func (r *AttendeeRepository) CreateAttendee(ctx context.Context, attendee persistence.Attendee) error {
	return insertAttendeeDB(r.pool.db, ctx, attendee)
}

// GetAttendee retrieves an attendee by id.
func (r *AttendeeRepository) GetAttendee(ctx context.Context, id string) (persistence.Attendee, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, event_id, email, name, role, status, created_at, updated_at
		FROM event_attendees
		WHERE id = ?`, id)
	return scanAttendee(row)
}

// ListAttendees returns the event's participants in insertion order.
func (r *AttendeeRepository) ListAttendees(ctx context.Context, eventID string) ([]persistence.Attendee, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, email, name, role, status, created_at, updated_at
		FROM event_attendees
		WHERE event_id = ?
		ORDER BY created_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var attendees []persistence.Attendee
	for rows.Next() {
		attendee, err := scanAttendee(rows)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return attendees, nil
}

// UpdateAttendeeStatus records an RSVP response.
func (r *AttendeeRepository) UpdateAttendeeStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE event_attendees SET status = ?, updated_at = ? WHERE id = ?",
		status, updatedAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// DeleteAttendee removes a participant from an event.
func (r *AttendeeRepository) DeleteAttendee(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM event_attendees WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

const attendeeInsert = `
	INSERT INTO event_attendees (id, event_id, email, name, role, status, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func insertAttendee(tx *sql.Tx, attendee persistence.Attendee) error {
	_, err := tx.Exec(attendeeInsert, attendeeArgs(attendee)...)
	return mapError(err)
}

func insertAttendeeDB(db *sql.DB, ctx context.Context, attendee persistence.Attendee) error {
	_, err := db.ExecContext(ctx, attendeeInsert, attendeeArgs(attendee)...)
	return mapError(err)
}

func attendeeArgs(attendee persistence.Attendee) []any {
	return []any{
		attendee.ID,
		attendee.EventID,
		attendee.Email,
		nullString(attendee.Name),
		attendee.Role,
		attendee.Status,
		attendee.CreatedAt.UTC().Format(timeLayout),
		attendee.UpdatedAt.UTC().Format(timeLayout),
	}
}

func scanAttendee(row rowScanner) (persistence.Attendee, error) {
	var attendee persistence.Attendee
	var name sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&attendee.ID, &attendee.EventID, &attendee.Email, &name, &attendee.Role, &attendee.Status, &createdAt, &updatedAt)
	if err != nil {
		return persistence.Attendee{}, mapError(err)
	}
	attendee.Name = stringPtr(name)
	if attendee.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Attendee{}, err
	}
	if attendee.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Attendee{}, err
	}
	return attendee, nil
}
