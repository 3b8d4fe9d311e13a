package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
	"github.com/example/portal-scheduler/internal/scheduler"
)

// maxBufferMinutes bounds the window widening applied when loading candidate
// conflicts. Any event whose padded interval could touch the candidate starts
// or ends within this margin of it.
const maxBufferMinutes = 24 * 60

// EventRepository implements persistence.EventRepository. Book and Reschedule
// re-run the buffered conflict check inside the write transaction, so a
// booking that raced past the read-time check still cannot commit an overlap.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates the SQLite-backed event store.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Book inserts the event and its attendees if the buffered interval is free.
// For link bookings it also bumps the link usage counter; the expiry and
// use-count checks happen against the same row the increment targets, inside
// the same transaction as the event insert.
func (r *EventRepository) Book(ctx context.Context, booking persistence.Booking) error {
	ev := booking.Event
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if booking.LinkID != nil {
			if err := consumeLinkUse(tx, *booking.LinkID, booking.Now); err != nil {
				return err
			}
		}

		blocked, err := intervalBlocked(tx, ev.OwnerID, "", ev.Start, ev.End, ev.BufferBeforeMinutes, ev.BufferAfterMinutes)
		if err != nil {
			return err
		}
		if blocked {
			return persistence.ErrOverlap
		}

		if err := insertEvent(tx, ev); err != nil {
			return err
		}
		for _, attendee := range booking.Attendees {
			if err := insertAttendee(tx, attendee); err != nil {
				return err
			}
		}
		return nil
	})
}

// Reschedule moves an event to a new interval if that interval is free. The
// conflict check skips the event itself so moving within its own slot works.
func (r *EventRepository) Reschedule(ctx context.Context, id string, start, end time.Time, updatedAt time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var ownerID string
		var bufferBefore, bufferAfter int
		err := tx.QueryRow(
			"SELECT owner_id, buffer_before_minutes, buffer_after_minutes FROM events WHERE id = ? AND status = 'scheduled'",
			id,
		).Scan(&ownerID, &bufferBefore, &bufferAfter)
		if err != nil {
			return mapError(err)
		}

		blocked, err := intervalBlocked(tx, ownerID, id, start, end, bufferBefore, bufferAfter)
		if err != nil {
			return err
		}
		if blocked {
			return persistence.ErrOverlap
		}

		_, err = tx.Exec(
			"UPDATE events SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?",
			start.UTC().Format(timeLayout),
			end.UTC().Format(timeLayout),
			updatedAt.UTC().Format(timeLayout),
			id,
		)
		return mapError(err)
	})
}

// UpdateEvent rewrites the event's mutable detail fields. The time interval
// and status are owned by Reschedule and UpdateEventStatus.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, location = ?, meeting_mode = ?, contact_id = ?, lead_id = ?, updated_at = ?
		WHERE id = ?`,
		event.Title,
		nullString(event.Description),
		nullString(event.Location),
		nullString(event.MeetingMode),
		nullString(event.ContactID),
		nullString(event.LeadID),
		event.UpdatedAt.UTC().Format(timeLayout),
		event.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// UpdateEventStatus transitions the event's lifecycle status.
func (r *EventRepository) UpdateEventStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	result, err := r.pool.db.ExecContext(ctx,
		"UPDATE events SET status = ?, updated_at = ? WHERE id = ?",
		status, updatedAt.UTC().Format(timeLayout), id,
	)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

// GetEvent retrieves an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := r.pool.db.QueryRowContext(ctx, eventSelect+" WHERE id = ?", id)
	return scanEvent(row)
}

// ListEvents returns the owner's events matching the filter, ordered by start.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query := eventSelect + " WHERE owner_id = ?"
	args := []any{filter.OwnerID}
	if filter.StartsAfter != nil {
		query += " AND start_time >= ?"
		args = append(args, filter.StartsAfter.UTC().Format(timeLayout))
	}
	if filter.EndsBefore != nil {
		query += " AND end_time <= ?"
		args = append(args, filter.EndsBefore.UTC().Format(timeLayout))
	}
	if len(filter.Statuses) > 0 {
		query += " AND status IN (?" + repeatPlaceholder(len(filter.Statuses)-1) + ")"
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY start_time ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return events, nil
}

// DeleteEvent removes an event; attendees cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(result)
}

const eventSelect = `
	SELECT id, owner_id, type_id, contact_id, lead_id, start_time, end_time, title, description, location, meeting_mode, status, buffer_before_minutes, buffer_after_minutes, confirmation_code, created_at, updated_at
	FROM events`

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var typeID, contactID, leadID, description, location, meetingMode, confirmationCode sql.NullString
	var startTime, endTime, createdAt, updatedAt string

	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&typeID,
		&contactID,
		&leadID,
		&startTime,
		&endTime,
		&event.Title,
		&description,
		&location,
		&meetingMode,
		&event.Status,
		&event.BufferBeforeMinutes,
		&event.BufferAfterMinutes,
		&confirmationCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	event.TypeID = stringPtr(typeID)
	event.ContactID = stringPtr(contactID)
	event.LeadID = stringPtr(leadID)
	event.Description = stringPtr(description)
	event.Location = stringPtr(location)
	event.MeetingMode = stringPtr(meetingMode)
	event.ConfirmationCode = stringPtr(confirmationCode)
	if event.Start, err = parseTime(startTime, "start_time"); err != nil {
		return persistence.Event{}, err
	}
	if event.End, err = parseTime(endTime, "end_time"); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

func insertEvent(tx *sql.Tx, event persistence.Event) error {
	_, err := tx.Exec(`
		INSERT INTO events (id, owner_id, type_id, contact_id, lead_id, start_time, end_time, title, description, location, meeting_mode, status, buffer_before_minutes, buffer_after_minutes, confirmation_code, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.OwnerID,
		nullString(event.TypeID),
		nullString(event.ContactID),
		nullString(event.LeadID),
		event.Start.UTC().Format(timeLayout),
		event.End.UTC().Format(timeLayout),
		event.Title,
		nullString(event.Description),
		nullString(event.Location),
		nullString(event.MeetingMode),
		event.Status,
		event.BufferBeforeMinutes,
		event.BufferAfterMinutes,
		nullString(event.ConfirmationCode),
		event.CreatedAt.UTC().Format(timeLayout),
		event.UpdatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// intervalBlocked loads the owner's scheduled events near the candidate and
// runs the buffered conflict check. excludeID skips one event (the one being
// rescheduled) and may be empty.
func intervalBlocked(tx *sql.Tx, ownerID, excludeID string, start, end time.Time, bufferBefore, bufferAfter int) (bool, error) {
	margin := time.Duration(maxBufferMinutes) * time.Minute
	rows, err := tx.Query(`
		SELECT id, start_time, end_time, buffer_before_minutes, buffer_after_minutes
		FROM events
		WHERE owner_id = ? AND status = 'scheduled' AND id != ? AND start_time < ? AND end_time > ?`,
		ownerID,
		excludeID,
		end.Add(margin).UTC().Format(timeLayout),
		start.Add(-margin).UTC().Format(timeLayout),
	)
	if err != nil {
		return false, mapError(err)
	}
	defer rows.Close()

	var existing []scheduler.Event
	for rows.Next() {
		var id, startTime, endTime string
		var before, after int
		if err := rows.Scan(&id, &startTime, &endTime, &before, &after); err != nil {
			return false, mapError(err)
		}
		evStart, err := parseTime(startTime, "start_time")
		if err != nil {
			return false, err
		}
		evEnd, err := parseTime(endTime, "end_time")
		if err != nil {
			return false, err
		}
		existing = append(existing, scheduler.Event{
			ID:           id,
			OwnerID:      ownerID,
			Start:        evStart,
			End:          evEnd,
			BufferBefore: time.Duration(before) * time.Minute,
			BufferAfter:  time.Duration(after) * time.Minute,
			Status:       scheduler.StatusScheduled,
		})
	}
	if err := rows.Err(); err != nil {
		return false, mapError(err)
	}

	buf := scheduler.Buffers{
		Before: time.Duration(bufferBefore) * time.Minute,
		After:  time.Duration(bufferAfter) * time.Minute,
	}
	return scheduler.Blocked(existing, start, end, buf), nil
}

// consumeLinkUse bumps the link's usage counter if the link is still within
// its expiry and use budget. A zero-row update is diagnosed by re-reading the
// link so the caller learns which policy closed it.
func consumeLinkUse(tx *sql.Tx, linkID string, now time.Time) error {
	nowText := now.UTC().Format(timeLayout)
	result, err := tx.Exec(`
		UPDATE scheduling_links
		SET uses = uses + 1
		WHERE id = ?
		  AND (expires_at IS NULL OR expires_at > ?)
		  AND (max_uses IS NULL OR uses < max_uses)`,
		linkID, nowText,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var expiresAt sql.NullString
	var maxUses sql.NullInt64
	var uses int
	err = tx.QueryRow(
		"SELECT expires_at, max_uses, uses FROM scheduling_links WHERE id = ?", linkID,
	).Scan(&expiresAt, &maxUses, &uses)
	if err != nil {
		return mapError(err)
	}
	if expiresAt.Valid && expiresAt.String <= nowText {
		return persistence.ErrLinkExpired
	}
	if maxUses.Valid && int64(uses) >= maxUses.Int64 {
		return persistence.ErrLinkExhausted
	}
	return persistence.ErrConstraintViolation
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}
