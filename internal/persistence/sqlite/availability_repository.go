package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/portal-scheduler/internal/persistence"
)

// AvailabilityRepository implements persistence.AvailabilityRepository.
type AvailabilityRepository struct {
	pool *ConnectionPool
}

// NewAvailabilityRepository creates the SQLite-backed rule/override store.
func NewAvailabilityRepository(pool *ConnectionPool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// ReplaceWeeklyRules swaps the owner's whole rule set in one transaction.
func (r *AvailabilityRepository) ReplaceWeeklyRules(ctx context.Context, ownerID string, rules []persistence.WeeklyRule) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM weekly_rules WHERE owner_id = ?", ownerID); err != nil {
			return mapError(err)
		}
		for _, rule := range rules {
			_, err := tx.Exec(`
				INSERT INTO weekly_rules (id, owner_id, weekday, start_minutes, end_minutes, timezone, active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rule.ID,
				ownerID,
				rule.Weekday,
				rule.StartMinutes,
				rule.EndMinutes,
				rule.Timezone,
				boolToInt(rule.Active),
				rule.CreatedAt.UTC().Format(timeLayout),
				rule.UpdatedAt.UTC().Format(timeLayout),
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// ListWeeklyRules returns the owner's rules ordered by weekday and start.
func (r *AvailabilityRepository) ListWeeklyRules(ctx context.Context, ownerID string) ([]persistence.WeeklyRule, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, owner_id, weekday, start_minutes, end_minutes, timezone, active, created_at, updated_at
		FROM weekly_rules
		WHERE owner_id = ?
		ORDER BY weekday ASC, start_minutes ASC`, ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rules []persistence.WeeklyRule
	for rows.Next() {
		var rule persistence.WeeklyRule
		var active int
		var createdAt, updatedAt string
		if err := rows.Scan(&rule.ID, &rule.OwnerID, &rule.Weekday, &rule.StartMinutes, &rule.EndMinutes, &rule.Timezone, &active, &createdAt, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		rule.Active = active != 0
		if rule.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if rule.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rules, nil
}

// CreateOverride stores one date override.
func (r *AvailabilityRepository) CreateOverride(ctx context.Context, override persistence.Override) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO availability_overrides (id, owner_id, date, available, start_minutes, end_minutes, timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		override.ID,
		override.OwnerID,
		override.Date,
		boolToInt(override.Available),
		nullInt(override.StartMinutes),
		nullInt(override.EndMinutes),
		override.Timezone,
		override.CreatedAt.UTC().Format(timeLayout),
	)
	return mapError(err)
}

// GetOverride retrieves an override by id.
func (r *AvailabilityRepository) GetOverride(ctx context.Context, id string) (persistence.Override, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT id, owner_id, date, available, start_minutes, end_minutes, timezone, created_at
		FROM availability_overrides
		WHERE id = ?`, id)
	return scanOverride(row)
}

// ListOverrides returns the owner's overrides for dates in [fromDate, toDate).
func (r *AvailabilityRepository) ListOverrides(ctx context.Context, ownerID, fromDate, toDate string) ([]persistence.Override, error) {
	query := `
		SELECT id, owner_id, date, available, start_minutes, end_minutes, timezone, created_at
		FROM availability_overrides
		WHERE owner_id = ?`
	args := []any{ownerID}
	if fromDate != "" {
		query += " AND date >= ?"
		args = append(args, fromDate)
	}
	if toDate != "" {
		query += " AND date < ?"
		args = append(args, toDate)
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var overrides []persistence.Override
	for rows.Next() {
		override, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return overrides, nil
}

// DeleteOverride removes an override by id.
func (r *AvailabilityRepository) DeleteOverride(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM availability_overrides WHERE id = ?", id)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverride(row rowScanner) (persistence.Override, error) {
	var override persistence.Override
	var available int
	var startMinutes, endMinutes sql.NullInt64
	var createdAt string

	err := row.Scan(&override.ID, &override.OwnerID, &override.Date, &available, &startMinutes, &endMinutes, &override.Timezone, &createdAt)
	if err != nil {
		return persistence.Override{}, mapError(err)
	}
	override.Available = available != 0
	override.StartMinutes = intPtr(startMinutes)
	override.EndMinutes = intPtr(endMinutes)
	if override.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return persistence.Override{}, err
	}
	return override, nil
}

func parseTime(value, column string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse %s: %w", column, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
