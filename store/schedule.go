package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/veltaire/plume/autopilot"
)

const scheduleColumns = `tenant, enabled, frequency, timezone, target_day, target_hour,
	last_generated_at, next_target_at, status, last_error, created_at, updated_at`

// GetSchedule returns the tenant's schedule row, or (nil, nil) when absent.
func (s *Store) GetSchedule(ctx context.Context, tenant string) (*autopilot.Schedule, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules WHERE tenant = ?`, tenant)
	return scanSchedule(row.Scan)
}

// UpsertSchedule inserts or fully replaces the tenant's schedule row.
func (s *Store) UpsertSchedule(ctx context.Context, sched *autopilot.Schedule) error {
	now := time.Now()
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = now
	}
	if sched.UpdatedAt.IsZero() {
		sched.UpdatedAt = now
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant) DO UPDATE SET
			enabled=excluded.enabled, frequency=excluded.frequency,
			timezone=excluded.timezone, target_day=excluded.target_day,
			target_hour=excluded.target_hour,
			last_generated_at=excluded.last_generated_at,
			next_target_at=excluded.next_target_at,
			status=excluded.status, last_error=excluded.last_error,
			updated_at=excluded.updated_at`,
		sched.Tenant, boolInt(sched.Enabled), string(sched.Frequency), sched.Timezone,
		int(sched.TargetDay), sched.TargetHour,
		timePtrMilli(sched.LastGeneratedAt), timePtrMilli(sched.NextTargetAt),
		string(sched.Status), sched.LastError,
		sched.CreatedAt.UnixMilli(), sched.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// UpdateSchedule rewrites the mutable fields of an existing row.
func (s *Store) UpdateSchedule(ctx context.Context, sched *autopilot.Schedule) error {
	if sched.UpdatedAt.IsZero() {
		sched.UpdatedAt = time.Now()
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE schedules SET enabled=?, frequency=?, timezone=?, target_day=?,
		target_hour=?, last_generated_at=?, next_target_at=?, status=?,
		last_error=?, updated_at=?
		WHERE tenant=?`,
		boolInt(sched.Enabled), string(sched.Frequency), sched.Timezone,
		int(sched.TargetDay), sched.TargetHour,
		timePtrMilli(sched.LastGeneratedAt), timePtrMilli(sched.NextTargetAt),
		string(sched.Status), sched.LastError, sched.UpdatedAt.UnixMilli(),
		sched.Tenant,
	)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update schedule: no row for tenant %q", sched.Tenant)
	}
	return nil
}

// ClaimGenerating atomically moves the tenant's schedule into the generating
// status. Returns false when there is no row or a generation is already in
// flight; the conditional UPDATE makes concurrent claimants race safely.
func (s *Store) ClaimGenerating(ctx context.Context, tenant string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE schedules SET status=?, updated_at=?
		WHERE tenant=? AND status != ?`,
		string(autopilot.StatusGenerating), time.Now().UnixMilli(),
		tenant, string(autopilot.StatusGenerating),
	)
	if err != nil {
		return false, fmt.Errorf("claim generation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSchedules returns every schedule row.
func (s *Store) ListSchedules(ctx context.Context) ([]*autopilot.Schedule, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM schedules ORDER BY tenant`)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var scheds []*autopilot.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		scheds = append(scheds, sched)
	}
	return scheds, rows.Err()
}

func scanSchedule(scan func(...any) error) (*autopilot.Schedule, error) {
	var sched autopilot.Schedule
	var enabled, day int
	var freq, status string
	var lastGen, nextTarget sql.NullInt64
	var created, updated int64
	err := scan(
		&sched.Tenant, &enabled, &freq, &sched.Timezone, &day, &sched.TargetHour,
		&lastGen, &nextTarget, &status, &sched.LastError, &created, &updated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	sched.Enabled = enabled != 0
	sched.Frequency = autopilot.Frequency(freq)
	sched.TargetDay = time.Weekday(day)
	sched.Status = autopilot.Status(status)
	if lastGen.Valid {
		t := time.UnixMilli(lastGen.Int64)
		sched.LastGeneratedAt = &t
	}
	if nextTarget.Valid {
		t := time.UnixMilli(nextTarget.Int64)
		sched.NextTargetAt = &t
	}
	sched.CreatedAt = time.UnixMilli(created)
	sched.UpdatedAt = time.UnixMilli(updated)
	return &sched, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func timePtrMilli(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
