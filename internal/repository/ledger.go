// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesquest/internal/engine"
	"salesquest/internal/model"
)

// CheckInSlot identifies which daily check-in a record update targets.
type CheckInSlot string

const (
	// SlotMorning is the morning intentions check-in.
	SlotMorning CheckInSlot = "morning"
	// SlotEvening is the nightly wrap check-in.
	SlotEvening CheckInSlot = "evening"
)

// Common errors for ledger operations.
var (
	ErrInvalidCheckInSlot = errors.New("invalid check-in slot")
)

// LedgerRepository handles daily activity record persistence. Records for
// past dates are immutable; only the current day is ever written.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// GetDailyActivity retrieves the activity record for a user and date.
// Returns engine.ErrNoRecord if no record exists, which the streak walk
// treats as a break rather than a failure.
func (r *LedgerRepository) GetDailyActivity(ctx context.Context, userID string, date time.Time) (*model.DailyActivityRecord, error) {
	const query = `
		SELECT user_id, activity_date, morning_completed, evening_completed, sale_count, created_at, updated_at
		FROM daily_activity
		WHERE user_id = $1 AND activity_date = $2
	`

	var rec model.DailyActivityRecord
	err := r.pool.QueryRow(ctx, query, userID, engine.DateOnly(date)).Scan(
		&rec.UserID,
		&rec.Date,
		&rec.MorningCompleted,
		&rec.EveningCompleted,
		&rec.SaleCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, engine.ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}

	return &rec, nil
}

// RecordCheckIn marks a check-in slot completed for the given date, creating
// the day's record if needed. Re-marking a completed slot is a no-op.
func (r *LedgerRepository) RecordCheckIn(ctx context.Context, userID string, date time.Time, slot CheckInSlot) error {
	var query string
	switch slot {
	case SlotMorning:
		query = `
			INSERT INTO daily_activity (user_id, activity_date, morning_completed, created_at, updated_at)
			VALUES ($1, $2, TRUE, NOW(), NOW())
			ON CONFLICT (user_id, activity_date)
			DO UPDATE SET morning_completed = TRUE, updated_at = NOW()
		`
	case SlotEvening:
		query = `
			INSERT INTO daily_activity (user_id, activity_date, evening_completed, created_at, updated_at)
			VALUES ($1, $2, TRUE, NOW(), NOW())
			ON CONFLICT (user_id, activity_date)
			DO UPDATE SET evening_completed = TRUE, updated_at = NOW()
		`
	default:
		return ErrInvalidCheckInSlot
	}

	if _, err := r.pool.Exec(ctx, query, userID, engine.DateOnly(date)); err != nil {
		return fmt.Errorf("failed to record check-in: %w", err)
	}
	return nil
}

// IncrementSaleCount adds one sale to the day's record, creating it if needed.
func (r *LedgerRepository) IncrementSaleCount(ctx context.Context, userID string, date time.Time) error {
	const query = `
		INSERT INTO daily_activity (user_id, activity_date, sale_count, created_at, updated_at)
		VALUES ($1, $2, 1, NOW(), NOW())
		ON CONFLICT (user_id, activity_date)
		DO UPDATE SET sale_count = daily_activity.sale_count + 1, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, engine.DateOnly(date)); err != nil {
		return fmt.Errorf("failed to increment sale count: %w", err)
	}
	return nil
}
