package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesquest/internal/engine"
)

// AwardRepository handles daily award idempotency records. A claim row per
// (user, date, award key) gates every point-awarding call; the row either
// inserts exactly once or the award is a no-op.
type AwardRepository struct {
	pool *pgxpool.Pool
}

// NewAwardRepository creates a new AwardRepository instance.
func NewAwardRepository(pool *pgxpool.Pool) *AwardRepository {
	return &AwardRepository{pool: pool}
}

// TryClaimDailyAward attempts to claim an award slot for the given key.
// Returns false without error if the claim already exists; a concurrent
// duplicate claim is a success-no-op, never a failure.
func (r *AwardRepository) TryClaimDailyAward(ctx context.Context, userID string, date time.Time, awardKey, activityType string, points int64) (bool, error) {
	const query = `
		INSERT INTO daily_awards (user_id, activity_date, award_key, activity_type, points, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, activity_date, award_key) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query, userID, engine.DateOnly(date), awardKey, activityType, points)
	if err != nil {
		return false, fmt.Errorf("failed to claim daily award: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ClaimAndIncrement claims an award slot and applies the season point and XP
// increments in one transaction. Duplicate and concurrent invocations with
// the same key converge to a single award: the conflicting caller gets
// claimed=false and no increment. A dailyCap > 0 additionally bounds how many
// awards of the activity type the user can claim per date; claims past the
// cap are success-no-ops too. The progress upsert runs first so its per-user
// row lock serializes concurrent claims and the cap count cannot race.
func (r *AwardRepository) ClaimAndIncrement(ctx context.Context, userID string, date time.Time, awardKey, activityType string, points int64, dailyCap int) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const increment = `
		INSERT INTO user_progress (user_id, season_points, lifetime_xp, created_at, updated_at)
		VALUES ($1, $2, $2, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET season_points = user_progress.season_points + $2,
		              lifetime_xp = user_progress.lifetime_xp + $2,
		              updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, increment, userID, points); err != nil {
		return false, fmt.Errorf("failed to increment season points: %w", err)
	}

	var tag pgconn.CommandTag
	if dailyCap > 0 {
		const cappedClaim = `
			INSERT INTO daily_awards (user_id, activity_date, award_key, activity_type, points, created_at)
			SELECT $1, $2, $3, $4, $5, NOW()
			WHERE (SELECT COUNT(*) FROM daily_awards
			       WHERE user_id = $1 AND activity_date = $2 AND activity_type = $4) < $6
			ON CONFLICT (user_id, activity_date, award_key) DO NOTHING
		`
		tag, err = tx.Exec(ctx, cappedClaim, userID, engine.DateOnly(date), awardKey, activityType, points, dailyCap)
	} else {
		const claim = `
			INSERT INTO daily_awards (user_id, activity_date, award_key, activity_type, points, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (user_id, activity_date, award_key) DO NOTHING
		`
		tag, err = tx.Exec(ctx, claim, userID, engine.DateOnly(date), awardKey, activityType, points)
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim daily award: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Rollback discards the increment.
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit award: %w", err)
	}

	return true, nil
}

// SumPointsBetween returns the season points a user earned from awards with
// activity dates in [from, to]. Used for the today/week/month view totals.
func (r *AwardRepository) SumPointsBetween(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(points), 0) FROM daily_awards
		WHERE user_id = $1 AND activity_date >= $2 AND activity_date <= $3
	`

	var total int64
	err := r.pool.QueryRow(ctx, query, userID, engine.DateOnly(from), engine.DateOnly(to)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum awarded points: %w", err)
	}

	return total, nil
}
