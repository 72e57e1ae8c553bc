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

// Common errors for progress operations.
var (
	ErrProgressNotFound = errors.New("user progress not found")
	ErrNegativeDelta    = errors.New("negative delta: awards are additive only")
)

// StreakValues carries the streak counters written by a progress delta.
type StreakValues struct {
	Full          int
	Participation int
	UpdatedOn     time.Time
}

// ProgressDelta is the atomic unit of progress mutation: XP, season points,
// newly awarded milestones and refreshed streak counters commit together or
// not at all.
type ProgressDelta struct {
	XPDelta       int64
	PointsDelta   int64
	NewMilestones []model.MilestoneAward
	StreakValues  *StreakValues
}

// ProgressRepository handles user progress persistence.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository instance.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// Get retrieves a user's progress record including achieved milestones.
// Returns ErrProgressNotFound if the user has no record yet; callers treat
// that as zero state, not a failure.
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	const query = `
		SELECT user_id, full_streak, participation_streak, season_points, lifetime_xp,
		       COALESCE(last_streak_update, 'epoch'::date), created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var progress model.UserProgress
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.FullStreak,
		&progress.ParticipationStreak,
		&progress.SeasonPoints,
		&progress.LifetimeXP,
		&progress.LastStreakUpdateDate,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get user progress: %w", err)
	}

	milestones, err := r.getMilestones(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress.AchievedMilestones = milestones

	return &progress, nil
}

// GetOrZero retrieves a user's progress, returning an empty zero-state record
// when none exists.
func (r *ProgressRepository) GetOrZero(ctx context.Context, userID string) (*model.UserProgress, error) {
	progress, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProgressNotFound) {
			return &model.UserProgress{
				UserID:             userID,
				AchievedMilestones: map[string]model.MilestoneAward{},
			}, nil
		}
		return nil, err
	}
	return progress, nil
}

// getMilestones loads the achieved milestone set for a user.
func (r *ProgressRepository) getMilestones(ctx context.Context, userID string) (map[string]model.MilestoneAward, error) {
	const query = `
		SELECT milestone_key, xp, awarded_at
		FROM achieved_milestones
		WHERE user_id = $1
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestones: %w", err)
	}
	defer rows.Close()

	milestones := make(map[string]model.MilestoneAward)
	for rows.Next() {
		var award model.MilestoneAward
		if err := rows.Scan(&award.Key, &award.XP, &award.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan milestone: %w", err)
		}
		milestones[award.Key] = award
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating milestones: %w", err)
	}

	return milestones, nil
}

// ApplyProgressDelta commits a progress delta in a single transaction.
// Either the full delta (XP, points, milestones, streak values) commits or
// none of it does, so XP and the achieved set can never desync.
func (r *ProgressRepository) ApplyProgressDelta(ctx context.Context, userID string, delta ProgressDelta) error {
	if delta.XPDelta < 0 || delta.PointsDelta < 0 {
		return ErrNegativeDelta
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsert = `
		INSERT INTO user_progress (user_id, season_points, lifetime_xp, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET season_points = user_progress.season_points + $2,
		              lifetime_xp = user_progress.lifetime_xp + $3,
		              updated_at = NOW()
	`
	if _, err := tx.Exec(ctx, upsert, userID, delta.PointsDelta, delta.XPDelta); err != nil {
		return fmt.Errorf("failed to apply progress delta: %w", err)
	}

	if sv := delta.StreakValues; sv != nil {
		const streaks = `
			UPDATE user_progress
			SET full_streak = $2, participation_streak = $3, last_streak_update = $4, updated_at = NOW()
			WHERE user_id = $1
		`
		if _, err := tx.Exec(ctx, streaks, userID, sv.Full, sv.Participation, engine.DateOnly(sv.UpdatedOn)); err != nil {
			return fmt.Errorf("failed to update streak values: %w", err)
		}
	}

	// Milestones are permanent: inserts only, conflicts ignored so retries
	// of an already-committed delta stay idempotent.
	const insertMilestone = `
		INSERT INTO achieved_milestones (user_id, milestone_key, xp, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, milestone_key) DO NOTHING
	`
	for _, m := range delta.NewMilestones {
		if _, err := tx.Exec(ctx, insertMilestone, userID, m.Key, m.XP, m.AwardedAt); err != nil {
			return fmt.Errorf("failed to insert milestone %s: %w", m.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit progress delta: %w", err)
	}

	return nil
}
