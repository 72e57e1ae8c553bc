// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesquest/internal/engine"
	"salesquest/internal/model"
	"salesquest/internal/repository"
)

// Common errors for progress operations.
var (
	ErrInvalidRelationship = errors.New("invalid viewer relationship")
)

// ProgressStore is the progress persistence surface the services depend on.
type ProgressStore interface {
	GetOrZero(ctx context.Context, userID string) (*model.UserProgress, error)
	ApplyProgressDelta(ctx context.Context, userID string, delta repository.ProgressDelta) error
}

// AwardStore is the idempotency-store surface the services depend on.
type AwardStore interface {
	ClaimAndIncrement(ctx context.Context, userID string, date time.Time, awardKey, activityType string, points int64, dailyCap int) (bool, error)
	SumPointsBetween(ctx context.Context, userID string, from, to time.Time) (int64, error)
}

// Goals holds the period point goals used for percentage-of-goal figures.
type Goals struct {
	Today int64
	Week  int64
	Month int64
}

// ProgressService handles streak refresh, milestone awards, rank derivation
// and privacy-projected progress reads.
type ProgressService struct {
	streaks    *engine.StreakCalculator
	milestones *engine.MilestoneEngine
	progress   ProgressStore
	awards     AwardStore
	goals      Goals
	now        func() time.Time
}

// NewProgressService creates a new ProgressService instance. A nil now
// function defaults to time.Now.
func NewProgressService(
	streaks *engine.StreakCalculator,
	milestones *engine.MilestoneEngine,
	progress ProgressStore,
	awards AwardStore,
	goals Goals,
	now func() time.Time,
) *ProgressService {
	if now == nil {
		now = time.Now
	}
	return &ProgressService{
		streaks:    streaks,
		milestones: milestones,
		progress:   progress,
		awards:     awards,
		goals:      goals,
		now:        now,
	}
}

// GetStreakStatus computes the user's current streaks, awards any newly
// reached milestones, and persists the refreshed counters. The milestone XP
// and the achieved-set entries commit in one atomic delta.
func (s *ProgressService) GetStreakStatus(ctx context.Context, userID string) (engine.StreakStatus, error) {
	return s.RefreshStreaks(ctx, userID, s.now())
}

// RefreshStreaks recomputes streaks as of the given time and applies the
// resulting milestone awards. Safe to call repeatedly: the achieved set
// gates every award, so retries never double-grant XP. A degraded
// computation (ledger retries exhausted) writes nothing and serves the last
// successfully computed counters instead.
func (s *ProgressService) RefreshStreaks(ctx context.Context, userID string, asOf time.Time) (engine.StreakStatus, error) {
	status := s.streaks.ComputeStreaks(ctx, userID, asOf)

	progress, err := s.progress.GetOrZero(ctx, userID)
	if err != nil {
		return engine.StreakStatus{}, fmt.Errorf("failed to load progress: %w", err)
	}

	if status.Degraded {
		status.FullStreak = progress.FullStreak
		status.ParticipationStreak = progress.ParticipationStreak
		return status, nil
	}

	xp, newly := s.milestones.Evaluate(progress.AchievedMilestones, status.FullStreak, status.ParticipationStreak, asOf)

	delta := repository.ProgressDelta{
		XPDelta: xp,
		StreakValues: &repository.StreakValues{
			Full:          status.FullStreak,
			Participation: status.ParticipationStreak,
			UpdatedOn:     asOf,
		},
	}
	for _, n := range newly {
		delta.NewMilestones = append(delta.NewMilestones, n.Award)
	}

	if err := s.progress.ApplyProgressDelta(ctx, userID, delta); err != nil {
		return engine.StreakStatus{}, fmt.Errorf("failed to persist streak refresh: %w", err)
	}

	return status, nil
}

// GetSeasonRank derives the user's season rank from their current points.
func (s *ProgressService) GetSeasonRank(ctx context.Context, userID string) (model.SeasonRank, error) {
	progress, err := s.progress.GetOrZero(ctx, userID)
	if err != nil {
		return model.SeasonRank{}, fmt.Errorf("failed to load progress: %w", err)
	}
	return engine.ComputeRank(progress.SeasonPoints), nil
}

// GetProjectedProgress builds the user's full progress view and filters it
// for the viewer. A viewer looking at their own record always gets the self
// view regardless of the relationship passed.
func (s *ProgressService) GetProjectedProgress(ctx context.Context, userID, viewerID string, relationship model.ViewerRelationship) (engine.ProjectedProgress, error) {
	if !relationship.IsValid() {
		return engine.ProjectedProgress{}, ErrInvalidRelationship
	}
	if viewerID == userID {
		relationship = model.RelationshipSelf
	}

	view, err := s.buildView(ctx, userID)
	if err != nil {
		return engine.ProjectedProgress{}, err
	}

	return engine.ProjectView(view, relationship), nil
}

// buildView assembles the unfiltered progress view: stored progress plus
// today/week/month point totals summed from the award ledger. There is no
// profile store in this service, so DisplayName carries the user ID and
// callers resolve real names upstream.
func (s *ProgressService) buildView(ctx context.Context, userID string) (model.ProgressView, error) {
	progress, err := s.progress.GetOrZero(ctx, userID)
	if err != nil {
		return model.ProgressView{}, fmt.Errorf("failed to load progress: %w", err)
	}

	today := engine.DateOnly(s.now())
	weekStart := startOfWeek(today)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())

	todayPoints, err := s.awards.SumPointsBetween(ctx, userID, today, today)
	if err != nil {
		return model.ProgressView{}, fmt.Errorf("failed to sum today points: %w", err)
	}
	weekPoints, err := s.awards.SumPointsBetween(ctx, userID, weekStart, today)
	if err != nil {
		return model.ProgressView{}, fmt.Errorf("failed to sum week points: %w", err)
	}
	monthPoints, err := s.awards.SumPointsBetween(ctx, userID, monthStart, today)
	if err != nil {
		return model.ProgressView{}, fmt.Errorf("failed to sum month points: %w", err)
	}

	return model.ProgressView{
		UserID:              userID,
		DisplayName:         userID,
		TodayPoints:         todayPoints,
		WeekPoints:          weekPoints,
		MonthPoints:         monthPoints,
		TodayGoal:           s.goals.Today,
		WeekGoal:            s.goals.Week,
		MonthGoal:           s.goals.Month,
		SeasonPoints:        progress.SeasonPoints,
		LifetimeXP:          progress.LifetimeXP,
		Level:               engine.LevelForXP(progress.LifetimeXP),
		FullStreak:          progress.FullStreak,
		ParticipationStreak: progress.ParticipationStreak,
		AchievedMilestones:  progress.AchievedMilestones,
		Rank:                engine.ComputeRank(progress.SeasonPoints),
	}, nil
}

// startOfWeek returns the Monday of the week containing the date.
func startOfWeek(date time.Time) time.Time {
	weekday := int(date.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return date.AddDate(0, 0, -(weekday - 1))
}
