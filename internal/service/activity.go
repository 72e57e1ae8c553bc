package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"salesquest/internal/engine"
	"salesquest/internal/model"
	"salesquest/internal/repository"
)

// Common errors for activity operations.
var (
	ErrMissingCheerID = errors.New("cheer activity requires a cheer id")
	ErrMissingSaleID  = errors.New("sale logging requires a sale id")
)

// LedgerStore is the activity ledger surface the services depend on.
type LedgerStore interface {
	GetDailyActivity(ctx context.Context, userID string, date time.Time) (*model.DailyActivityRecord, error)
	RecordCheckIn(ctx context.Context, userID string, date time.Time, slot repository.CheckInSlot) error
	IncrementSaleCount(ctx context.Context, userID string, date time.Time) error
}

// ActivityContext carries the award-specific inputs for a point award.
type ActivityContext struct {
	// Date of the activity; zero means now.
	Date time.Time
	// PolicyType selects the sale point value for policy sales.
	PolicyType model.PolicyType
	// CheerID identifies the specific cheer for cheer activities.
	CheerID string
	// SaleID identifies the specific sale for policy sales.
	SaleID string
	// GoalBonus applies the flat +10% goal bonus to this award.
	GoalBonus bool
}

// ActivityService handles activity logging and season point awards.
type ActivityService struct {
	ledger     LedgerStore
	awards     AwardStore
	progress   *ProgressService
	salePoints map[model.PolicyType]int64
	now        func() time.Time
}

// NewActivityService creates a new ActivityService instance. A nil sale
// point table selects the defaults; a nil now function defaults to time.Now.
func NewActivityService(
	ledger LedgerStore,
	awards AwardStore,
	progress *ProgressService,
	salePoints map[model.PolicyType]int64,
	now func() time.Time,
) *ActivityService {
	if salePoints == nil {
		salePoints = engine.DefaultPolicySalePoints()
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityService{
		ledger:     ledger,
		awards:     awards,
		progress:   progress,
		salePoints: salePoints,
		now:        now,
	}
}

// AwardActivityPoints grants season points for a discrete activity. The award
// is gated by an idempotency claim keyed on (user, date, activity): duplicate
// or concurrently retried calls return 0 without error. Cheers are capped per
// day and direction inside the claim transaction, so concurrent cheers cannot
// overshoot; awards past the cap are silent no-ops. An unknown activity or
// policy type is rejected with no state mutated.
func (s *ActivityService) AwardActivityPoints(ctx context.Context, userID, activityType string, actx ActivityContext) (int64, error) {
	base, err := engine.BasePoints(activityType, actx.PolicyType, s.salePoints)
	if err != nil {
		return 0, err
	}

	date := actx.Date
	if date.IsZero() {
		date = s.now()
	}

	awardKey, err := buildAwardKey(activityType, actx)
	if err != nil {
		return 0, err
	}

	dailyCap := 0
	if activityType == model.ActivityCheerSent || activityType == model.ActivityCheerReceived {
		dailyCap = engine.CheerDailyCap
	}

	points := base
	if actx.GoalBonus {
		points = engine.ApplyGoalBonus(points)
	}

	claimed, err := s.awards.ClaimAndIncrement(ctx, userID, date, awardKey, activityType, points, dailyCap)
	if err != nil {
		return 0, fmt.Errorf("failed to award points: %w", err)
	}
	if !claimed {
		return 0, nil
	}

	log.Debug().
		Str("user_id", userID).
		Str("activity", activityType).
		Int64("points", points).
		Msg("Season points awarded")

	return points, nil
}

// LogDailyActivity records a daily activity: awards its season points and,
// for check-ins, writes the ledger record and refreshes streaks/milestones.
func (s *ActivityService) LogDailyActivity(ctx context.Context, userID, activityType string, actx ActivityContext) (int64, error) {
	points, err := s.AwardActivityPoints(ctx, userID, activityType, actx)
	if err != nil {
		return 0, err
	}

	date := actx.Date
	if date.IsZero() {
		date = s.now()
	}

	var slot repository.CheckInSlot
	switch activityType {
	case model.ActivityDailyIntentions:
		slot = repository.SlotMorning
	case model.ActivityNightlyWrap:
		slot = repository.SlotEvening
	default:
		return points, nil
	}

	if err := s.ledger.RecordCheckIn(ctx, userID, date, slot); err != nil {
		return points, fmt.Errorf("failed to record check-in: %w", err)
	}

	if _, err := s.progress.RefreshStreaks(ctx, userID, date); err != nil {
		return points, fmt.Errorf("failed to refresh streaks: %w", err)
	}

	return points, nil
}

// LogSale records a policy sale: awards its points (idempotent per sale id),
// increments the day's sale count and refreshes streaks/milestones. Retrying
// the same sale id converges to a single award and a single ledger increment.
func (s *ActivityService) LogSale(ctx context.Context, userID, saleID string, policyType model.PolicyType, goalBonus bool) (int64, error) {
	if saleID == "" {
		return 0, ErrMissingSaleID
	}

	actx := ActivityContext{
		Date:       s.now(),
		PolicyType: policyType,
		SaleID:     saleID,
		GoalBonus:  goalBonus,
	}

	base, err := engine.BasePoints(model.ActivityPolicySale, policyType, s.salePoints)
	if err != nil {
		return 0, err
	}
	points := base
	if goalBonus {
		points = engine.ApplyGoalBonus(points)
	}

	claimed, err := s.awards.ClaimAndIncrement(ctx, userID, actx.Date, saleAwardKey(saleID), model.ActivityPolicySale, points, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to award sale points: %w", err)
	}
	if !claimed {
		return 0, nil
	}

	if err := s.ledger.IncrementSaleCount(ctx, userID, actx.Date); err != nil {
		return points, fmt.Errorf("failed to record sale: %w", err)
	}

	if _, err := s.progress.RefreshStreaks(ctx, userID, actx.Date); err != nil {
		return points, fmt.Errorf("failed to refresh streaks: %w", err)
	}

	return points, nil
}

// buildAwardKey derives the idempotency claim key for an award. Once-per-day
// activities use the activity type itself; cheers and sales embed the event
// id so a specific cheer or sale can never double-award while distinct ones
// all score.
func buildAwardKey(activityType string, actx ActivityContext) (string, error) {
	switch activityType {
	case model.ActivityCheerSent, model.ActivityCheerReceived:
		if actx.CheerID == "" {
			return "", ErrMissingCheerID
		}
		return fmt.Sprintf("%s_%s", activityType, actx.CheerID), nil
	case model.ActivityPolicySale:
		if actx.SaleID == "" {
			return "", ErrMissingSaleID
		}
		return saleAwardKey(actx.SaleID), nil
	default:
		return activityType, nil
	}
}

func saleAwardKey(saleID string) string {
	return fmt.Sprintf("%s_%s", model.ActivityPolicySale, saleID)
}
