package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"salesquest/internal/model"
)

// MaxStreakLookback caps the backward ledger walk.
const MaxStreakLookback = 365

// LedgerReader provides read access to daily activity records. Implementations
// return ErrNoRecord when no record exists for the date.
type LedgerReader interface {
	GetDailyActivity(ctx context.Context, userID string, date time.Time) (*model.DailyActivityRecord, error)
}

// RetryPolicy bounds the retries applied to transient ledger read failures.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
	}
}

// StreakStatus is the result of a streak computation. Degraded marks a result
// produced after exhausted ledger retries; its zero counters are a fallback,
// not a computed value, and must never overwrite stored counters.
type StreakStatus struct {
	FullStreak            int
	ParticipationStreak   int
	HasFullToday          bool
	HasParticipationToday bool
	Degraded              bool
}

// StreakCalculator computes both streak counters from the activity ledger.
type StreakCalculator struct {
	ledger LedgerReader
	retry  RetryPolicy
}

// NewStreakCalculator creates a StreakCalculator over the given ledger.
func NewStreakCalculator(ledger LedgerReader, retry RetryPolicy) *StreakCalculator {
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}
	return &StreakCalculator{ledger: ledger, retry: retry}
}

// ComputeStreaks walks the ledger backward from today, producing the full and
// participation streak counters in a single pass.
//
// Rules:
//   - Participation requires both check-ins; full additionally requires a sale.
//   - A day failing participation (or missing entirely) breaks both streaks.
//   - A checked-in day without a sale freezes the full counter at the height
//     accumulated so far while the participation counter keeps climbing.
//
// Transient ledger failures are retried with exponential backoff. If retries
// are exhausted the computation degrades to a zero status flagged Degraded
// instead of surfacing an error, so streak displays never break calling flows
// while writers can tell the fallback apart from a genuine zero.
func (c *StreakCalculator) ComputeStreaks(ctx context.Context, userID string, today time.Time) StreakStatus {
	day := DateOnly(today)

	rec, err := c.readDay(ctx, userID, day)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		log.Warn().Err(err).Str("user_id", userID).Msg("Streak computation degraded to zero after retries")
		return StreakStatus{Degraded: true}
	}

	hasParticipation := rec != nil && rec.MorningCompleted && rec.EveningCompleted
	hasFull := hasParticipation && rec.SaleCount > 0
	if !hasParticipation {
		return StreakStatus{}
	}

	status := StreakStatus{
		ParticipationStreak:   1,
		HasFullToday:          hasFull,
		HasParticipationToday: true,
	}
	fullFrozen := !hasFull
	if hasFull {
		status.FullStreak = 1
	}

	for i := 1; i <= MaxStreakLookback; i++ {
		prev, err := c.readDay(ctx, userID, day.AddDate(0, 0, -i))
		if errors.Is(err, ErrNoRecord) {
			break // gap = break
		}
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Streak computation degraded to zero after retries")
			return StreakStatus{Degraded: true}
		}

		if !(prev.MorningCompleted && prev.EveningCompleted) {
			break
		}
		status.ParticipationStreak++

		if !fullFrozen {
			if prev.SaleCount > 0 {
				status.FullStreak++
			} else {
				fullFrozen = true
			}
		}
	}

	return status
}

// readDay reads a single ledger day, retrying transient failures. ErrNoRecord
// is terminal and returned as-is.
func (c *StreakCalculator) readDay(ctx context.Context, userID string, date time.Time) (*model.DailyActivityRecord, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retry.InitialInterval
	bo.MaxInterval = c.retry.MaxInterval

	return backoff.RetryWithData(func() (*model.DailyActivityRecord, error) {
		rec, err := c.ledger.GetDailyActivity(ctx, userID, date)
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return rec, nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, c.retry.MaxAttempts-1), ctx))
}

// DateOnly truncates a timestamp to its calendar date in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
