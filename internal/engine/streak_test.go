package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"salesquest/internal/model"
)

// fakeLedger serves daily activity records from an in-memory map keyed by
// ISO date string.
type fakeLedger struct {
	records map[string]*model.DailyActivityRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]*model.DailyActivityRecord{}}
}

func (f *fakeLedger) set(date time.Time, morning, evening bool, sales int) {
	f.records[date.Format("2006-01-02")] = &model.DailyActivityRecord{
		Date:             DateOnly(date),
		MorningCompleted: morning,
		EveningCompleted: evening,
		SaleCount:        sales,
	}
}

func (f *fakeLedger) GetDailyActivity(_ context.Context, _ string, date time.Time) (*model.DailyActivityRecord, error) {
	rec, ok := f.records[date.Format("2006-01-02")]
	if !ok {
		return nil, ErrNoRecord
	}
	return rec, nil
}

// failingLedger always fails with a transient error.
type failingLedger struct {
	calls int
}

func (f *failingLedger) GetDailyActivity(context.Context, string, time.Time) (*model.DailyActivityRecord, error) {
	f.calls++
	return nil, errors.New("storage unavailable")
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: time.Microsecond, MaxInterval: time.Microsecond}
}

var testDay = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func TestComputeStreaks_FirstQualifyingDay(t *testing.T) {
	ledger := newFakeLedger()
	ledger.set(testDay, true, true, 1)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, 1, status.FullStreak)
	assert.Equal(t, 1, status.ParticipationStreak)
	assert.True(t, status.HasFullToday)
	assert.True(t, status.HasParticipationToday)
}

func TestComputeStreaks_NoSaleTodayFreezesFull(t *testing.T) {
	// Day 2 of the scenario: check-ins but no sale today, full day yesterday.
	// The full counter requires an uninterrupted sale chain starting today,
	// so it stays at zero while participation keeps climbing.
	ledger := newFakeLedger()
	ledger.set(testDay.AddDate(0, 0, -1), true, true, 1)
	ledger.set(testDay, true, true, 0)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, 0, status.FullStreak)
	assert.Equal(t, 2, status.ParticipationStreak)
	assert.False(t, status.HasFullToday)
	assert.True(t, status.HasParticipationToday)
}

func TestComputeStreaks_NothingLoggedTodayResetsBoth(t *testing.T) {
	// Day 3 of the scenario: two qualifying days in the past, nothing today.
	ledger := newFakeLedger()
	ledger.set(testDay.AddDate(0, 0, -2), true, true, 1)
	ledger.set(testDay.AddDate(0, 0, -1), true, true, 0)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, StreakStatus{}, status)
}

func TestComputeStreaks_FreezeMidWalk(t *testing.T) {
	// Sales today and two days ago, checked-in but no sale yesterday: the
	// full counter freezes at yesterday, the earlier sale day does not
	// retroactively count, and participation keeps climbing.
	ledger := newFakeLedger()
	ledger.set(testDay.AddDate(0, 0, -3), true, true, 2)
	ledger.set(testDay.AddDate(0, 0, -2), true, true, 1)
	ledger.set(testDay.AddDate(0, 0, -1), true, true, 0)
	ledger.set(testDay, true, true, 1)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, 1, status.FullStreak)
	assert.Equal(t, 4, status.ParticipationStreak)
}

func TestComputeStreaks_GapBreaksBoth(t *testing.T) {
	// Missing record two days back terminates the walk.
	ledger := newFakeLedger()
	ledger.set(testDay.AddDate(0, 0, -3), true, true, 1)
	ledger.set(testDay.AddDate(0, 0, -1), true, true, 1)
	ledger.set(testDay, true, true, 1)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, 2, status.FullStreak)
	assert.Equal(t, 2, status.ParticipationStreak)
}

func TestComputeStreaks_IncompleteCheckInBreaks(t *testing.T) {
	// Morning only yesterday fails the participation predicate.
	ledger := newFakeLedger()
	ledger.set(testDay.AddDate(0, 0, -2), true, true, 1)
	ledger.set(testDay.AddDate(0, 0, -1), true, false, 1)
	ledger.set(testDay, true, true, 1)

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, 1, status.FullStreak)
	assert.Equal(t, 1, status.ParticipationStreak)
}

func TestComputeStreaks_LookbackCap(t *testing.T) {
	ledger := newFakeLedger()
	for i := 0; i <= MaxStreakLookback+30; i++ {
		ledger.set(testDay.AddDate(0, 0, -i), true, true, 1)
	}

	calc := NewStreakCalculator(ledger, fastRetry())
	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	require.Equal(t, MaxStreakLookback+1, status.ParticipationStreak)
	require.Equal(t, MaxStreakLookback+1, status.FullStreak)
}

func TestComputeStreaks_DegradesToZeroOnStorageFailure(t *testing.T) {
	ledger := &failingLedger{}
	calc := NewStreakCalculator(ledger, fastRetry())

	status := calc.ComputeStreaks(context.Background(), "u1", testDay)

	assert.Equal(t, StreakStatus{Degraded: true}, status)
	// Bounded retries: exactly MaxAttempts reads of today's record.
	assert.Equal(t, 3, ledger.calls)
}

// TestStreakBreakMonotonicityProperty verifies that for any ledger, both
// counters equal the count of consecutive qualifying days ending today, a
// break today zeroes everything, and the full streak never exceeds the
// participation streak.
func TestStreakBreakMonotonicityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numDays := rapid.IntRange(0, 40).Draw(t, "numDays")

		type day struct {
			morning, evening bool
			sales            int
			missing          bool
		}

		ledger := newFakeLedger()
		days := make([]day, numDays) // index i = i days before today
		for i := 0; i < numDays; i++ {
			days[i] = day{
				morning: rapid.Bool().Draw(t, "morning"),
				evening: rapid.Bool().Draw(t, "evening"),
				sales:   rapid.IntRange(0, 2).Draw(t, "sales"),
				missing: rapid.Bool().Draw(t, "missing"),
			}
			if !days[i].missing {
				ledger.set(testDay.AddDate(0, 0, -i), days[i].morning, days[i].evening, days[i].sales)
			}
		}

		// Reference walk over the generated slice.
		expectedPart := 0
		expectedFull := 0
		frozen := false
		for i := 0; i < numDays; i++ {
			d := days[i]
			if d.missing || !d.morning || !d.evening {
				break
			}
			expectedPart++
			if !frozen {
				if d.sales > 0 {
					expectedFull++
				} else {
					frozen = true
				}
			}
		}
		if expectedPart == 0 {
			expectedFull = 0
		}

		calc := NewStreakCalculator(ledger, fastRetry())
		status := calc.ComputeStreaks(context.Background(), "u1", testDay)

		if status.ParticipationStreak != expectedPart {
			t.Fatalf("participation streak = %d, want %d", status.ParticipationStreak, expectedPart)
		}
		if status.FullStreak != expectedFull {
			t.Fatalf("full streak = %d, want %d", status.FullStreak, expectedFull)
		}
		if status.FullStreak > status.ParticipationStreak {
			t.Fatalf("full streak %d exceeds participation streak %d", status.FullStreak, status.ParticipationStreak)
		}
	})
}
