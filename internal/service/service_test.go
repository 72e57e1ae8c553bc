package service

import (
	"context"
	"fmt"
	"time"

	"salesquest/internal/engine"
	"salesquest/internal/model"
	"salesquest/internal/repository"
)

// In-memory fakes backing the service tests. They mirror the conditional
// write semantics of the Postgres repositories: claims insert at most once,
// progress increments are additive, milestone inserts ignore duplicates.

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func dayKey(userID string, date time.Time) string {
	return userID + "|" + engine.DateOnly(date).Format("2006-01-02")
}

type fakeLedgerStore struct {
	records map[string]*model.DailyActivityRecord
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{records: map[string]*model.DailyActivityRecord{}}
}

func (f *fakeLedgerStore) GetDailyActivity(_ context.Context, userID string, date time.Time) (*model.DailyActivityRecord, error) {
	rec, ok := f.records[dayKey(userID, date)]
	if !ok {
		return nil, engine.ErrNoRecord
	}
	return rec, nil
}

func (f *fakeLedgerStore) ensure(userID string, date time.Time) *model.DailyActivityRecord {
	key := dayKey(userID, date)
	rec, ok := f.records[key]
	if !ok {
		rec = &model.DailyActivityRecord{UserID: userID, Date: engine.DateOnly(date)}
		f.records[key] = rec
	}
	return rec
}

func (f *fakeLedgerStore) RecordCheckIn(_ context.Context, userID string, date time.Time, slot repository.CheckInSlot) error {
	rec := f.ensure(userID, date)
	switch slot {
	case repository.SlotMorning:
		rec.MorningCompleted = true
	case repository.SlotEvening:
		rec.EveningCompleted = true
	default:
		return repository.ErrInvalidCheckInSlot
	}
	return nil
}

func (f *fakeLedgerStore) IncrementSaleCount(_ context.Context, userID string, date time.Time) error {
	f.ensure(userID, date).SaleCount++
	return nil
}

type fakeProgressStore struct {
	users map[string]*model.UserProgress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{users: map[string]*model.UserProgress{}}
}

func (f *fakeProgressStore) get(userID string) *model.UserProgress {
	progress, ok := f.users[userID]
	if !ok {
		progress = &model.UserProgress{
			UserID:             userID,
			AchievedMilestones: map[string]model.MilestoneAward{},
		}
		f.users[userID] = progress
	}
	return progress
}

func (f *fakeProgressStore) GetOrZero(_ context.Context, userID string) (*model.UserProgress, error) {
	return f.get(userID), nil
}

func (f *fakeProgressStore) ApplyProgressDelta(_ context.Context, userID string, delta repository.ProgressDelta) error {
	if delta.XPDelta < 0 || delta.PointsDelta < 0 {
		return repository.ErrNegativeDelta
	}
	progress := f.get(userID)
	progress.SeasonPoints += delta.PointsDelta
	progress.LifetimeXP += delta.XPDelta
	if sv := delta.StreakValues; sv != nil {
		progress.FullStreak = sv.Full
		progress.ParticipationStreak = sv.Participation
		progress.LastStreakUpdateDate = engine.DateOnly(sv.UpdatedOn)
	}
	for _, m := range delta.NewMilestones {
		if _, ok := progress.AchievedMilestones[m.Key]; !ok {
			progress.AchievedMilestones[m.Key] = m
		}
	}
	return nil
}

type fakeAwardStore struct {
	claims   map[string]model.DailyActivityAward
	progress *fakeProgressStore
}

func newFakeAwardStore(progress *fakeProgressStore) *fakeAwardStore {
	return &fakeAwardStore{claims: map[string]model.DailyActivityAward{}, progress: progress}
}

func (f *fakeAwardStore) ClaimAndIncrement(_ context.Context, userID string, date time.Time, awardKey, activityType string, points int64, dailyCap int) (bool, error) {
	key := fmt.Sprintf("%s|%s", dayKey(userID, date), awardKey)
	if _, ok := f.claims[key]; ok {
		return false, nil
	}
	if dailyCap > 0 {
		day := engine.DateOnly(date)
		count := 0
		for _, claim := range f.claims {
			if claim.UserID == userID && claim.Date.Equal(day) && claim.ActivityType == activityType {
				count++
			}
		}
		if count >= dailyCap {
			return false, nil
		}
	}
	f.claims[key] = model.DailyActivityAward{
		UserID:       userID,
		Date:         engine.DateOnly(date),
		AwardKey:     awardKey,
		ActivityType: activityType,
		Points:       points,
	}
	progress := f.progress.get(userID)
	progress.SeasonPoints += points
	progress.LifetimeXP += points
	return true, nil
}

func (f *fakeAwardStore) SumPointsBetween(_ context.Context, userID string, from, to time.Time) (int64, error) {
	fromDay, toDay := engine.DateOnly(from), engine.DateOnly(to)
	var total int64
	for _, claim := range f.claims {
		if claim.UserID == userID && !claim.Date.Before(fromDay) && !claim.Date.After(toDay) {
			total += claim.Points
		}
	}
	return total, nil
}

// newTestServices wires the full service stack over the fakes.
func newTestServices() (*ActivityService, *ProgressService, *fakeLedgerStore, *fakeProgressStore, *fakeAwardStore) {
	ledger := newFakeLedgerStore()
	progressStore := newFakeProgressStore()
	awards := newFakeAwardStore(progressStore)

	streaks := engine.NewStreakCalculator(ledger, engine.RetryPolicy{
		MaxAttempts:     2,
		InitialInterval: time.Microsecond,
		MaxInterval:     time.Microsecond,
	})
	progressSvc := NewProgressService(streaks, engine.NewMilestoneEngine(nil), progressStore, awards, Goals{Today: 50, Week: 250, Month: 1000}, fixedNow)
	activitySvc := NewActivityService(ledger, awards, progressSvc, nil, fixedNow)

	return activitySvc, progressSvc, ledger, progressStore, awards
}
