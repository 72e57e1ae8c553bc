// Package engine implements the streak and season scoring core: the backward
// ledger walk, one-time milestone awards, season point accounting with rank
// derivation, and privacy projection of progress views.
package engine

import "salesquest/internal/model"

// StreakType distinguishes the two parallel streak counters.
type StreakType string

const (
	// StreakFull requires both check-ins and at least one sale per day.
	StreakFull StreakType = "full"
	// StreakParticipation requires both check-ins, sale not required.
	StreakParticipation StreakType = "participation"
)

// MilestoneReward maps a streak threshold to its one-time XP grant.
type MilestoneReward struct {
	Threshold int
	XP        int64
}

// DefaultMilestoneTables returns the built-in threshold tables. The lists are
// ordered ascending; the milestone engine relies on that ordering. Values can
// be overridden through configuration without touching engine logic.
func DefaultMilestoneTables() map[StreakType][]MilestoneReward {
	return map[StreakType][]MilestoneReward{
		StreakFull: {
			{Threshold: 3, XP: 50},
			{Threshold: 7, XP: 100},
			{Threshold: 14, XP: 150},
			{Threshold: 21, XP: 200},
			{Threshold: 30, XP: 300},
			{Threshold: 60, XP: 500},
			{Threshold: 90, XP: 750},
			{Threshold: 180, XP: 1000},
			{Threshold: 365, XP: 2000},
		},
		StreakParticipation: {
			{Threshold: 7, XP: 50},
			{Threshold: 14, XP: 75},
			{Threshold: 30, XP: 150},
			{Threshold: 60, XP: 250},
			{Threshold: 90, XP: 400},
			{Threshold: 180, XP: 600},
			{Threshold: 365, XP: 1200},
		},
	}
}

// Season point values per activity.
const (
	PointsLogin           int64 = 1
	PointsDailyIntentions int64 = 10
	PointsNightlyWrap     int64 = 10
	PointsCheer           int64 = 1

	// CheerDailyCap limits cheer points per day, per direction.
	CheerDailyCap = 5
)

// DefaultPolicySalePoints returns the per-product point values for a logged
// sale. Unknown product categories are rejected, never defaulted.
func DefaultPolicySalePoints() map[model.PolicyType]int64 {
	return map[model.PolicyType]int64{
		model.PolicyAuto:       20,
		model.PolicyRenters:    20,
		model.PolicyHome:       30,
		model.PolicyHealth:     35,
		model.PolicyLife:       40,
		model.PolicyCommercial: 50,
	}
}
