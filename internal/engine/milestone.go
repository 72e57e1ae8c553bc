package engine

import (
	"fmt"
	"sort"
	"time"

	"salesquest/internal/model"
)

// MilestoneKey builds the persisted key for a (streak type, threshold) pair,
// e.g. "full_7" or "participation_30".
func MilestoneKey(streakType StreakType, threshold int) string {
	return fmt.Sprintf("%s_%d", streakType, threshold)
}

// MilestoneEngine evaluates streak counters against the threshold tables.
type MilestoneEngine struct {
	tables map[StreakType][]MilestoneReward
}

// NewMilestoneEngine creates a MilestoneEngine. A nil table map selects the
// built-in defaults. Threshold lists are sorted ascending on construction so
// table order never affects award order.
func NewMilestoneEngine(tables map[StreakType][]MilestoneReward) *MilestoneEngine {
	if tables == nil {
		tables = DefaultMilestoneTables()
	}
	for _, rewards := range tables {
		sort.Slice(rewards, func(i, j int) bool { return rewards[i].Threshold < rewards[j].Threshold })
	}
	return &MilestoneEngine{tables: tables}
}

// NewlyAwarded is a milestone the user just reached for the first time.
type NewlyAwarded struct {
	Key   string
	Type  StreakType
	Award model.MilestoneAward
}

// Evaluate compares the streak counters against the threshold tables and
// returns the total XP and the list of milestones not yet in the achieved set.
// It is pure: the achieved set is never modified, and calling it twice with
// the same inputs yields the same awards, so retries can never double-award.
// Recorded milestones are permanent; a later streak drop removes nothing.
func (e *MilestoneEngine) Evaluate(achieved map[string]model.MilestoneAward, fullStreak, participationStreak int, now time.Time) (int64, []NewlyAwarded) {
	var totalXP int64
	var newly []NewlyAwarded

	counters := map[StreakType]int{
		StreakFull:          fullStreak,
		StreakParticipation: participationStreak,
	}

	for _, streakType := range []StreakType{StreakFull, StreakParticipation} {
		current := counters[streakType]
		for _, reward := range e.tables[streakType] {
			if current < reward.Threshold {
				break
			}
			key := MilestoneKey(streakType, reward.Threshold)
			if _, ok := achieved[key]; ok {
				continue
			}
			totalXP += reward.XP
			newly = append(newly, NewlyAwarded{
				Key:  key,
				Type: streakType,
				Award: model.MilestoneAward{
					Key:       key,
					XP:        reward.XP,
					AwardedAt: now,
				},
			})
		}
	}

	return totalXP, newly
}
