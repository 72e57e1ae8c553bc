package engine

import (
	"math"

	"salesquest/internal/model"
)

// ProjectedProgress is a privacy-filtered view of a user's progress. Fields
// absent for the viewer's relationship are nil. Lifetime totals, achievements
// and level are visible to every relationship.
type ProjectedProgress struct {
	UserID              string                          `json:"user_id"`
	DisplayName         string                          `json:"display_name"`
	Relationship        model.ViewerRelationship        `json:"relationship"`
	TodayPoints         *int64                          `json:"today_points,omitempty"`
	WeekPoints          *int64                          `json:"week_points,omitempty"`
	MonthPoints         *int64                          `json:"month_points,omitempty"`
	TodayGoalPct        *int                            `json:"today_goal_pct,omitempty"`
	WeekGoalPct         *int                            `json:"week_goal_pct,omitempty"`
	MonthGoalPct        *int                            `json:"month_goal_pct,omitempty"`
	SeasonPoints        *int64                          `json:"season_points,omitempty"`
	Rank                *model.SeasonRank               `json:"rank,omitempty"`
	FullStreak          *int                            `json:"full_streak,omitempty"`
	ParticipationStreak *int                            `json:"participation_streak,omitempty"`
	LifetimeXP          int64                           `json:"lifetime_xp"`
	Level               int                             `json:"level"`
	AchievedMilestones  map[string]model.MilestoneAward `json:"achieved_milestones"`
}

// ProjectView filters a full progress view down to what the viewer's
// relationship permits:
//
//	self:     everything, unfiltered.
//	leader:   raw today/week/month totals removed; goal percentages, season
//	          aggregates, streaks, achievements, lifetime totals and level stay.
//	teammate: leader minus season aggregates; only percentages, lifetime
//	          totals, streaks and achievements.
//	public:   name, lifetime totals, achievements and level.
//
// Pure and deterministic: the source view is never mutated, and an unknown
// relationship degrades to the most restrictive (public) projection.
func ProjectView(view model.ProgressView, relationship model.ViewerRelationship) ProjectedProgress {
	out := ProjectedProgress{
		UserID:             view.UserID,
		DisplayName:        view.DisplayName,
		Relationship:       relationship,
		LifetimeXP:         view.LifetimeXP,
		Level:              view.Level,
		AchievedMilestones: copyMilestones(view.AchievedMilestones),
	}

	switch relationship {
	case model.RelationshipSelf:
		out.TodayPoints = int64Ptr(view.TodayPoints)
		out.WeekPoints = int64Ptr(view.WeekPoints)
		out.MonthPoints = int64Ptr(view.MonthPoints)
		fallthrough
	case model.RelationshipLeader:
		out.SeasonPoints = int64Ptr(view.SeasonPoints)
		rank := view.Rank
		out.Rank = &rank
		fallthrough
	case model.RelationshipTeammate:
		out.TodayGoalPct = intPtr(goalPercent(view.TodayPoints, view.TodayGoal))
		out.WeekGoalPct = intPtr(goalPercent(view.WeekPoints, view.WeekGoal))
		out.MonthGoalPct = intPtr(goalPercent(view.MonthPoints, view.MonthGoal))
		out.FullStreak = intPtr(view.FullStreak)
		out.ParticipationStreak = intPtr(view.ParticipationStreak)
	default:
		// public (or unknown): lifetime totals, achievements and level only.
	}

	return out
}

// goalPercent rounds points/goal to a whole percent so raw totals never leak
// through derived figures. A missing goal yields 0.
func goalPercent(points, goal int64) int {
	if goal <= 0 {
		return 0
	}
	return int(math.Round(float64(points) / float64(goal) * 100))
}

func copyMilestones(src map[string]model.MilestoneAward) map[string]model.MilestoneAward {
	out := make(map[string]model.MilestoneAward, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }
