// Package model defines the data models for the sales gamification engine.
package model

import "time"

// DailyActivityRecord captures one user's activity for one calendar date.
// Records for past dates are immutable; the scoring engine only reads them.
type DailyActivityRecord struct {
	UserID           string    `db:"user_id"`
	Date             time.Time `db:"activity_date"`
	MorningCompleted bool      `db:"morning_completed"`
	EveningCompleted bool      `db:"evening_completed"`
	SaleCount        int       `db:"sale_count"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// MilestoneAward records a one-time XP grant for reaching a streak threshold.
type MilestoneAward struct {
	Key       string    `db:"milestone_key"`
	XP        int64     `db:"xp"`
	AwardedAt time.Time `db:"awarded_at"`
}

// UserProgress is the single per-user progress document. It is mutated only
// through ApplyProgressDelta; UI layers never read-modify-write it.
type UserProgress struct {
	UserID               string                    `db:"user_id"`
	FullStreak           int                       `db:"full_streak"`
	ParticipationStreak  int                       `db:"participation_streak"`
	SeasonPoints         int64                     `db:"season_points"`
	LifetimeXP           int64                     `db:"lifetime_xp"`
	AchievedMilestones   map[string]MilestoneAward `db:"-"`
	LastStreakUpdateDate time.Time                 `db:"last_streak_update"`
	CreatedAt            time.Time                 `db:"created_at"`
	UpdatedAt            time.Time                 `db:"updated_at"`
}

// RankTier is a competitive tier derived from season rating.
type RankTier string

// Rank tiers from lowest to highest.
const (
	TierBronze      RankTier = "bronze"
	TierSilver      RankTier = "silver"
	TierGold        RankTier = "gold"
	TierPlatinum    RankTier = "platinum"
	TierDiamond     RankTier = "diamond"
	TierMaster      RankTier = "master"
	TierGrandmaster RankTier = "grandmaster"
)

// SeasonRank is derived from season points and never stored independently.
type SeasonRank struct {
	SR       int      `json:"sr"`
	Tier     RankTier `json:"tier"`
	Division int      `json:"division"`
}

// DailyActivityAward is the idempotency record gating every point award.
// Existence of a (user, date, key) row means the points were already granted.
type DailyActivityAward struct {
	UserID       string    `db:"user_id"`
	Date         time.Time `db:"activity_date"`
	AwardKey     string    `db:"award_key"`
	ActivityType string    `db:"activity_type"`
	Points       int64     `db:"points"`
	CreatedAt    time.Time `db:"created_at"`
}

// Activity types that earn season points.
const (
	ActivityLogin           = "login"            // First login of the day
	ActivityDailyIntentions = "daily_intentions" // Morning check-in
	ActivityNightlyWrap     = "nightly_wrap"     // Evening check-in
	ActivityPolicySale      = "policy_sale"      // Logged sale, points vary by product
	ActivityCheerSent       = "cheer_sent"       // Sent a cheer to a teammate
	ActivityCheerReceived   = "cheer_received"   // Received a cheer from a teammate
)

// ActivityTypes returns every activity type the scoring engine accepts.
func ActivityTypes() []string {
	return []string{
		ActivityLogin,
		ActivityDailyIntentions,
		ActivityNightlyWrap,
		ActivityPolicySale,
		ActivityCheerSent,
		ActivityCheerReceived,
	}
}

// PolicyType identifies the product category of a logged sale.
type PolicyType string

// Product categories a sale can be logged under.
const (
	PolicyAuto       PolicyType = "auto"
	PolicyRenters    PolicyType = "renters"
	PolicyHome       PolicyType = "home"
	PolicyHealth     PolicyType = "health"
	PolicyLife       PolicyType = "life"
	PolicyCommercial PolicyType = "commercial"
)

// ViewerRelationship describes the viewer's relation to a progress subject.
type ViewerRelationship string

// Viewer relationships from most to least privileged.
const (
	RelationshipSelf     ViewerRelationship = "self"
	RelationshipLeader   ViewerRelationship = "leader"
	RelationshipTeammate ViewerRelationship = "teammate"
	RelationshipPublic   ViewerRelationship = "public"
)

// IsValid reports whether the relationship is one the projection understands.
func (v ViewerRelationship) IsValid() bool {
	switch v {
	case RelationshipSelf, RelationshipLeader, RelationshipTeammate, RelationshipPublic:
		return true
	default:
		return false
	}
}

// ProgressView is the full read-side view of a user's progress before privacy
// filtering. Raw point totals are only ever exposed through the self view.
type ProgressView struct {
	UserID              string                    `json:"user_id"`
	DisplayName         string                    `json:"display_name"`
	TodayPoints         int64                     `json:"today_points"`
	WeekPoints          int64                     `json:"week_points"`
	MonthPoints         int64                     `json:"month_points"`
	TodayGoal           int64                     `json:"today_goal"`
	WeekGoal            int64                     `json:"week_goal"`
	MonthGoal           int64                     `json:"month_goal"`
	SeasonPoints        int64                     `json:"season_points"`
	LifetimeXP          int64                     `json:"lifetime_xp"`
	Level               int                       `json:"level"`
	FullStreak          int                       `json:"full_streak"`
	ParticipationStreak int                       `json:"participation_streak"`
	AchievedMilestones  map[string]MilestoneAward `json:"achieved_milestones"`
	Rank                SeasonRank                `json:"rank"`
}
