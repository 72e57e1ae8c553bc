package engine

import (
	"salesquest/internal/model"
)

// SR bounds.
const (
	MinSR = 0
	MaxSR = 5000
)

// Rank tier layout: seven tiers of 500 SR each, starting at SR 1000. SR below
// the bronze floor clamps into bronze division 5; grandmaster runs to the cap.
const (
	tierFloor = 1000
	tierSpan  = 500
)

var rankTiers = []model.RankTier{
	model.TierBronze,
	model.TierSilver,
	model.TierGold,
	model.TierPlatinum,
	model.TierDiamond,
	model.TierMaster,
	model.TierGrandmaster,
}

// BasePoints returns the season points earned by an activity before any goal
// bonus. For policy sales the product category selects the value from the
// sale table.
func BasePoints(activityType string, policyType model.PolicyType, salePoints map[model.PolicyType]int64) (int64, error) {
	switch activityType {
	case model.ActivityLogin:
		return PointsLogin, nil
	case model.ActivityDailyIntentions:
		return PointsDailyIntentions, nil
	case model.ActivityNightlyWrap:
		return PointsNightlyWrap, nil
	case model.ActivityCheerSent, model.ActivityCheerReceived:
		return PointsCheer, nil
	case model.ActivityPolicySale:
		if salePoints == nil {
			salePoints = DefaultPolicySalePoints()
		}
		points, ok := salePoints[policyType]
		if !ok {
			return 0, ErrInvalidPolicyType
		}
		return points, nil
	default:
		return 0, ErrInvalidActivityType
	}
}

// ApplyGoalBonus adds the flat +10% goal bonus to an award. The bonus applies
// at award time only, never retroactively.
func ApplyGoalBonus(points int64) int64 {
	return points + points/10
}

// ComputeSR converts cumulative season points into a season rating on
// [0, 5000] via a piecewise-linear mapping. Each band translates a points
// sub-range to an SR sub-range with a fixed scale factor:
//
//	      p < 100:  sr = p * 15
//	100 ≤ p < 300:  sr = 1500 + (p-100) * 2.5
//	300 ≤ p < 600:  sr = 2000 + (p-300) * 1.67
//	600 ≤ p < 1000: sr = 2500 + (p-600) * 1.25
//	1000 ≤ p < 1500: sr = 3000 + (p-1000)
//	1500 ≤ p < 2500: sr = 3500 + (p-1500) * 0.5
//	      p ≥ 2500: sr = min(5000, 4000 + (p-2500) * 0.4)
func ComputeSR(seasonPoints int64) int {
	if seasonPoints < 0 {
		seasonPoints = 0
	}
	p := float64(seasonPoints)

	var sr float64
	switch {
	case seasonPoints < 100:
		sr = p * 15
	case seasonPoints < 300:
		sr = 1500 + (p-100)*2.5
	case seasonPoints < 600:
		sr = 2000 + (p-300)*1.67
	case seasonPoints < 1000:
		sr = 2500 + (p-600)*1.25
	case seasonPoints < 1500:
		sr = 3000 + (p - 1000)
	case seasonPoints < 2500:
		sr = 3500 + (p-1500)*0.5
	default:
		sr = 4000 + (p-2500)*0.4
	}

	if sr > MaxSR {
		sr = MaxSR
	}
	if sr < MinSR {
		sr = MinSR
	}
	return int(sr)
}

// ComputeRank derives the full season rank from cumulative season points.
// Pure function, no side effects; always recomputed, never stored.
func ComputeRank(seasonPoints int64) model.SeasonRank {
	sr := ComputeSR(seasonPoints)

	idx := (sr - tierFloor) / tierSpan
	if idx < 0 {
		idx = 0
	}
	if idx >= len(rankTiers) {
		idx = len(rankTiers) - 1
	}
	tierMin := tierFloor + idx*tierSpan

	// Division 1 is the highest within a tier, division 5 the lowest.
	division := 5 - (sr-tierMin)/(tierSpan/5)
	if division < 1 {
		division = 1
	}
	if division > 5 {
		division = 5
	}

	return model.SeasonRank{
		SR:       sr,
		Tier:     rankTiers[idx],
		Division: division,
	}
}
