package engine

import "math"

// levelXPCoef sets the steepness of the level curve:
// xp required for level n = ceil(250 * (n-1)^1.5).
const levelXPCoef = 250.0

// XPRequiredForLevel returns the total lifetime XP threshold for a level.
// Level 1 requires 0 XP.
func XPRequiredForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	req := levelXPCoef * math.Pow(float64(level-1), 1.5)
	// Ceil so float rounding never lowers a threshold.
	return int64(math.Ceil(req))
}

// LevelForXP returns the highest level L with lifetimeXP >= XPRequiredForLevel(L).
// The result is always at least 1.
func LevelForXP(lifetimeXP int64) int {
	if lifetimeXP <= 0 {
		return 1
	}

	// Exponential search for an upper bound, then binary search.
	low := 1
	high := 2
	for XPRequiredForLevel(high) <= lifetimeXP {
		low = high
		high *= 2
		if high > 1_000_000 {
			break
		}
	}

	for low+1 < high {
		mid := low + (high-low)/2
		if XPRequiredForLevel(mid) <= lifetimeXP {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}
