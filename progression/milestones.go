// progression/milestones.go - pure milestone evaluation
package progression

import "clickmill/models"

// GrantedSet holds the achievement ids the user already unlocked.
type GrantedSet map[uint]bool

// NewGrantedSet builds the set from stored grant rows.
func NewGrantedSet(grants []models.UserAchievement) GrantedSet {
	set := make(GrantedSet, len(grants))
	for _, g := range grants {
		set[g.AchievementID] = true
	}
	return set
}

// EvaluateClicks returns every clicks-triggered definition whose threshold
// was crossed by moving from prevTotal to newTotal, skipping ids already in
// granted. All intermediate thresholds count: a single jump from 90 to 600
// crosses 100, 250 and 500 at once. Pure and safe to re-run with the same
// pair; re-evaluation of a granted threshold yields nothing.
func EvaluateClicks(prevTotal, newTotal int64, catalog []models.Achievement, granted GrantedSet) []models.Achievement {
	var crossed []models.Achievement
	for _, def := range catalog {
		if def.TriggerType != models.TriggerClicks || granted[def.ID] {
			continue
		}
		th := int64(def.Threshold)
		if prevTotal < th && th <= newTotal {
			crossed = append(crossed, def)
		}
	}
	return crossed
}

// EvaluateRank evaluates rank-triggered definitions. Rank improves downward
// (1 is best), so a threshold is crossed when the new rank reaches it from a
// strictly worse previous rank. Boundary inclusive on the reaching side.
func EvaluateRank(prevRank, newRank int64, catalog []models.Achievement, granted GrantedSet) []models.Achievement {
	var crossed []models.Achievement
	for _, def := range catalog {
		if def.TriggerType != models.TriggerRank || granted[def.ID] {
			continue
		}
		th := int64(def.Threshold)
		if newRank <= th && th < prevRank {
			crossed = append(crossed, def)
		}
	}
	return crossed
}

// EvaluateClickSpeed evaluates click-speed definitions against an externally
// supplied clicks-per-second metric. There is no stored previous rate; the
// granted set alone keeps re-evaluation idempotent.
func EvaluateClickSpeed(rate float64, catalog []models.Achievement, granted GrantedSet) []models.Achievement {
	var crossed []models.Achievement
	for _, def := range catalog {
		if def.TriggerType != models.TriggerClickSpeed || granted[def.ID] {
			continue
		}
		if rate >= def.Threshold {
			crossed = append(crossed, def)
		}
	}
	return crossed
}
