// progression/effects.go
package progression

import (
	"time"

	"clickmill/models"
)

// Effects is the derived view of everything currently modifying the user's
// clicking: the combined multiplier and the passive clicks-per-second rate.
type Effects struct {
	Multiplier    float64 `json:"multiplier"`
	AutoClickRate float64 `json:"auto_click_rate"`
}

// ActivePower is the display snapshot of one active instance.
type ActivePower struct {
	PowerID          uint    `json:"power_id"`
	Name             string  `json:"name"`
	EffectType       string  `json:"effect_type"`
	Level            int     `json:"level"`
	RemainingSeconds *int64  `json:"remaining_seconds,omitempty"` // nil = permanent
	EffectValue      float64 `json:"effect_value"`
}

// ComputeEffects folds all active, unexpired instances into the combined
// view. A leveled power contributes base value × level; multiplier-type
// values combine multiplicatively (1 when none are active) and auto-click
// rates add up.
func ComputeEffects(powers []models.UserPower, now time.Time) Effects {
	effects := Effects{Multiplier: 1}
	for i := range powers {
		up := &powers[i]
		if !up.IsActive || up.Expired(&up.Power, now) {
			continue
		}
		value := up.Power.EffectValue * float64(up.Level)
		switch up.Power.EffectType {
		case models.EffectAutoClick:
			effects.AutoClickRate += value
		case models.EffectMultiplier, models.EffectPermanent:
			effects.Multiplier *= value
		}
	}
	return effects
}

// SnapshotActive builds the presentation snapshot of active instances.
func SnapshotActive(powers []models.UserPower, now time.Time) []ActivePower {
	snapshot := make([]ActivePower, 0, len(powers))
	for i := range powers {
		up := &powers[i]
		if !up.IsActive || up.Expired(&up.Power, now) {
			continue
		}
		entry := ActivePower{
			PowerID:     up.PowerID,
			Name:        up.Power.Name,
			EffectType:  up.Power.EffectType,
			Level:       up.Level,
			EffectValue: up.Power.EffectValue * float64(up.Level),
		}
		if up.ExpiresAt != nil && up.Level < up.Power.MaxLevel {
			remaining := int64(up.ExpiresAt.Sub(now).Seconds())
			if remaining < 0 {
				remaining = 0
			}
			entry.RemainingSeconds = &remaining
		}
		snapshot = append(snapshot, entry)
	}
	return snapshot
}
