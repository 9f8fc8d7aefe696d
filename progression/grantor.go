// progression/grantor.go
package progression

import (
	"log"
	"time"

	"clickmill/ledger"
	"clickmill/models"
)

// Grantor idempotently turns newly crossed definitions into grant records.
// It never raises: partial failure returns whatever succeeded, and a failed
// grant is safe to re-attempt on the next evaluation.
type Grantor struct {
	ledger ledger.Ledger
	now    func() time.Time
}

func NewGrantor(l ledger.Ledger) *Grantor {
	return &Grantor{ledger: l, now: func() time.Time { return time.Now().UTC() }}
}

// GrantResult lists what a Grant call actually created. Duplicates are
// skipped silently.
type GrantResult struct {
	Achievements []models.UserAchievement
	Powers       []models.UserPower
}

func (g *Grantor) Grant(userID uint, defs []models.Achievement) GrantResult {
	var result GrantResult
	now := g.now()

	for _, def := range defs {
		grant, err := g.ledger.InsertGrantIfAbsent(userID, def.ID, now)
		if err != nil {
			log.Printf("grant failed for user %d achievement %q: %v", userID, def.Name, err)
			continue
		}
		if grant == nil {
			continue // already granted
		}
		grant.Achievement = def
		result.Achievements = append(result.Achievements, *grant)

		if def.RewardType == models.RewardPower && def.RewardPowerID != nil {
			if instance := g.grantPower(userID, *def.RewardPowerID, now); instance != nil {
				result.Powers = append(result.Powers, *instance)
			}
		}
	}
	return result
}

func (g *Grantor) grantPower(userID, powerID uint, now time.Time) *models.UserPower {
	if existing, err := g.ledger.GetUserPower(userID, powerID); err == nil && existing != nil {
		return nil // already granted; re-acquisition does not reset the instance
	}

	power, err := g.ledger.GetPower(powerID)
	if err != nil {
		log.Printf("power grant skipped, missing definition %d: %v", powerID, err)
		return nil
	}

	level := 1
	patch := ledger.PowerPatch{
		Level:    &level,
		IsActive: &power.ActiveOnGrant,
	}
	if power.DurationSeconds != nil {
		expires := now.Add(time.Duration(*power.DurationSeconds) * time.Second)
		patch.SetExpiresAt = true
		patch.ExpiresAt = &expires
	}
	if power.UseCount != nil {
		uses := *power.UseCount
		patch.SetUsesLeft = true
		patch.UsesLeft = &uses
	}

	instance, err := g.ledger.InsertOrUpdatePower(userID, powerID, patch)
	if err != nil {
		log.Printf("power grant failed for user %d power %q: %v", userID, power.Name, err)
		return nil
	}
	return instance
}
