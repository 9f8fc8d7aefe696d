// database/seed.go - reward catalog seed data
package database

import (
	"log"

	"gorm.io/gorm"

	"clickmill/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// SeedCatalog inserts the default reward catalog. Idempotent: existing
// entries are matched by their unique name and left untouched.
func SeedCatalog(db *gorm.DB) error {
	powers := []models.Power{
		{
			Name:            "Click Storm",
			Description:     "Doubles every click for a short burst",
			EffectType:      models.EffectMultiplier,
			EffectValue:     2.0,
			DurationSeconds: intPtr(60),
			MaxLevel:        3,
			Category:        models.CategoryBuff,
		},
		{
			Name:                 "Idle Hands",
			Description:          "Clicks on its own while you rest",
			EffectType:           models.EffectAutoClick,
			EffectValue:          1.0,
			DurationSeconds:      intPtr(120),
			MaxLevel:             5,
			RequiresConfirmation: true,
			Category:             models.CategorySupport,
		},
		{
			Name:          "Golden Finger",
			Description:   "A permanent edge for the devoted",
			EffectType:    models.EffectPermanent,
			EffectValue:   1.1,
			MaxLevel:      1,
			ActiveOnGrant: true,
			Category:      models.CategoryBuff,
		},
		{
			Name:            "Overdrive",
			Description:     "Triple clicks, three charges only",
			EffectType:      models.EffectMultiplier,
			EffectValue:     3.0,
			DurationSeconds: intPtr(30),
			MaxLevel:        2,
			UseCount:        intPtr(3),
			Category:        models.CategoryAttack,
		},
	}

	byName := make(map[string]uint, len(powers))
	for i := range powers {
		if err := db.Where("name = ?", powers[i].Name).FirstOrCreate(&powers[i]).Error; err != nil {
			return err
		}
		byName[powers[i].Name] = powers[i].ID
	}

	stormID := byName["Click Storm"]
	idleID := byName["Idle Hands"]
	goldenID := byName["Golden Finger"]
	overdriveID := byName["Overdrive"]

	achievements := []models.Achievement{
		// Click-count milestones
		{Name: "First Hundred", Description: "Reach 100 clicks", TriggerType: models.TriggerClicks, Threshold: 100, Rarity: models.RarityCommon},
		{Name: "Warming Up", Description: "Reach 250 clicks", TriggerType: models.TriggerClicks, Threshold: 250, Rarity: models.RarityCommon,
			RewardType: models.RewardMultiplier, RewardValue: floatPtr(1.25)},
		{Name: "Dedicated Clicker", Description: "Reach 500 clicks", TriggerType: models.TriggerClicks, Threshold: 500, Rarity: models.RarityUncommon,
			RewardType: models.RewardPower, RewardPowerID: &stormID},
		// Two independent auto-click rewards share the 1000 mark on purpose:
		// the power and the flat rate are separate catalog entries.
		{Name: "Thousand Club", Description: "Reach 1,000 clicks", TriggerType: models.TriggerClicks, Threshold: 1000, Rarity: models.RarityUncommon,
			RewardType: models.RewardPower, RewardPowerID: &idleID},
		{Name: "Restless Wrist", Description: "Reach 1,000 clicks", TriggerType: models.TriggerClicks, Threshold: 1000, Rarity: models.RarityUncommon,
			RewardType: models.RewardAutoClick, RewardValue: floatPtr(0.5)},
		{Name: "Click Tycoon", Description: "Reach 5,000 clicks", TriggerType: models.TriggerClicks, Threshold: 5000, Rarity: models.RarityRare,
			RewardType: models.RewardPower, RewardPowerID: &overdriveID},
		{Name: "Ten Thousand Strong", Description: "Reach 10,000 clicks", TriggerType: models.TriggerClicks, Threshold: 10000, Rarity: models.RarityEpic,
			RewardType: models.RewardPower, RewardPowerID: &goldenID},
		{Name: "Clicking Legend", Description: "Reach 100,000 clicks", TriggerType: models.TriggerClicks, Threshold: 100000, Rarity: models.RarityLegendary,
			RewardType: models.RewardMultiplier, RewardValue: floatPtr(2.0)},

		// Rank milestones (rank improves downward)
		{Name: "Top Hundred", Description: "Break into the top 100", TriggerType: models.TriggerRank, Threshold: 100, Rarity: models.RarityUncommon},
		{Name: "Top Ten", Description: "Break into the top 10", TriggerType: models.TriggerRank, Threshold: 10, Rarity: models.RarityEpic},
		{Name: "Number One", Description: "Take the crown", TriggerType: models.TriggerRank, Threshold: 1, Rarity: models.RarityLegendary,
			RewardType: models.RewardMultiplier, RewardValue: floatPtr(1.5)},

		// Click-speed milestones
		{Name: "Quick Fingers", Description: "Hit 5 clicks per second", TriggerType: models.TriggerClickSpeed, Threshold: 5, Rarity: models.RarityCommon},
		{Name: "Machine Gun", Description: "Hit 10 clicks per second", TriggerType: models.TriggerClickSpeed, Threshold: 10, Rarity: models.RarityRare,
			RewardType: models.RewardAutoClick, RewardValue: floatPtr(1.0)},
	}

	for i := range achievements {
		if achievements[i].RewardType == "" {
			achievements[i].RewardType = models.RewardNone
		}
		if err := db.Where("name = ?", achievements[i].Name).FirstOrCreate(&achievements[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Reward catalog seeded (%d powers, %d achievements)", len(powers), len(achievements))
	return nil
}
