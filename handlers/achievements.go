// handlers/achievements.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clickmill/database"
	"clickmill/middleware"
	"clickmill/models"
)

// GetAchievements returns the full catalog merged with the caller's unlock
// state.
func GetAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var unlocked []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Order("unlocked_at DESC").Find(&unlocked).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	var catalog []models.Achievement
	if err := db.Order("threshold ASC").Find(&catalog).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch catalog"})
	}

	unlockedMap := make(map[uint]models.UserAchievement)
	for _, ua := range unlocked {
		unlockedMap[ua.AchievementID] = ua
	}

	achievements := make([]fiber.Map, 0, len(catalog))
	for _, def := range catalog {
		achData := fiber.Map{
			"id":           def.ID,
			"name":         def.Name,
			"description":  def.Description,
			"trigger_type": def.TriggerType,
			"threshold":    def.Threshold,
			"rarity":       def.Rarity,
			"icon":         def.Icon,
			"reward_type":  def.RewardType,
			"unlocked":     false,
		}
		if def.RewardValue != nil {
			achData["reward_value"] = *def.RewardValue
		}

		if ua, ok := unlockedMap[def.ID]; ok {
			achData["unlocked"] = true
			achData["unlocked_at"] = ua.UnlockedAt
			achData["notified"] = ua.Notified
		}

		achievements = append(achievements, achData)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"total":        len(catalog),
		"unlocked":     len(unlocked),
	})
}

// MarkAchievementNotified records that the client displayed the unlock, so
// it is never announced twice.
func MarkAchievementNotified(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req struct {
		AchievementID uint `json:"achievement_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.AchievementID == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	marked, err := store.MarkNotified(userID, req.AchievementID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update achievement"})
	}

	return c.JSON(fiber.Map{"success": true, "marked": marked})
}
