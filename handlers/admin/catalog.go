// handlers/admin/catalog.go - reward catalog management
package admin

import (
	"github.com/gofiber/fiber/v2"

	"clickmill/database"
	"clickmill/models"
)

// GetAchievements returns all achievement definitions
func GetAchievements(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievements []models.Achievement
	if err := db.Order("threshold ASC").Find(&achievements).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	return c.JSON(achievements)
}

// CreateAchievement creates a new achievement definition
func CreateAchievement(c *fiber.Ctx) error {
	db := database.GetDB()

	var achievement models.Achievement
	if err := c.BodyParser(&achievement); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if achievement.Name == "" || achievement.Threshold <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Name and a positive threshold are required"})
	}
	if achievement.RewardType == "" {
		achievement.RewardType = models.RewardNone
	}

	if err := db.Create(&achievement).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create achievement"})
	}

	return c.Status(201).JSON(achievement)
}

// UpdateAchievement updates an existing achievement definition
func UpdateAchievement(c *fiber.Ctx) error {
	db := database.GetDB()
	id := c.Params("id")

	var achievement models.Achievement
	if err := db.First(&achievement, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Achievement not found"})
	}

	if err := c.BodyParser(&achievement); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := db.Save(&achievement).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update achievement"})
	}

	return c.JSON(achievement)
}

// DeleteAchievement deletes an achievement definition
func DeleteAchievement(c *fiber.Ctx) error {
	db := database.GetDB()
	id := c.Params("id")

	if err := db.Delete(&models.Achievement{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete achievement"})
	}

	return c.JSON(fiber.Map{"message": "Achievement deleted successfully"})
}

// GetPowers returns all power definitions
func GetPowers(c *fiber.Ctx) error {
	db := database.GetDB()

	var powers []models.Power
	if err := db.Order("id ASC").Find(&powers).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch powers"})
	}

	return c.JSON(powers)
}

// CreatePower creates a new power definition
func CreatePower(c *fiber.Ctx) error {
	db := database.GetDB()

	var power models.Power
	if err := c.BodyParser(&power); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if power.Name == "" || power.EffectValue <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Name and a positive effect value are required"})
	}
	if power.MaxLevel < 1 {
		power.MaxLevel = 1
	}
	if power.Category == "" {
		power.Category = models.CategoryBuff
	}

	if err := db.Create(&power).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create power"})
	}

	return c.Status(201).JSON(power)
}

// UpdatePower updates an existing power definition
func UpdatePower(c *fiber.Ctx) error {
	db := database.GetDB()
	id := c.Params("id")

	var power models.Power
	if err := db.First(&power, id).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Power not found"})
	}

	if err := c.BodyParser(&power); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := db.Save(&power).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update power"})
	}

	return c.JSON(power)
}

// DeletePower deletes a power definition
func DeletePower(c *fiber.Ctx) error {
	db := database.GetDB()
	id := c.Params("id")

	if err := db.Delete(&models.Power{}, id).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete power"})
	}

	return c.JSON(fiber.Map{"message": "Power deleted successfully"})
}
