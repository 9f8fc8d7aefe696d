// handlers/leaderboard.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clickmill/database"
	"clickmill/models"
)

// GetLeaderboard returns the global leaderboard ordered by click total.
// GET /api/leaderboard?limit=100&offset=0
func GetLeaderboard(c *fiber.Ctx) error {
	limit := clampInt(c.QueryInt("limit", 100), 1, 100)
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()

	type LeaderboardEntry struct {
		UserID     uint   `json:"user_id"`
		Username   string `json:"username"`
		ClickTotal int64  `json:"click_total"`
		Rank       int64  `json:"rank"`
	}

	var entries []LeaderboardEntry
	db.Raw(`
		SELECT
			id as user_id,
			username,
			click_total,
			ROW_NUMBER() OVER (ORDER BY click_total DESC, id ASC) as rank
		FROM users
		WHERE is_guest = false
		ORDER BY rank
		LIMIT ? OFFSET ?
	`, limit, offset).Scan(&entries)

	var total int64
	db.Model(&models.User{}).Where("is_guest = ?", false).Count(&total)

	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetUserRank returns a user's rank in the leaderboard.
// GET /api/leaderboard/user/:id
func GetUserRank(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing user id"})
	}

	db := database.GetDB()
	var user models.User
	if err := db.Where("id = ? OR username = ?", userID, userID).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	var rank int64
	db.Raw(
		"SELECT COUNT(*) + 1 FROM users WHERE is_guest = false AND click_total > ?",
		user.ClickTotal,
	).Scan(&rank)

	return c.JSON(fiber.Map{
		"success":     true,
		"user_id":     user.ID,
		"username":    user.Username,
		"click_total": user.ClickTotal,
		"rank":        rank,
	})
}

// GetLeaderboardAroundUser returns entries around a specific user.
// GET /api/leaderboard/around/:id?context=5
func GetLeaderboardAroundUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing user id"})
	}
	contextN := clampInt(c.QueryInt("context", 5), 1, 20)

	db := database.GetDB()
	var user models.User
	if err := db.Where("id = ? OR username = ?", userID, userID).First(&user).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}

	type LeaderboardEntry struct {
		UserID     uint   `json:"user_id"`
		Username   string `json:"username"`
		ClickTotal int64  `json:"click_total"`
		Rank       int64  `json:"rank"`
	}

	var entries []LeaderboardEntry
	db.Raw(`
		WITH ranked_users AS (
			SELECT id, username, click_total,
				ROW_NUMBER() OVER (ORDER BY click_total DESC, id ASC) as rank
			FROM users
			WHERE is_guest = false
		),
		target_rank AS (
			SELECT rank FROM ranked_users WHERE id = ?
		)
		SELECT id as user_id, username, click_total, rank FROM ranked_users
		WHERE rank BETWEEN (SELECT rank FROM target_rank) - ? AND (SELECT rank FROM target_rank) + ?
		ORDER BY rank
	`, user.ID, contextN, contextN).Scan(&entries)

	return c.JSON(fiber.Map{
		"success":     true,
		"entries":     entries,
		"target_user": user.ID,
		"context":     contextN,
	})
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
