// handlers/events.go - achievement notification stream
package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"clickmill/database"
	"clickmill/models"
)

// AchievementEvent is one "new achievement" notification pushed to the
// client. Each unlock is delivered at most once: the notified flag flips
// before the event is considered consumed.
type AchievementEvent struct {
	AchievementID uint      `json:"achievement_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Rarity        string    `json:"rarity"`
	Icon          string    `json:"icon"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// WebSocketUpgrade gates the achievements stream behind a proper upgrade
// request.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AchievementStream pushes unseen unlocks to the connected client. The
// connection polls the ledger on a short interval rather than fanning out
// from the write path, so a missed tick just delays the toast instead of
// dropping it.
func AchievementStream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := wsUserID(conn)
		if !ok {
			_ = conn.WriteJSON(fiber.Map{"error": "unauthenticated"})
			return
		}

		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		// Detect client disconnect; discard inbound frames.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			if err := pushUnseen(conn, userID); err != nil {
				return
			}
			select {
			case <-closed:
				return
			case <-ticker.C:
			}
		}
	})
}

func wsUserID(conn *websocket.Conn) (uint, bool) {
	switch v := conn.Locals("userId").(type) {
	case float64:
		return uint(v), true
	case uint:
		return v, true
	default:
		return 0, false
	}
}

func pushUnseen(conn *websocket.Conn, userID uint) error {
	db := database.GetDB()

	var unseen []models.UserAchievement
	if err := db.Preload("Achievement").
		Where("user_id = ? AND notified = ?", userID, false).
		Order("unlocked_at ASC").
		Find(&unseen).Error; err != nil {
		log.Printf("achievement stream query failed for user %d: %v", userID, err)
		return nil // transient, retry next tick
	}

	for _, ua := range unseen {
		event := AchievementEvent{
			AchievementID: ua.AchievementID,
			Name:          ua.Achievement.Name,
			Description:   ua.Achievement.Description,
			Rarity:        ua.Achievement.Rarity,
			Icon:          ua.Achievement.Icon,
			UnlockedAt:    ua.UnlockedAt,
		}
		if err := conn.WriteJSON(event); err != nil {
			return err
		}
		// Mark consumed only after the write succeeded; a dropped
		// connection re-delivers, a marked one never does.
		if _, err := store.MarkNotified(userID, ua.AchievementID); err != nil {
			log.Printf("mark notified failed for user %d achievement %d: %v", userID, ua.AchievementID, err)
		}
	}
	return nil
}
