// handlers/powers.go
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"clickmill/middleware"
	"clickmill/progression"
	"clickmill/services"
)

// GetPowers returns every power instance the user holds plus the derived
// active snapshot and combined effects.
func GetPowers(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	userPowers, err := store.ListUserPowers(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch powers"})
	}

	now := time.Now().UTC()
	return c.JSON(fiber.Map{
		"success":       true,
		"powers":        userPowers,
		"active_powers": progression.SnapshotActive(userPowers, now),
		"effects":       progression.ComputeEffects(userPowers, now),
	})
}

// ActivatePower turns a granted power on.
func ActivatePower(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	powerID, err := c.ParamsInt("id")
	if err != nil || powerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid power id"})
	}

	ok, err := powers.Activate(userID, uint(powerID))
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": "Store unavailable"})
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Power cannot be activated"})
	}

	observeView(userID)
	return c.JSON(fiber.Map{"success": true, "power_id": powerID, "active": true})
}

// DeactivatePower turns an active power off.
func DeactivatePower(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	powerID, err := c.ParamsInt("id")
	if err != nil || powerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid power id"})
	}

	ok, err := powers.Deactivate(userID, uint(powerID))
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": "Store unavailable"})
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Power is not active"})
	}

	observeView(userID)
	return c.JSON(fiber.Map{"success": true, "power_id": powerID, "active": false})
}

// UpgradePower raises a power one level, recomputing its expiry.
func UpgradePower(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	powerID, err := c.ParamsInt("id")
	if err != nil || powerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid power id"})
	}

	ok, err := powers.Upgrade(userID, uint(powerID))
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": "Store unavailable"})
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Power cannot be upgraded"})
	}

	instance, err := store.GetUserPower(userID, uint(powerID))
	if err != nil {
		return c.JSON(fiber.Map{"success": true, "power_id": powerID})
	}

	observeView(userID)
	return c.JSON(fiber.Map{"success": true, "power": instance})
}

// ConfirmUpgrade arms the next upgrade on a confirmation-gated power.
func ConfirmUpgrade(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}
	powerID, err := c.ParamsInt("id")
	if err != nil || powerID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid power id"})
	}

	ok, err := powers.ConfirmUpgrade(userID, uint(powerID))
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": "Store unavailable"})
	}
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "You don't hold this power"})
	}

	return c.JSON(fiber.Map{"success": true, "power_id": powerID, "upgrade_confirmed": true})
}

// observeView pushes the post-transition view into the reconciliation
// monitor's cache so the next periodic pass starts from what the client now
// believes.
func observeView(userID uint) {
	svc := services.GetReconcileService()
	if svc == nil {
		return
	}

	userPowers, err := store.ListUserPowers(userID)
	if err != nil {
		return
	}
	now := time.Now().UTC()

	view := make([]progression.CachedPower, 0, len(userPowers))
	for i := range userPowers {
		up := &userPowers[i]
		if up.IsActive && !up.Expired(&up.Power, now) {
			view = append(view, progression.CachedPower{PowerID: up.PowerID, Level: up.Level, Active: true})
		}
	}
	svc.Monitor().Observe(userID, view)
}
