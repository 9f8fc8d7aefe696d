// handlers/clicks.go
package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"clickmill/ledger"
	"clickmill/middleware"
	"clickmill/progression"
	"clickmill/services"
)

// SubmitClicksRequest carries one flush from a client-side aggregator: the
// full new absolute total, never a delta, so duplicate submissions are
// harmless. ClicksPerSecond is the optional externally measured burst rate
// for click-speed milestones.
type SubmitClicksRequest struct {
	Total           int64    `json:"total"`
	ClicksPerSecond *float64 `json:"clicks_per_second,omitempty"`
}

// SubmitClicks is the flush target: it writes the total and runs milestone
// evaluation and granting synchronously on the success path.
func SubmitClicks(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req SubmitClicksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Total < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Total must be non-negative"})
	}

	result, err := engine.ApplyTotal(c.Context(), userID, req.Total, req.ClicksPerSecond)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrValidation):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, ledger.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "User not found"})
		default:
			return c.Status(503).JSON(fiber.Map{"error": "Store unavailable, clicks preserved client-side"})
		}
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"confirmed_total":  result.ConfirmedTotal,
		"rank":             result.Rank,
		"new_achievements": result.NewAchievements,
		"new_powers":       result.NewPowers,
		"effects":          result.Effects,
		"active_powers":    result.ActivePowers,
	})
}

// GetClicks returns the authoritative total, rank and current effects.
func GetClicks(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	total, err := store.GetTotal(userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "User not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch total"})
	}

	rank, err := store.Rank(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to compute rank"})
	}

	response := fiber.Map{
		"success":     true,
		"click_total": total,
		"rank":        rank,
	}
	if userPowers, err := store.ListUserPowers(userID); err == nil {
		now := time.Now().UTC()
		response["effects"] = progression.ComputeEffects(userPowers, now)
		response["active_powers"] = progression.SnapshotActive(userPowers, now)
	}
	return c.JSON(response)
}

// Reconcile triggers an ad-hoc reconciliation pass for the caller.
func Reconcile(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	svc := services.GetReconcileService()
	if svc == nil {
		return c.Status(503).JSON(fiber.Map{"error": "Reconciliation not available"})
	}

	view, changed, err := svc.Monitor().Reconcile(userID)
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": "Reconciliation failed, will retry on next cycle"})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"repaired": changed,
		"view":     view,
	})
}
