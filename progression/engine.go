// progression/engine.go - authoritative write path with the post-write hook
package progression

import (
	"context"
	"time"

	"clickmill/ledger"
	"clickmill/models"
)

// Engine is the server-side flush target. Every successful total write is
// followed synchronously by milestone evaluation and granting, so the
// "evaluate immediately after every authoritative write" guarantee holds
// without store-level triggers.
type Engine struct {
	ledger  ledger.Ledger
	grantor *Grantor
	now     func() time.Time
}

func NewEngine(l ledger.Ledger) *Engine {
	return &Engine{
		ledger:  l,
		grantor: NewGrantor(l),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ApplyResult is what one authoritative write produced.
type ApplyResult struct {
	ConfirmedTotal  int64                    `json:"confirmed_total"`
	Rank            int64                    `json:"rank"`
	NewAchievements []models.UserAchievement `json:"new_achievements"`
	NewPowers       []models.UserPower       `json:"new_powers"`
	Effects         Effects                  `json:"effects"`
	ActivePowers    []ActivePower            `json:"active_powers"`
}

// ApplyTotal writes the new absolute total and runs the post-write hook:
// clicks- and rank-triggered milestones always, click-speed ones when the
// caller supplies a rate metric. Re-submitting the same total confirms the
// same value and grants nothing new.
func (e *Engine) ApplyTotal(ctx context.Context, userID uint, newTotal int64, clickRate *float64) (*ApplyResult, error) {
	prevTotal, err := e.ledger.GetTotal(userID)
	if err != nil {
		return nil, err
	}
	prevRank, err := e.ledger.Rank(userID)
	if err != nil {
		return nil, err
	}

	confirmed, err := e.ledger.SetTotal(userID, newTotal)
	if err != nil {
		return nil, err
	}

	newRank, err := e.ledger.Rank(userID)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{ConfirmedTotal: confirmed, Rank: newRank}

	// Post-write hook. Evaluation and granting never fail the write that
	// triggered them: anything missed is re-derived on the next flush since
	// granting is idempotent.
	catalog, err := e.ledger.ListAchievements()
	if err != nil {
		return result, nil
	}
	grants, err := e.ledger.ListGrants(userID)
	if err != nil {
		return result, nil
	}
	granted := NewGrantedSet(grants)

	crossed := EvaluateClicks(prevTotal, confirmed, catalog, granted)
	crossed = append(crossed, EvaluateRank(prevRank, newRank, catalog, granted)...)
	if clickRate != nil {
		crossed = append(crossed, EvaluateClickSpeed(*clickRate, catalog, granted)...)
	}

	granting := e.grantor.Grant(userID, crossed)
	result.NewAchievements = granting.Achievements
	result.NewPowers = granting.Powers

	if powers, err := e.ledger.ListUserPowers(userID); err == nil {
		now := e.now()
		result.Effects = ComputeEffects(powers, now)
		result.ActivePowers = SnapshotActive(powers, now)
	}
	return result, nil
}

// SubmitTotal adapts the engine to the aggregator's Submitter contract.
func (e *Engine) SubmitTotal(ctx context.Context, userID uint, newTotal int64) (int64, error) {
	result, err := e.ApplyTotal(ctx, userID, newTotal, nil)
	if err != nil {
		return 0, err
	}
	return result.ConfirmedTotal, nil
}
