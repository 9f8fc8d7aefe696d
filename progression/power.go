// progression/power.go - power instance lifecycle
package progression

import (
	"errors"
	"time"

	"clickmill/ledger"
)

// Powers drives the lifecycle of granted power instances: activation,
// confirmation-gated leveling and lazy expiry. Every transition is a
// read-validate-write guarded by an optimistic precondition on the stored
// row; a precondition that no longer holds means the transition was already
// invalid and comes back as a plain false.
type Powers struct {
	ledger ledger.Ledger
	now    func() time.Time
}

func NewPowers(l ledger.Ledger) *Powers {
	return &Powers{ledger: l, now: func() time.Time { return time.Now().UTC() }}
}

// Activate turns an inactive, unexpired instance on and burns one use when
// the instance is use-counted. Returns false without error when the
// transition is invalid: unknown power, already active, expired, or no uses
// left.
func (m *Powers) Activate(userID, powerID uint) (bool, error) {
	up, err := m.ledger.GetUserPower(userID, powerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if up.IsActive || up.Expired(&up.Power, m.now()) {
		return false, nil
	}
	if up.UsesLeft != nil && *up.UsesLeft == 0 {
		return false, nil
	}

	active := true
	wasActive := false
	patch := ledger.PowerPatch{
		IsActive: &active,
		IfLevel:  &up.Level,
		IfActive: &wasActive,
	}
	if up.UsesLeft != nil {
		remaining := *up.UsesLeft - 1
		patch.SetUsesLeft = true
		patch.UsesLeft = &remaining
	}

	if _, err := m.ledger.InsertOrUpdatePower(userID, powerID, patch); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Deactivate turns an active instance off. Used by reconciliation repairs
// and explicit user action.
func (m *Powers) Deactivate(userID, powerID uint) (bool, error) {
	up, err := m.ledger.GetUserPower(userID, powerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !up.IsActive {
		return false, nil
	}

	inactive := false
	wasActive := true
	patch := ledger.PowerPatch{IsActive: &inactive, IfActive: &wasActive}
	if _, err := m.ledger.InsertOrUpdatePower(userID, powerID, patch); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Upgrade raises the instance one level. Fails as a plain false when the
// instance is at max level or the definition requires a confirmation that
// has not been given. Expiry is recomputed as now + baseDuration × newLevel;
// reaching max level makes the instance permanent.
func (m *Powers) Upgrade(userID, powerID uint) (bool, error) {
	up, err := m.ledger.GetUserPower(userID, powerID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	power := up.Power
	if up.Level >= power.MaxLevel {
		return false, nil
	}
	if power.RequiresConfirmation && !up.UpgradeConfirmed {
		return false, nil
	}

	newLevel := up.Level + 1
	confirmed := false
	patch := ledger.PowerPatch{
		Level:            &newLevel,
		UpgradeConfirmed: &confirmed,
		IfLevel:          &up.Level,
	}
	if newLevel >= power.MaxLevel {
		// Max level is absorbing: the instance never expires again.
		patch.SetExpiresAt = true
		patch.ExpiresAt = nil
	} else if power.DurationSeconds != nil {
		expires := m.now().Add(time.Duration(*power.DurationSeconds*newLevel) * time.Second)
		patch.SetExpiresAt = true
		patch.ExpiresAt = &expires
	}

	if _, err := m.ledger.InsertOrUpdatePower(userID, powerID, patch); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ConfirmUpgrade arms the next Upgrade call on a confirmation-gated power.
// Returns false when the user holds no such instance.
func (m *Powers) ConfirmUpgrade(userID, powerID uint) (bool, error) {
	if _, err := m.ledger.GetUserPower(userID, powerID); err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	confirmed := true
	if _, err := m.ledger.InsertOrUpdatePower(userID, powerID, ledger.PowerPatch{UpgradeConfirmed: &confirmed}); err != nil {
		return false, err
	}
	return true, nil
}
