// ledger/ledger.go
package ledger

import (
	"time"

	"clickmill/models"
)

// Ledger is the authoritative store of click totals, the reward catalog and
// per-user grants. Exactly one instance is authoritative; everything else in
// the system is a cache of it.
type Ledger interface {
	// GetTotal returns the stored click total for the user.
	GetTotal(userID uint) (int64, error)

	// SetTotal writes a new absolute click total. Atomic; idempotent when
	// called with the current value; a decrease is rejected with
	// ErrValidation. Returns the confirmed total.
	SetTotal(userID uint, newTotal int64) (int64, error)

	// Rank returns the user's leaderboard position derived from the ordered
	// set of click totals (1 = highest total).
	Rank(userID uint) (int64, error)

	// Catalog queries. Definitions are immutable once seeded.
	ListAchievements() ([]models.Achievement, error)
	ListPowers() ([]models.Power, error)
	GetPower(powerID uint) (*models.Power, error)

	// Per-user grant queries.
	ListGrants(userID uint) ([]models.UserAchievement, error)
	ListUserPowers(userID uint) ([]models.UserPower, error)
	GetUserPower(userID, powerID uint) (*models.UserPower, error)

	// InsertGrantIfAbsent creates the grant record unless one already exists
	// for (user, achievement). Returns nil without error on a duplicate.
	InsertGrantIfAbsent(userID, achievementID uint, unlockedAt time.Time) (*models.UserAchievement, error)

	// InsertOrUpdatePower creates the power instance on first grant or
	// applies the patch to the existing row. A patch precondition that no
	// longer holds fails with ErrConflict.
	InsertOrUpdatePower(userID, powerID uint, patch PowerPatch) (*models.UserPower, error)

	// MarkNotified flips the notified flag on an unlocked achievement.
	// Returns false if the grant does not exist or was already notified.
	MarkNotified(userID, achievementID uint) (bool, error)
}

// PowerPatch is a partial update of a power instance. Nil fields are left
// unchanged; the Set* flags distinguish "write nil" from "leave alone" for
// the nullable columns.
type PowerPatch struct {
	Level            *int
	IsActive         *bool
	UpgradeConfirmed *bool

	SetExpiresAt bool
	ExpiresAt    *time.Time

	SetUsesLeft bool
	UsesLeft    *int

	// Optimistic preconditions: when non-nil the patch applies only if the
	// stored row still matches. Used to guard read-validate-write
	// transitions without a global lock.
	IfLevel  *int
	IfActive *bool
}

// Empty reports whether the patch changes nothing.
func (p PowerPatch) Empty() bool {
	return p.Level == nil && p.IsActive == nil && p.UpgradeConfirmed == nil &&
		!p.SetExpiresAt && !p.SetUsesLeft
}
