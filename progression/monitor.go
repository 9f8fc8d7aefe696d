// progression/monitor.go - cache vs. ledger reconciliation
package progression

import (
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"clickmill/ledger"
)

// CachedPower is the monitor's view of one power instance. Only identity,
// activity and level take part in divergence checks; timestamps are
// deliberately excluded so clock skew never looks like divergence.
type CachedPower struct {
	PowerID uint
	Level   int
	Active  bool
}

// Monitor owns the cached per-user active-power views and repairs
// divergence between them and the ledger in both directions. State is held
// here explicitly rather than in package-level variables so reconciliation
// stays testable in isolation. Repairs are idempotent, so overlapping runs
// for the same user are safe without mutual exclusion.
type Monitor struct {
	ledger ledger.Ledger
	views  *lru.Cache // userID -> []CachedPower
	now    func() time.Time
}

// NewMonitor builds a monitor holding at most size cached user views.
func NewMonitor(l ledger.Ledger, size int) (*Monitor, error) {
	views, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Monitor{
		ledger: l,
		views:  views,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// View returns the cached view for the user, or nil if none is held.
func (m *Monitor) View(userID uint) []CachedPower {
	if v, ok := m.views.Get(userID); ok {
		return v.([]CachedPower)
	}
	return nil
}

// Observe replaces the cached view, e.g. after a client-side activation the
// caller believes happened but has not verified against the ledger.
func (m *Monitor) Observe(userID uint, view []CachedPower) {
	m.views.Add(userID, view)
}

// Reconcile compares the cached view against the ledger and repairs
// divergence. The ledger wins except for one case: a cache-active instance
// the ledger holds inactive but unexpired reflects a real recent activation
// that never became durable, and gets a repair write. Returns the repaired
// view and whether anything changed; a second pass right after is a no-op.
func (m *Monitor) Reconcile(userID uint) ([]CachedPower, bool, error) {
	stored, err := m.ledger.ListUserPowers(userID)
	if err != nil {
		return m.View(userID), false, err
	}

	cached := m.View(userID)
	cachedByID := make(map[uint]CachedPower, len(cached))
	for _, c := range cached {
		cachedByID[c.PowerID] = c
	}

	now := m.now()
	changed := false
	repaired := make([]CachedPower, 0, len(stored))

	for i := range stored {
		up := &stored[i]
		c, inCache := cachedByID[up.PowerID]
		delete(cachedByID, up.PowerID)

		active := up.IsActive && !up.Expired(&up.Power, now)

		if inCache && c.Active && !up.IsActive && !up.Expired(&up.Power, now) {
			// The cache saw an activation the ledger never recorded. Repair
			// the authoritative side with a plain activity write; best
			// effort, retried next cycle. No use is burned here: the client
			// already spent it on the activation that failed to stick.
			wantActive := true
			wasInactive := false
			_, err := m.ledger.InsertOrUpdatePower(userID, up.PowerID, ledger.PowerPatch{
				IsActive: &wantActive,
				IfActive: &wasInactive,
				IfLevel:  &up.Level,
			})
			if err != nil {
				log.Printf("reconcile repair failed for user %d power %d: %v", userID, up.PowerID, err)
			} else {
				active = true
				changed = true
			}
		}

		if active {
			repaired = append(repaired, CachedPower{PowerID: up.PowerID, Level: up.Level, Active: true})
		}
		if !inCache && active {
			changed = true // ledger had an activation the cache missed
		}
		if inCache && (c.Active != active || c.Level != up.Level) {
			changed = true
		}
	}

	// Anything left in the cache has no ledger row at all: stale, drop it.
	for range cachedByID {
		changed = true
	}

	m.views.Add(userID, repaired)
	return repaired, changed, nil
}
