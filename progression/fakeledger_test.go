package progression

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"clickmill/ledger"
	"clickmill/models"
)

// fakeLedger is a deterministic in-memory Ledger for exercising the core
// without a database.
type fakeLedger struct {
	mu           sync.Mutex
	totals       map[uint]int64
	achievements []models.Achievement
	powers       map[uint]models.Power
	grants       map[uint]map[uint]models.UserAchievement
	userPowers   map[uint]map[uint]models.UserPower

	setTotalErr error
	nextID      uint
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		totals:     map[uint]int64{},
		powers:     map[uint]models.Power{},
		grants:     map[uint]map[uint]models.UserAchievement{},
		userPowers: map[uint]map[uint]models.UserPower{},
	}
}

func (f *fakeLedger) addUser(id uint, total int64) {
	f.totals[id] = total
}

func (f *fakeLedger) addPower(p models.Power) models.Power {
	f.nextID++
	p.ID = f.nextID
	f.powers[p.ID] = p
	return p
}

func (f *fakeLedger) addAchievement(a models.Achievement) models.Achievement {
	f.nextID++
	a.ID = f.nextID
	if a.RewardType == "" {
		a.RewardType = models.RewardNone
	}
	f.achievements = append(f.achievements, a)
	return a
}

func (f *fakeLedger) GetTotal(userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, ok := f.totals[userID]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	return total, nil
}

func (f *fakeLedger) SetTotal(userID uint, newTotal int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setTotalErr != nil {
		return 0, f.setTotalErr
	}
	current, ok := f.totals[userID]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	if newTotal < current {
		return current, fmt.Errorf("%w: decrease rejected", ledger.ErrValidation)
	}
	f.totals[userID] = newTotal
	return newTotal, nil
}

func (f *fakeLedger) Rank(userID uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total, ok := f.totals[userID]
	if !ok {
		return 0, ledger.ErrNotFound
	}
	var totals []int64
	for _, t := range f.totals {
		totals = append(totals, t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i] > totals[j] })
	for i, t := range totals {
		if t == total {
			return int64(i + 1), nil
		}
	}
	return int64(len(totals)), nil
}

func (f *fakeLedger) ListAchievements() ([]models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Achievement(nil), f.achievements...), nil
}

func (f *fakeLedger) ListPowers() ([]models.Power, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Power
	for _, p := range f.powers {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeLedger) GetPower(powerID uint) (*models.Power, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.powers[powerID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (f *fakeLedger) ListGrants(userID uint) ([]models.UserAchievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserAchievement
	for _, g := range f.grants[userID] {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeLedger) ListUserPowers(userID uint) ([]models.UserPower, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UserPower
	var ids []uint
	for id := range f.userPowers[userID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		up := f.userPowers[userID][id]
		up.Power = f.powers[up.PowerID]
		out = append(out, up)
	}
	return out, nil
}

func (f *fakeLedger) GetUserPower(userID, powerID uint) (*models.UserPower, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	up, ok := f.userPowers[userID][powerID]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	up.Power = f.powers[up.PowerID]
	return &up, nil
}

func (f *fakeLedger) InsertGrantIfAbsent(userID, achievementID uint, unlockedAt time.Time) (*models.UserAchievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grants[userID] == nil {
		f.grants[userID] = map[uint]models.UserAchievement{}
	}
	if _, exists := f.grants[userID][achievementID]; exists {
		return nil, nil
	}
	f.nextID++
	grant := models.UserAchievement{
		ID:            f.nextID,
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    unlockedAt,
	}
	f.grants[userID][achievementID] = grant
	return &grant, nil
}

func (f *fakeLedger) InsertOrUpdatePower(userID, powerID uint, patch ledger.PowerPatch) (*models.UserPower, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userPowers[userID] == nil {
		f.userPowers[userID] = map[uint]models.UserPower{}
	}

	up, exists := f.userPowers[userID][powerID]
	if !exists {
		f.nextID++
		up = models.UserPower{
			ID:         f.nextID,
			UserID:     userID,
			PowerID:    powerID,
			Level:      1,
			AcquiredAt: time.Now().UTC(),
		}
	} else {
		if patch.IfLevel != nil && up.Level != *patch.IfLevel {
			return nil, fmt.Errorf("%w: level moved", ledger.ErrConflict)
		}
		if patch.IfActive != nil && up.IsActive != *patch.IfActive {
			return nil, fmt.Errorf("%w: activity moved", ledger.ErrConflict)
		}
	}

	if patch.Level != nil {
		up.Level = *patch.Level
	}
	if patch.IsActive != nil {
		up.IsActive = *patch.IsActive
	}
	if patch.UpgradeConfirmed != nil {
		up.UpgradeConfirmed = *patch.UpgradeConfirmed
	}
	if patch.SetExpiresAt {
		up.ExpiresAt = patch.ExpiresAt
	}
	if patch.SetUsesLeft {
		up.UsesLeft = patch.UsesLeft
	}

	f.userPowers[userID][powerID] = up
	up.Power = f.powers[powerID]
	return &up, nil
}

func (f *fakeLedger) MarkNotified(userID, achievementID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	grant, ok := f.grants[userID][achievementID]
	if !ok || grant.Notified {
		return false, nil
	}
	grant.Notified = true
	f.grants[userID][achievementID] = grant
	return true, nil
}

var _ ledger.Ledger = (*fakeLedger)(nil)
