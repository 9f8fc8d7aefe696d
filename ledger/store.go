// ledger/store.go - GORM-backed Ledger implementation
package ledger

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clickmill/models"
)

// Store implements Ledger on top of a GORM database handle.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetTotal(userID uint) (int64, error) {
	var user models.User
	if err := s.db.Select("id", "click_total").First(&user, userID).Error; err != nil {
		return 0, wrap(err)
	}
	return user.ClickTotal, nil
}

func (s *Store) SetTotal(userID uint, newTotal int64) (int64, error) {
	if newTotal < 0 {
		return 0, fmt.Errorf("%w: negative click total %d", ErrValidation, newTotal)
	}

	// Single conditioned update: succeeds only while the write is
	// non-decreasing, which also makes re-submitting the same total a no-op
	// that still confirms.
	res := s.db.Model(&models.User{}).
		Where("id = ? AND click_total <= ?", userID, newTotal).
		Update("click_total", newTotal)
	if res.Error != nil {
		return 0, wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.GetTotal(userID)
		if err != nil {
			return 0, err
		}
		return current, fmt.Errorf("%w: click total may not decrease (%d -> %d)", ErrValidation, current, newTotal)
	}
	return newTotal, nil
}

func (s *Store) Rank(userID uint) (int64, error) {
	total, err := s.GetTotal(userID)
	if err != nil {
		return 0, err
	}

	var rank int64
	if err := s.db.Raw(
		"SELECT COUNT(*) + 1 FROM users WHERE is_guest = ? AND click_total > ?",
		false, total,
	).Scan(&rank).Error; err != nil {
		return 0, wrap(err)
	}
	return rank, nil
}

func (s *Store) ListAchievements() ([]models.Achievement, error) {
	var defs []models.Achievement
	if err := s.db.Order("threshold ASC").Find(&defs).Error; err != nil {
		return nil, wrap(err)
	}
	return defs, nil
}

func (s *Store) ListPowers() ([]models.Power, error) {
	var powers []models.Power
	if err := s.db.Order("id ASC").Find(&powers).Error; err != nil {
		return nil, wrap(err)
	}
	return powers, nil
}

func (s *Store) GetPower(powerID uint) (*models.Power, error) {
	var power models.Power
	if err := s.db.First(&power, powerID).Error; err != nil {
		return nil, wrap(err)
	}
	return &power, nil
}

func (s *Store) ListGrants(userID uint) ([]models.UserAchievement, error) {
	var grants []models.UserAchievement
	if err := s.db.Preload("Achievement").
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&grants).Error; err != nil {
		return nil, wrap(err)
	}
	return grants, nil
}

func (s *Store) ListUserPowers(userID uint) ([]models.UserPower, error) {
	var powers []models.UserPower
	if err := s.db.Preload("Power").
		Where("user_id = ?", userID).
		Order("acquired_at DESC").
		Find(&powers).Error; err != nil {
		return nil, wrap(err)
	}
	return powers, nil
}

func (s *Store) GetUserPower(userID, powerID uint) (*models.UserPower, error) {
	var up models.UserPower
	if err := s.db.Preload("Power").
		Where("user_id = ? AND power_id = ?", userID, powerID).
		First(&up).Error; err != nil {
		return nil, wrap(err)
	}
	return &up, nil
}

func (s *Store) InsertGrantIfAbsent(userID, achievementID uint, unlockedAt time.Time) (*models.UserAchievement, error) {
	grant := models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    unlockedAt,
		Notified:      false,
	}

	// The (user_id, achievement_id) unique index makes the insert the
	// at-most-one-grant check; no read-then-write race.
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
	if res.Error != nil {
		return nil, wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil // already granted
	}
	return &grant, nil
}

func (s *Store) InsertOrUpdatePower(userID, powerID uint, patch PowerPatch) (*models.UserPower, error) {
	var existing models.UserPower
	err := s.db.Where("user_id = ? AND power_id = ?", userID, powerID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.insertPower(userID, powerID, patch)
	}
	if err != nil {
		return nil, wrap(err)
	}

	if patch.Empty() {
		return s.GetUserPower(userID, powerID)
	}

	updates := map[string]interface{}{}
	if patch.Level != nil {
		updates["level"] = *patch.Level
	}
	if patch.IsActive != nil {
		updates["is_active"] = *patch.IsActive
	}
	if patch.UpgradeConfirmed != nil {
		updates["upgrade_confirmed"] = *patch.UpgradeConfirmed
	}
	if patch.SetExpiresAt {
		updates["expires_at"] = patch.ExpiresAt
	}
	if patch.SetUsesLeft {
		updates["uses_left"] = patch.UsesLeft
	}

	q := s.db.Model(&models.UserPower{}).Where("id = ?", existing.ID)
	if patch.IfLevel != nil {
		q = q.Where("level = ?", *patch.IfLevel)
	}
	if patch.IfActive != nil {
		q = q.Where("is_active = ?", *patch.IfActive)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return nil, wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: power %d precondition no longer holds", ErrConflict, powerID)
	}
	return s.GetUserPower(userID, powerID)
}

func (s *Store) insertPower(userID, powerID uint, patch PowerPatch) (*models.UserPower, error) {
	up := models.UserPower{
		UserID:     userID,
		PowerID:    powerID,
		Level:      1,
		AcquiredAt: time.Now().UTC(),
	}
	if patch.Level != nil {
		up.Level = *patch.Level
	}
	if patch.IsActive != nil {
		up.IsActive = *patch.IsActive
	}
	if patch.SetExpiresAt {
		up.ExpiresAt = patch.ExpiresAt
	}
	if patch.SetUsesLeft {
		up.UsesLeft = patch.UsesLeft
	}

	// Concurrent first grants for the same pair collapse on the unique
	// index; losing writers fall through to the stored row.
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&up)
	if res.Error != nil {
		return nil, wrap(res.Error)
	}
	return s.GetUserPower(userID, powerID)
}

func (s *Store) MarkNotified(userID, achievementID uint) (bool, error) {
	res := s.db.Model(&models.UserAchievement{}).
		Where("user_id = ? AND achievement_id = ? AND notified = ?", userID, achievementID, false).
		Update("notified", true)
	if res.Error != nil {
		return false, wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// wrap maps driver errors onto the ledger taxonomy.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
