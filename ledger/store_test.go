package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clickmill/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Power{},
		&models.UserPower{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewStore(db)
}

func createUser(t *testing.T, s *Store, username string, total int64, guest bool) models.User {
	t.Helper()
	user := models.User{Username: username, Password: "x", ClickTotal: total, IsGuest: guest}
	if err := s.db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createAchievement(t *testing.T, s *Store, name string, threshold float64) models.Achievement {
	t.Helper()
	def := models.Achievement{Name: name, TriggerType: models.TriggerClicks, Threshold: threshold, RewardType: models.RewardNone}
	if err := s.db.Create(&def).Error; err != nil {
		t.Fatalf("create achievement: %v", err)
	}
	return def
}

func createPower(t *testing.T, s *Store, name string, maxLevel int) models.Power {
	t.Helper()
	power := models.Power{Name: name, EffectType: models.EffectMultiplier, EffectValue: 2, MaxLevel: maxLevel, Category: models.CategoryBuff}
	if err := s.db.Create(&power).Error; err != nil {
		t.Fatalf("create power: %v", err)
	}
	return power
}

func TestStore_SetTotalIsMonotone(t *testing.T) {
	s := testStore(t)
	user := createUser(t, s, "alice", 100, false)

	confirmed, err := s.SetTotal(user.ID, 250)
	if err != nil {
		t.Fatalf("increase: %v", err)
	}
	if confirmed != 250 {
		t.Fatalf("confirmed = %d, want 250", confirmed)
	}

	// Same value again confirms without changing anything.
	confirmed, err = s.SetTotal(user.ID, 250)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if confirmed != 250 {
		t.Fatalf("replay confirmed = %d, want 250", confirmed)
	}

	// A decrease is rejected, reporting the stored value.
	confirmed, err = s.SetTotal(user.ID, 200)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("decrease must fail validation, got %v", err)
	}
	if confirmed != 250 {
		t.Fatalf("rejected write must report the stored 250, got %d", confirmed)
	}

	if _, err := s.SetTotal(user.ID, -1); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative total must fail validation, got %v", err)
	}
}

func TestStore_GetTotalMissingUser(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetTotal(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user must map to ErrNotFound, got %v", err)
	}
}

func TestStore_RankSkipsGuests(t *testing.T) {
	s := testStore(t)
	alice := createUser(t, s, "alice", 100, false)
	createUser(t, s, "bob", 500, false)
	createUser(t, s, "guest", 900, true)

	rank, err := s.Rank(alice.ID)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if rank != 2 {
		t.Fatalf("rank = %d, want 2; the higher guest total must not count", rank)
	}
}

func TestStore_InsertGrantIfAbsent(t *testing.T) {
	s := testStore(t)
	user := createUser(t, s, "alice", 0, false)
	def := createAchievement(t, s, "First Hundred", 100)

	now := time.Now().UTC()
	grant, err := s.InsertGrantIfAbsent(user.ID, def.ID, now)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if grant == nil || grant.Notified {
		t.Fatalf("first insert must return an unnotified grant, got %+v", grant)
	}

	dup, err := s.InsertGrantIfAbsent(user.ID, def.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if dup != nil {
		t.Fatalf("duplicate insert must come back nil, got %+v", dup)
	}

	grants, err := s.ListGrants(user.ID)
	if err != nil {
		t.Fatalf("ListGrants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("stored grants = %d, want 1", len(grants))
	}
	if grants[0].Achievement.Name != "First Hundred" {
		t.Fatalf("grant must preload its definition, got %+v", grants[0].Achievement)
	}
}

func TestStore_InsertOrUpdatePowerPreconditions(t *testing.T) {
	s := testStore(t)
	user := createUser(t, s, "alice", 0, false)
	power := createPower(t, s, "Click Storm", 3)

	up, err := s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if up.Level != 1 || up.IsActive {
		t.Fatalf("fresh instance = %+v, want inactive level 1", up)
	}

	// Conditioned write with a satisfied precondition.
	active := true
	wasInactive := false
	level := up.Level
	up, err = s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{
		IsActive: &active, IfActive: &wasInactive, IfLevel: &level,
	})
	if err != nil {
		t.Fatalf("conditioned update: %v", err)
	}
	if !up.IsActive {
		t.Fatalf("instance must be active after the update")
	}

	// Same precondition again no longer holds.
	if _, err := s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{
		IsActive: &active, IfActive: &wasInactive,
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale precondition must map to ErrConflict, got %v", err)
	}
}

func TestStore_PowerPatchNullableColumns(t *testing.T) {
	s := testStore(t)
	user := createUser(t, s, "alice", 0, false)
	power := createPower(t, s, "Click Storm", 3)

	expires := time.Now().UTC().Add(time.Minute).Truncate(time.Second)
	uses := 3
	up, err := s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{
		SetExpiresAt: true, ExpiresAt: &expires,
		SetUsesLeft: true, UsesLeft: &uses,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if up.ExpiresAt == nil || up.UsesLeft == nil {
		t.Fatalf("nullable columns not written: %+v", up)
	}

	// A patch that does not set them leaves them alone.
	level := 2
	up, err = s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{Level: &level})
	if err != nil {
		t.Fatalf("level update: %v", err)
	}
	if up.ExpiresAt == nil || up.UsesLeft == nil {
		t.Fatalf("unset patch fields must not clear columns: %+v", up)
	}

	// Clearing is explicit.
	up, err = s.InsertOrUpdatePower(user.ID, power.ID, PowerPatch{SetExpiresAt: true, ExpiresAt: nil})
	if err != nil {
		t.Fatalf("clear expiry: %v", err)
	}
	if up.ExpiresAt != nil {
		t.Fatalf("explicit clear must null the column, got %v", up.ExpiresAt)
	}
}

func TestStore_MarkNotifiedFiresOnce(t *testing.T) {
	s := testStore(t)
	user := createUser(t, s, "alice", 0, false)
	def := createAchievement(t, s, "First Hundred", 100)
	if _, err := s.InsertGrantIfAbsent(user.ID, def.ID, time.Now().UTC()); err != nil {
		t.Fatalf("grant: %v", err)
	}

	first, err := s.MarkNotified(user.ID, def.ID)
	if err != nil {
		t.Fatalf("MarkNotified: %v", err)
	}
	if !first {
		t.Fatalf("first MarkNotified must report true")
	}

	second, err := s.MarkNotified(user.ID, def.ID)
	if err != nil {
		t.Fatalf("second MarkNotified: %v", err)
	}
	if second {
		t.Fatalf("second MarkNotified must report false")
	}
}
