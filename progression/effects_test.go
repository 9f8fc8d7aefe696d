package progression

import (
	"math"
	"testing"
	"time"

	"clickmill/models"
)

func instancesForEffects(now time.Time) []models.UserPower {
	duration := 60
	future := now.Add(30 * time.Second)
	past := now.Add(-time.Second)

	storm := models.Power{Name: "Click Storm", EffectType: models.EffectMultiplier, EffectValue: 2, DurationSeconds: &duration, MaxLevel: 3}
	idle := models.Power{Name: "Idle Hands", EffectType: models.EffectAutoClick, EffectValue: 1.5, DurationSeconds: &duration, MaxLevel: 5}
	golden := models.Power{Name: "Golden Finger", EffectType: models.EffectPermanent, EffectValue: 1.1, MaxLevel: 1}
	lapsed := models.Power{Name: "Overdrive", EffectType: models.EffectMultiplier, EffectValue: 3, DurationSeconds: &duration, MaxLevel: 2}

	return []models.UserPower{
		{PowerID: 1, Power: storm, Level: 2, IsActive: true, ExpiresAt: &future},
		{PowerID: 2, Power: idle, Level: 2, IsActive: true, ExpiresAt: &future},
		{PowerID: 3, Power: golden, Level: 1, IsActive: true},
		{PowerID: 4, Power: lapsed, Level: 1, IsActive: true, ExpiresAt: &past}, // lazily expired
		{PowerID: 5, Power: storm, Level: 1, IsActive: false, ExpiresAt: &future},
	}
}

func TestComputeEffects_CombinesActiveInstances(t *testing.T) {
	now := time.Now().UTC()
	effects := ComputeEffects(instancesForEffects(now), now)

	// Storm at level 2 contributes 4x, the permanent finger 1.1x; the
	// expired and inactive instances contribute nothing.
	wantMultiplier := 4.0 * 1.1
	if math.Abs(effects.Multiplier-wantMultiplier) > 1e-9 {
		t.Fatalf("multiplier = %v, want %v", effects.Multiplier, wantMultiplier)
	}
	if math.Abs(effects.AutoClickRate-3.0) > 1e-9 {
		t.Fatalf("auto-click rate = %v, want 3.0", effects.AutoClickRate)
	}
}

func TestComputeEffects_EmptyIsIdentity(t *testing.T) {
	effects := ComputeEffects(nil, time.Now().UTC())
	if effects.Multiplier != 1 || effects.AutoClickRate != 0 {
		t.Fatalf("empty effects = %+v, want multiplier 1 and rate 0", effects)
	}
}

func TestSnapshotActive(t *testing.T) {
	now := time.Now().UTC()
	snapshot := SnapshotActive(instancesForEffects(now), now)

	if len(snapshot) != 3 {
		t.Fatalf("snapshot has %d entries, want 3", len(snapshot))
	}

	byID := map[uint]ActivePower{}
	for _, entry := range snapshot {
		byID[entry.PowerID] = entry
	}

	storm := byID[1]
	if storm.Level != 2 || storm.EffectValue != 4 {
		t.Fatalf("storm snapshot = %+v, want level 2 value 4", storm)
	}
	if storm.RemainingSeconds == nil || *storm.RemainingSeconds > 30 || *storm.RemainingSeconds < 29 {
		t.Fatalf("storm remaining = %v, want ~30s", storm.RemainingSeconds)
	}

	if golden := byID[3]; golden.RemainingSeconds != nil {
		t.Fatalf("permanent power must report no countdown, got %v", golden.RemainingSeconds)
	}
}
