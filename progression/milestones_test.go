package progression

import (
	"testing"

	"clickmill/models"
)

func clickCatalog(thresholds ...float64) []models.Achievement {
	catalog := make([]models.Achievement, 0, len(thresholds))
	for i, th := range thresholds {
		catalog = append(catalog, models.Achievement{
			ID:          uint(i + 1),
			TriggerType: models.TriggerClicks,
			Threshold:   th,
		})
	}
	return catalog
}

func TestEvaluateClicks_AllIntermediateThresholdsCrossed(t *testing.T) {
	catalog := clickCatalog(100, 250, 500)

	crossed := EvaluateClicks(90, 600, catalog, GrantedSet{})
	if len(crossed) != 3 {
		t.Fatalf("expected 3 crossed thresholds, got %d", len(crossed))
	}
}

func TestEvaluateClicks_BoundaryInclusiveUpperEnd(t *testing.T) {
	catalog := clickCatalog(100)

	if crossed := EvaluateClicks(99, 100, catalog, GrantedSet{}); len(crossed) != 1 {
		t.Fatalf("landing exactly on the threshold must count, got %d", len(crossed))
	}
	if crossed := EvaluateClicks(100, 150, catalog, GrantedSet{}); len(crossed) != 0 {
		t.Fatalf("threshold already passed must not re-cross, got %d", len(crossed))
	}
}

func TestEvaluateClicks_IdempotentAgainstGrantedSet(t *testing.T) {
	catalog := clickCatalog(100, 250, 500)

	first := EvaluateClicks(90, 600, catalog, GrantedSet{})
	granted := GrantedSet{}
	for _, def := range first {
		granted[def.ID] = true
	}

	second := EvaluateClicks(90, 600, catalog, granted)
	if len(second) != 0 {
		t.Fatalf("re-evaluation of the same pair must grant nothing, got %d", len(second))
	}
}

func TestEvaluateClicks_NoMovementNoGrant(t *testing.T) {
	catalog := clickCatalog(100)
	if crossed := EvaluateClicks(150, 150, catalog, GrantedSet{}); len(crossed) != 0 {
		t.Fatalf("unchanged total must cross nothing, got %d", len(crossed))
	}
}

func TestEvaluateRank_CrossesDownward(t *testing.T) {
	catalog := []models.Achievement{
		{ID: 1, TriggerType: models.TriggerRank, Threshold: 10},
		{ID: 2, TriggerType: models.TriggerRank, Threshold: 100},
	}

	crossed := EvaluateRank(150, 8, catalog, GrantedSet{})
	if len(crossed) != 2 {
		t.Fatalf("expected both rank milestones crossed, got %d", len(crossed))
	}

	// Rank getting worse never crosses.
	if crossed := EvaluateRank(8, 150, catalog, GrantedSet{}); len(crossed) != 0 {
		t.Fatalf("worsening rank must cross nothing, got %d", len(crossed))
	}
}

func TestEvaluateRank_ReachingThresholdExactly(t *testing.T) {
	catalog := []models.Achievement{{ID: 1, TriggerType: models.TriggerRank, Threshold: 10}}

	if crossed := EvaluateRank(11, 10, catalog, GrantedSet{}); len(crossed) != 1 {
		t.Fatalf("reaching the threshold rank must count, got %d", len(crossed))
	}
	if crossed := EvaluateRank(10, 9, catalog, GrantedSet{}); len(crossed) != 0 {
		t.Fatalf("already at threshold, improving further must not re-cross, got %d", len(crossed))
	}
}

func TestEvaluateClickSpeed_UsesGrantedSetForIdempotence(t *testing.T) {
	catalog := []models.Achievement{
		{ID: 1, TriggerType: models.TriggerClickSpeed, Threshold: 5},
		{ID: 2, TriggerType: models.TriggerClickSpeed, Threshold: 10},
	}

	crossed := EvaluateClickSpeed(7.5, catalog, GrantedSet{})
	if len(crossed) != 1 || crossed[0].ID != 1 {
		t.Fatalf("expected only the 5cps milestone, got %v", crossed)
	}

	if again := EvaluateClickSpeed(7.5, catalog, GrantedSet{1: true}); len(again) != 0 {
		t.Fatalf("granted milestone must not re-cross, got %d", len(again))
	}
}

func TestEvaluate_IgnoresOtherTriggerTypes(t *testing.T) {
	catalog := []models.Achievement{
		{ID: 1, TriggerType: models.TriggerRank, Threshold: 100},
		{ID: 2, TriggerType: models.TriggerClickSpeed, Threshold: 100},
	}
	if crossed := EvaluateClicks(0, 1000, catalog, GrantedSet{}); len(crossed) != 0 {
		t.Fatalf("click evaluation must skip rank and speed triggers, got %d", len(crossed))
	}
}
