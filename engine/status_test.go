package engine_test

import (
	"testing"
	"time"

	"github.com/credtrack/cpd-engine/engine"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func intp(v int) *int { return &v }

func datep(y int, m time.Month, d int) *engine.Date {
	dt := engine.NewDate(y, m, d)
	return &dt
}

// cpaCredential is the reference credential used across scenarios:
// issued 2020-01-01, expires 2026-06-01, 120 hours required.
func cpaCredential(earned float64) engine.Credential {
	return engine.Credential{
		ID:             "cred-cpa",
		UserID:         "user-1",
		Name:           "Certified Public Accountant",
		IssuingOrg:     "AICPA",
		IssueDate:      engine.NewDate(2020, time.January, 1),
		ExpirationDate: datep(2026, time.June, 1),
		RequiredHours:  intp(120),
		AnnualMinimum:  intp(40),
		HoursEarned:    engine.HoursFromFloat(earned),
	}
}

// =============================================================================
// ACTIVE / EXPIRED
// =============================================================================

func TestIsActive_NoExpiration_AlwaysActive(t *testing.T) {
	// GIVEN: A credential with no expiration date
	// WHEN: Checking active state far in the future
	// THEN: Always active

	c := engine.Credential{
		IssueDate: engine.NewDate(2000, time.January, 1),
	}
	if !engine.IsActive(c, engine.NewDate(2099, time.December, 31)) {
		t.Error("credential without expiration must always be active")
	}
}

func TestIsActive_ExpirationDay_StillActive(t *testing.T) {
	// daysLeft == 0 counts as active; it lapses the day after.
	c := cpaCredential(0)
	if !engine.IsActive(c, engine.NewDate(2026, time.June, 1)) {
		t.Error("credential must be active on its expiration day")
	}
	if engine.IsActive(c, engine.NewDate(2026, time.June, 2)) {
		t.Error("credential must be expired the day after expiration")
	}
}

// =============================================================================
// SMART STATUS
// =============================================================================

func TestSmartStatus_ScenarioA_PaceBased(t *testing.T) {
	// GIVEN: CPA credential, today 2024-01-15 (868 days left, >= 90)
	// WHEN: Classifying with decent progress
	// THEN: Not Urgent; pace decides between On Track and Needs Attention

	today := engine.NewDate(2024, time.January, 15)

	// 100/120 earned: ahead of expected progress.
	got := engine.SmartStatus(cpaCredential(100), today)
	if got == nil || *got != engine.StatusOnTrack {
		t.Errorf("expected on_track, got %v", got)
	}

	// 0/120 earned: behind expected progress, but not inside the
	// 90-day urgent window.
	got = engine.SmartStatus(cpaCredential(0), today)
	if got == nil || *got != engine.StatusNeedsAttention {
		t.Errorf("expected needs_attention, got %v", got)
	}
}

func TestSmartStatus_ScenarioB_Urgent(t *testing.T) {
	// GIVEN: CPA credential, 0 hours earned, today 2026-03-15
	//        (78 days left, 0% < 50%)
	// WHEN: Classifying
	// THEN: Urgent

	today := engine.NewDate(2026, time.March, 15)

	got := engine.SmartStatus(cpaCredential(0), today)
	if got == nil || *got != engine.StatusUrgent {
		t.Errorf("expected urgent, got %v", got)
	}
}

func TestSmartStatus_Complete(t *testing.T) {
	today := engine.NewDate(2024, time.January, 15)

	got := engine.SmartStatus(cpaCredential(120), today)
	if got == nil || *got != engine.StatusComplete {
		t.Errorf("expected complete, got %v", got)
	}

	// Over-earning is still complete.
	got = engine.SmartStatus(cpaCredential(150), today)
	if got == nil || *got != engine.StatusComplete {
		t.Errorf("expected complete for over-earned, got %v", got)
	}
}

func TestSmartStatus_NilWhenNotComputable(t *testing.T) {
	today := engine.NewDate(2024, time.January, 15)

	// No expiration date.
	noExp := cpaCredential(50)
	noExp.ExpirationDate = nil
	if got := engine.SmartStatus(noExp, today); got != nil {
		t.Errorf("expected nil status without expiration, got %v", *got)
	}

	// No required hours.
	noReq := cpaCredential(50)
	noReq.RequiredHours = nil
	if got := engine.SmartStatus(noReq, today); got != nil {
		t.Errorf("expected nil status without required hours, got %v", *got)
	}

	// Expired.
	if got := engine.SmartStatus(cpaCredential(50), engine.NewDate(2027, time.January, 1)); got != nil {
		t.Errorf("expected nil status for expired credential, got %v", *got)
	}
}

// =============================================================================
// URGENCY RANK
// =============================================================================

func TestUrgency_ScenarioA_NotAutoUrgent(t *testing.T) {
	// GIVEN: 868 days left (>= 90), so the urgent window does not apply
	// WHEN: Ranking with zero progress
	// THEN: Rank 2 (pace shortfall), never rank 1

	today := engine.NewDate(2024, time.January, 15)

	if got := engine.Urgency(cpaCredential(0), today); got != engine.RankNeedsAttention {
		t.Errorf("expected rank 2, got %d", got)
	}
	if got := engine.Urgency(cpaCredential(100), today); got != engine.RankOnTrack {
		t.Errorf("expected rank 3 with healthy pace, got %d", got)
	}
}

func TestUrgency_ScenarioB_Urgent(t *testing.T) {
	// GIVEN: 78 days left and 0% of 120 hours
	// WHEN: Ranking
	// THEN: Rank 1

	today := engine.NewDate(2026, time.March, 15)
	if got := engine.Urgency(cpaCredential(0), today); got != engine.RankUrgent {
		t.Errorf("expected rank 1, got %d", got)
	}
}

func TestUrgency_Expired_LowestPriority(t *testing.T) {
	today := engine.NewDate(2027, time.January, 1)
	if got := engine.Urgency(cpaCredential(0), today); got != engine.RankExpired {
		t.Errorf("expected rank 4 for expired, got %d", got)
	}
}

func TestUrgency_NoRequirement_OnTrack(t *testing.T) {
	today := engine.NewDate(2024, time.January, 15)

	c := cpaCredential(0)
	c.RequiredHours = nil
	if got := engine.Urgency(c, today); got != engine.RankOnTrack {
		t.Errorf("expected rank 3 without a requirement, got %d", got)
	}

	// No deadline to pace against either.
	c = cpaCredential(0)
	c.ExpirationDate = nil
	if got := engine.Urgency(c, today); got != engine.RankOnTrack {
		t.Errorf("expected rank 3 without an expiration, got %d", got)
	}
}

func TestUrgency_CompletedRequirement_OnTrack(t *testing.T) {
	// Inside the urgent window but fully earned: no remaining pace needed.
	today := engine.NewDate(2026, time.March, 15)
	if got := engine.Urgency(cpaCredential(120), today); got != engine.RankOnTrack {
		t.Errorf("expected rank 3 when requirement is met, got %d", got)
	}
}
