package engine_test

import (
	"testing"

	"github.com/credtrack/cpd-engine/engine"
)

func TestSumApplied_ExactDecimalSum(t *testing.T) {
	// GIVEN: Links with fractional hours that would drift under float math
	// WHEN: Summing
	// THEN: Exact two-decimal total

	links := []engine.CredentialActivityLink{
		{HoursApplied: engine.HoursFromString("0.1")},
		{HoursApplied: engine.HoursFromString("0.2")},
		{HoursApplied: engine.HoursFromString("1.25")},
	}

	got := engine.SumApplied(links)
	if got.String() != "1.55" {
		t.Errorf("expected 1.55, got %s", got)
	}
}

func TestSumApplied_Empty_Zero(t *testing.T) {
	if got := engine.SumApplied(nil); !got.IsZero() {
		t.Errorf("expected zero for no links, got %s", got)
	}
}

func TestHours_StringKeepsIntegers(t *testing.T) {
	// "120" must stay 120, not become "120.0".
	if got := engine.HoursFromString("120").String(); got != "120" {
		t.Errorf("expected 120, got %s", got)
	}
	if got := engine.HoursFromFloat(8).String(); got != "8" {
		t.Errorf("expected 8, got %s", got)
	}
}

func TestOrgConflicts(t *testing.T) {
	creds := []engine.Credential{
		{ID: "a", IssuingOrg: "AICPA"},
		{ID: "b", IssuingOrg: "ISC2"},
		{ID: "c", IssuingOrg: "AICPA"},
	}

	conflicts := engine.OrgConflicts(creds)
	if len(conflicts) != 1 || conflicts[0] != "AICPA" {
		t.Errorf("expected [AICPA], got %v", conflicts)
	}

	if got := engine.OrgConflicts(creds[:2]); got != nil {
		t.Errorf("expected no conflicts, got %v", got)
	}
}
