package engine_test

import (
	"math"
	"testing"
	"time"

	"github.com/credtrack/cpd-engine/engine"
)

func TestProject_NeededPace(t *testing.T) {
	// GIVEN: 120 required, 60 earned, 868 days (28.52 months) left
	// WHEN: Projecting
	// THEN: Needed pace is 60 / 28.52 ~= 2.10 hours/month

	today := engine.NewDate(2024, time.January, 15)
	p := engine.Project(cpaCredential(60), today)

	if p.NeededPerMonth == nil {
		t.Fatal("expected a needed pace")
	}
	want := 60.0 / (868.0 / engine.DaysPerMonth)
	if math.Abs(*p.NeededPerMonth-want) > 0.001 {
		t.Errorf("expected needed pace %.3f, got %.3f", want, *p.NeededPerMonth)
	}
	if p.HoursRemaining != 60 {
		t.Errorf("expected 60 hours remaining, got %.2f", p.HoursRemaining)
	}
}

func TestProject_CurrentPace(t *testing.T) {
	// 60 hours over ~48.46 elapsed months since 2020-01-01.
	today := engine.NewDate(2024, time.January, 15)
	p := engine.Project(cpaCredential(60), today)

	want := 60.0 / (1475.0 / engine.DaysPerMonth)
	if math.Abs(p.CurrentPerMonth-want) > 0.001 {
		t.Errorf("expected current pace %.3f, got %.3f", want, p.CurrentPerMonth)
	}
}

func TestProject_NoPaceWhenComplete(t *testing.T) {
	// GIVEN: Requirement already met
	// WHEN: Projecting
	// THEN: No needed pace (nothing left to do), current pace still shown

	today := engine.NewDate(2024, time.January, 15)
	p := engine.Project(cpaCredential(120), today)

	if p.NeededPerMonth != nil {
		t.Errorf("expected nil needed pace when complete, got %.3f", *p.NeededPerMonth)
	}
	if p.CurrentPerMonth <= 0 {
		t.Error("expected positive current pace")
	}
}

func TestProject_NoPaceWithoutDeadline(t *testing.T) {
	today := engine.NewDate(2024, time.January, 15)

	c := cpaCredential(30)
	c.ExpirationDate = nil
	p := engine.Project(c, today)

	if p.NeededPerMonth != nil || p.MonthsRemaining != nil {
		t.Error("expected nil pace fields without an expiration date")
	}
	if p.HoursRemaining != 90 {
		t.Errorf("expected 90 hours remaining, got %.2f", p.HoursRemaining)
	}
}

func TestProject_ExpiredCredential_NoNeededPace(t *testing.T) {
	// Negative months remaining: the cycle is over, pace is meaningless.
	today := engine.NewDate(2027, time.January, 1)
	p := engine.Project(cpaCredential(30), today)

	if p.NeededPerMonth != nil {
		t.Errorf("expected nil needed pace after expiration, got %.3f", *p.NeededPerMonth)
	}
}
