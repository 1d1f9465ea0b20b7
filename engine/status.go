/*
status.go - Credential status and urgency classification

PURPOSE:
  Derives presentation-ready state from a credential's dates and hour
  counters. Nothing here is stored: active/expired, the smart status
  label, and the urgency rank are recomputed on every read.

TWO DISTINCT OUTPUTS:
  Smart status: the user-facing label (Complete / Urgent / On Track /
    Needs Attention). Only computed for active credentials that have
    both an expiration date and a required-hours target; nil otherwise.

  Urgency rank: an internal ordering score (lower = more urgent) used
    purely for sorting. Computed independently of the label, and defined
    for every credential including expired ones.

THRESHOLDS:
  The 90-day window, 50% progress floor, and 1.2x pace slack are
  heuristic early-warning bands. Changing them shifts when warnings
  fire but must preserve the ordering Urgent < Needs Attention <
  On Track < Expired.

SEE ALSO:
  - pace.go: The pace numbers shown next to these labels
  - sort.go: Ordering built on the urgency rank
*/
package engine

// =============================================================================
// CLASSIFICATION THRESHOLDS
// =============================================================================

const (
	// UrgentWindowDays: within this many days of expiration, low
	// progress escalates straight to Urgent.
	UrgentWindowDays = 90

	// UrgentProgressFloor: the fraction of required hours below which a
	// credential inside the urgent window is Urgent.
	UrgentProgressFloor = 0.5

	// PaceSlackFactor: needed pace may exceed current pace by this
	// factor before a credential is flagged Needs Attention.
	PaceSlackFactor = 1.2

	// minMonths guards the pace divisions against zero or near-zero
	// elapsed/remaining time.
	minMonths = 0.01
)

// =============================================================================
// ACTIVE / EXPIRED
// =============================================================================

// IsActive reports whether the credential is still in force. A
// credential with no expiration date is always active.
func IsActive(c Credential, today Date) bool {
	left := DaysLeft(c.ExpirationDate, today)
	return left == nil || *left >= 0
}

// =============================================================================
// SMART STATUS - User-facing label
// =============================================================================

type Status string

const (
	StatusComplete       Status = "complete"
	StatusUrgent         Status = "urgent"
	StatusOnTrack        Status = "on_track"
	StatusNeedsAttention Status = "needs_attention"
)

// Tone returns the display tone for the status indicator.
func (s Status) Tone() string {
	switch s {
	case StatusComplete, StatusOnTrack:
		return "green"
	case StatusNeedsAttention:
		return "yellow"
	case StatusUrgent:
		return "red"
	default:
		return ""
	}
}

// SmartStatus computes the user-facing label, or nil when it does not
// apply: expired credentials, and credentials missing an expiration
// date or a required-hours target.
func SmartStatus(c Credential, today Date) *Status {
	if !IsActive(c, today) || c.ExpirationDate == nil || c.RequiredHours == nil {
		return nil
	}

	required := float64(*c.RequiredHours)
	earned := c.HoursEarned.Float64()

	status := func(s Status) *Status { return &s }

	if earned >= required {
		return status(StatusComplete)
	}

	left := *DaysLeft(c.ExpirationDate, today)
	actualProgress := earned / required
	if left < UrgentWindowDays && actualProgress < UrgentProgressFloor {
		return status(StatusUrgent)
	}

	expectedProgress := ElapsedFraction(c.IssueDate, *c.ExpirationDate, today)
	if actualProgress >= expectedProgress {
		return status(StatusOnTrack)
	}
	return status(StatusNeedsAttention)
}

// =============================================================================
// URGENCY RANK - Sort score, lower = more urgent
// =============================================================================

type UrgencyRank int

const (
	RankUrgent         UrgencyRank = 1
	RankNeedsAttention UrgencyRank = 2
	RankOnTrack        UrgencyRank = 3
	RankExpired        UrgencyRank = 4
)

// Urgency computes the sort rank for a credential.
//
// Rules, in order:
//  1. Expired: rank 4. Already lapsed; no longer actionable the same way.
//  2. No required-hours target: rank 3.
//  3. Inside the urgent window with progress below the floor: rank 1.
//  4. Otherwise compare needed pace against current pace; needing more
//     than PaceSlackFactor times the current pace (or any pace from a
//     standing start) is rank 2, else rank 3.
//
// Credentials with no expiration date never expire and have no deadline
// to pace against, so they land at rank 3.
func Urgency(c Credential, today Date) UrgencyRank {
	if !IsActive(c, today) {
		return RankExpired
	}
	if c.RequiredHours == nil {
		return RankOnTrack
	}

	left := DaysLeft(c.ExpirationDate, today)
	if left == nil {
		return RankOnTrack
	}

	required := float64(*c.RequiredHours)
	earned := c.HoursEarned.Float64()

	if *left < UrgentWindowDays && (earned/required)*100 < UrgentProgressFloor*100 {
		return RankUrgent
	}

	hoursRemaining := required - earned
	if hoursRemaining < 0 {
		hoursRemaining = 0
	}
	monthsLeft := float64(*left) / DaysPerMonth
	if monthsLeft < minMonths {
		monthsLeft = minMonths
	}
	paceNeeded := hoursRemaining / monthsLeft

	monthsElapsed := float64(DaysBetween(c.IssueDate, today)) / DaysPerMonth
	if monthsElapsed < minMonths {
		monthsElapsed = minMonths
	}
	currentPace := earned / monthsElapsed

	if paceNeeded > 0 && (currentPace == 0 || paceNeeded > currentPace*PaceSlackFactor) {
		return RankNeedsAttention
	}
	return RankOnTrack
}
