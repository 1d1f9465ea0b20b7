/*
pace.go - Monthly learning-pace projection

PURPOSE:
  Answers "how many hours per month do I need to log to finish on time,
  and how fast am I actually going?". These are presentation numbers
  only; no write operation is gated on them.

SEE ALSO:
  - status.go: Uses the same pace comparison for the urgency rank
  - date.go: DaysPerMonth conversion constant
*/
package engine

// Pace holds the projection for one credential. Pointer fields are nil
// when the projection does not apply (no deadline, nothing left to do).
type Pace struct {
	// Hours per month needed to reach the requirement by expiration.
	// Nil when there is no remaining time or no remaining hours.
	NeededPerMonth *float64

	// Actual hours per month since issuance.
	CurrentPerMonth float64

	// Remaining hours toward the requirement (never negative).
	HoursRemaining float64

	// Months until expiration at 30.44 days/month. Nil without an
	// expiration date.
	MonthsRemaining *float64
}

// Project computes the pace numbers for a credential. Total over any
// well-formed record: missing optional fields degrade to nil, never
// to an error.
func Project(c Credential, today Date) Pace {
	p := Pace{}

	earned := c.HoursEarned.Float64()

	monthsElapsed := float64(DaysBetween(c.IssueDate, today)) / DaysPerMonth
	if monthsElapsed < minMonths {
		monthsElapsed = minMonths
	}
	p.CurrentPerMonth = earned / monthsElapsed

	if c.RequiredHours != nil {
		p.HoursRemaining = float64(*c.RequiredHours) - earned
		if p.HoursRemaining < 0 {
			p.HoursRemaining = 0
		}
	}

	left := DaysLeft(c.ExpirationDate, today)
	if left == nil {
		return p
	}
	months := float64(*left) / DaysPerMonth
	p.MonthsRemaining = &months

	if months <= 0 || p.HoursRemaining <= 0 {
		return p // nothing left to pace against
	}
	needed := p.HoursRemaining / months
	p.NeededPerMonth = &needed
	return p
}
