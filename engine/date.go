/*
date.go - Calendar date arithmetic at UTC-midnight granularity

PURPOSE:
  All renewal math in this system runs on whole calendar days. A Date is
  always UTC midnight; callers in any timezone get the same day counts.
  This is the foundation every other engine component builds on.

KEY CONCEPTS IN THIS FILE:
  - Date: a calendar day (no time-of-day, no timezone drift)
  - DaysLeft: signed whole days until expiration (nil = never expires)
  - AnnualPeriod: the anniversary-based year a date falls into

NUMERIC SEMANTICS:
  Day counts are always integers; partial days are never produced.
  Months-to-days conversion uses a fixed 30.44 days/month average for
  pace math ONLY - period boundaries use true calendar anniversaries.

SEE ALSO:
  - status.go: Active/expired and urgency classification on top of Date
  - pace.go: Monthly-pace projections using DaysPerMonth
*/
package engine

import (
	"fmt"
	"time"
)

// DaysPerMonth is the fixed average used to convert remaining days into
// months for pace calculations. Period boundaries never use this.
const DaysPerMonth = 30.44

// DateLayout is the wire format for every date crossing the engine
// boundary (storage, HTTP, tests).
const DateLayout = "2006-01-02"

// =============================================================================
// DATE - A calendar day, pinned to UTC midnight
// =============================================================================

type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Today returns the current day at UTC midnight.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.t.After(other.t) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.t.Before(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{t: d.t.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }

func (d Date) String() string { return d.t.Format(DateLayout) }

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// INTERVAL UTILITIES
// =============================================================================

// DaysBetween returns the number of whole days from 'from' to 'to'.
// Negative when 'to' precedes 'from'.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// DaysLeft returns whole days until expiration, or nil when the
// credential never expires. Negative values mean "expired N days ago".
// Both boundaries are UTC midnight, so the difference is exact.
func DaysLeft(expiration *Date, today Date) *int {
	if expiration == nil {
		return nil
	}
	n := DaysBetween(today, *expiration)
	return &n
}

// IsFutureDate reports whether date is strictly after today at
// day granularity.
func IsFutureDate(date, today Date) bool {
	return date.After(today)
}

// =============================================================================
// ANNUAL PERIOD - Anniversary-based year boundaries
// =============================================================================

// AnnualPeriod describes the anniversary year of an issue date that
// 'today' falls into. Used for annual-minimum CPD tracking.
type AnnualPeriod struct {
	Start Date

	// Whole days remaining in the period. 0 means today is the last
	// day; the count resets the day of the next anniversary.
	DaysRemaining int
}

// AnnualPeriodFor finds the most recent anniversary of issueDate on or
// before today. The period runs from that anniversary through the day
// before the next one.
func AnnualPeriodFor(issueDate, today Date) AnnualPeriod {
	yearsElapsed := today.Year() - issueDate.Year()

	start := NewDate(issueDate.Year()+yearsElapsed, issueDate.Month(), issueDate.Day())
	if today.Before(start) {
		yearsElapsed--
		start = NewDate(issueDate.Year()+yearsElapsed, issueDate.Month(), issueDate.Day())
	}

	end := start.AddYears(1).AddDays(-1)
	return AnnualPeriod{
		Start:         start,
		DaysRemaining: DaysBetween(today, end),
	}
}

// =============================================================================
// PROGRESS FRACTIONS
// =============================================================================

// ElapsedFraction returns how far 'today' is through [start, end] as a
// value in [0, 1]. Returns 0 for degenerate intervals.
func ElapsedFraction(start, end, today Date) float64 {
	total := DaysBetween(start, end)
	if total <= 0 {
		return 0
	}
	elapsed := DaysBetween(start, today)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 1
	}
	return float64(elapsed) / float64(total)
}
