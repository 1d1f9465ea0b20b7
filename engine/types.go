/*
Package engine provides the core credential-renewal computation engine.

PURPOSE:
  This package contains the pure domain types and algorithms for tracking
  professional certifications against their continuing-education (CPD)
  requirements: status and urgency classification, renewal pace
  projection, collection ordering, and the many-to-many allocation model
  linking learning activities to credentials.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: a CPD hour quantity with two-decimal precision
  - Credential: a tracked certification with its renewal requirements
  - LearningActivity: a completed learning event that can fund credentials
  - CredentialActivityLink: the junction carrying per-credential applied
    hours and submission state

DESIGN PRINCIPLES:
  1. Derived state: HoursEarned is always recomputed from links, never
     independently authored
  2. Precision: Uses decimal.Decimal to avoid floating-point errors in
     hour arithmetic; floats appear only in presentation ratios
  3. Purity: Classification, pace, and sorting are total functions over
     validated records - they never fail, they degrade to nil

SEE ALSO:
  - date.go: Calendar arithmetic these types rely on
  - status.go: Active/expired and urgency classification
  - errors.go: Validation and lookup error taxonomy
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - CPD hour quantity, two-decimal precision
// =============================================================================

type Hours struct {
	d decimal.Decimal
}

func ZeroHours() Hours { return Hours{d: decimal.Zero} }

func HoursFromFloat(v float64) Hours {
	return Hours{d: decimal.NewFromFloat(v).Round(2)}
}

func HoursFromInt(v int) Hours {
	return Hours{d: decimal.NewFromInt(int64(v))}
}

// HoursFromString parses a decimal string ("8", "1.5"). Invalid input
// yields zero hours; validation of user input happens before this.
func HoursFromString(s string) Hours {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroHours()
	}
	return Hours{d: d.Round(2)}
}

func (h Hours) Add(o Hours) Hours      { return Hours{d: h.d.Add(o.d)} }
func (h Hours) Sub(o Hours) Hours      { return Hours{d: h.d.Sub(o.d)} }
func (h Hours) IsZero() bool           { return h.d.IsZero() }
func (h Hours) IsPositive() bool       { return h.d.IsPositive() }
func (h Hours) IsNegative() bool       { return h.d.IsNegative() }
func (h Hours) GreaterThan(o Hours) bool { return h.d.GreaterThan(o.d) }
func (h Hours) LessThan(o Hours) bool    { return h.d.LessThan(o.d) }
func (h Hours) Equal(o Hours) bool       { return h.d.Equal(o.d) }

// Float64 returns the quantity for presentation math (ratios, pace).
func (h Hours) Float64() float64 {
	f, _ := h.d.Float64()
	return f
}

// String renders without trailing zeros ("8", not "8.00").
func (h Hours) String() string { return h.d.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CredentialID string
type ActivityID string
type LinkID string
type UserID string

// =============================================================================
// CREDENTIAL - A tracked certification with renewal requirements
// =============================================================================

type Credential struct {
	ID     CredentialID
	UserID UserID

	Name       string // 2-100 chars
	IssuingOrg string // 2-100 chars
	OrgURL     string // optional, https only

	IssueDate      Date
	ExpirationDate *Date // nil = never expires; strictly after IssueDate

	RequiredHours *int // total CPD hours for the cycle, 1-500
	CycleMonths   *int // renewal cycle length, 1-120
	AnnualMinimum *int // per anniversary-year floor, 0..RequiredHours

	// Derived aggregate: sum of HoursApplied over live links.
	// Never authored directly; see tracker recalculation.
	HoursEarned Hours

	CertificateURL string // optional, https only
}

// =============================================================================
// LEARNING ACTIVITY - A completed learning event
// =============================================================================

type LearningActivity struct {
	// Client-assignable so attachment paths can be computed before the
	// server record exists. Format-checked and uniqueness-checked on save.
	ID     ActivityID
	UserID UserID

	Title    string // required, <=200 chars
	Provider string // required, <=200 chars

	ActivityDate Date  // not in the future
	TotalHours   Hours // 0 < hours <= 500

	Category    string
	Description string

	// Opaque references into the attachment store (out of engine scope).
	Attachments []string
}

// =============================================================================
// CREDENTIAL-ACTIVITY LINK - Junction with applied hours + submission state
// =============================================================================

// CredentialActivityLink connects one activity to one credential. An
// activity may fund several credentials at once, each with its own
// applied hours. The (credential, activity) pair is unique.
type CredentialActivityLink struct {
	ID           LinkID
	CredentialID CredentialID
	ActivityID   ActivityID

	HoursApplied Hours // > 0, <= 500

	// Submission: whether these hours were reported to the issuing org.
	// Date and notes only carry meaning while the flag is true.
	SubmittedToOrg bool
	SubmittedDate  *Date  // >= activity date, <= today when flag is true
	SubmittedNotes string // <= 500 chars, cleared on recall
}

// SumApplied totals HoursApplied over a set of links. This is the
// definition of a credential's HoursEarned aggregate.
func SumApplied(links []CredentialActivityLink) Hours {
	total := ZeroHours()
	for _, l := range links {
		total = total.Add(l.HoursApplied)
	}
	return total
}

// OrgConflicts returns issuing organizations represented more than once
// in a credential selection. The "one credential per issuing body per
// activity" rule is enforced at the presentation layer; this helper
// backs that UI and surfaces advisory warnings server-side.
func OrgConflicts(selected []Credential) []string {
	seen := make(map[string]int)
	for _, c := range selected {
		seen[c.IssuingOrg]++
	}
	var conflicts []string
	for _, c := range selected {
		if seen[c.IssuingOrg] > 1 {
			seen[c.IssuingOrg] = -1 // report each org once
			conflicts = append(conflicts, c.IssuingOrg)
		}
	}
	return conflicts
}
