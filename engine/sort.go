/*
sort.go - Credential collection ordering and filtering

PURPOSE:
  Orders a user's credentials for display. Sort and filter preferences
  are session UI state, not entity data; this package just applies them.

ORDERING GUARANTEES (relied on by the UI and tests):
  - urgency: ascending rank; ties broken by ascending days-left with
    never-expiring credentials last. Expired always sorts after active.
  - expiration: active first ascending by date (no expiration last),
    then expired descending (most recently expired first).
  - name-asc / name-desc: lexicographic.
  All sorts are stable.

SEE ALSO:
  - status.go: The urgency rank this ordering is built on
*/
package engine

import (
	"sort"
	"strings"
)

// =============================================================================
// FILTER
// =============================================================================

type Filter string

const (
	FilterAll     Filter = "all"
	FilterActive  Filter = "active"
	FilterExpired Filter = "expired"
)

// ParseFilter maps a query-string value onto a Filter, defaulting to all.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(s)) {
	case FilterActive:
		return FilterActive
	case FilterExpired:
		return FilterExpired
	default:
		return FilterAll
	}
}

// =============================================================================
// SORT MODES
// =============================================================================

type SortMode string

const (
	SortUrgency    SortMode = "urgency" // default
	SortExpiration SortMode = "expiration"
	SortNameAsc    SortMode = "name-asc"
	SortNameDesc   SortMode = "name-desc"
)

// ParseSortMode maps a query-string value onto a SortMode, defaulting
// to urgency.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(s)) {
	case SortExpiration:
		return SortExpiration
	case SortNameAsc:
		return SortNameAsc
	case SortNameDesc:
		return SortNameDesc
	default:
		return SortUrgency
	}
}

// =============================================================================
// APPLY
// =============================================================================

// Apply filters and orders a credential collection for display. The
// input slice is not modified.
func Apply(creds []Credential, f Filter, mode SortMode, today Date) []Credential {
	out := make([]Credential, 0, len(creds))
	for _, c := range creds {
		switch f {
		case FilterActive:
			if !IsActive(c, today) {
				continue
			}
		case FilterExpired:
			if IsActive(c, today) {
				continue
			}
		}
		out = append(out, c)
	}

	switch mode {
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name)
		})
	case SortExpiration:
		sort.SliceStable(out, func(i, j int) bool {
			return expirationLess(out[i], out[j], today)
		})
	default: // SortUrgency
		sort.SliceStable(out, func(i, j int) bool {
			return urgencyLess(out[i], out[j], today)
		})
	}
	return out
}

// urgencyLess: ascending rank, ties broken by ascending days-left.
// No expiration means +infinity days-left, sorting last within a rank.
func urgencyLess(a, b Credential, today Date) bool {
	ra, rb := Urgency(a, today), Urgency(b, today)
	if ra != rb {
		return ra < rb
	}
	return daysLeftOrInf(a, today) < daysLeftOrInf(b, today)
}

// expirationLess: all active before all expired; active ascending by
// expiration (never-expiring last), expired descending (most recently
// expired first).
func expirationLess(a, b Credential, today Date) bool {
	aActive, bActive := IsActive(a, today), IsActive(b, today)
	if aActive != bActive {
		return aActive
	}
	if aActive {
		return daysLeftOrInf(a, today) < daysLeftOrInf(b, today)
	}
	// Both expired; ExpirationDate is necessarily set.
	return a.ExpirationDate.After(*b.ExpirationDate)
}

func daysLeftOrInf(c Credential, today Date) int {
	left := DaysLeft(c.ExpirationDate, today)
	if left == nil {
		return int(^uint(0) >> 1) // max int
	}
	return *left
}
