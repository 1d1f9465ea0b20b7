/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Credential:
    CredentialDTO, CredentialDetailDTO, PaceDTO, AnnualPeriodDTO

  Activity:
    ActivityDTO, LinkDTO

  Submission:
    BulkSubmitRequest, BulkSubmitResponse

VALIDATION:
  Request bodies reuse the tracker form types directly; those carry the
  validation tags. DTOs here are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - tracker/validate.go: The form types accepted as request bodies
*/
package api

import (
	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/tracker"
)

// =============================================================================
// CREDENTIAL RESPONSES
// =============================================================================

// CredentialDTO represents a credential with its derived metrics.
type CredentialDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IssuingOrg string `json:"issuing_org"`
	OrgURL     string `json:"org_url,omitempty"`

	IssueDate      string  `json:"issue_date"`
	ExpirationDate *string `json:"expiration_date"`

	RequiredHours *int `json:"required_hours"`
	CycleMonths   *int `json:"cycle_months"`
	AnnualMinimum *int `json:"annual_minimum"`

	HoursEarned    float64 `json:"hours_earned"`
	CertificateURL string  `json:"certificate_url,omitempty"`

	// Derived, recomputed on every read.
	Active       bool             `json:"active"`
	DaysLeft     *int             `json:"days_left"`
	Status       *string          `json:"status"`
	StatusTone   string           `json:"status_tone,omitempty"`
	UrgencyRank  int              `json:"urgency_rank"`
	Pace         PaceDTO          `json:"pace"`
	AnnualPeriod *AnnualPeriodDTO `json:"annual_period,omitempty"`
}

// PaceDTO carries the monthly projection numbers.
type PaceDTO struct {
	NeededPerMonth  *float64 `json:"needed_per_month"`
	CurrentPerMonth float64  `json:"current_per_month"`
	HoursRemaining  float64  `json:"hours_remaining"`
	MonthsRemaining *float64 `json:"months_remaining"`
}

// AnnualPeriodDTO describes the current anniversary year.
type AnnualPeriodDTO struct {
	Start         string `json:"start"`
	DaysRemaining int    `json:"days_remaining"`
}

// CredentialDetailDTO is a credential plus its activity links.
type CredentialDetailDTO struct {
	CredentialDTO
	Links []LinkDTO `json:"links"`
}

// =============================================================================
// ACTIVITY RESPONSES
// =============================================================================

// LinkDTO represents one credential-activity link.
type LinkDTO struct {
	ID           string  `json:"id"`
	CredentialID string  `json:"credential_id"`
	ActivityID   string  `json:"activity_id"`
	HoursApplied float64 `json:"hours_applied"`

	SubmittedToOrg bool    `json:"submitted_to_org"`
	SubmittedDate  *string `json:"submitted_date"`
	SubmittedNotes string  `json:"submitted_notes,omitempty"`
}

// ActivityDTO represents a learning activity with its links.
type ActivityDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	ActivityDate string    `json:"activity_date"`
	TotalHours   float64   `json:"total_hours"`
	Category     string    `json:"category,omitempty"`
	Description  string    `json:"description,omitempty"`
	Attachments  []string  `json:"attachments,omitempty"`
	Credentials  []LinkDTO `json:"credentials"`
}

// =============================================================================
// SUBMISSION REQUESTS
// =============================================================================

// BulkSubmitRequest marks every unsubmitted link under a credential
// submitted with one shared date.
type BulkSubmitRequest struct {
	SubmittedDate string `json:"submitted_date"`
}

// BulkSubmitResponse reports how many links changed.
type BulkSubmitResponse struct {
	Updated int `json:"updated"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details string              `json:"details,omitempty"`
	Fields  []engine.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// MAPPING
// =============================================================================

func toCredentialDTO(v tracker.CredentialView) CredentialDTO {
	dto := CredentialDTO{
		ID:             string(v.ID),
		Name:           v.Name,
		IssuingOrg:     v.IssuingOrg,
		OrgURL:         v.OrgURL,
		IssueDate:      v.IssueDate.String(),
		ExpirationDate: dateString(v.ExpirationDate),
		RequiredHours:  v.RequiredHours,
		CycleMonths:    v.CycleMonths,
		AnnualMinimum:  v.AnnualMinimum,
		HoursEarned:    v.HoursEarned.Float64(),
		CertificateURL: v.CertificateURL,
		Active:         v.Active,
		DaysLeft:       v.DaysLeft,
		UrgencyRank:    int(v.UrgencyRank),
		Pace: PaceDTO{
			NeededPerMonth:  v.Pace.NeededPerMonth,
			CurrentPerMonth: v.Pace.CurrentPerMonth,
			HoursRemaining:  v.Pace.HoursRemaining,
			MonthsRemaining: v.Pace.MonthsRemaining,
		},
	}
	if v.Status != nil {
		s := string(*v.Status)
		dto.Status = &s
		dto.StatusTone = v.Status.Tone()
	}
	if v.AnnualPeriod != nil {
		dto.AnnualPeriod = &AnnualPeriodDTO{
			Start:         v.AnnualPeriod.Start.String(),
			DaysRemaining: v.AnnualPeriod.DaysRemaining,
		}
	}
	return dto
}

func toLinkDTO(l engine.CredentialActivityLink) LinkDTO {
	return LinkDTO{
		ID:             string(l.ID),
		CredentialID:   string(l.CredentialID),
		ActivityID:     string(l.ActivityID),
		HoursApplied:   l.HoursApplied.Float64(),
		SubmittedToOrg: l.SubmittedToOrg,
		SubmittedDate:  dateString(l.SubmittedDate),
		SubmittedNotes: l.SubmittedNotes,
	}
}

func toLinkDTOs(links []engine.CredentialActivityLink) []LinkDTO {
	out := make([]LinkDTO, len(links))
	for i, l := range links {
		out[i] = toLinkDTO(l)
	}
	return out
}

func toActivityDTO(d tracker.ActivityDetail) ActivityDTO {
	a := d.Activity
	return ActivityDTO{
		ID:           string(a.ID),
		Title:        a.Title,
		Provider:     a.Provider,
		ActivityDate: a.ActivityDate.String(),
		TotalHours:   a.TotalHours.Float64(),
		Category:     a.Category,
		Description:  a.Description,
		Attachments:  a.Attachments,
		Credentials:  toLinkDTOs(d.Links),
	}
}

func dateString(d *engine.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
