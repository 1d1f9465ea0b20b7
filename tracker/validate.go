/*
validate.go - Form validation and sanitization

PURPOSE:
  Turns raw client submissions into validated engine records. Shape
  checks (required, length, range) run through validator struct tags;
  cross-field rules (date ordering, annual minimum vs total, https-only
  URLs) are checked by hand afterwards. Every failure is reported
  per-field so the caller can fix the whole form in one round trip.

SANITIZATION:
  String fields are trimmed; free-text notes and descriptions are
  HTML-stripped. Sanitization never alters already-valid numeric or
  date fields.

SEE ALSO:
  - engine/errors.go: FieldError / ValidationErrors taxonomy
  - activity.go, credential.go: Callers of these parsers
*/
package tracker

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/credtrack/cpd-engine/engine"
)

// =============================================================================
// VALIDATOR SETUP
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names, not Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors converts validator failures into the engine taxonomy.
func fieldErrors(err error) engine.ValidationErrors {
	var out engine.ValidationErrors
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out.Add("", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fe.Field(), msgForTag(fe))
	}
	return out
}

func msgForTag(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}

// =============================================================================
// SANITIZATION
// =============================================================================

var htmlTags = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes markup from free-text input.
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTags.ReplaceAllString(s, ""))
}

func isHTTPSURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme == "https" && u.Host != ""
}

// parseOptionalDate parses an optional YYYY-MM-DD field, reporting
// failures against the given field name.
func parseOptionalDate(s, field string, errs *engine.ValidationErrors) *engine.Date {
	if s == "" {
		return nil
	}
	d, err := engine.ParseDate(s)
	if err != nil {
		errs.Add(field, "must be a valid date (YYYY-MM-DD)")
		return nil
	}
	return &d
}

// =============================================================================
// CREDENTIAL FORM
// =============================================================================

// CredentialForm is a create/update submission for a credential.
// HoursEarned is deliberately absent: it is a derived aggregate.
type CredentialForm struct {
	Name           string `json:"name" validate:"required,min=2,max=100"`
	IssuingOrg     string `json:"issuing_org" validate:"required,min=2,max=100"`
	OrgURL         string `json:"org_url" validate:"omitempty,max=500"`
	IssueDate      string `json:"issue_date" validate:"required"`
	ExpirationDate string `json:"expiration_date"`
	RequiredHours  *int   `json:"required_hours" validate:"omitempty,min=1,max=500"`
	CycleMonths    *int   `json:"cycle_months" validate:"omitempty,min=1,max=120"`
	AnnualMinimum  *int   `json:"annual_minimum" validate:"omitempty,min=0"`
	CertificateURL string `json:"certificate_url" validate:"omitempty,max=500"`
}

func (f CredentialForm) sanitized() CredentialForm {
	f.Name = strings.TrimSpace(f.Name)
	f.IssuingOrg = strings.TrimSpace(f.IssuingOrg)
	f.OrgURL = strings.TrimSpace(f.OrgURL)
	f.CertificateURL = strings.TrimSpace(f.CertificateURL)
	f.IssueDate = strings.TrimSpace(f.IssueDate)
	f.ExpirationDate = strings.TrimSpace(f.ExpirationDate)
	return f
}

// parse validates the form and builds a credential record. Identity and
// the earned-hours aggregate are filled in by the service, not here.
func (f CredentialForm) parse(today engine.Date) (engine.Credential, error) {
	f = f.sanitized()

	var errs engine.ValidationErrors
	if err := validate.Struct(f); err != nil {
		errs = fieldErrors(err)
	}

	if f.OrgURL != "" && !isHTTPSURL(f.OrgURL) {
		errs.Add("org_url", "must be an https URL")
	}
	if f.CertificateURL != "" && !isHTTPSURL(f.CertificateURL) {
		errs.Add("certificate_url", "must be an https URL")
	}

	var issue engine.Date
	if f.IssueDate != "" {
		if d := parseOptionalDate(f.IssueDate, "issue_date", &errs); d != nil {
			issue = *d
			if engine.IsFutureDate(issue, today) {
				errs.Add("issue_date", "cannot be in the future")
			}
		}
	}

	expiration := parseOptionalDate(f.ExpirationDate, "expiration_date", &errs)
	if expiration != nil && !issue.IsZero() && !expiration.After(issue) {
		errs.Add("expiration_date", "must be after the issue date")
	}

	if f.AnnualMinimum != nil && f.RequiredHours != nil && *f.AnnualMinimum > *f.RequiredHours {
		errs.Add("annual_minimum", "cannot exceed total required hours")
	}

	if err := errs.OrNil(); err != nil {
		return engine.Credential{}, err
	}

	return engine.Credential{
		Name:           f.Name,
		IssuingOrg:     f.IssuingOrg,
		OrgURL:         f.OrgURL,
		IssueDate:      issue,
		ExpirationDate: expiration,
		RequiredHours:  f.RequiredHours,
		CycleMonths:    f.CycleMonths,
		AnnualMinimum:  f.AnnualMinimum,
		CertificateURL: f.CertificateURL,
	}, nil
}

// =============================================================================
// ACTIVITY FORM
// =============================================================================

// AllocationForm declares hours applied to one selected credential.
type AllocationForm struct {
	CredentialID string  `json:"credential_id" validate:"required"`
	HoursApplied float64 `json:"hours_applied" validate:"required,gt=0,lte=500"`
}

// ActivityForm is a create/update submission for a learning activity
// together with its credential allocations.
type ActivityForm struct {
	// Optional client-assigned identity, so attachment storage paths can
	// be computed before the server record exists. Must be a UUID.
	ID string `json:"id" validate:"omitempty,uuid"`

	Title        string           `json:"title" validate:"required,max=200"`
	Provider     string           `json:"provider" validate:"required,max=200"`
	ActivityDate string           `json:"activity_date" validate:"required"`
	TotalHours   float64          `json:"total_hours" validate:"required,gt=0,lte=500"`
	Category     string           `json:"category" validate:"omitempty,max=100"`
	Description  string           `json:"description" validate:"omitempty,max=2000"`
	Attachments  []string         `json:"attachments"`
	Credentials  []AllocationForm `json:"credentials" validate:"required,min=1,dive"`
}

func (f ActivityForm) sanitized() ActivityForm {
	f.ID = strings.TrimSpace(f.ID)
	f.Title = strings.TrimSpace(f.Title)
	f.Provider = strings.TrimSpace(f.Provider)
	f.ActivityDate = strings.TrimSpace(f.ActivityDate)
	f.Category = strings.TrimSpace(f.Category)
	f.Description = stripHTML(f.Description)
	return f
}

// parsedActivity is the validated result of an activity submission.
type parsedActivity struct {
	Activity    engine.LearningActivity
	Allocations []engine.CredentialActivityLink // CredentialID + HoursApplied set
}

func (f ActivityForm) parse(today engine.Date) (parsedActivity, error) {
	f = f.sanitized()

	var errs engine.ValidationErrors
	if err := validate.Struct(f); err != nil {
		errs = fieldErrors(err)
	}

	var activityDate engine.Date
	if f.ActivityDate != "" {
		if d := parseOptionalDate(f.ActivityDate, "activity_date", &errs); d != nil {
			activityDate = *d
			if engine.IsFutureDate(activityDate, today) {
				errs.Add("activity_date", "cannot be in the future")
			}
		}
	}

	// A given activity may not be linked twice to the same credential.
	seen := make(map[string]bool, len(f.Credentials))
	for _, a := range f.Credentials {
		if seen[a.CredentialID] {
			errs.Add("credentials", fmt.Sprintf("credential %s selected more than once", a.CredentialID))
		}
		seen[a.CredentialID] = true
	}

	if err := errs.OrNil(); err != nil {
		return parsedActivity{}, err
	}

	allocations := make([]engine.CredentialActivityLink, len(f.Credentials))
	for i, a := range f.Credentials {
		allocations[i] = engine.CredentialActivityLink{
			CredentialID: engine.CredentialID(a.CredentialID),
			HoursApplied: engine.HoursFromFloat(a.HoursApplied),
		}
	}

	return parsedActivity{
		Activity: engine.LearningActivity{
			ID:           engine.ActivityID(f.ID),
			Title:        f.Title,
			Provider:     f.Provider,
			ActivityDate: activityDate,
			TotalHours:   engine.HoursFromFloat(f.TotalHours),
			Category:     f.Category,
			Description:  f.Description,
			Attachments:  f.Attachments,
		},
		Allocations: allocations,
	}, nil
}

// newActivityID validates a client-assigned ID or mints a fresh one.
func newActivityID(clientID string) (engine.ActivityID, error) {
	if clientID == "" {
		return engine.ActivityID(uuid.NewString()), nil
	}
	if _, err := uuid.Parse(clientID); err != nil {
		var errs engine.ValidationErrors
		errs.Add("id", "must be a valid UUID")
		return "", errs
	}
	return engine.ActivityID(clientID), nil
}

// =============================================================================
// SUBMISSION FORM
// =============================================================================

// SubmissionForm updates the submission state of one link.
type SubmissionForm struct {
	SubmittedToOrg bool   `json:"submitted_to_org"`
	SubmittedDate  string `json:"submitted_date"`
	Notes          string `json:"notes"`
}

const maxNotesLen = 500

// parseSubmission validates the submitted-state transition against the
// linked activity's date. Recall transitions clear date and notes
// regardless of what was passed.
func (f SubmissionForm) parse(activityDate, today engine.Date) (submitted bool, date *engine.Date, notes string, err error) {
	if !f.SubmittedToOrg {
		return false, nil, "", nil
	}

	var errs engine.ValidationErrors

	date = parseOptionalDate(strings.TrimSpace(f.SubmittedDate), "submitted_date", &errs)
	if date != nil {
		if date.Before(activityDate) {
			errs.Add("submitted_date", "cannot be before the activity date")
		}
		if engine.IsFutureDate(*date, today) {
			errs.Add("submitted_date", "cannot be in the future")
		}
	}

	notes = stripHTML(f.Notes)
	if len(notes) > maxNotesLen {
		errs.Add("notes", fmt.Sprintf("must be at most %d characters", maxNotesLen))
	}

	if e := errs.OrNil(); e != nil {
		return false, nil, "", e
	}
	return true, date, notes, nil
}
