/*
Package tracker implements the write-side services for credential and
CPD-hour tracking on top of the engine core.

PURPOSE:
  The engine computes; the tracker coordinates. Services here validate
  client submissions, enforce ownership, keep the derived earned-hours
  aggregate consistent through every link mutation, and attach the
  engine's presentation metrics (status, urgency, pace, annual period)
  to the records they return.

OWNERSHIP MODEL:
  Every operation is scoped to a user. Fetching a record you do not own
  reports not-found (stale reference); referencing someone else's
  credential inside an activity submission is a hard forbidden failure
  with no partial effect.

SEE ALSO:
  - activity.go: Allocation, link replacement, aggregate recalculation
  - submission.go: Per-link submission workflow
  - validate.go: Form parsing these services rely on
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/credtrack/cpd-engine/engine"
)

// Service coordinates all credential and activity operations.
type Service struct {
	store Store

	// Clock returns "today". Injectable so tests can pin the calendar.
	Clock func() engine.Date
}

func NewService(store Store) *Service {
	return &Service{store: store, Clock: engine.Today}
}

// =============================================================================
// CREDENTIAL VIEW - Record plus derived presentation metrics
// =============================================================================

// CredentialView pairs a stored credential with the metrics the engine
// derives on every read. Nothing in here besides the record is persisted.
type CredentialView struct {
	engine.Credential

	Active      bool
	DaysLeft    *int
	Status      *engine.Status
	UrgencyRank engine.UrgencyRank
	Pace        engine.Pace

	// Present when an annual minimum is configured.
	AnnualPeriod *engine.AnnualPeriod
}

func buildView(c engine.Credential, today engine.Date) CredentialView {
	v := CredentialView{
		Credential:  c,
		Active:      engine.IsActive(c, today),
		DaysLeft:    engine.DaysLeft(c.ExpirationDate, today),
		Status:      engine.SmartStatus(c, today),
		UrgencyRank: engine.Urgency(c, today),
		Pace:        engine.Project(c, today),
	}
	if c.AnnualMinimum != nil {
		period := engine.AnnualPeriodFor(c.IssueDate, today)
		v.AnnualPeriod = &period
	}
	return v
}

// =============================================================================
// CREDENTIAL OPERATIONS
// =============================================================================

// CreateCredential validates and stores a new credential. The earned
// hours aggregate starts at zero; only link mutations move it.
func (s *Service) CreateCredential(ctx context.Context, userID engine.UserID, form CredentialForm) (*CredentialView, error) {
	cred, err := form.parse(s.Clock())
	if err != nil {
		return nil, err
	}

	cred.ID = engine.CredentialID(uuid.NewString())
	cred.UserID = userID
	cred.HoursEarned = engine.ZeroHours()

	if err := s.store.CreateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	v := buildView(cred, s.Clock())
	return &v, nil
}

// UpdateCredential replaces a credential's own fields. The derived
// HoursEarned aggregate is carried over untouched.
func (s *Service) UpdateCredential(ctx context.Context, userID engine.UserID, id engine.CredentialID, form CredentialForm) (*CredentialView, error) {
	existing, err := s.ownedCredential(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	cred, err := form.parse(s.Clock())
	if err != nil {
		return nil, err
	}
	cred.ID = existing.ID
	cred.UserID = existing.UserID
	cred.HoursEarned = existing.HoursEarned

	if err := s.store.UpdateCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("update credential: %w", err)
	}

	v := buildView(cred, s.Clock())
	return &v, nil
}

// DeleteCredential removes a credential and cascades its links. Other
// credentials funded by the same activities are unaffected.
func (s *Service) DeleteCredential(ctx context.Context, userID engine.UserID, id engine.CredentialID) error {
	if _, err := s.ownedCredential(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteCredential(ctx, id)
}

// GetCredential returns one credential with derived metrics and its
// activity links.
func (s *Service) GetCredential(ctx context.Context, userID engine.UserID, id engine.CredentialID) (*CredentialView, []engine.CredentialActivityLink, error) {
	cred, err := s.ownedCredential(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	links, err := s.store.LinksByCredential(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load links: %w", err)
	}
	v := buildView(*cred, s.Clock())
	return &v, links, nil
}

// ListCredentials returns the user's credentials filtered and ordered
// for display. Filter and sort are session UI state, not entity data.
func (s *Service) ListCredentials(ctx context.Context, userID engine.UserID, filter engine.Filter, mode engine.SortMode) ([]CredentialView, error) {
	creds, err := s.store.ListCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}

	today := s.Clock()
	ordered := engine.Apply(creds, filter, mode, today)

	views := make([]CredentialView, len(ordered))
	for i, c := range ordered {
		views[i] = buildView(c, today)
	}
	return views, nil
}

// ownedCredential loads a credential and verifies ownership. A missing
// or foreign credential both report not-found so record existence does
// not leak across accounts.
func (s *Service) ownedCredential(ctx context.Context, userID engine.UserID, id engine.CredentialID) (*engine.Credential, error) {
	cred, err := s.store.GetCredential(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	if cred == nil || cred.UserID != userID {
		return nil, engine.ErrCredentialNotFound
	}
	return cred, nil
}
