/*
submission.go - Per-link submission workflow

PURPOSE:
  Tracks, per credential-activity link, whether the logged hours have
  been reported to the issuing organization. A binary flag with an
  optional date and note; no state machine beyond that. Re-submitting
  an already-submitted link simply overwrites date and notes.

TRANSITIONS:
  submit -> flag true; optional date validated against the activity date
            and today; notes sanitized and capped
  recall -> flag false; date and notes forcibly cleared regardless of
            what was passed
  bulk   -> submit every currently-unsubmitted link under one
            credential with a single shared date

SEE ALSO:
  - validate.go: SubmissionForm parsing
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/credtrack/cpd-engine/engine"
)

// SetSubmission applies a submit or recall transition to one link.
func (s *Service) SetSubmission(ctx context.Context, userID engine.UserID, id engine.LinkID, form SubmissionForm) (*engine.CredentialActivityLink, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	activity, err := s.store.GetActivity(ctx, link.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity == nil {
		return nil, engine.ErrActivityNotFound
	}

	submitted, date, notes, err := form.parse(activity.ActivityDate, s.Clock())
	if err != nil {
		return nil, err
	}

	link.SubmittedToOrg = submitted
	link.SubmittedDate = date
	link.SubmittedNotes = notes

	if err := s.store.UpdateLinkSubmission(ctx, *link); err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	return link, nil
}

// BulkSubmit marks every currently-unsubmitted link under a credential
// as submitted with one shared date. The date must satisfy the normal
// transition rules for every affected link; a violation fails the whole
// batch rather than silently clamping. Returns how many links changed.
func (s *Service) BulkSubmit(ctx context.Context, userID engine.UserID, credentialID engine.CredentialID, dateStr string) (int, error) {
	if _, err := s.ownedCredential(ctx, userID, credentialID); err != nil {
		return 0, err
	}

	var errs engine.ValidationErrors
	date := parseOptionalDate(dateStr, "submitted_date", &errs)
	if date == nil && errs == nil {
		errs.Add("submitted_date", "is required")
	}
	if date != nil && engine.IsFutureDate(*date, s.Clock()) {
		errs.Add("submitted_date", "cannot be in the future")
	}
	if err := errs.OrNil(); err != nil {
		return 0, err
	}

	updated := 0
	err := s.store.WithTx(ctx, func(st Store) error {
		links, err := st.LinksByCredential(ctx, credentialID)
		if err != nil {
			return err
		}
		for _, link := range links {
			if link.SubmittedToOrg {
				continue
			}

			activity, err := st.GetActivity(ctx, link.ActivityID)
			if err != nil {
				return err
			}
			if activity == nil {
				continue // activity vanished; skip its link
			}
			if date.Before(activity.ActivityDate) {
				var verrs engine.ValidationErrors
				verrs.Add("submitted_date", fmt.Sprintf(
					"cannot be before the %s activity date of %q",
					activity.ActivityDate, activity.Title))
				return verrs
			}

			link.SubmittedToOrg = true
			link.SubmittedDate = date
			link.SubmittedNotes = ""
			if err := st.UpdateLinkSubmission(ctx, link); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		updated = 0
	}
	return updated, err
}

// ownedLink loads a link and verifies the caller owns its credential.
func (s *Service) ownedLink(ctx context.Context, userID engine.UserID, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	link, err := s.store.GetLink(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	if link == nil {
		return nil, engine.ErrLinkNotFound
	}
	if _, err := s.ownedCredential(ctx, userID, link.CredentialID); err != nil {
		return nil, engine.ErrLinkNotFound
	}
	return link, nil
}
