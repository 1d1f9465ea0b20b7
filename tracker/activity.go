/*
activity.go - Learning activity allocation and aggregate maintenance

PURPOSE:
  A learning activity can fund several credentials at once, each with
  its own applied hours, through junction links. This file owns the
  allocation lifecycle:

    log    -> insert activity + links, recalc touched credentials
    edit   -> full link-set replacement (delete + insert, not a merge),
              recalc old set UNION new set
    delete -> cascade links, recalc the prior set

  Every credential's HoursEarned is recomputed as the sum of applied
  hours over its live links inside the same transaction as the link
  write. Recalculation is idempotent: running it twice yields the same
  aggregate.

OWNERSHIP:
  Every credential referenced by a submission must belong to the caller.
  A foreign reference fails the whole operation with ErrForbidden and
  applies nothing.

CONSISTENCY:
  A credential that vanished between the write and the recalculation is
  a no-op for that item, not a failure for the batch.

SEE ALSO:
  - validate.go: ActivityForm parsing
  - store.go: WithTx contract backing the atomicity here
*/
package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/credtrack/cpd-engine/engine"
)

// ActivityDetail pairs an activity with its credential links.
type ActivityDetail struct {
	Activity engine.LearningActivity
	Links    []engine.CredentialActivityLink
}

// =============================================================================
// LOG / EDIT / DELETE
// =============================================================================

// LogActivity validates and stores a new activity with one link per
// selected credential, then recomputes every funded credential's
// aggregate. The whole write is one transaction.
func (s *Service) LogActivity(ctx context.Context, userID engine.UserID, form ActivityForm) (*ActivityDetail, error) {
	parsed, err := form.parse(s.Clock())
	if err != nil {
		return nil, err
	}

	id, err := newActivityID(string(parsed.Activity.ID))
	if err != nil {
		return nil, err
	}
	if existing, err := s.store.GetActivity(ctx, id); err != nil {
		return nil, fmt.Errorf("check activity id: %w", err)
	} else if existing != nil {
		return nil, engine.ErrDuplicateActivityID
	}

	if err := s.checkAllocationOwnership(ctx, userID, parsed.Allocations); err != nil {
		return nil, err
	}

	activity := parsed.Activity
	activity.ID = id
	activity.UserID = userID

	links := make([]engine.CredentialActivityLink, len(parsed.Allocations))
	touched := make([]engine.CredentialID, len(parsed.Allocations))
	for i, a := range parsed.Allocations {
		links[i] = engine.CredentialActivityLink{
			ID:           engine.LinkID(uuid.NewString()),
			CredentialID: a.CredentialID,
			ActivityID:   id,
			HoursApplied: a.HoursApplied,
		}
		touched[i] = a.CredentialID
	}

	err = s.store.WithTx(ctx, func(st Store) error {
		if err := st.CreateActivity(ctx, activity); err != nil {
			return err
		}
		if err := st.InsertLinks(ctx, links); err != nil {
			return err
		}
		return recalcHours(ctx, st, touched)
	})
	if err != nil {
		return nil, fmt.Errorf("log activity: %w", err)
	}

	return &ActivityDetail{Activity: activity, Links: links}, nil
}

// UpdateActivity edits an activity and atomically replaces its link
// set: prior links are deleted and the new selection inserted. This is
// a full replacement, not a diff; replaced links restart unsubmitted.
// Aggregates are recomputed for the union of the old and new sets.
func (s *Service) UpdateActivity(ctx context.Context, userID engine.UserID, id engine.ActivityID, form ActivityForm) (*ActivityDetail, error) {
	existing, err := s.ownedActivity(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	parsed, err := form.parse(s.Clock())
	if err != nil {
		return nil, err
	}
	if err := s.checkAllocationOwnership(ctx, userID, parsed.Allocations); err != nil {
		return nil, err
	}

	activity := parsed.Activity
	activity.ID = existing.ID
	activity.UserID = existing.UserID

	links := make([]engine.CredentialActivityLink, len(parsed.Allocations))
	for i, a := range parsed.Allocations {
		links[i] = engine.CredentialActivityLink{
			ID:           engine.LinkID(uuid.NewString()),
			CredentialID: a.CredentialID,
			ActivityID:   existing.ID,
			HoursApplied: a.HoursApplied,
		}
	}

	err = s.store.WithTx(ctx, func(st Store) error {
		oldLinks, err := st.LinksByActivity(ctx, existing.ID)
		if err != nil {
			return err
		}
		if err := st.DeleteLinksByActivity(ctx, existing.ID); err != nil {
			return err
		}
		if err := st.UpdateActivity(ctx, activity); err != nil {
			return err
		}
		if err := st.InsertLinks(ctx, links); err != nil {
			return err
		}

		touched := make([]engine.CredentialID, 0, len(oldLinks)+len(links))
		for _, l := range oldLinks {
			touched = append(touched, l.CredentialID)
		}
		for _, l := range links {
			touched = append(touched, l.CredentialID)
		}
		return recalcHours(ctx, st, touched)
	})
	if err != nil {
		return nil, fmt.Errorf("update activity: %w", err)
	}

	return &ActivityDetail{Activity: activity, Links: links}, nil
}

// DeleteActivity removes an activity, cascades its links, and recomputes
// the aggregate of every credential it had funded.
func (s *Service) DeleteActivity(ctx context.Context, userID engine.UserID, id engine.ActivityID) error {
	existing, err := s.ownedActivity(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(st Store) error {
		links, err := st.LinksByActivity(ctx, existing.ID)
		if err != nil {
			return err
		}
		if err := st.DeleteActivity(ctx, existing.ID); err != nil {
			return err
		}

		touched := make([]engine.CredentialID, len(links))
		for i, l := range links {
			touched[i] = l.CredentialID
		}
		return recalcHours(ctx, st, touched)
	})
}

// GetActivity returns one activity with its links.
func (s *Service) GetActivity(ctx context.Context, userID engine.UserID, id engine.ActivityID) (*ActivityDetail, error) {
	activity, err := s.ownedActivity(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	links, err := s.store.LinksByActivity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return &ActivityDetail{Activity: *activity, Links: links}, nil
}

// ListActivities returns the user's activities with their links.
func (s *Service) ListActivities(ctx context.Context, userID engine.UserID) ([]ActivityDetail, error) {
	activities, err := s.store.ListActivities(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	details := make([]ActivityDetail, len(activities))
	for i, a := range activities {
		links, err := s.store.LinksByActivity(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load links: %w", err)
		}
		details[i] = ActivityDetail{Activity: a, Links: links}
	}
	return details, nil
}

// =============================================================================
// OWNERSHIP + RECALCULATION
// =============================================================================

// checkAllocationOwnership verifies every referenced credential exists
// and belongs to the caller. Any violation rejects the whole operation.
func (s *Service) checkAllocationOwnership(ctx context.Context, userID engine.UserID, allocations []engine.CredentialActivityLink) error {
	for _, a := range allocations {
		cred, err := s.store.GetCredential(ctx, a.CredentialID)
		if err != nil {
			return fmt.Errorf("get credential %s: %w", a.CredentialID, err)
		}
		if cred == nil {
			return fmt.Errorf("credential %s: %w", a.CredentialID, engine.ErrCredentialNotFound)
		}
		if cred.UserID != userID {
			return fmt.Errorf("credential %s: %w", a.CredentialID, engine.ErrForbidden)
		}
	}
	return nil
}

// recalcHours recomputes HoursEarned for each touched credential as the
// sum of applied hours over its live links. Duplicate IDs are collapsed;
// vanished credentials are skipped. Recomputing twice yields the same
// result, so independent per-credential correction is safe.
func recalcHours(ctx context.Context, st Store, ids []engine.CredentialID) error {
	done := make(map[engine.CredentialID]bool, len(ids))
	for _, id := range ids {
		if done[id] {
			continue
		}
		done[id] = true

		cred, err := st.GetCredential(ctx, id)
		if err != nil {
			return err
		}
		if cred == nil {
			continue // deleted concurrently; nothing to correct
		}

		sum, err := st.SumHoursApplied(ctx, id)
		if err != nil {
			return err
		}
		if err := st.SetHoursEarned(ctx, id, sum); err != nil {
			return err
		}
	}
	return nil
}

// ownedActivity loads an activity and verifies ownership.
func (s *Service) ownedActivity(ctx context.Context, userID engine.UserID, id engine.ActivityID) (*engine.LearningActivity, error) {
	activity, err := s.store.GetActivity(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	if activity == nil || activity.UserID != userID {
		return nil, engine.ErrActivityNotFound
	}
	return activity, nil
}
