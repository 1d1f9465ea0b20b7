package tracker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/store/memory"
	"github.com/credtrack/cpd-engine/tracker"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const (
	userAlice = engine.UserID("user-alice")
	userBob   = engine.UserID("user-bob")
)

// newService returns a service over a fresh memory store with the clock
// pinned to 2024-07-01.
func newService(t *testing.T) *tracker.Service {
	t.Helper()
	s := tracker.NewService(memory.New())
	s.Clock = func() engine.Date { return engine.NewDate(2024, time.July, 1) }
	return s
}

func mustCreateCredential(t *testing.T, s *tracker.Service, user engine.UserID, name, org string) engine.CredentialID {
	t.Helper()
	v, err := s.CreateCredential(context.Background(), user, tracker.CredentialForm{
		Name:           name,
		IssuingOrg:     org,
		IssueDate:      "2022-01-01",
		ExpirationDate: "2026-01-01",
		RequiredHours:  intp(120),
	})
	require.NoError(t, err)
	return v.ID
}

func intp(v int) *int { return &v }

func activityForm(hours float64, credIDs ...engine.CredentialID) tracker.ActivityForm {
	allocations := make([]tracker.AllocationForm, len(credIDs))
	for i, id := range credIDs {
		allocations[i] = tracker.AllocationForm{CredentialID: string(id), HoursApplied: hours}
	}
	return tracker.ActivityForm{
		Title:        "Cloud Security Workshop",
		Provider:     "SANS",
		ActivityDate: "2024-06-01",
		TotalHours:   hours,
		Credentials:  allocations,
	}
}

func earnedHours(t *testing.T, s *tracker.Service, user engine.UserID, id engine.CredentialID) string {
	t.Helper()
	v, _, err := s.GetCredential(context.Background(), user, id)
	require.NoError(t, err)
	return v.HoursEarned.String()
}

// =============================================================================
// LOGGING ACTIVITIES
// =============================================================================

func TestLogActivity_ScenarioC_FundsTwoCredentialsIndependently(t *testing.T) {
	// GIVEN: Two credentials from different organizations
	// WHEN: One 8-hour activity funds both with 8 hours each
	// THEN: Both aggregates rise by 8, independently

	s := newService(t)
	ctx := context.Background()

	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")
	cissp := mustCreateCredential(t, s, userAlice, "CISSP", "ISC2")

	detail, err := s.LogActivity(ctx, userAlice, activityForm(8, cpa, cissp))
	require.NoError(t, err)
	require.Len(t, detail.Links, 2)

	assert.Equal(t, "8", earnedHours(t, s, userAlice, cpa))
	assert.Equal(t, "8", earnedHours(t, s, userAlice, cissp))
}

func TestLogActivity_ClientAssignedID(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")

	form := activityForm(4, cpa)
	form.ID = "6f1c8e0a-42c7-4a8e-9f3d-2b5a9c1d7e64"

	detail, err := s.LogActivity(ctx, userAlice, form)
	require.NoError(t, err)
	assert.Equal(t, engine.ActivityID(form.ID), detail.Activity.ID)

	// Reusing the ID is a conflict, not an overwrite.
	_, err = s.LogActivity(ctx, userAlice, form)
	assert.ErrorIs(t, err, engine.ErrDuplicateActivityID)
}

func TestLogActivity_InvalidClientID_ValidationFailure(t *testing.T) {
	s := newService(t)
	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")

	form := activityForm(4, cpa)
	form.ID = "../../etc/passwd" // IDs become storage paths; format is enforced

	_, err := s.LogActivity(context.Background(), userAlice, form)
	var verrs engine.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestLogActivity_ForeignCredential_Forbidden(t *testing.T) {
	// GIVEN: A credential owned by Bob
	// WHEN: Alice references it in her activity
	// THEN: Hard forbidden failure, nothing applied

	s := newService(t)
	ctx := context.Background()

	bobs := mustCreateCredential(t, s, userBob, "PMP", "PMI")
	alices := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")

	_, err := s.LogActivity(ctx, userAlice, activityForm(8, alices, bobs))
	require.ErrorIs(t, err, engine.ErrForbidden)

	// No partial effect: Alice's credential is untouched.
	assert.Equal(t, "0", earnedHours(t, s, userAlice, alices))
}

func TestLogActivity_UnknownCredential_NotFound(t *testing.T) {
	s := newService(t)
	_, err := s.LogActivity(context.Background(), userAlice,
		activityForm(8, engine.CredentialID("no-such-credential")))
	assert.ErrorIs(t, err, engine.ErrCredentialNotFound)
}

func TestLogActivity_DuplicateCredentialSelection_ValidationFailure(t *testing.T) {
	s := newService(t)
	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")

	_, err := s.LogActivity(context.Background(), userAlice, activityForm(8, cpa, cpa))
	var verrs engine.ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

// =============================================================================
// EDITING ACTIVITIES - Full link-set replacement
// =============================================================================

func TestUpdateActivity_ReplacesLinkSet_RecalculatesOldAndNew(t *testing.T) {
	// GIVEN: An activity funding credential A
	// WHEN: Editing it to fund credential B instead
	// THEN: A's aggregate drops to 0, B's rises; old links are gone

	s := newService(t)
	ctx := context.Background()

	credA := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")
	credB := mustCreateCredential(t, s, userAlice, "CISSP", "ISC2")

	detail, err := s.LogActivity(ctx, userAlice, activityForm(6, credA))
	require.NoError(t, err)
	require.Equal(t, "6", earnedHours(t, s, userAlice, credA))

	_, err = s.UpdateActivity(ctx, userAlice, detail.Activity.ID, activityForm(6, credB))
	require.NoError(t, err)

	assert.Equal(t, "0", earnedHours(t, s, userAlice, credA))
	assert.Equal(t, "6", earnedHours(t, s, userAlice, credB))

	_, links, err := s.GetCredential(ctx, userAlice, credA)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestUpdateActivity_ChangedHours_AggregateFollowsExactSum(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")

	detail, err := s.LogActivity(ctx, userAlice, activityForm(2.5, cpa))
	require.NoError(t, err)

	second, err := s.LogActivity(ctx, userAlice, activityForm(1.25, cpa))
	require.NoError(t, err)
	require.Equal(t, "3.75", earnedHours(t, s, userAlice, cpa))

	// Edit the first down to 0.5; the aggregate is the exact new sum.
	_, err = s.UpdateActivity(ctx, userAlice, detail.Activity.ID, activityForm(0.5, cpa))
	require.NoError(t, err)
	assert.Equal(t, "1.75", earnedHours(t, s, userAlice, cpa))

	// Idempotence: editing the second to the same value changes nothing.
	_, err = s.UpdateActivity(ctx, userAlice, second.Activity.ID, activityForm(1.25, cpa))
	require.NoError(t, err)
	assert.Equal(t, "1.75", earnedHours(t, s, userAlice, cpa))
}

func TestUpdateActivity_FailedEdit_LeavesPriorState(t *testing.T) {
	// GIVEN: An activity funding credential A
	// WHEN: An edit referencing a foreign credential is rejected
	// THEN: Links and aggregate are exactly as before

	s := newService(t)
	ctx := context.Background()

	credA := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")
	bobs := mustCreateCredential(t, s, userBob, "PMP", "PMI")

	detail, err := s.LogActivity(ctx, userAlice, activityForm(6, credA))
	require.NoError(t, err)

	_, err = s.UpdateActivity(ctx, userAlice, detail.Activity.ID, activityForm(6, bobs))
	require.ErrorIs(t, err, engine.ErrForbidden)

	assert.Equal(t, "6", earnedHours(t, s, userAlice, credA))
	_, links, err := s.GetCredential(ctx, userAlice, credA)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

// =============================================================================
// DELETING
// =============================================================================

func TestDeleteActivity_ScenarioE_RecalculatesBothCredentials(t *testing.T) {
	// GIVEN: One activity funding two credentials with 8 hours each,
	//        plus an unrelated 4-hour activity on the first
	// WHEN: Deleting the shared activity
	// THEN: Both aggregates drop by exactly 8 and both links are removed

	s := newService(t)
	ctx := context.Background()

	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")
	cissp := mustCreateCredential(t, s, userAlice, "CISSP", "ISC2")

	shared, err := s.LogActivity(ctx, userAlice, activityForm(8, cpa, cissp))
	require.NoError(t, err)
	_, err = s.LogActivity(ctx, userAlice, activityForm(4, cpa))
	require.NoError(t, err)

	require.Equal(t, "12", earnedHours(t, s, userAlice, cpa))
	require.Equal(t, "8", earnedHours(t, s, userAlice, cissp))

	require.NoError(t, s.DeleteActivity(ctx, userAlice, shared.Activity.ID))

	assert.Equal(t, "4", earnedHours(t, s, userAlice, cpa))
	assert.Equal(t, "0", earnedHours(t, s, userAlice, cissp))

	_, links, err := s.GetCredential(ctx, userAlice, cissp)
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestDeleteCredential_CascadesLinks_OtherCredentialUnaffected(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	cpa := mustCreateCredential(t, s, userAlice, "CPA", "AICPA")
	cissp := mustCreateCredential(t, s, userAlice, "CISSP", "ISC2")

	shared, err := s.LogActivity(ctx, userAlice, activityForm(8, cpa, cissp))
	require.NoError(t, err)

	require.NoError(t, s.DeleteCredential(ctx, userAlice, cpa))

	// No double-subtraction: the surviving credential keeps its hours.
	assert.Equal(t, "8", earnedHours(t, s, userAlice, cissp))

	got, err := s.GetActivity(ctx, userAlice, shared.Activity.ID)
	require.NoError(t, err)
	assert.Len(t, got.Links, 1)
}

func TestDeleteActivity_NotOwned_NotFound(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	cpa := mustCreateCredential(t, s, userBob, "PMP", "PMI")
	detail, err := s.LogActivity(ctx, userBob, activityForm(3, cpa))
	require.NoError(t, err)

	err = s.DeleteActivity(ctx, userAlice, detail.Activity.ID)
	assert.True(t, errors.Is(err, engine.ErrActivityNotFound))
}
