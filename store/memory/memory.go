// Package memory provides an in-memory tracker.Store for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/tracker"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	credentials map[engine.CredentialID]engine.Credential
	activities  map[engine.ActivityID]engine.LearningActivity
	links       map[engine.LinkID]engine.CredentialActivityLink
}

func New() *Memory {
	return &Memory{
		credentials: make(map[engine.CredentialID]engine.Credential),
		activities:  make(map[engine.ActivityID]engine.LearningActivity),
		links:       make(map[engine.LinkID]engine.CredentialActivityLink),
	}
}

var _ tracker.Store = (*Memory)(nil)

// =============================================================================
// TRANSACTIONS - Snapshot on entry, restore on error
// =============================================================================

// WithTx simulates a transaction with a full snapshot + rollback. The
// view passed to fn reuses the already-held write lock.
func (m *Memory) WithTx(ctx context.Context, fn func(tracker.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	credentials map[engine.CredentialID]engine.Credential
	activities  map[engine.ActivityID]engine.LearningActivity
	links       map[engine.LinkID]engine.CredentialActivityLink
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		credentials: make(map[engine.CredentialID]engine.Credential, len(m.credentials)),
		activities:  make(map[engine.ActivityID]engine.LearningActivity, len(m.activities)),
		links:       make(map[engine.LinkID]engine.CredentialActivityLink, len(m.links)),
	}
	for k, v := range m.credentials {
		s.credentials[k] = cloneCredential(v)
	}
	for k, v := range m.activities {
		s.activities[k] = cloneActivity(v)
	}
	for k, v := range m.links {
		s.links[k] = cloneLink(v)
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.credentials = s.credentials
	m.activities = s.activities
	m.links = s.links
}

// =============================================================================
// CREDENTIALS
// =============================================================================

func (m *Memory) CreateCredential(_ context.Context, c engine.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[c.ID] = cloneCredential(c)
	return nil
}

func (m *Memory) GetCredential(_ context.Context, id engine.CredentialID) (*engine.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCredentialLocked(id)
}

func (m *Memory) getCredentialLocked(id engine.CredentialID) (*engine.Credential, error) {
	c, ok := m.credentials[id]
	if !ok {
		return nil, nil
	}
	out := cloneCredential(c)
	return &out, nil
}

func (m *Memory) ListCredentials(_ context.Context, userID engine.UserID) ([]engine.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Credential
	for _, c := range m.credentials {
		if c.UserID == userID {
			out = append(out, cloneCredential(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateCredential(_ context.Context, c engine.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCredentialLocked(c)
}

func (m *Memory) updateCredentialLocked(c engine.Credential) error {
	if _, ok := m.credentials[c.ID]; !ok {
		return engine.ErrCredentialNotFound
	}
	m.credentials[c.ID] = cloneCredential(c)
	return nil
}

func (m *Memory) DeleteCredential(_ context.Context, id engine.CredentialID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCredentialLocked(id)
}

func (m *Memory) deleteCredentialLocked(id engine.CredentialID) error {
	delete(m.credentials, id)
	for lid, l := range m.links {
		if l.CredentialID == id {
			delete(m.links, lid)
		}
	}
	return nil
}

func (m *Memory) SetHoursEarned(_ context.Context, id engine.CredentialID, hours engine.Hours) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setHoursEarnedLocked(id, hours)
}

func (m *Memory) setHoursEarnedLocked(id engine.CredentialID, hours engine.Hours) error {
	c, ok := m.credentials[id]
	if !ok {
		return engine.ErrCredentialNotFound
	}
	c.HoursEarned = hours
	m.credentials[id] = c
	return nil
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func (m *Memory) CreateActivity(_ context.Context, a engine.LearningActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createActivityLocked(a)
}

func (m *Memory) createActivityLocked(a engine.LearningActivity) error {
	if _, ok := m.activities[a.ID]; ok {
		return engine.ErrDuplicateActivityID
	}
	m.activities[a.ID] = cloneActivity(a)
	return nil
}

func (m *Memory) GetActivity(_ context.Context, id engine.ActivityID) (*engine.LearningActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getActivityLocked(id)
}

func (m *Memory) getActivityLocked(id engine.ActivityID) (*engine.LearningActivity, error) {
	a, ok := m.activities[id]
	if !ok {
		return nil, nil
	}
	out := cloneActivity(a)
	return &out, nil
}

func (m *Memory) ListActivities(_ context.Context, userID engine.UserID) ([]engine.LearningActivity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.LearningActivity
	for _, a := range m.activities {
		if a.UserID == userID {
			out = append(out, cloneActivity(a))
		}
	}
	// Newest first, stable by ID for equal dates.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ActivityDate.Equal(out[j].ActivityDate) {
			return out[j].ActivityDate.Before(out[i].ActivityDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateActivity(_ context.Context, a engine.LearningActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateActivityLocked(a)
}

func (m *Memory) updateActivityLocked(a engine.LearningActivity) error {
	if _, ok := m.activities[a.ID]; !ok {
		return engine.ErrActivityNotFound
	}
	m.activities[a.ID] = cloneActivity(a)
	return nil
}

func (m *Memory) DeleteActivity(_ context.Context, id engine.ActivityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteActivityLocked(id)
}

func (m *Memory) deleteActivityLocked(id engine.ActivityID) error {
	delete(m.activities, id)
	for lid, l := range m.links {
		if l.ActivityID == id {
			delete(m.links, lid)
		}
	}
	return nil
}

// =============================================================================
// LINKS
// =============================================================================

func (m *Memory) InsertLinks(_ context.Context, links []engine.CredentialActivityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLinksLocked(links)
}

func (m *Memory) insertLinksLocked(links []engine.CredentialActivityLink) error {
	// Enforce the unique (credential, activity) pair before writing.
	for _, l := range links {
		for _, existing := range m.links {
			if existing.CredentialID == l.CredentialID && existing.ActivityID == l.ActivityID {
				return engine.ErrDuplicateLink
			}
		}
	}
	for _, l := range links {
		m.links[l.ID] = cloneLink(l)
	}
	return nil
}

func (m *Memory) DeleteLinksByActivity(_ context.Context, id engine.ActivityID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLinksByActivityLocked(id)
}

func (m *Memory) deleteLinksByActivityLocked(id engine.ActivityID) error {
	for lid, l := range m.links {
		if l.ActivityID == id {
			delete(m.links, lid)
		}
	}
	return nil
}

func (m *Memory) LinksByActivity(_ context.Context, id engine.ActivityID) ([]engine.CredentialActivityLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.linksByActivityLocked(id)
}

func (m *Memory) linksByActivityLocked(id engine.ActivityID) ([]engine.CredentialActivityLink, error) {
	var out []engine.CredentialActivityLink
	for _, l := range m.links {
		if l.ActivityID == id {
			out = append(out, cloneLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) LinksByCredential(_ context.Context, id engine.CredentialID) ([]engine.CredentialActivityLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.linksByCredentialLocked(id)
}

func (m *Memory) linksByCredentialLocked(id engine.CredentialID) ([]engine.CredentialActivityLink, error) {
	var out []engine.CredentialActivityLink
	for _, l := range m.links {
		if l.CredentialID == id {
			out = append(out, cloneLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetLink(_ context.Context, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLinkLocked(id)
}

func (m *Memory) getLinkLocked(id engine.LinkID) (*engine.CredentialActivityLink, error) {
	l, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	out := cloneLink(l)
	return &out, nil
}

func (m *Memory) UpdateLinkSubmission(_ context.Context, link engine.CredentialActivityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateLinkSubmissionLocked(link)
}

func (m *Memory) updateLinkSubmissionLocked(link engine.CredentialActivityLink) error {
	existing, ok := m.links[link.ID]
	if !ok {
		return engine.ErrLinkNotFound
	}
	existing.SubmittedToOrg = link.SubmittedToOrg
	existing.SubmittedDate = nil
	if link.SubmittedDate != nil {
		d := *link.SubmittedDate
		existing.SubmittedDate = &d
	}
	existing.SubmittedNotes = link.SubmittedNotes
	m.links[link.ID] = existing
	return nil
}

func (m *Memory) SumHoursApplied(_ context.Context, id engine.CredentialID) (engine.Hours, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumHoursAppliedLocked(id)
}

func (m *Memory) sumHoursAppliedLocked(id engine.CredentialID) (engine.Hours, error) {
	total := engine.ZeroHours()
	for _, l := range m.links {
		if l.CredentialID == id {
			total = total.Add(l.HoursApplied)
		}
	}
	return total, nil
}

// =============================================================================
// TRANSACTIONAL VIEW - Delegates without re-locking
// =============================================================================

type txView struct {
	parent *Memory
}

var _ tracker.Store = (*txView)(nil)

// Nested transactions just run against the same view.
func (tv *txView) WithTx(ctx context.Context, fn func(tracker.Store) error) error {
	return fn(tv)
}

func (tv *txView) CreateCredential(_ context.Context, c engine.Credential) error {
	tv.parent.credentials[c.ID] = cloneCredential(c)
	return nil
}
func (tv *txView) GetCredential(_ context.Context, id engine.CredentialID) (*engine.Credential, error) {
	return tv.parent.getCredentialLocked(id)
}
func (tv *txView) ListCredentials(_ context.Context, userID engine.UserID) ([]engine.Credential, error) {
	var out []engine.Credential
	for _, c := range tv.parent.credentials {
		if c.UserID == userID {
			out = append(out, cloneCredential(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (tv *txView) UpdateCredential(_ context.Context, c engine.Credential) error {
	return tv.parent.updateCredentialLocked(c)
}
func (tv *txView) DeleteCredential(_ context.Context, id engine.CredentialID) error {
	return tv.parent.deleteCredentialLocked(id)
}
func (tv *txView) SetHoursEarned(_ context.Context, id engine.CredentialID, hours engine.Hours) error {
	return tv.parent.setHoursEarnedLocked(id, hours)
}
func (tv *txView) CreateActivity(_ context.Context, a engine.LearningActivity) error {
	return tv.parent.createActivityLocked(a)
}
func (tv *txView) GetActivity(_ context.Context, id engine.ActivityID) (*engine.LearningActivity, error) {
	return tv.parent.getActivityLocked(id)
}
func (tv *txView) ListActivities(ctx context.Context, userID engine.UserID) ([]engine.LearningActivity, error) {
	var out []engine.LearningActivity
	for _, a := range tv.parent.activities {
		if a.UserID == userID {
			out = append(out, cloneActivity(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (tv *txView) UpdateActivity(_ context.Context, a engine.LearningActivity) error {
	return tv.parent.updateActivityLocked(a)
}
func (tv *txView) DeleteActivity(_ context.Context, id engine.ActivityID) error {
	return tv.parent.deleteActivityLocked(id)
}
func (tv *txView) InsertLinks(_ context.Context, links []engine.CredentialActivityLink) error {
	return tv.parent.insertLinksLocked(links)
}
func (tv *txView) DeleteLinksByActivity(_ context.Context, id engine.ActivityID) error {
	return tv.parent.deleteLinksByActivityLocked(id)
}
func (tv *txView) LinksByActivity(_ context.Context, id engine.ActivityID) ([]engine.CredentialActivityLink, error) {
	return tv.parent.linksByActivityLocked(id)
}
func (tv *txView) LinksByCredential(_ context.Context, id engine.CredentialID) ([]engine.CredentialActivityLink, error) {
	return tv.parent.linksByCredentialLocked(id)
}
func (tv *txView) GetLink(_ context.Context, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	return tv.parent.getLinkLocked(id)
}
func (tv *txView) UpdateLinkSubmission(_ context.Context, link engine.CredentialActivityLink) error {
	return tv.parent.updateLinkSubmissionLocked(link)
}
func (tv *txView) SumHoursApplied(_ context.Context, id engine.CredentialID) (engine.Hours, error) {
	return tv.parent.sumHoursAppliedLocked(id)
}

// =============================================================================
// DEEP COPIES - Callers never share pointers with the store
// =============================================================================

func cloneCredential(c engine.Credential) engine.Credential {
	out := c
	if c.ExpirationDate != nil {
		d := *c.ExpirationDate
		out.ExpirationDate = &d
	}
	if c.RequiredHours != nil {
		v := *c.RequiredHours
		out.RequiredHours = &v
	}
	if c.CycleMonths != nil {
		v := *c.CycleMonths
		out.CycleMonths = &v
	}
	if c.AnnualMinimum != nil {
		v := *c.AnnualMinimum
		out.AnnualMinimum = &v
	}
	return out
}

func cloneActivity(a engine.LearningActivity) engine.LearningActivity {
	out := a
	if a.Attachments != nil {
		out.Attachments = append([]string{}, a.Attachments...)
	}
	return out
}

func cloneLink(l engine.CredentialActivityLink) engine.CredentialActivityLink {
	out := l
	if l.SubmittedDate != nil {
		d := *l.SubmittedDate
		out.SubmittedDate = &d
	}
	return out
}
