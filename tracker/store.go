/*
store.go - Persistence interface for the tracker

PURPOSE:
  Defines the boundary between the domain services and the database.
  The engine core consumes plain records from here and hands back
  updated aggregates; different implementations can use SQLite or
  in-memory storage.

LOOKUP CONTRACT:
  Get* methods return (nil, nil) for a missing record. The service layer
  decides whether that is a not-found error or a per-item no-op (the
  aggregate recalculation treats vanished credentials as no-ops).

TRANSACTIONS:
  WithTx executes a function against a transactional view of the store.
  The delete-then-insert link replacement on activity edit and the
  earned-hours recalculation run inside one transaction, so a mid-flight
  failure never leaves an activity with a partial link set or a stale
  aggregate. On error the transaction rolls back and prior state stands.

IMPLEMENTATIONS:
  - store/memory: In-memory with snapshot rollback, for tests and dev
  - store/sqlite: Production SQLite (WAL, foreign keys)

SEE ALSO:
  - activity.go: Link replacement + recalculation on top of WithTx
  - store/sqlite/sqlite.go: Concrete implementation
*/
package tracker

import (
	"context"

	"github.com/credtrack/cpd-engine/engine"
)

// Store is the storage collaborator for credentials, activities, and
// their links.
type Store interface {
	// WithTx executes fn against a transactional view. If fn returns an
	// error the transaction rolls back; otherwise it commits.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Credentials
	CreateCredential(ctx context.Context, c engine.Credential) error
	GetCredential(ctx context.Context, id engine.CredentialID) (*engine.Credential, error)
	ListCredentials(ctx context.Context, userID engine.UserID) ([]engine.Credential, error)
	UpdateCredential(ctx context.Context, c engine.Credential) error

	// DeleteCredential removes the credential and cascades its links.
	DeleteCredential(ctx context.Context, id engine.CredentialID) error

	// SetHoursEarned persists the recomputed aggregate. The value always
	// comes from summing live links; it is never authored by a caller.
	SetHoursEarned(ctx context.Context, id engine.CredentialID, hours engine.Hours) error

	// Activities
	CreateActivity(ctx context.Context, a engine.LearningActivity) error
	GetActivity(ctx context.Context, id engine.ActivityID) (*engine.LearningActivity, error)
	ListActivities(ctx context.Context, userID engine.UserID) ([]engine.LearningActivity, error)
	UpdateActivity(ctx context.Context, a engine.LearningActivity) error

	// DeleteActivity removes the activity and cascades its links.
	DeleteActivity(ctx context.Context, id engine.ActivityID) error

	// Links
	InsertLinks(ctx context.Context, links []engine.CredentialActivityLink) error
	DeleteLinksByActivity(ctx context.Context, id engine.ActivityID) error
	LinksByActivity(ctx context.Context, id engine.ActivityID) ([]engine.CredentialActivityLink, error)
	LinksByCredential(ctx context.Context, id engine.CredentialID) ([]engine.CredentialActivityLink, error)
	GetLink(ctx context.Context, id engine.LinkID) (*engine.CredentialActivityLink, error)
	UpdateLinkSubmission(ctx context.Context, link engine.CredentialActivityLink) error

	// SumHoursApplied computes the live aggregate for a credential from
	// its current links. SQL implementations answer this with a single
	// SUM query so the recalculation inside WithTx is atomic.
	SumHoursApplied(ctx context.Context, id engine.CredentialID) (engine.Hours, error)
}
