/*
Package sqlite provides a SQLite-backed implementation of tracker.Store.

PURPOSE:
  Persists credentials, learning activities, and their junction links.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  credentials:    Credential records with the derived hours_earned column
  activities:     Learning activity records
  activity_links: Junction rows with applied hours + submission state

AGGREGATE MAINTENANCE:
  hours_earned is a materialized sum over activity_links. It is only
  ever written from SUM(hours_applied) queries executed inside the same
  transaction as the link mutation, so a mid-flight failure can never
  leave a stale aggregate behind (the transaction rolls back whole).

INVARIANTS ENFORCED IN SCHEMA:
  - UNIQUE(credential_id, activity_id): an activity links to a given
    credential at most once
  - ON DELETE CASCADE both ways: deleting either side removes the link

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.RWMutex for thread-safety within the process. The
  read-links-then-write-sum sequence is safe because it runs inside one
  transaction while the write lock is held; see tracker/store.go for
  the transaction contract.

USAGE:
  store, err := sqlite.New("./data/credtrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - tracker/store.go: Interface definition and transaction contract
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/credtrack/cpd-engine/engine"
	"github.com/credtrack/cpd-engine/tracker"
)

// Store implements tracker.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ tracker.Store = (*Store)(nil)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		issuing_org TEXT NOT NULL,
		org_url TEXT,
		issue_date TEXT NOT NULL,
		expiration_date TEXT,
		required_hours INTEGER,
		cycle_months INTEGER,
		annual_minimum INTEGER,
		hours_earned TEXT NOT NULL DEFAULT '0',
		certificate_url TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_credentials_user
		ON credentials(user_id);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		provider TEXT NOT NULL,
		activity_date TEXT NOT NULL,
		total_hours TEXT NOT NULL,
		category TEXT,
		description TEXT,
		attachments_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_activities_user_date
		ON activities(user_id, activity_date DESC);

	CREATE TABLE IF NOT EXISTS activity_links (
		id TEXT PRIMARY KEY,
		credential_id TEXT NOT NULL
			REFERENCES credentials(id) ON DELETE CASCADE,
		activity_id TEXT NOT NULL
			REFERENCES activities(id) ON DELETE CASCADE,
		hours_applied TEXT NOT NULL,
		submitted_to_org BOOLEAN NOT NULL DEFAULT FALSE,
		submitted_date TEXT,
		submitted_notes TEXT,
		UNIQUE(credential_id, activity_id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_credential
		ON activity_links(credential_id);
	CREATE INDEX IF NOT EXISTS idx_links_activity
		ON activity_links(activity_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx so the row logic is
// written once and shared between direct and transactional calls.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx runs fn against a transactional view and rolls back on error.
func (s *Store) WithTx(ctx context.Context, fn func(tracker.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txStore{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// txStore is the transactional view handed to WithTx callbacks.
type txStore struct {
	q *sql.Tx
}

var _ tracker.Store = (*txStore)(nil)

// Nested transactions reuse the already-open one.
func (t *txStore) WithTx(ctx context.Context, fn func(tracker.Store) error) error {
	return fn(t)
}

// =============================================================================
// CREDENTIALS
// =============================================================================

const credentialColumns = `id, user_id, name, issuing_org, org_url, issue_date,
	expiration_date, required_hours, cycle_months, annual_minimum,
	hours_earned, certificate_url`

func (s *Store) CreateCredential(ctx context.Context, c engine.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createCredential(ctx, s.db, c)
}
func (t *txStore) CreateCredential(ctx context.Context, c engine.Credential) error {
	return createCredential(ctx, t.q, c)
}

func createCredential(ctx context.Context, q querier, c engine.Credential) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (
			id, user_id, name, issuing_org, org_url, issue_date,
			expiration_date, required_hours, cycle_months, annual_minimum,
			hours_earned, certificate_url
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(c.ID), string(c.UserID), c.Name, c.IssuingOrg,
		nullString(c.OrgURL), c.IssueDate.String(),
		nullDate(c.ExpirationDate), nullInt(c.RequiredHours),
		nullInt(c.CycleMonths), nullInt(c.AnnualMinimum),
		c.HoursEarned.String(), nullString(c.CertificateURL),
	)
	return err
}

func (s *Store) GetCredential(ctx context.Context, id engine.CredentialID) (*engine.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCredential(ctx, s.db, id)
}
func (t *txStore) GetCredential(ctx context.Context, id engine.CredentialID) (*engine.Credential, error) {
	return getCredential(ctx, t.q, id)
}

func getCredential(ctx context.Context, q querier, id engine.CredentialID) (*engine.Credential, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, string(id))
	c, err := scanCredential(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListCredentials(ctx context.Context, userID engine.UserID) ([]engine.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listCredentials(ctx, s.db, userID)
}
func (t *txStore) ListCredentials(ctx context.Context, userID engine.UserID) ([]engine.Credential, error) {
	return listCredentials(ctx, t.q, userID)
}

func listCredentials(ctx context.Context, q querier, userID engine.UserID) ([]engine.Credential, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE user_id = ? ORDER BY id`,
		string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateCredential(ctx context.Context, c engine.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateCredential(ctx, s.db, c)
}
func (t *txStore) UpdateCredential(ctx context.Context, c engine.Credential) error {
	return updateCredential(ctx, t.q, c)
}

func updateCredential(ctx context.Context, q querier, c engine.Credential) error {
	res, err := q.ExecContext(ctx, `
		UPDATE credentials SET
			name = ?, issuing_org = ?, org_url = ?, issue_date = ?,
			expiration_date = ?, required_hours = ?, cycle_months = ?,
			annual_minimum = ?, certificate_url = ?
		WHERE id = ?`,
		c.Name, c.IssuingOrg, nullString(c.OrgURL), c.IssueDate.String(),
		nullDate(c.ExpirationDate), nullInt(c.RequiredHours),
		nullInt(c.CycleMonths), nullInt(c.AnnualMinimum),
		nullString(c.CertificateURL), string(c.ID),
	)
	if err != nil {
		return err
	}
	return requireRows(res, engine.ErrCredentialNotFound)
}

func (s *Store) DeleteCredential(ctx context.Context, id engine.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteCredential(ctx, s.db, id)
}
func (t *txStore) DeleteCredential(ctx context.Context, id engine.CredentialID) error {
	return deleteCredential(ctx, t.q, id)
}

func deleteCredential(ctx context.Context, q querier, id engine.CredentialID) error {
	// Links cascade via the foreign key.
	_, err := q.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, string(id))
	return err
}

func (s *Store) SetHoursEarned(ctx context.Context, id engine.CredentialID, hours engine.Hours) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setHoursEarned(ctx, s.db, id, hours)
}
func (t *txStore) SetHoursEarned(ctx context.Context, id engine.CredentialID, hours engine.Hours) error {
	return setHoursEarned(ctx, t.q, id, hours)
}

func setHoursEarned(ctx context.Context, q querier, id engine.CredentialID, hours engine.Hours) error {
	res, err := q.ExecContext(ctx,
		`UPDATE credentials SET hours_earned = ? WHERE id = ?`,
		hours.String(), string(id))
	if err != nil {
		return err
	}
	return requireRows(res, engine.ErrCredentialNotFound)
}

// =============================================================================
// ACTIVITIES
// =============================================================================

const activityColumns = `id, user_id, title, provider, activity_date,
	total_hours, category, description, attachments_json`

func (s *Store) CreateActivity(ctx context.Context, a engine.LearningActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createActivity(ctx, s.db, a)
}
func (t *txStore) CreateActivity(ctx context.Context, a engine.LearningActivity) error {
	return createActivity(ctx, t.q, a)
}

func createActivity(ctx context.Context, q querier, a engine.LearningActivity) error {
	attachments, err := json.Marshal(a.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, title, provider, activity_date, total_hours,
			category, description, attachments_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(a.ID), string(a.UserID), a.Title, a.Provider,
		a.ActivityDate.String(), a.TotalHours.String(),
		nullString(a.Category), nullString(a.Description), string(attachments),
	)
	if isUniqueViolation(err) {
		return engine.ErrDuplicateActivityID
	}
	return err
}

func (s *Store) GetActivity(ctx context.Context, id engine.ActivityID) (*engine.LearningActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getActivity(ctx, s.db, id)
}
func (t *txStore) GetActivity(ctx context.Context, id engine.ActivityID) (*engine.LearningActivity, error) {
	return getActivity(ctx, t.q, id)
}

func getActivity(ctx context.Context, q querier, id engine.ActivityID) (*engine.LearningActivity, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = ?`, string(id))
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, userID engine.UserID) ([]engine.LearningActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActivities(ctx, s.db, userID)
}
func (t *txStore) ListActivities(ctx context.Context, userID engine.UserID) ([]engine.LearningActivity, error) {
	return listActivities(ctx, t.q, userID)
}

func listActivities(ctx context.Context, q querier, userID engine.UserID) ([]engine.LearningActivity, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM activities
		 WHERE user_id = ? ORDER BY activity_date DESC, id`,
		string(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.LearningActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateActivity(ctx context.Context, a engine.LearningActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateActivity(ctx, s.db, a)
}
func (t *txStore) UpdateActivity(ctx context.Context, a engine.LearningActivity) error {
	return updateActivity(ctx, t.q, a)
}

func updateActivity(ctx context.Context, q querier, a engine.LearningActivity) error {
	attachments, err := json.Marshal(a.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE activities SET
			title = ?, provider = ?, activity_date = ?, total_hours = ?,
			category = ?, description = ?, attachments_json = ?
		WHERE id = ?`,
		a.Title, a.Provider, a.ActivityDate.String(), a.TotalHours.String(),
		nullString(a.Category), nullString(a.Description), string(attachments),
		string(a.ID),
	)
	if err != nil {
		return err
	}
	return requireRows(res, engine.ErrActivityNotFound)
}

func (s *Store) DeleteActivity(ctx context.Context, id engine.ActivityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteActivity(ctx, s.db, id)
}
func (t *txStore) DeleteActivity(ctx context.Context, id engine.ActivityID) error {
	return deleteActivity(ctx, t.q, id)
}

func deleteActivity(ctx context.Context, q querier, id engine.ActivityID) error {
	// Links cascade via the foreign key.
	_, err := q.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, string(id))
	return err
}

// =============================================================================
// LINKS
// =============================================================================

const linkColumns = `id, credential_id, activity_id, hours_applied,
	submitted_to_org, submitted_date, submitted_notes`

func (s *Store) InsertLinks(ctx context.Context, links []engine.CredentialActivityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertLinks(ctx, s.db, links)
}
func (t *txStore) InsertLinks(ctx context.Context, links []engine.CredentialActivityLink) error {
	return insertLinks(ctx, t.q, links)
}

func insertLinks(ctx context.Context, q querier, links []engine.CredentialActivityLink) error {
	for _, l := range links {
		_, err := q.ExecContext(ctx, `
			INSERT INTO activity_links (
				id, credential_id, activity_id, hours_applied,
				submitted_to_org, submitted_date, submitted_notes
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(l.ID), string(l.CredentialID), string(l.ActivityID),
			l.HoursApplied.String(), l.SubmittedToOrg,
			nullDate(l.SubmittedDate), nullString(l.SubmittedNotes),
		)
		if isUniqueViolation(err) {
			return engine.ErrDuplicateLink
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteLinksByActivity(ctx context.Context, id engine.ActivityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteLinksByActivity(ctx, s.db, id)
}
func (t *txStore) DeleteLinksByActivity(ctx context.Context, id engine.ActivityID) error {
	return deleteLinksByActivity(ctx, t.q, id)
}

func deleteLinksByActivity(ctx context.Context, q querier, id engine.ActivityID) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM activity_links WHERE activity_id = ?`, string(id))
	return err
}

func (s *Store) LinksByActivity(ctx context.Context, id engine.ActivityID) ([]engine.CredentialActivityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryLinks(ctx, s.db, `activity_id`, string(id))
}
func (t *txStore) LinksByActivity(ctx context.Context, id engine.ActivityID) ([]engine.CredentialActivityLink, error) {
	return queryLinks(ctx, t.q, `activity_id`, string(id))
}

func (s *Store) LinksByCredential(ctx context.Context, id engine.CredentialID) ([]engine.CredentialActivityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryLinks(ctx, s.db, `credential_id`, string(id))
}
func (t *txStore) LinksByCredential(ctx context.Context, id engine.CredentialID) ([]engine.CredentialActivityLink, error) {
	return queryLinks(ctx, t.q, `credential_id`, string(id))
}

func queryLinks(ctx context.Context, q querier, column, id string) ([]engine.CredentialActivityLink, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM activity_links WHERE `+column+` = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.CredentialActivityLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *Store) GetLink(ctx context.Context, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getLink(ctx, s.db, id)
}
func (t *txStore) GetLink(ctx context.Context, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	return getLink(ctx, t.q, id)
}

func getLink(ctx context.Context, q querier, id engine.LinkID) (*engine.CredentialActivityLink, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM activity_links WHERE id = ?`, string(id))
	l, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) UpdateLinkSubmission(ctx context.Context, link engine.CredentialActivityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateLinkSubmission(ctx, s.db, link)
}
func (t *txStore) UpdateLinkSubmission(ctx context.Context, link engine.CredentialActivityLink) error {
	return updateLinkSubmission(ctx, t.q, link)
}

func updateLinkSubmission(ctx context.Context, q querier, link engine.CredentialActivityLink) error {
	res, err := q.ExecContext(ctx, `
		UPDATE activity_links SET
			submitted_to_org = ?, submitted_date = ?, submitted_notes = ?
		WHERE id = ?`,
		link.SubmittedToOrg, nullDate(link.SubmittedDate),
		nullString(link.SubmittedNotes), string(link.ID),
	)
	if err != nil {
		return err
	}
	return requireRows(res, engine.ErrLinkNotFound)
}

func (s *Store) SumHoursApplied(ctx context.Context, id engine.CredentialID) (engine.Hours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumHoursApplied(ctx, s.db, id)
}
func (t *txStore) SumHoursApplied(ctx context.Context, id engine.CredentialID) (engine.Hours, error) {
	return sumHoursApplied(ctx, t.q, id)
}

func sumHoursApplied(ctx context.Context, q querier, id engine.CredentialID) (engine.Hours, error) {
	// hours_applied is a two-decimal string; summing in Go keeps the
	// arithmetic exact instead of trusting SQLite's float SUM.
	rows, err := q.QueryContext(ctx,
		`SELECT hours_applied FROM activity_links WHERE credential_id = ?`,
		string(id))
	if err != nil {
		return engine.ZeroHours(), err
	}
	defer rows.Close()

	sum := engine.ZeroHours()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return engine.ZeroHours(), err
		}
		sum = sum.Add(engine.HoursFromString(raw))
	}
	return sum, rows.Err()
}

// =============================================================================
// ROW MAPPING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*engine.Credential, error) {
	var (
		c              engine.Credential
		id, userID     string
		orgURL         sql.NullString
		issueDate      string
		expirationDate sql.NullString
		requiredHours  sql.NullInt64
		cycleMonths    sql.NullInt64
		annualMinimum  sql.NullInt64
		hoursEarned    string
		certificateURL sql.NullString
	)
	err := row.Scan(&id, &userID, &c.Name, &c.IssuingOrg, &orgURL, &issueDate,
		&expirationDate, &requiredHours, &cycleMonths, &annualMinimum,
		&hoursEarned, &certificateURL)
	if err != nil {
		return nil, err
	}

	c.ID = engine.CredentialID(id)
	c.UserID = engine.UserID(userID)
	c.OrgURL = orgURL.String
	c.CertificateURL = certificateURL.String
	c.HoursEarned = engine.HoursFromString(hoursEarned)

	if c.IssueDate, err = engine.ParseDate(issueDate); err != nil {
		return nil, fmt.Errorf("credential %s: %w", id, err)
	}
	if expirationDate.Valid {
		d, err := engine.ParseDate(expirationDate.String)
		if err != nil {
			return nil, fmt.Errorf("credential %s: %w", id, err)
		}
		c.ExpirationDate = &d
	}
	c.RequiredHours = intPtr(requiredHours)
	c.CycleMonths = intPtr(cycleMonths)
	c.AnnualMinimum = intPtr(annualMinimum)
	return &c, nil
}

func scanActivity(row rowScanner) (*engine.LearningActivity, error) {
	var (
		a               engine.LearningActivity
		id, userID      string
		activityDate    string
		totalHours      string
		category        sql.NullString
		description     sql.NullString
		attachmentsJSON sql.NullString
	)
	err := row.Scan(&id, &userID, &a.Title, &a.Provider, &activityDate,
		&totalHours, &category, &description, &attachmentsJSON)
	if err != nil {
		return nil, err
	}

	a.ID = engine.ActivityID(id)
	a.UserID = engine.UserID(userID)
	a.TotalHours = engine.HoursFromString(totalHours)
	a.Category = category.String
	a.Description = description.String

	if a.ActivityDate, err = engine.ParseDate(activityDate); err != nil {
		return nil, fmt.Errorf("activity %s: %w", id, err)
	}
	if attachmentsJSON.Valid && attachmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(attachmentsJSON.String), &a.Attachments); err != nil {
			return nil, fmt.Errorf("activity %s attachments: %w", id, err)
		}
	}
	return &a, nil
}

func scanLink(row rowScanner) (*engine.CredentialActivityLink, error) {
	var (
		l              engine.CredentialActivityLink
		id, credID     string
		activityID     string
		hoursApplied   string
		submittedDate  sql.NullString
		submittedNotes sql.NullString
	)
	err := row.Scan(&id, &credID, &activityID, &hoursApplied,
		&l.SubmittedToOrg, &submittedDate, &submittedNotes)
	if err != nil {
		return nil, err
	}

	l.ID = engine.LinkID(id)
	l.CredentialID = engine.CredentialID(credID)
	l.ActivityID = engine.ActivityID(activityID)
	l.HoursApplied = engine.HoursFromString(hoursApplied)
	l.SubmittedNotes = submittedNotes.String

	if submittedDate.Valid {
		d, err := engine.ParseDate(submittedDate.String)
		if err != nil {
			return nil, fmt.Errorf("link %s: %w", id, err)
		}
		l.SubmittedDate = &d
	}
	return &l, nil
}

// =============================================================================
// SQL HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullDate(d *engine.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func requireRows(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
