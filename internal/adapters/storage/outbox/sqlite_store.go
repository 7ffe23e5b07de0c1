package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "mentorship/internal/domain/outbox"
)

// dateLayout keeps a fixed-width fraction so stored UTC times sort as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const entryColumns = `id, kind, payload, status, attempts, max_attempts, last_attempted_at, created_at, last_error`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an outbox entry.
// PRE: entry has an ID
// POST: Entry is inserted or replaced
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("outbox entry without id")
	}
	lastAttemptedAt := ""
	if !e.LastAttemptedAt.IsZero() {
		lastAttemptedAt = e.LastAttemptedAt.UTC().Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, last_error=excluded.last_error`,
		e.ID, e.Kind, e.Payload, string(e.Status), e.Attempts, e.MaxAttempts,
		lastAttemptedAt, e.CreatedAt.UTC().Format(dateLayout), e.LastError)
	return err
}

// ListPending returns entries still awaiting delivery that come after the cursor.
// PRE: limit > 0
// POST: Returns up to limit pending or retrying entries ordered by created_at, then id
func (s *SQLiteStore) ListPending(ctx context.Context, after domain.Cursor, limit int) ([]domain.Entry, error) {
	since := after.CreatedAt.UTC().Format(dateLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM outbox
		 WHERE status IN (?, ?) AND (created_at > ? OR (created_at = ? AND id > ?))
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		string(domain.StatusPending), string(domain.StatusRetrying), since, since, after.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByStatus returns the number of entries per status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

func scanEntry(rows *sql.Rows) (domain.Entry, error) {
	var e domain.Entry
	var status, lastAttemptedAt, createdAt string
	if err := rows.Scan(&e.ID, &e.Kind, &e.Payload, &status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &createdAt, &e.LastError); err != nil {
		return domain.Entry{}, err
	}
	e.Status = domain.Status(status)
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if lastAttemptedAt != "" {
		e.LastAttemptedAt, _ = time.Parse(time.RFC3339Nano, lastAttemptedAt)
	}
	return e, nil
}
