package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "mentorship/internal/domain/audit"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

const eventColumns = `id, timestamp, intent, outcome, actor_name, actor_email, actor_profile, activity, subject, detail`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db SQLDB
}

// NewSQLiteStore creates a new audit event store.
func NewSQLiteStore(db SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists an audit event.
// PRE: event has an ID
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	if e.ID == "" {
		return fmt.Errorf("audit event without id")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_event (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UTC().Format(dateLayout), string(e.Intent), string(e.Outcome),
		e.ActorName, e.ActorEmail, e.ActorProfile, e.Activity, e.Subject, e.Detail)
	return err
}

// List returns one page of audit events matching filter, newest first.
// PRE: limit > 0, offset >= 0
// POST: Returns events ordered by timestamp desc
func (s *SQLiteStore) List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error) {
	where, args := filter.where()
	query := `SELECT ` + eventColumns + ` FROM audit_event` + where + ` ORDER BY timestamp DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Count returns the number of events matching filter.
func (s *SQLiteStore) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := filter.where()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_event`+where, args...).Scan(&n)
	return n, err
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Intent != "" {
		clauses = append(clauses, "intent = ?")
		args = append(args, string(f.Intent))
	}
	if f.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if f.Activity != "" {
		clauses = append(clauses, "activity = ?")
		args = append(args, f.Activity)
	}
	if f.ActorEmail != "" {
		clauses = append(clauses, "actor_email = ? COLLATE NOCASE")
		args = append(args, f.ActorEmail)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var e domain.Event
	var timestamp, intent, outcome string
	err := rows.Scan(&e.ID, &timestamp, &intent, &outcome, &e.ActorName, &e.ActorEmail, &e.ActorProfile, &e.Activity, &e.Subject, &e.Detail)
	if err != nil {
		return domain.Event{}, err
	}
	e.Intent = domain.Intent(intent)
	e.Outcome = domain.Outcome(outcome)
	e.Timestamp, _ = time.Parse(dateLayout, timestamp)
	return e, nil
}
