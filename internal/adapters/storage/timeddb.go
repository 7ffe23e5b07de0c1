package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"mentorship/internal/adapters/http/perf"
)

// SQLDB is the database interface used by stores.
// Both *sql.DB and *TimedDB satisfy this interface.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ SQLDB = (*sql.DB)(nil)

// DefaultSlowQueryMs is the default threshold for slow statement warnings.
const DefaultSlowQueryMs = 50

// TimedDB samples every audit and outbox statement into a perf.Recorder.
type TimedDB struct {
	db   *sql.DB
	rec  perf.Recorder
	slow time.Duration
}

var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps db.
// POST: slowMs <= 0 selects DefaultSlowQueryMs; rec may be nil
func NewTimedDB(db *sql.DB, rec perf.Recorder, slowMs int) *TimedDB {
	if slowMs <= 0 {
		slowMs = DefaultSlowQueryMs
	}
	if rec == nil {
		rec = (*perf.Collector)(nil)
	}
	return &TimedDB{db: db, rec: rec, slow: time.Duration(slowMs) * time.Millisecond}
}

// statementLabel names a statement by its verb and the table it touches,
// e.g. "INSERT outbox" or "SELECT audit_event".
func statementLabel(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "EMPTY"
	}
	verb := strings.ToUpper(fields[0])
	marker := ""
	switch verb {
	case "INSERT", "REPLACE":
		marker = "INTO"
	case "SELECT", "DELETE":
		marker = "FROM"
	case "UPDATE":
		if len(fields) > 1 {
			return verb + " " + tableName(fields[1])
		}
		return verb
	default:
		return verb
	}
	for i, f := range fields[1:] {
		if strings.EqualFold(f, marker) && i+2 < len(fields) {
			return verb + " " + tableName(fields[i+2])
		}
	}
	return verb
}

func tableName(tok string) string {
	if i := strings.IndexByte(tok, '('); i >= 0 {
		tok = tok[:i]
	}
	return strings.Trim(tok, "\"`;")
}

// observe logs the statement and samples it.
func (t *TimedDB) observe(method, query string, start time.Time, err error) {
	took := time.Since(start)
	op := method + " " + statementLabel(query)
	durationMs := float64(took.Microseconds()) / 1000.0

	switch {
	case err != nil:
		zap.S().Warnw("statement_failed", "op", op, "duration_ms", durationMs, "error", err)
	case took >= t.slow:
		zap.S().Warnw("slow_statement", "op", op, "duration_ms", durationMs)
	default:
		zap.S().Debugw("statement", "op", op, "duration_ms", durationMs)
	}

	t.rec.Observe(perf.Sample{
		Source: perf.SourceStore,
		Op:     op,
		Failed: err != nil,
		Took:   took,
		At:     start,
	})
}

func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := t.db.ExecContext(ctx, query, args...)
	t.observe("Exec", query, start, err)
	return res, err
}

func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, query, args...)
	t.observe("Query", query, start, err)
	return rows, err
}

// QueryRowContext samples the query error; sql.ErrNoRows only surfaces on Scan.
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, query, args...)
	t.observe("QueryRow", query, start, row.Err())
	return row
}

// Ping verifies the database connection for the health check.
func (t *TimedDB) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}
