package storage

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"mentorship/internal/adapters/http/perf"
)

func openNoticeTable(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec("CREATE TABLE notice (id TEXT PRIMARY KEY, recipient TEXT)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func storeOps(c *perf.Collector) map[string]perf.OpStat {
	ops := map[string]perf.OpStat{}
	for _, s := range c.Report(time.Now().Add(-time.Minute), 50).Store.Slowest {
		ops[s.Op] = s
	}
	return ops
}

func TestStatementLabel(t *testing.T) {
	tests := []struct{ query, want string }{
		{"INSERT INTO outbox (id) VALUES (?)", "INSERT outbox"},
		{"insert or replace into notice(id) values (?)", "INSERT notice"},
		{"  select id, kind FROM outbox WHERE status IN (?, ?)", "SELECT outbox"},
		{"SELECT COUNT(*) FROM audit_event", "SELECT audit_event"},
		{"UPDATE \"schema_version\" SET version = ?", "UPDATE schema_version"},
		{"DELETE FROM outbox WHERE id = ?;", "DELETE outbox"},
		{"CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status)", "CREATE"},
		{"SELECT 1", "SELECT"},
		{"   ", "EMPTY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statementLabel(tt.query), tt.query)
	}
}

func TestTimedDB_SamplesEachMethod(t *testing.T) {
	c := perf.NewCollector(100)
	tdb := NewTimedDB(openNoticeTable(t), c, 0)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "INSERT INTO notice (id, recipient) VALUES (?, ?)", "n1", "ana@example.com")
	require.NoError(t, err)
	rows, err := tdb.QueryContext(ctx, "SELECT id FROM notice")
	require.NoError(t, err)
	rows.Close()
	var to string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT recipient FROM notice WHERE id = ?", "n1").Scan(&to))
	assert.Equal(t, "ana@example.com", to)

	assert.Equal(t, int64(3), c.Observed())
	ops := storeOps(c)
	for _, want := range []string{"Exec INSERT notice", "Query SELECT notice", "QueryRow SELECT notice"} {
		assert.Contains(t, ops, want)
	}
}

func TestTimedDB_NilRecorder(t *testing.T) {
	tdb := NewTimedDB(openNoticeTable(t), nil, 10)
	_, err := tdb.ExecContext(context.Background(), "INSERT INTO notice (id) VALUES (?)", "n1")
	assert.NoError(t, err)
}

func TestTimedDB_FailuresSampled(t *testing.T) {
	c := perf.NewCollector(100)
	tdb := NewTimedDB(openNoticeTable(t), c, 0)

	_, err := tdb.ExecContext(context.Background(), "INSERT INTO missing VALUES (1)")
	assert.Error(t, err)
	_, err = tdb.QueryContext(context.Background(), "SELEC nonsense")
	assert.Error(t, err)

	store := c.Report(time.Now().Add(-time.Minute), 10).Store
	assert.Equal(t, 2, store.Count)
	assert.Equal(t, 2, store.Failures)
}

func TestTimedDB_CancelledContext(t *testing.T) {
	c := perf.NewCollector(100)
	tdb := NewTimedDB(openNoticeTable(t), c, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tdb.ExecContext(ctx, "INSERT INTO notice (id) VALUES (?)", "n1")
	require.Error(t, err)
	assert.Equal(t, 1, storeOps(c)["Exec INSERT notice"].Failures)
}

func TestTimedDB_Concurrent(t *testing.T) {
	c := perf.NewCollector(1000)
	tdb := NewTimedDB(openNoticeTable(t), c, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tdb.ExecContext(ctx, "INSERT OR REPLACE INTO notice (id, recipient) VALUES (?, ?)", "w", "v")
			var v string
			tdb.QueryRowContext(ctx, "SELECT recipient FROM notice WHERE id = ?", "w").Scan(&v)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), c.Observed())
}
