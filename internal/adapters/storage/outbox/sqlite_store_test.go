package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"mentorship/internal/adapters/storage"
	domain "mentorship/internal/domain/outbox"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndListPending tests round-tripping and oldest-first ordering.
func TestSQLiteStore_SaveAndListPending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	second, _ := domain.NewEntry(domain.KindEnrollmentNotice, `{"n":2}`, base.Add(time.Minute))
	first, _ := domain.NewEntry(domain.KindEnrollmentNotice, `{"n":1}`, base)
	first.MarkAttempt(base)
	first.MarkFailed(errors.New("smtp down"))
	for _, e := range []domain.Entry{second, first} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.ListPending(ctx, domain.Cursor{}, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("order = %s, %s", got[0].Payload, got[1].Payload)
	}
	if got[0].Status != domain.StatusRetrying || got[0].Attempts != 1 || got[0].LastError != "smtp down" {
		t.Errorf("first = %+v", got[0])
	}
	if !got[0].LastAttemptedAt.Equal(base) || !got[0].CreatedAt.Equal(base) {
		t.Errorf("timestamps = %v %v", got[0].LastAttemptedAt, got[0].CreatedAt)
	}
	if !got[1].LastAttemptedAt.IsZero() {
		t.Errorf("unattempted entry has LastAttemptedAt %v", got[1].LastAttemptedAt)
	}
}

// TestSQLiteStore_SaveUpdates tests that terminal entries leave the pending list.
func TestSQLiteStore_SaveUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	done, _ := domain.NewEntry(domain.KindEnrollmentNotice, "{}", now)
	failed, _ := domain.NewEntry(domain.KindEnrollmentNotice, "{}", now)
	for _, e := range []domain.Entry{done, failed} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	done.MarkAttempt(now)
	done.MarkDone()
	failed.MaxAttempts = 1
	failed.MarkAttempt(now)
	failed.MarkFailed(errors.New("bounced"))
	for _, e := range []domain.Entry{done, failed} {
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save update: %v", err)
		}
	}

	pending, err := store.ListPending(ctx, domain.Cursor{}, 10)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[domain.StatusDone] != 1 || counts[domain.StatusFailed] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

// TestSQLiteStore_SaveRequiresID tests rejection of unidentified entries.
func TestSQLiteStore_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save(context.Background(), domain.Entry{Kind: "x", Payload: "y"}); err == nil {
		t.Fatal("expected error")
	}
}

// TestSQLiteStore_ListPendingAfterCursor tests keyset paging, ties on created_at included.
func TestSQLiteStore_ListPendingAfterCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{base, base, base.Add(500 * time.Millisecond), base.Add(time.Second)} {
		e, _ := domain.NewEntry(domain.KindEnrollmentNotice, "{}", at)
		e.ID = fmt.Sprintf("entry-%d", i)
		if err := store.Save(ctx, e); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	var seen []string
	var after domain.Cursor
	for {
		page, err := store.ListPending(ctx, after, 2)
		if err != nil {
			t.Fatalf("ListPending: %v", err)
		}
		for _, e := range page {
			seen = append(seen, e.ID)
			after = e.Cursor()
		}
		if len(page) < 2 {
			break
		}
	}
	want := []string{"entry-0", "entry-1", "entry-2", "entry-3"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("paged = %v, want %v", seen, want)
	}
}
