package outbox

import (
	"context"

	"mentorship/internal/adapters/storage"
	domain "mentorship/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// Save persists an outbox entry.
	// PRE: entry has an ID
	// POST: Entry is inserted or replaced
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still awaiting delivery.
	// PRE: limit > 0
	// POST: Returns up to limit pending or retrying entries, oldest first
	ListPending(ctx context.Context, after domain.Cursor, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries per status.
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

var _ Store = (*SQLiteStore)(nil)

// SQLDB is the subset of *sql.DB the store needs.
type SQLDB interface {
	storage.SQLDB
}
