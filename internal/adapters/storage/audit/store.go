package audit

import (
	"context"

	"mentorship/internal/adapters/storage"
	domain "mentorship/internal/domain/audit"
)

// Store defines the interface for audit event persistence.
type Store interface {
	// Save persists an audit event.
	// PRE: event has an ID
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// List returns one page of audit events matching filter.
	// PRE: limit > 0, offset >= 0
	// POST: Returns events ordered by timestamp desc
	List(ctx context.Context, filter Filter, limit, offset int) ([]domain.Event, error)

	// Count returns how many events match filter.
	Count(ctx context.Context, filter Filter) (int, error)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Intent     domain.Intent
	Outcome    domain.Outcome
	Activity   string
	ActorEmail string
}

var _ Store = (*SQLiteStore)(nil)

// SQLDB defines the database interface needed by the store.
type SQLDB interface {
	storage.SQLDB
}
