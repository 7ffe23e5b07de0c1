package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of an entry.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRetrying Status = "retrying"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
)

// KindEnrollmentNotice is an enrollment or removal email.
const KindEnrollmentNotice = "enrollment_notice"

// DefaultMaxAttempts bounds delivery attempts, the first one included.
const DefaultMaxAttempts = 5

var (
	ErrEmptyKind    = errors.New("outbox kind is required")
	ErrEmptyPayload = errors.New("outbox payload is required")
)

// Entry is a side effect that failed once and waits for redelivery.
type Entry struct {
	ID              string
	Kind            string
	Payload         string
	Status          Status
	Attempts        int
	MaxAttempts     int
	LastAttemptedAt time.Time
	CreatedAt       time.Time
	LastError       string
}

// Cursor marks a position in delivery order: creation time, then ID.
// The zero Cursor precedes every entry.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Cursor returns the position of e.
func (e Entry) Cursor() Cursor {
	return Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

// After reports whether e comes strictly after c in delivery order.
func (e Entry) After(c Cursor) bool {
	if !e.CreatedAt.Equal(c.CreatedAt) {
		return e.CreatedAt.After(c.CreatedAt)
	}
	return e.ID > c.ID
}

// NewEntry builds a pending entry.
// PRE: kind and payload are non-empty
// POST: ID is a fresh UUID; MaxAttempts is DefaultMaxAttempts
func NewEntry(kind, payload string, now time.Time) (Entry, error) {
	if kind == "" {
		return Entry{}, ErrEmptyKind
	}
	if payload == "" {
		return Entry{}, ErrEmptyPayload
	}
	return Entry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: DefaultMaxAttempts,
		CreatedAt:   now,
	}, nil
}

// IsTerminal reports whether no further attempt will be made.
func (e Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed
}

// NextRetryDelay doubles base for every attempt made, capped at ceiling.
func (e Entry) NextRetryDelay(base, ceiling time.Duration) time.Duration {
	if e.Attempts <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < e.Attempts; i++ {
		delay *= 2
		if delay >= ceiling {
			return ceiling
		}
	}
	return min(delay, ceiling)
}

// Due reports whether the backoff since the last attempt has elapsed.
func (e Entry) Due(now time.Time, base, ceiling time.Duration) bool {
	if e.IsTerminal() {
		return false
	}
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(base, ceiling)))
}

// MarkAttempt records one delivery attempt.
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
}

// MarkDone records a successful delivery.
func (e *Entry) MarkDone() {
	e.Status = StatusDone
	e.LastError = ""
}

// MarkFailed records a failed attempt.
// POST: Status is failed once attempts are exhausted, retrying otherwise
func (e *Entry) MarkFailed(err error) {
	e.LastError = err.Error()
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
		return
	}
	e.Status = StatusRetrying
}
