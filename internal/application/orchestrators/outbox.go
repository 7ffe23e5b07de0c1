package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	domainOutbox "mentorship/internal/domain/outbox"
)

// OutboxStore persists notices awaiting redelivery.
type OutboxStore interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
	ListPending(ctx context.Context, after domainOutbox.Cursor, limit int) ([]domainOutbox.Entry, error)
}

// QueueingNotifier delivers notices through next and queues the ones that fail.
type QueueingNotifier struct {
	next  Notifier
	store OutboxStore
	now   func() time.Time
}

var _ Notifier = (*QueueingNotifier)(nil)

// NewQueueingNotifier wraps next with an outbox.
func NewQueueingNotifier(next Notifier, store OutboxStore) *QueueingNotifier {
	return &QueueingNotifier{next: next, store: store, now: time.Now}
}

// NotifyEnrollment tries next once.
// POST: A failed delivery is saved as a retrying entry and nil is returned;
// an error is returned only when the notice could not be queued
func (q *QueueingNotifier) NotifyEnrollment(ctx context.Context, n EnrollmentNotice) error {
	sendErr := q.next.NotifyEnrollment(ctx, n)
	if sendErr == nil {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	now := q.now()
	entry, err := domainOutbox.NewEntry(domainOutbox.KindEnrollmentNotice, string(payload), now)
	if err != nil {
		return err
	}
	entry.MarkAttempt(now)
	entry.MarkFailed(sendErr)
	if err := q.store.Save(ctx, entry); err != nil {
		return fmt.Errorf("queue notice after %v: %w", sendErr, err)
	}
	zap.S().Infow("notice_queued_for_retry", "entry_id", entry.ID, "activity", n.Activity, "error", sendErr)
	return nil
}

// OutboxProcessor redelivers queued notices with exponential backoff.
type OutboxProcessor struct {
	store     OutboxStore
	notifier  Notifier
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates a processor delivering through notifier.
func NewOutboxProcessor(store OutboxStore, notifier Notifier) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		notifier:  notifier,
		baseDelay: 30 * time.Second,
		maxDelay:  time.Hour,
		batchSize: 50,
		now:       time.Now,
	}
}

// ProcessPending attempts up to batchSize due entries, oldest first.
// Entries still backing off are paged past, so they never hide newer due ones.
// PRE: store is connected
// POST: Each attempted entry is saved as done, retrying or failed; returns the number delivered
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (int, error) {
	var after domainOutbox.Cursor
	delivered, attempted := 0, 0
	for attempted < p.batchSize {
		page, err := p.store.ListPending(ctx, after, p.batchSize)
		if err != nil {
			return delivered, fmt.Errorf("list pending outbox entries: %w", err)
		}
		for _, entry := range page {
			after = entry.Cursor()
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			now := p.now()
			if !entry.Due(now, p.baseDelay, p.maxDelay) {
				continue
			}
			if p.attempt(ctx, entry, now) {
				delivered++
			}
			if attempted++; attempted == p.batchSize {
				break
			}
		}
		if len(page) < p.batchSize {
			break
		}
	}
	return delivered, nil
}

// attempt delivers entry once and saves the outcome.
// POST: Returns true when the notice was delivered
func (p *OutboxProcessor) attempt(ctx context.Context, entry domainOutbox.Entry, now time.Time) bool {
	entry.MarkAttempt(now)

	err := p.deliver(ctx, entry)
	if err != nil {
		entry.MarkFailed(err)
		zap.S().Warnw("outbox_delivery_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err)
	} else {
		entry.MarkDone()
		zap.S().Infow("outbox_delivery_succeeded", "entry_id", entry.ID, "attempt", entry.Attempts)
	}

	if saveErr := p.store.Save(ctx, entry); saveErr != nil {
		zap.S().Errorw("outbox_save_failed", "entry_id", entry.ID, "error", saveErr)
	}
	return err == nil
}

func (p *OutboxProcessor) deliver(ctx context.Context, entry domainOutbox.Entry) error {
	switch entry.Kind {
	case domainOutbox.KindEnrollmentNotice:
		var n EnrollmentNotice
		if err := json.Unmarshal([]byte(entry.Payload), &n); err != nil {
			return fmt.Errorf("decode notice: %w", err)
		}
		return p.notifier.NotifyEnrollment(ctx, n)
	default:
		return fmt.Errorf("unknown outbox kind %q", entry.Kind)
	}
}

// Run processes the outbox every interval until ctx is done.
func (p *OutboxProcessor) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				zap.S().Errorw("outbox_run_failed", "error", err)
			}
		}
	}
}
