package email

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrNoRecipient is returned for messages without a To address.
var ErrNoRecipient = errors.New("email without recipient")

// Message is one notice email to a single participant.
type Message struct {
	To      string
	From    string // empty uses the sender's default
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	// Kind tags the message at the provider, e.g. "enrolled".
	Kind string
	// IdempotencyKey lets the provider drop repeated deliveries.
	IdempotencyKey string
}

// Sender hands a message to a delivery provider.
type Sender interface {
	// Send returns the provider's message id.
	Send(ctx context.Context, m Message) (string, error)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	sent atomic.Int64
}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message.
// POST: Returns a local id; nothing leaves the process
func (s *LogSender) Send(_ context.Context, m Message) (string, error) {
	if m.To == "" {
		return "", ErrNoRecipient
	}
	id := fmt.Sprintf("log-%d", s.sent.Add(1))
	zap.S().Infow("notice_email_logged", "message_id", id, "to", m.To, "kind", m.Kind, "subject", m.Subject)
	return id, nil
}
