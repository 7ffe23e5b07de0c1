package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender with a default from address.
// PRE: apiKey is a Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers m, deduplicated by its idempotency key when set.
// PRE: m.To is non-empty
// POST: Returns the Resend message id
func (s *ResendSender) Send(ctx context.Context, m Message) (string, error) {
	if m.To == "" {
		return "", ErrNoRecipient
	}
	from := m.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Text:    m.Text,
		ReplyTo: m.ReplyTo,
	}
	if m.Kind != "" {
		params.Tags = []resend.Tag{{Name: "notice", Value: m.Kind}}
	}
	// An empty key sends no Idempotency-Key header; opts must not be nil.
	opts := &resend.SendEmailOptions{IdempotencyKey: m.IdempotencyKey}

	sent, err := s.client.Emails.SendWithOptions(ctx, params, opts)
	if err != nil {
		zap.S().Warnw("resend_send_failed", "to", m.To, "kind", m.Kind, "error", err)
		return "", fmt.Errorf("resend: %w", err)
	}
	zap.S().Infow("notice_email_sent", "message_id", sent.Id, "to", m.To, "kind", m.Kind)
	return sent.Id, nil
}
