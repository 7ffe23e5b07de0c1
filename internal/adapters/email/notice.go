package email

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"mentorship/internal/application/orchestrators"
)

const noticeHTML = `<p>Hi {{.ParticipantName}},</p>
{{if .Enrolled}}<p>{{.ActorName}} enrolled you in <strong>{{.Activity}}</strong>.</p>
{{else}}<p>{{.ActorName}} removed you from <strong>{{.Activity}}</strong>.</p>
{{end}}<p>Open the mentorship dashboard to see the schedule and the rest of the group.</p>`

const noticeText = `Hi {{.ParticipantName}},

{{if .Enrolled}}{{.ActorName}} enrolled you in {{.Activity}}.{{else}}{{.ActorName}} removed you from {{.Activity}}.{{end}}

Open the mentorship dashboard to see the schedule and the rest of the group.
`

var (
	noticeHTMLTmpl = htmltemplate.Must(htmltemplate.New("notice").Parse(noticeHTML))
	noticeTextTmpl = texttemplate.Must(texttemplate.New("notice").Parse(noticeText))
)

type noticeView struct {
	ParticipantName string
	ActorName       string
	Activity        string
	Enrolled        bool
}

// NoticeSender turns enrollment notices into emails.
type NoticeSender struct {
	sender  Sender
	from    string
	replyTo string
}

var _ orchestrators.Notifier = (*NoticeSender)(nil)

// NewNoticeSender creates a NoticeSender. replyTo may be empty.
func NewNoticeSender(sender Sender, from, replyTo string) *NoticeSender {
	return &NoticeSender{sender: sender, from: from, replyTo: replyTo}
}

// NotifyEnrollment emails the participant whose enrollment changed.
// PRE: n.ParticipantEmail is non-empty
// POST: One message is handed to the sender, keyed by n.ID when set
func (s *NoticeSender) NotifyEnrollment(ctx context.Context, n orchestrators.EnrollmentNotice) error {
	if n.ParticipantEmail == "" {
		return ErrNoRecipient
	}
	m, err := s.compose(n)
	if err != nil {
		return err
	}
	_, err = s.sender.Send(ctx, m)
	return err
}

func (s *NoticeSender) compose(n orchestrators.EnrollmentNotice) (Message, error) {
	v := noticeView{
		ParticipantName: n.ParticipantName,
		ActorName:       n.ActorName,
		Activity:        n.Activity,
		Enrolled:        n.Kind == orchestrators.NoticeEnrolled,
	}
	if v.ActorName == "" {
		v.ActorName = "A coordinator"
	}
	if v.ParticipantName == "" {
		v.ParticipantName = n.ParticipantEmail
	}

	var html, text bytes.Buffer
	if err := noticeHTMLTmpl.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("render notice: %w", err)
	}
	if err := noticeTextTmpl.Execute(&text, v); err != nil {
		return Message{}, fmt.Errorf("render notice: %w", err)
	}

	subject := "You were enrolled in " + n.Activity
	if !v.Enrolled {
		subject = "You were removed from " + n.Activity
	}
	m := Message{
		To:      n.ParticipantEmail,
		From:    s.from,
		ReplyTo: s.replyTo,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
		Kind:    string(n.Kind),
	}
	if n.ID != "" {
		m.IdempotencyKey = "notice-" + n.ID
	}
	return m, nil
}
