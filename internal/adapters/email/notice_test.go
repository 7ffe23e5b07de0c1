package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"mentorship/internal/application/orchestrators"
)

type recordingSender struct {
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, m Message) (string, error) {
	r.sent = append(r.sent, m)
	return "m1", r.err
}

// TestNoticeSender_Enrolled tests the enrollment email.
func TestNoticeSender_Enrolled(t *testing.T) {
	rec := &recordingSender{}
	s := NewNoticeSender(rec, "Mentorship <noreply@x.org>", "coord@x.org")

	err := s.NotifyEnrollment(context.Background(), orchestrators.EnrollmentNotice{
		ID:               "n-1",
		Kind:             orchestrators.NoticeEnrolled,
		ParticipantName:  "Bia",
		ParticipantEmail: "bia@x.org",
		Activity:         "Leadership 101",
		ActorName:        "Carla",
	})
	if err != nil {
		t.Fatalf("NotifyEnrollment: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(rec.sent))
	}
	got := rec.sent[0]
	if got.To != "bia@x.org" || got.From != "Mentorship <noreply@x.org>" || got.ReplyTo != "coord@x.org" {
		t.Errorf("unexpected envelope: %+v", got)
	}
	if got.Subject != "You were enrolled in Leadership 101" {
		t.Errorf("Subject = %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "Carla enrolled you in") || !strings.Contains(got.Text, "Carla enrolled you in Leadership 101.") {
		t.Errorf("body missing actor line:\n%s\n%s", got.HTML, got.Text)
	}
	if got.Kind != "enrolled" || got.IdempotencyKey != "notice-n-1" {
		t.Errorf("Kind = %q, IdempotencyKey = %q", got.Kind, got.IdempotencyKey)
	}
}

// TestNoticeSender_RemovedEscapes tests the removal email and HTML escaping.
func TestNoticeSender_RemovedEscapes(t *testing.T) {
	rec := &recordingSender{}
	s := NewNoticeSender(rec, "noreply@x.org", "")

	err := s.NotifyEnrollment(context.Background(), orchestrators.EnrollmentNotice{
		Kind:             orchestrators.NoticeRemoved,
		ParticipantEmail: "bia@x.org",
		Activity:         "<b>Ops</b>",
	})
	if err != nil {
		t.Fatalf("NotifyEnrollment: %v", err)
	}
	got := rec.sent[0]
	if !strings.HasPrefix(got.Subject, "You were removed from") {
		t.Errorf("Subject = %q", got.Subject)
	}
	if strings.Contains(got.HTML, "<b>Ops</b>") {
		t.Error("activity name was not escaped")
	}
	if !strings.Contains(got.Text, "<b>Ops</b>") {
		t.Error("plain text body should carry the raw name")
	}
	if !strings.Contains(got.HTML, "A coordinator removed you") || !strings.Contains(got.HTML, "Hi bia@x.org") {
		t.Errorf("fallbacks not applied: %s", got.HTML)
	}
	if got.IdempotencyKey != "" {
		t.Errorf("IdempotencyKey = %q, want empty without a notice id", got.IdempotencyKey)
	}
}

// TestNoticeSender_Errors tests missing recipients and sender failures.
func TestNoticeSender_Errors(t *testing.T) {
	rec := &recordingSender{err: errors.New("quota")}
	s := NewNoticeSender(rec, "noreply@x.org", "")

	if err := s.NotifyEnrollment(context.Background(), orchestrators.EnrollmentNotice{Activity: "A"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("err = %v, want ErrNoRecipient", err)
	}
	if len(rec.sent) != 0 {
		t.Error("nothing should be sent without a recipient")
	}
	err := s.NotifyEnrollment(context.Background(), orchestrators.EnrollmentNotice{ParticipantEmail: "a@x.org", Activity: "A"})
	if err == nil || err.Error() != "quota" {
		t.Errorf("expected sender error, got %v", err)
	}
}

// TestLogSender tests local ids and recipient validation.
func TestLogSender(t *testing.T) {
	s := NewLogSender()
	first, err := s.Send(context.Background(), Message{To: "a@x.org", Subject: "hi"})
	if err != nil || first != "log-1" {
		t.Errorf("Send() = %q, %v", first, err)
	}
	second, _ := s.Send(context.Background(), Message{To: "a@x.org"})
	if second != "log-2" {
		t.Errorf("second id = %q", second)
	}
	if _, err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("err = %v, want ErrNoRecipient", err)
	}
}

// TestResendSender_Send tests the request sent to the Resend API.
func TestResendSender_Send(t *testing.T) {
	var body map[string]any
	var idempotency, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			http.NotFound(w, r)
			return
		}
		idempotency = r.Header.Get("Idempotency-Key")
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "Mentorship <noreply@x.org>")
	base, _ := url.Parse(srv.URL + "/")
	s.client.BaseURL = base

	id, err := s.Send(context.Background(), Message{
		To:             "bia@x.org",
		Subject:        "You were enrolled in Go",
		HTML:           "<p>hi</p>",
		Text:           "hi",
		Kind:           "enrolled",
		IdempotencyKey: "notice-n-1",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "re_123" {
		t.Errorf("id = %q", id)
	}
	if idempotency != "notice-n-1" || auth != "Bearer re_test" {
		t.Errorf("headers: idempotency=%q auth=%q", idempotency, auth)
	}
	if body["from"] != "Mentorship <noreply@x.org>" || body["text"] != "hi" {
		t.Errorf("body = %v", body)
	}
	tags, _ := body["tags"].([]any)
	if len(tags) != 1 {
		t.Fatalf("tags = %v", body["tags"])
	}
	if tag, _ := tags[0].(map[string]any); tag["value"] != "enrolled" {
		t.Errorf("tag = %v", tags[0])
	}
}

// TestResendSender_Rejected tests that API errors are returned.
func TestResendSender_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "noreply@x.org")
	base, _ := url.Parse(srv.URL + "/")
	s.client.BaseURL = base

	if _, err := s.Send(context.Background(), Message{To: "bad", Subject: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("err = %v, want ErrNoRecipient", err)
	}
}
