package orchestrators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mentorship/internal/adapters/backend"
	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/audit"
	"mentorship/internal/domain/profile"
)

// Backend is the REST surface the dispatcher drives.
type Backend interface {
	ListActivities(ctx context.Context) (activity.Catalog, error)
	CreateActivity(ctx context.Context, in activity.NewActivityInput) (string, error)
	DeleteActivity(ctx context.Context, name string) (string, error)
	Signup(ctx context.Context, name string, who *activity.Participant) (string, error)
	Cancel(ctx context.Context, name, email string) (string, error)
	CurrentUser(ctx context.Context) (backend.CurrentUser, error)
	Profiles(ctx context.Context) ([]profile.Profile, error)
	SwitchProfile(ctx context.Context, key string) (string, error)
}

// AuditRecorder persists dispatched intents.
type AuditRecorder interface {
	Save(ctx context.Context, e audit.Event) error
}

// NoticeKind says what happened to a participant.
type NoticeKind string

const (
	NoticeEnrolled NoticeKind = "enrolled"
	NoticeRemoved  NoticeKind = "removed"
)

// EnrollmentNotice tells a participant that someone else changed their enrollment.
// ID is stable across redeliveries of the same notice.
type EnrollmentNotice struct {
	ID               string     `json:"id"`
	Kind             NoticeKind `json:"kind"`
	ParticipantName  string     `json:"participant_name"`
	ParticipantEmail string     `json:"participant_email"`
	Activity         string     `json:"activity"`
	ActorName        string     `json:"actor_name"`
}

// Notifier delivers enrollment notices.
type Notifier interface {
	NotifyEnrollment(ctx context.Context, n EnrollmentNotice) error
}

// Deps holds the collaborators shared by every intent.
// Audit and Notifier are optional.
type Deps struct {
	Backend  Backend
	State    *state.Dashboard
	Audit    AuditRecorder
	Notifier Notifier
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// ErrConfirmationRequired is returned by destructive intents submitted without confirmation.
var ErrConfirmationRequired = errors.New("confirmation required")

// FailureKind classifies a failed intent.
type FailureKind string

const (
	FailureTransport  FailureKind = "transport"
	FailureRejected   FailureKind = "rejected"
	FailureValidation FailureKind = "validation"
)

// Failure is a user-facing intent error. Prior state is untouched when one is returned.
type Failure struct {
	Kind    FailureKind
	Message string
	// Status is the backend HTTP status for rejected intents.
	Status int
	Err    error
}

// Error returns the message shown to the user.
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

func validationFailure(err error) *Failure {
	return &Failure{Kind: FailureValidation, Message: err.Error(), Err: err}
}

// classify maps a backend error onto a Failure.
// POST: rejected failures carry the backend detail, or fallback when it is empty
func classify(err error, fallback string) *Failure {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Detail
		if msg == "" {
			msg = fallback
		}
		return &Failure{Kind: FailureRejected, Message: msg, Status: apiErr.Status, Err: err}
	}
	return &Failure{Kind: FailureTransport, Message: fallback + ". Please try again.", Err: err}
}

func outcomeOf(err error) (audit.Outcome, string) {
	if err == nil {
		return audit.OutcomeOK, ""
	}
	var f *Failure
	if errors.As(err, &f) {
		switch f.Kind {
		case FailureRejected:
			return audit.OutcomeRejected, f.Message
		case FailureValidation:
			return audit.OutcomeValidation, f.Message
		}
		return audit.OutcomeTransport, f.Message
	}
	return audit.OutcomeTransport, err.Error()
}

// record saves an audit event for a write intent. Best effort.
func record(ctx context.Context, deps Deps, snap state.Snapshot, intent audit.Intent, activityName, subject string, result error) {
	outcome, detail := outcomeOf(result)
	zap.S().Infow("intent_dispatched",
		"intent", intent,
		"outcome", outcome,
		"activity", activityName,
		"profile", snap.User.Profile,
	)
	if deps.Audit == nil {
		return
	}
	e := audit.NewEvent(intent, snap.User.Name, snap.User.Email, snap.User.Profile, deps.now()).
		WithActivity(activityName).
		WithSubject(subject).
		WithOutcome(outcome, detail)
	if err := deps.Audit.Save(ctx, e); err != nil {
		zap.S().Warnw("audit_save_failed", "intent", intent, "error", err)
	}
}

// notify sends an enrollment notice. Best effort.
func notify(ctx context.Context, deps Deps, n EnrollmentNotice) {
	if deps.Notifier == nil || n.ParticipantEmail == "" {
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := deps.Notifier.NotifyEnrollment(ctx, n); err != nil {
		zap.S().Warnw("enrollment_notice_failed", "activity", n.Activity, "kind", n.Kind, "error", err)
	}
}
