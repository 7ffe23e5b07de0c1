package orchestrators

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/audit"
)

var (
	ErrNoEnrollPermission = errors.New("You don't have permission to enroll participants")
	ErrNoRemovePermission = errors.New("You don't have permission to remove this participant")
	ErrIdentityRequired   = errors.New("Name and email are required")
	ErrEmailRequired      = errors.New("Participant email is required")
	ErrIncompleteUser     = errors.New("Error: incomplete user data. Try switching profile and returning.")
)

// EnrollInput carries the signup form.
// Name and Email are ignored for self-managed profiles.
type EnrollInput struct {
	Activity string
	Name     string
	Email    string
}

// ExecuteEnroll signs a participant up and refreshes that activity.
// PRE: the current profile can enroll
// POST: Self-managed profiles send no identity; others send name and email as query parameters
// POST: On failure the cache is untouched
func ExecuteEnroll(ctx context.Context, input EnrollInput, deps Deps) (string, error) {
	snap := deps.State.Snapshot()
	perms := snap.Permissions

	var who *activity.Participant
	switch {
	case !perms.CanEnroll():
		return "", validationFailure(ErrNoEnrollPermission)
	case perms.SelfManaged():
		if !snap.User.HasIdentity() {
			return "", validationFailure(ErrIncompleteUser)
		}
	default:
		name := strings.TrimSpace(input.Name)
		email := strings.TrimSpace(input.Email)
		if name == "" || email == "" {
			return "", validationFailure(ErrIdentityRequired)
		}
		who = &activity.Participant{Name: name, Email: email}
	}

	msg, err := deps.Backend.Signup(ctx, input.Activity, who)
	subject := snap.User.Email
	if who != nil {
		subject = who.Email
	}
	if err != nil {
		f := classify(err, "Error enrolling participant")
		record(ctx, deps, snap, audit.IntentEnroll, input.Activity, subject, f)
		return "", f
	}
	record(ctx, deps, snap, audit.IntentEnroll, input.Activity, subject, nil)

	if err := ExecuteRefreshActivity(ctx, input.Activity, deps); err != nil {
		zap.S().Warnw("post_enroll_refresh_failed", "activity", input.Activity, "error", err)
	}
	if who != nil {
		notify(ctx, deps, EnrollmentNotice{
			Kind:             NoticeEnrolled,
			ParticipantName:  who.Name,
			ParticipantEmail: who.Email,
			Activity:         input.Activity,
			ActorName:        snap.User.Name,
		})
	}
	if msg == "" {
		msg = "Enrollment confirmed"
	}
	return msg, nil
}

// CancelInput identifies the enrollment to remove.
type CancelInput struct {
	Activity  string
	Email     string
	Confirmed bool
}

// ExecuteCancel removes a participant and refreshes that activity.
// PRE: Confirmed is true
// POST: Self-managed profiles omit the email parameter; every other profile must name one
func ExecuteCancel(ctx context.Context, input CancelInput, deps Deps) (string, error) {
	if !input.Confirmed {
		return "", ErrConfirmationRequired
	}
	snap := deps.State.Snapshot()
	perms := snap.Permissions

	email := strings.TrimSpace(input.Email)
	if email == "" {
		if !perms.SelfManaged() {
			return "", validationFailure(ErrEmailRequired)
		}
		email = snap.User.Email
	}
	if !perms.CanRemove(email, snap.User) {
		return "", validationFailure(ErrNoRemovePermission)
	}

	param := email
	if perms.SelfManaged() {
		param = ""
	}

	var participantName string
	if a, ok := snap.Activities.Get(input.Activity); ok {
		for _, p := range a.Participants {
			if strings.EqualFold(p.Email, email) {
				participantName = p.Name
				break
			}
		}
	}

	msg, err := deps.Backend.Cancel(ctx, input.Activity, param)
	if err != nil {
		f := classify(err, "Error canceling enrollment")
		record(ctx, deps, snap, audit.IntentCancel, input.Activity, email, f)
		return "", f
	}
	record(ctx, deps, snap, audit.IntentCancel, input.Activity, email, nil)

	if err := ExecuteRefreshActivity(ctx, input.Activity, deps); err != nil {
		zap.S().Warnw("post_cancel_refresh_failed", "activity", input.Activity, "error", err)
	}
	if !perms.SelfManaged() {
		notify(ctx, deps, EnrollmentNotice{
			Kind:             NoticeRemoved,
			ParticipantName:  participantName,
			ParticipantEmail: email,
			Activity:         input.Activity,
			ActorName:        snap.User.Name,
		})
	}
	if msg == "" {
		msg = "Enrollment canceled"
	}
	return msg, nil
}
