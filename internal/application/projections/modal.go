package projections

import (
	"fmt"
	"strings"

	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/profile"
)

// ParticipantRow is one roster entry in the detail modal.
type ParticipantRow struct {
	Name      string
	Email     string
	Removable bool
	// RemoveLabel and ConfirmMessage are empty when Removable is false.
	RemoveLabel    string
	ConfirmMessage Prompt
}

// EnrollmentSection is the signup form, or the lock notice when Allowed is false.
type EnrollmentSection struct {
	Allowed     bool
	Title       string
	LockMessage string
	SelfManaged bool
	// Name and Email prefill the read-only identity of a self-managed user.
	Name        string
	Email       string
	Disabled    bool
	SubmitLabel string
}

// AdminSection holds the destructive controls.
type AdminSection struct {
	Title          string
	Warning        string
	DeleteLabel    string
	ConfirmMessage Prompt
}

// Modal is the full replacement for the activity detail dialog.
type Modal struct {
	Name              string
	Description       string
	Schedule          string
	Enrolled          int
	Capacity          int
	SpotsLeft         int
	Full              bool
	Participants      []ParticipantRow
	EmptyParticipants string
	Enrollment        EnrollmentSection
	// Admin is nil unless the current profile holds the delete capability.
	Admin *AdminSection
}

// BuildModal renders the detail dialog for one activity from a snapshot.
// PRE: snap is a consistent Snapshot
// POST: Returns activity.ErrNotFound when name is absent from the cache
// INVARIANT: Permission-gated sections are derived from snap.Permissions on every call
func BuildModal(snap state.Snapshot, name string) (Modal, error) {
	a, ok := snap.Activities.Get(name)
	if !ok {
		return Modal{}, fmt.Errorf("%w: %s", activity.ErrNotFound, name)
	}
	perms := snap.Permissions

	m := Modal{
		Name:        a.Name,
		Description: a.Description,
		Schedule:    a.Schedule,
		Enrolled:    a.Enrolled(),
		Capacity:    a.MaxParticipants,
		SpotsLeft:   a.SpotsLeft(),
		Full:        a.IsFull(),
		Enrollment:  buildEnrollment(a, perms, snap.User),
	}

	for _, p := range a.Participants {
		m.Participants = append(m.Participants, buildParticipantRow(a.Name, p, perms, snap.User))
	}
	if len(m.Participants) == 0 {
		m.EmptyParticipants = LabelNoParticipants
	}

	if perms.CanDelete() {
		m.Admin = &AdminSection{
			Title:          LabelAdministration,
			Warning:        LabelDeleteWarning,
			DeleteLabel:    LabelDeleteMentorship,
			ConfirmMessage: Prompt{Format: ConfirmDelete, Args: []any{a.Name}},
		}
	}
	return m, nil
}

func buildParticipantRow(activityName string, p activity.Participant, perms profile.Permissions, user profile.User) ParticipantRow {
	row := ParticipantRow{Name: p.Name, Email: p.Email}
	if !perms.CanRemove(p.Email, user) {
		return row
	}
	row.Removable = true
	if perms.SelfManaged() {
		row.RemoveLabel = LabelCancelMine
	} else {
		row.RemoveLabel = LabelRemove
	}
	if perms.SelfManaged() && user.Email != "" && strings.EqualFold(p.Email, user.Email) {
		row.ConfirmMessage = Prompt{Format: ConfirmCancelMine, Args: []any{activityName}}
	} else {
		row.ConfirmMessage = Prompt{Format: ConfirmRemove, Args: []any{p.Email, activityName}}
	}
	return row
}

func buildEnrollment(a activity.Activity, perms profile.Permissions, user profile.User) EnrollmentSection {
	sec := EnrollmentSection{Title: LabelNewEnrollment}
	if perms.SelfManaged() {
		sec.Title = LabelMyEnrollment
	}
	if !perms.CanEnroll() {
		sec.LockMessage = LabelNoEnrollPermission
		return sec
	}

	sec.Allowed = true
	sec.SelfManaged = perms.SelfManaged()
	if sec.SelfManaged {
		sec.Name = user.Name
		sec.Email = user.Email
	}
	switch {
	case a.IsFull():
		sec.Disabled = true
		sec.SubmitLabel = LabelMentorshipFull
	case sec.SelfManaged:
		sec.SubmitLabel = LabelEnrollMe
	default:
		sec.SubmitLabel = LabelEnrollParticipant
	}
	return sec
}
