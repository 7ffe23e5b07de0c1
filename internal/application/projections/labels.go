package projections

import "fmt"

// User-facing labels. The English text doubles as the message-catalog key.
const (
	LabelNoMentorships      = "No mentorships found with the applied filters."
	LabelNoParticipants     = "No participants enrolled yet"
	LabelFull               = "Full"
	LabelMentorshipFull     = "Mentorship Full"
	LabelEnrollMe           = "Enroll Me"
	LabelEnrollParticipant  = "Enroll Participant"
	LabelMyEnrollment       = "My Enrollment"
	LabelNewEnrollment      = "New Enrollment"
	LabelNoEnrollPermission = "You don't have permission to enroll participants"
	LabelCancelMine         = "Cancel My Enrollment"
	LabelRemove             = "Remove"
	LabelAdministration     = "Administration Area"
	LabelDeleteMentorship   = "Delete Mentorship"
	LabelDeleteWarning      = "Warning: Deleting a mentorship is an irreversible action and will remove all enrollments."
)

// Confirmation prompts, formatted with the activity name (and email for removals).
const (
	ConfirmCancelMine = "Are you sure you want to cancel your enrollment in the mentorship \"%s\"?"
	ConfirmRemove     = "Are you sure you want to remove %s from the mentorship \"%s\"?"
	ConfirmDelete     = "Are you sure you want to delete the mentorship \"%s\"? This action cannot be undone."
)

// Prompt is a confirmation message kept as format and arguments so it can be localized.
type Prompt struct {
	Format string
	Args   []any
}

// String returns the English message.
func (p Prompt) String() string {
	if p.Format == "" {
		return ""
	}
	return fmt.Sprintf(p.Format, p.Args...)
}
