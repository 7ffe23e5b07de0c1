package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/audit"
)

var (
	ErrNoCreatePermission = errors.New("You don't have permission to create mentorships")
	ErrNoDeletePermission = errors.New("You don't have permission to delete mentorships")
)

// ExecuteCreateActivity validates and creates an activity, then reloads the catalog.
// PRE: the current profile holds create
// POST: Validation failures make no backend call
func ExecuteCreateActivity(ctx context.Context, input activity.NewActivityInput, deps Deps) (string, error) {
	snap := deps.State.Snapshot()
	if !snap.Permissions.CanCreate() {
		return "", validationFailure(ErrNoCreatePermission)
	}
	if err := input.Validate(); err != nil {
		f := validationFailure(err)
		record(ctx, deps, snap, audit.IntentCreate, input.Name, "", f)
		return "", f
	}

	msg, err := deps.Backend.CreateActivity(ctx, input)
	if err != nil {
		f := classify(err, "Error creating mentorship")
		record(ctx, deps, snap, audit.IntentCreate, input.Name, "", f)
		return "", f
	}
	record(ctx, deps, snap, audit.IntentCreate, input.Name, "", nil)

	if err := ExecuteLoadActivities(ctx, deps); err != nil {
		zap.S().Warnw("post_create_reload_failed", "activity", input.Name, "error", err)
	}
	if msg == "" {
		msg = "Mentorship created successfully!"
	}
	return msg, nil
}

// DeleteInput identifies the activity to delete.
type DeleteInput struct {
	Activity  string
	Confirmed bool
}

// ExecuteDeleteActivity deletes an activity, then reloads the catalog.
// PRE: Confirmed is true; the current profile holds delete
// POST: On failure the cache is untouched
func ExecuteDeleteActivity(ctx context.Context, input DeleteInput, deps Deps) (string, error) {
	if !input.Confirmed {
		return "", ErrConfirmationRequired
	}
	snap := deps.State.Snapshot()
	if !snap.Permissions.CanDelete() {
		return "", validationFailure(ErrNoDeletePermission)
	}

	msg, err := deps.Backend.DeleteActivity(ctx, input.Activity)
	if err != nil {
		f := classify(err, "Error deleting mentorship")
		record(ctx, deps, snap, audit.IntentDelete, input.Activity, "", f)
		return "", f
	}
	record(ctx, deps, snap, audit.IntentDelete, input.Activity, "", nil)

	if err := ExecuteLoadActivities(ctx, deps); err != nil {
		zap.S().Warnw("post_delete_reload_failed", "activity", input.Activity, "error", err)
	}
	if msg == "" {
		msg = "Mentorship deleted"
	}
	return msg, nil
}
