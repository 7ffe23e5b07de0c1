package orchestrators

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mentorship/internal/domain/audit"
	"mentorship/internal/domain/profile"
)

// ExecuteSwitchProfile changes the backend profile, then reloads user data and activities.
// PRE: key is non-empty
// POST: Permissions are replaced together with the user before activities reload
func ExecuteSwitchProfile(ctx context.Context, key string, deps Deps) (string, error) {
	key = strings.TrimSpace(key)
	snap := deps.State.Snapshot()
	if key == "" {
		return "", validationFailure(profile.ErrEmptyProfile)
	}

	if _, err := deps.Backend.SwitchProfile(ctx, key); err != nil {
		f := classify(err, "Error switching profile")
		record(ctx, deps, snap, audit.IntentSwitchProfile, "", key, f)
		return "", f
	}
	record(ctx, deps, snap, audit.IntentSwitchProfile, "", key, nil)

	if err := ExecuteLoadUser(ctx, deps); err != nil {
		zap.S().Warnw("post_switch_user_reload_failed", "profile", key, "error", err)
	}
	if err := ExecuteLoadActivities(ctx, deps); err != nil {
		zap.S().Warnw("post_switch_activities_reload_failed", "profile", key, "error", err)
	}
	return fmt.Sprintf("User switched to %s profile!", key), nil
}
