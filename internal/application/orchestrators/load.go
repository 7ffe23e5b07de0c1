package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mentorship/internal/application/projections"
	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/profile"
)

// ExecuteLoadUser fetches identity, permissions and profiles into the cache.
// PRE: deps.Backend and deps.State are set
// POST: On success the user slice is replaced atomically; on failure it is untouched
func ExecuteLoadUser(ctx context.Context, deps Deps) error {
	cu, err := deps.Backend.CurrentUser(ctx)
	if err != nil {
		zap.S().Warnw("load_user_failed", "error", err)
		return classify(err, "Error loading user data")
	}

	perms, unknown := profile.ParsePermissions(cu.Permissions)
	if len(unknown) > 0 {
		zap.S().Warnw("unknown_permissions_dropped", "profile", cu.User.Profile, "tokens", unknown)
	}

	profiles, err := deps.Backend.Profiles(ctx)
	if err != nil {
		zap.S().Warnw("load_profiles_failed", "error", err)
		profiles = nil
		if cu.ProfileName != "" {
			profiles = []profile.Profile{{Key: cu.User.Profile, Name: cu.ProfileName, Icon: cu.ProfileIcon}}
		}
	}

	deps.State.SetCurrentUser(cu.User, perms, profiles)
	return nil
}

// ExecuteLoadActivities fully reloads the activity cache.
// POST: On failure the previous catalog stays in place
func ExecuteLoadActivities(ctx context.Context, deps Deps) error {
	c, err := deps.Backend.ListActivities(ctx)
	if err != nil {
		zap.S().Warnw("load_activities_failed", "error", err)
		return classify(err, "Error loading mentorships")
	}
	deps.State.ReplaceAll(c)
	return nil
}

// ExecuteInitDashboard loads the user and then the activities.
// POST: Activities are loaded even when the user load fails
func ExecuteInitDashboard(ctx context.Context, deps Deps) error {
	userErr := ExecuteLoadUser(ctx, deps)
	if err := ExecuteLoadActivities(ctx, deps); err != nil {
		return err
	}
	return userErr
}

// ExecuteRefreshActivity re-fetches the mapping and replaces only the named entry.
// POST: Falls back to a full reload when the refresh call fails
func ExecuteRefreshActivity(ctx context.Context, name string, deps Deps) error {
	c, err := deps.Backend.ListActivities(ctx)
	if err != nil {
		zap.S().Warnw("refresh_activity_failed", "activity", name, "error", err)
		return ExecuteLoadActivities(ctx, deps)
	}
	a, ok := c.Get(name)
	if !ok {
		deps.State.ReplaceAll(c)
		return nil
	}
	deps.State.ReplaceOne(a)
	return nil
}

// ExecuteOpenModal renders the detail dialog, loading user data once if it is missing.
// PRE: name is non-empty
// POST: Returns activity.ErrNotFound when name is not cached
func ExecuteOpenModal(ctx context.Context, name string, deps Deps) (projections.Modal, error) {
	snap := deps.State.Snapshot()
	if _, ok := snap.Activities.Get(name); !ok {
		zap.S().Warnw("modal_activity_not_found", "activity", name)
		return projections.Modal{}, activity.ErrNotFound
	}

	if !snap.UserLoaded {
		zap.S().Infow("modal_user_not_loaded", "activity", name)
		if err := ExecuteLoadUser(ctx, deps); err != nil {
			var f *Failure
			if errors.As(err, &f) {
				f.Message = "Error: user data not loaded. Please reload the page."
			}
			return projections.Modal{}, err
		}
		snap = deps.State.Snapshot()
	}
	return projections.BuildModal(snap, name)
}
