package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mentorship/internal/adapters/http/middleware"
	"mentorship/internal/application/orchestrators"
	"mentorship/internal/application/projections"
	"mentorship/internal/domain/activity"
)

// confirmPage asks the user to resubmit a destructive intent with confirmed=true.
type confirmPage struct {
	Prompt    projections.Prompt
	Action    string
	Email     string
	SubmitKey string
	BackURL   string
}

// flashFailure turns a dispatcher error into an error toast.
func flashFailure(sess *middleware.Session, err error) {
	var f *orchestrators.Failure
	if errors.As(err, &f) {
		sess.Flash(middleware.ToastError, f.Message)
		return
	}
	sess.Flash(middleware.ToastError, err.Error())
}

// intentContext detaches a write intent from the browser request so a closed tab
// does not abort a backend call half way.
func intentContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func isConfirmed(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.PostFormValue("confirmed"))
	return v
}

func activityPath(name, verb string) string {
	return "/activities/" + url.PathEscape(name) + "/" + verb
}

// handleSignup enrolls a participant (POST /activities/{name}/signup)
// PRE: Form carries name and email unless the profile is self-managed
// POST: Redirects back to the open modal with a success or error toast
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	msg, err := orchestrators.ExecuteEnroll(intentContext(r), orchestrators.EnrollInput{
		Activity: name,
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
	}, s.dispatchDeps(sess))
	if err != nil {
		flashFailure(sess, err)
	} else {
		sess.Flash(middleware.ToastSuccess, msg)
	}
	http.Redirect(w, r, dashboardURL(sess.Dashboard.Snapshot().Criteria, name), http.StatusSeeOther)
}

// handleCancel removes a participant (POST /activities/{name}/cancel)
// PRE: confirmed=true, otherwise a confirmation page is rendered
// POST: Redirects back to the open modal with a success or error toast
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	email := r.PostFormValue("email")
	msg, err := orchestrators.ExecuteCancel(intentContext(r), orchestrators.CancelInput{
		Activity:  name,
		Email:     email,
		Confirmed: isConfirmed(r),
	}, s.dispatchDeps(sess))

	if errors.Is(err, orchestrators.ErrConfirmationRequired) {
		snap := sess.Dashboard.Snapshot()
		prompt := projections.Prompt{Format: projections.ConfirmRemove, Args: []any{email, name}}
		submit := projections.LabelRemove
		if snap.Permissions.SelfManaged() && (email == "" || strings.EqualFold(email, snap.User.Email)) {
			prompt = projections.Prompt{Format: projections.ConfirmCancelMine, Args: []any{name}}
			submit = projections.LabelCancelMine
		}
		s.renderConfirm(w, r, confirmPage{
			Prompt:    prompt,
			Action:    activityPath(name, "cancel"),
			Email:     email,
			SubmitKey: submit,
			BackURL:   dashboardURL(snap.Criteria, name),
		})
		return
	}
	if err != nil {
		flashFailure(sess, err)
	} else {
		sess.Flash(middleware.ToastSuccess, msg)
	}
	http.Redirect(w, r, dashboardURL(sess.Dashboard.Snapshot().Criteria, name), http.StatusSeeOther)
}

// handleDelete deletes an activity (POST /activities/{name}/delete)
// PRE: confirmed=true, otherwise a confirmation page is rendered
// POST: Success closes the modal; failure keeps it open
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	name := r.PathValue("name")
	msg, err := orchestrators.ExecuteDeleteActivity(intentContext(r), orchestrators.DeleteInput{
		Activity:  name,
		Confirmed: isConfirmed(r),
	}, s.dispatchDeps(sess))

	criteria := sess.Dashboard.Snapshot().Criteria
	switch {
	case errors.Is(err, orchestrators.ErrConfirmationRequired):
		s.renderConfirm(w, r, confirmPage{
			Prompt:    projections.Prompt{Format: projections.ConfirmDelete, Args: []any{name}},
			Action:    activityPath(name, "delete"),
			SubmitKey: projections.LabelDeleteMentorship,
			BackURL:   dashboardURL(criteria, name),
		})
	case err != nil:
		flashFailure(sess, err)
		http.Redirect(w, r, dashboardURL(criteria, name), http.StatusSeeOther)
	default:
		sess.Flash(middleware.ToastSuccess, msg)
		http.Redirect(w, r, dashboardURL(criteria, ""), http.StatusSeeOther)
	}
}

// handleCreateActivity creates an activity (POST /activities)
// PRE: Form carries name, description, day, start_time, end_time, max_participants
// POST: Success closes the dialog; failure re-renders it with the submitted values
func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	capacity, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("max_participants")))
	input := activity.NewActivityInput{
		Name:            strings.TrimSpace(r.PostFormValue("name")),
		Description:     strings.TrimSpace(r.PostFormValue("description")),
		Day:             r.PostFormValue("day"),
		StartTime:       r.PostFormValue("start_time"),
		EndTime:         r.PostFormValue("end_time"),
		MaxParticipants: capacity,
	}

	msg, err := orchestrators.ExecuteCreateActivity(intentContext(r), input, s.dispatchDeps(sess))
	if err != nil {
		flashFailure(sess, err)
		form := projections.BuildCreateForm(input)
		s.renderDashboard(w, r, sess, s.translator(w, r), dashboardView{
			Create: &form,
			Status: http.StatusUnprocessableEntity,
		})
		return
	}
	sess.Flash(middleware.ToastSuccess, msg)
	http.Redirect(w, r, dashboardURL(sess.Dashboard.Snapshot().Criteria, ""), http.StatusSeeOther)
}

// handleSwitchProfile changes the active profile (POST /profile)
// POST: Redirects to the dashboard with permissions and activities reloaded
func (s *Server) handleSwitchProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	msg, err := orchestrators.ExecuteSwitchProfile(intentContext(r), r.PostFormValue("profile_name"), s.dispatchDeps(sess))
	if err != nil {
		flashFailure(sess, err)
	} else {
		sess.Flash(middleware.ToastSuccess, msg)
	}
	http.Redirect(w, r, dashboardURL(sess.Dashboard.Snapshot().Criteria, ""), http.StatusSeeOther)
}

func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, page confirmPage) {
	s.render(w, r, http.StatusOK, "confirm.html", s.translator(w, r), page)
}
