package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"mentorship/internal/adapters/http/i18n"
	"mentorship/internal/adapters/http/middleware"
	"mentorship/internal/application/orchestrators"
	"mentorship/internal/application/projections"
	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
)

// filterOption is one entry of the availability select.
type filterOption struct {
	Value    string
	Label    string
	Selected bool
}

// languageOption is one entry of the language switcher.
type languageOption struct {
	Tag    string
	Label  string
	Active bool
}

var languageLabels = map[string]string{
	"en-US": "English",
	"pt-BR": "Português",
}

// dashboardPage is everything the dashboard template renders.
type dashboardPage struct {
	Header    projections.Header
	Metrics   projections.Metrics
	Criteria  state.Criteria
	Filters   []filterOption
	Grid      projections.CardGrid
	Modal     *projections.Modal
	Create    *projections.CreateForm
	Toasts    []middleware.Toast
	Languages []languageOption
	CloseURL  string
}

// dashboardView selects the dialogs open on top of the grid.
type dashboardView struct {
	Open   string
	Create *projections.CreateForm
	Status int
}

// dashboardURL rebuilds the dashboard location for the current criteria.
func dashboardURL(c state.Criteria, open string) string {
	q := url.Values{}
	if c.Search != "" {
		q.Set("q", c.Search)
	}
	if c.Availability != "" && c.Availability != state.AvailabilityAll {
		q.Set("filter", string(c.Availability))
	}
	if open != "" {
		q.Set("open", open)
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

func sessionFrom(w http.ResponseWriter, r *http.Request) (*middleware.Session, bool) {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	if !ok {
		internalError(w, errors.New("request without dashboard session"))
	}
	return sess, ok
}

// translator resolves the request language, persisting an explicit choice.
func (s *Server) translator(w http.ResponseWriter, r *http.Request) i18n.Translator {
	tag, persist := i18n.ResolveTag(r, s.cfg.DefaultLanguage)
	if persist {
		i18n.SetLanguageCookie(w, tag)
	}
	return s.deps.Bundle.Translator(tag)
}

// ensureLoaded runs the initial dashboard load once per session, or again on demand.
// POST: Failures become error toasts; the session retries on the next render
func (s *Server) ensureLoaded(ctx context.Context, sess *middleware.Session, force bool) {
	if sess.Loaded() && !force {
		return
	}
	if err := orchestrators.ExecuteInitDashboard(ctx, s.dispatchDeps(sess)); err != nil {
		flashFailure(sess, err)
		return
	}
	sess.MarkLoaded()
}

// handleDashboard renders the dashboard (GET /)
// PRE: Session middleware attached a dashboard session
// POST: Criteria from q and filter replace the session criteria; grid is rebuilt from the cache
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	tr := s.translator(w, r)
	query := r.URL.Query()

	s.ensureLoaded(r.Context(), sess, query.Get("reload") == "1")

	sess.Dashboard.SetCriteria(state.Criteria{
		Search:       query.Get("q"),
		Availability: state.ParseAvailability(query.Get("filter")),
	})

	view := dashboardView{Open: query.Get("open")}
	if query.Get("new") == "1" && sess.Dashboard.Snapshot().Permissions.CanCreate() {
		form := projections.BuildCreateForm(activity.NewActivityInput{})
		view.Create = &form
	}
	s.renderDashboard(w, r, sess, tr, view)
}

// renderDashboard builds every view model from one snapshot and renders the page.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, sess *middleware.Session, tr i18n.Translator, view dashboardView) {
	var modal *projections.Modal
	if view.Open != "" {
		m, err := orchestrators.ExecuteOpenModal(r.Context(), view.Open, s.dispatchDeps(sess))
		switch {
		case err == nil:
			modal = &m
		case errors.Is(err, activity.ErrNotFound):
			// The activity vanished from the cache; show the grid only.
		default:
			flashFailure(sess, err)
		}
	}

	snap := sess.Dashboard.Snapshot()
	filtered := projections.FilterActivities(snap.Activities, snap.Criteria)

	page := dashboardPage{
		Header:   projections.BuildHeader(snap),
		Metrics:  sess.Metrics.Current(),
		Criteria: snap.Criteria,
		Filters:  filterOptions(snap.Criteria.Availability),
		Grid:     projections.BuildCardGrid(filtered),
		Modal:    modal,
		Create:   view.Create,
		Toasts:   sess.TakeToasts(),
		CloseURL: dashboardURL(snap.Criteria, ""),
	}
	for _, tag := range i18n.Supported {
		page.Languages = append(page.Languages, languageOption{
			Tag:    tag.String(),
			Label:  languageLabels[tag.String()],
			Active: tag == tr.Tag,
		})
	}

	status := view.Status
	if status == 0 {
		status = http.StatusOK
	}
	s.render(w, r, status, "dashboard.html", tr, page)
}

func filterOptions(selected state.Availability) []filterOption {
	opts := []filterOption{
		{Value: string(state.AvailabilityAll), Label: "All"},
		{Value: string(state.AvailabilityAvailable), Label: "Available"},
		{Value: string(state.AvailabilityFull), Label: "Full"},
	}
	for i := range opts {
		opts[i].Selected = opts[i].Value == string(selected)
	}
	return opts
}

// handleNewActivity opens the create dialog (GET /activities/new)
func (s *Server) handleNewActivity(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/?new=1", http.StatusSeeOther)
}

// handleHealthz reports liveness (GET /healthz)
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			zap.S().Warnw("healthz_db_unreachable", "error", err)
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
