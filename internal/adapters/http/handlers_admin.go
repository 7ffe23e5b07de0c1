package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"mentorship/internal/adapters/http/middleware"
	"mentorship/internal/adapters/http/perf"
	auditStore "mentorship/internal/adapters/storage/audit"
	"mentorship/internal/application/listutil"
	auditDomain "mentorship/internal/domain/audit"
	outboxDomain "mentorship/internal/domain/outbox"
)

// auditPage is the data for the audit trail template.
type auditPage struct {
	Events   []auditDomain.Event
	Filter   auditStore.Filter
	Window   listutil.Window
	PrevURL  string
	NextURL  string
	Intents  []auditDomain.Intent
	Outcomes []auditDomain.Outcome
	Enabled  bool
}

// perfPage is the /admin/perf payload: latency report plus notice backlog.
type perfPage struct {
	perf.Report
	Outbox map[outboxDomain.Status]int `json:"outbox,omitempty"`
}

// requireAdmin allows only profiles holding delete, the coordinator capability.
func requireAdmin(w http.ResponseWriter, sess *middleware.Session) bool {
	if !sess.Dashboard.Snapshot().Permissions.CanDelete() {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// handleAdminAudit renders recent dispatched intents (GET /admin/audit)
// PRE: Current profile holds delete
// POST: Renders one page of the audit trail with optional intent, outcome, activity and actor filters
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	s.ensureLoaded(r.Context(), sess, false)
	if !requireAdmin(w, sess) {
		return
	}
	tr := s.translator(w, r)
	q := r.URL.Query()

	f := listutil.Filters(q, "intent", "outcome", "activity", "actor")
	filter := auditStore.Filter{
		Intent:     auditDomain.Intent(f["intent"]),
		Outcome:    auditDomain.Outcome(f["outcome"]),
		Activity:   f["activity"],
		ActorEmail: f["actor"],
	}

	page := auditPage{
		Filter:   filter,
		Intents:  auditDomain.Intents,
		Outcomes: auditDomain.Outcomes,
		Enabled:  s.deps.Audit != nil,
	}
	if s.deps.Audit != nil {
		total, err := s.deps.Audit.Count(r.Context(), filter)
		if err != nil {
			internalError(w, err)
			return
		}
		win := listutil.Resolve(listutil.ParsePage(q), total)
		events, err := s.deps.Audit.List(r.Context(), filter, win.Size, win.Offset())
		if err != nil {
			internalError(w, err)
			return
		}
		page.Events = events
		page.Window = win
		if win.HasPrev() {
			page.PrevURL = win.URL("/admin/audit", q, win.Number-1)
		}
		if win.HasNext() {
			page.NextURL = win.URL("/admin/audit", q, win.Number+1)
		}
	}
	s.render(w, r, http.StatusOK, "admin_audit.html", tr, page)
}

// handleAdminPerf returns the perf report as JSON (GET /admin/perf)
// PRE: Current profile holds delete
// POST: window query param (minutes, default 15) bounds the report; outbox counts are added when configured
func (s *Server) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	s.ensureLoaded(r.Context(), sess, false)
	if !requireAdmin(w, sess) {
		return
	}
	if s.deps.Collector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := 15
	if m, err := strconv.Atoi(r.URL.Query().Get("window")); err == nil && m > 0 {
		window = m
	}
	page := perfPage{Report: s.deps.Collector.Report(time.Now().Add(-time.Duration(window)*time.Minute), 10)}
	if s.deps.Outbox != nil {
		counts, err := s.deps.Outbox.CountByStatus(r.Context())
		if err != nil {
			internalError(w, err)
			return
		}
		page.Outbox = counts
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(page); err != nil {
		internalError(w, err)
	}
}
