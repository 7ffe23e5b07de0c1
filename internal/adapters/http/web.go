package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/text/language"

	"mentorship/internal/adapters/http/i18n"
	"mentorship/internal/adapters/http/middleware"
	"mentorship/internal/adapters/http/perf"
	auditStore "mentorship/internal/adapters/storage/audit"
	"mentorship/internal/application/orchestrators"
	outboxDomain "mentorship/internal/domain/outbox"
)

//go:embed static
var staticFS embed.FS

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP surface settings.
type Config struct {
	CSRFKey            []byte
	SessionKey         []byte // signs the session cookie; CSRFKey when empty
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
	SessionTTL         time.Duration
	DefaultLanguage    language.Tag
}

// OutboxCounter reports queued notice backlog.
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[outboxDomain.Status]int, error)
}

// Deps holds the collaborators of the web surface.
// Audit, Notifier, Collector, Outbox and DB are optional.
type Deps struct {
	NewBackend middleware.BackendFactory
	Audit      auditStore.Store
	Notifier   orchestrators.Notifier
	Collector  *perf.Collector
	Outbox     OutboxCounter
	DB         Pinger
	Bundle     *i18n.Bundle
	Now        func() time.Time
}

// Server owns the per-process state of the dashboard: its sessions,
// templates and collaborators.
type Server struct {
	cfg       Config
	deps      Deps
	sessions  *middleware.SessionStore
	cookies   *sessions.CookieStore
	limiter   *middleware.RateLimiter
	templates *templateSet
}

// NewServer parses templates and builds the session store.
// PRE: deps.NewBackend is non-nil; len(cfg.CSRFKey) == 32
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.RateLimitPerSecond <= 0 {
		cfg.RateLimitPerSecond = 10
	}
	if cfg.DefaultLanguage == language.Und {
		cfg.DefaultLanguage = language.AmericanEnglish
	}
	if deps.Bundle == nil {
		deps.Bundle = i18n.MustLoadEmbedded()
	}
	if len(cfg.SessionKey) == 0 {
		cfg.SessionKey = cfg.CSRFKey
	}
	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:       cfg,
		deps:      deps,
		sessions:  middleware.NewSessionStore(cfg.SessionTTL, deps.NewBackend),
		cookies:   middleware.NewCookieStore(cfg.SessionKey, cfg.SecureCookies),
		limiter:   middleware.NewRateLimiter(cfg.RateLimitPerSecond, time.Second),
		templates: tpl,
	}, nil
}

// Handler wires routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Applied inner to outer: Sessions -> CSRF -> SecurityHeaders -> RateLimit -> Timing -> mux
	return middleware.Chain(mux,
		middleware.Sessions(s.sessions, s.cookies),
		middleware.CSRF(s.cfg.CSRFKey, s.cfg.SecureCookies, s.cfg.TrustedOrigins),
		middleware.SecurityHeaders,
		middleware.RateLimit(s.limiter),
		middleware.Timing(s.deps.Collector, s.cfg.SlowRequestMs),
	)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /activities/new", s.handleNewActivity)
	mux.HandleFunc("POST /activities", s.handleCreateActivity)
	mux.HandleFunc("POST /activities/{name}/signup", s.handleSignup)
	mux.HandleFunc("POST /activities/{name}/cancel", s.handleCancel)
	mux.HandleFunc("POST /activities/{name}/delete", s.handleDelete)
	mux.HandleFunc("POST /profile", s.handleSwitchProfile)

	mux.HandleFunc("GET /admin/audit", s.handleAdminAudit)
	mux.HandleFunc("GET /admin/perf", s.handleAdminPerf)
}

// RunMaintenance sweeps expired sessions and idle rate-limit buckets until ctx ends.
func (s *Server) RunMaintenance(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep()
			s.limiter.Sweep(5 * time.Minute)
		}
	}
}

// dispatchDeps builds the dispatcher collaborators for one session.
func (s *Server) dispatchDeps(sess *middleware.Session) orchestrators.Deps {
	return orchestrators.Deps{
		Backend:  sess.Backend,
		State:    sess.Dashboard,
		Audit:    s.deps.Audit,
		Notifier: s.deps.Notifier,
		Now:      s.deps.Now,
	}
}
