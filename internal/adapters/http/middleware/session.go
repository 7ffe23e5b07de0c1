package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"mentorship/internal/application/orchestrators"
	"mentorship/internal/application/projections"
	"mentorship/internal/application/state"
)

type contextKey string

const sessionContextKey contextKey = "dashboard_session"

const (
	sessionCookieName = "mentorship_session"
	sessionTokenKey   = "token"
)

// ToastKind selects the toast styling.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is a one-shot notification shown on the next page render.
type Toast struct {
	Kind    ToastKind
	Message string
}

// Session is one browser's dashboard: its state cache, its backend
// connection and the metrics derived from the cache.
type Session struct {
	Token     string
	Dashboard *state.Dashboard
	Backend   orchestrators.Backend
	Metrics   *projections.MetricsWatcher

	mu       sync.Mutex
	toasts   []Toast
	loaded   bool
	lastSeen time.Time
}

// Flash queues a toast for the next render.
func (s *Session) Flash(kind ToastKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toasts = append(s.toasts, Toast{Kind: kind, Message: message})
}

// TakeToasts returns queued toasts and clears the queue.
// POST: each toast is returned exactly once
func (s *Session) TakeToasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toasts
	s.toasts = nil
	return out
}

// Loaded reports whether the initial dashboard load has succeeded.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// MarkLoaded records a successful initial load.
func (s *Session) MarkLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) close() {
	s.Metrics.Close()
}

// BackendFactory opens a backend connection for a new session.
type BackendFactory func() (orchestrators.Backend, error)

// SessionStore is an in-memory store of dashboard sessions keyed by cookie token.
type SessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*Session
	ttl        time.Duration
	newBackend BackendFactory
	now        func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl of inactivity.
// PRE: ttl > 0; newBackend is non-nil
func NewSessionStore(ttl time.Duration, newBackend BackendFactory) *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		newBackend: newBackend,
		now:        time.Now,
	}
}

// Create opens a new session with an empty dashboard.
// POST: Session is stored and its token is unique
func (ss *SessionStore) Create() (*Session, error) {
	b, err := ss.newBackend()
	if err != nil {
		return nil, err
	}
	d := state.NewDashboard()
	s := &Session{
		Token:     uuid.NewString(),
		Dashboard: d,
		Backend:   b,
		Metrics:   projections.WatchMetrics(d),
		lastSeen:  ss.now(),
	}
	ss.mu.Lock()
	ss.sessions[s.Token] = s
	ss.mu.Unlock()
	zap.S().Debugw("session_created", "sessions", ss.Len())
	return s, nil
}

// Get retrieves a live session by token.
// POST: Expired sessions are removed and reported as missing
func (ss *SessionStore) Get(token string) (*Session, bool) {
	ss.mu.RLock()
	s, ok := ss.sessions[token]
	ss.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := ss.now()
	if s.idleSince(now) > ss.ttl {
		ss.Delete(token)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Delete removes a session and detaches its metrics.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	s, ok := ss.sessions[token]
	delete(ss.sessions, token)
	ss.mu.Unlock()
	if ok {
		s.close()
	}
}

// Sweep removes every expired session.
// POST: Returns the number of sessions removed
func (ss *SessionStore) Sweep() int {
	now := ss.now()
	ss.mu.RLock()
	var expired []string
	for token, s := range ss.sessions {
		if s.idleSince(now) > ss.ttl {
			expired = append(expired, token)
		}
	}
	ss.mu.RUnlock()
	for _, token := range expired {
		ss.Delete(token)
	}
	return len(expired)
}

// Len returns the number of stored sessions.
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// NewCookieStore returns a store that signs the session token cookie with key.
// PRE: len(key) >= 32
func NewCookieStore(key []byte, secure bool) *sessions.CookieStore {
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return cs
}

// Sessions returns middleware that attaches the browser's dashboard session
// to the request context, creating one when the cookie is missing, stale or
// fails signature verification.
// Static assets and health checks are passed through untouched.
func Sessions(store *SessionStore, cookies sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSessionless(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			// A decode error still yields a fresh cookie session.
			cookie, err := cookies.Get(r, sessionCookieName)
			if err != nil {
				zap.S().Debugw("session_cookie_rejected", "error", err)
			}
			if token, ok := cookie.Values[sessionTokenKey].(string); ok && token != "" {
				if s, ok := store.Get(token); ok {
					next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
					return
				}
			}
			s, err := store.Create()
			if err != nil {
				zap.S().Errorw("session_create_failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			cookie.Values[sessionTokenKey] = s.Token
			if err := cookie.Save(r, w); err != nil {
				zap.S().Errorw("session_cookie_failed", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
		})
	}
}

func isSessionless(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/static/")
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}
