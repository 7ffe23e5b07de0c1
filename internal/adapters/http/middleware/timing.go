package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mentorship/internal/adapters/http/perf"
)

// DefaultSlowRequestMs is the default threshold for slow request warnings.
const DefaultSlowRequestMs = 200

// RequestIDHeader carries the id that ties a response to its log line.
const RequestIDHeader = "X-Request-Id"

// responseRecorder remembers what the handler sent.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *responseRecorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(p []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(p)
	rw.bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// untimed reports paths that are neither logged nor sampled.
func untimed(path string) bool {
	return strings.HasPrefix(path, "/static/") || path == "/healthz"
}

// Timing logs every dashboard request and samples its latency into rec.
// POST: slowMs <= 0 selects DefaultSlowRequestMs; rec may be nil
// POST: a handler panic is sampled as Failed and then re-raised
func Timing(rec perf.Recorder, slowMs int) func(http.Handler) http.Handler {
	if slowMs <= 0 {
		slowMs = DefaultSlowRequestMs
	}
	slow := time.Duration(slowMs) * time.Millisecond
	if rec == nil {
		rec = (*perf.Collector)(nil)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if untimed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id := uuid.NewString()
			w.Header().Set(RequestIDHeader, id)
			rw := &responseRecorder{ResponseWriter: w}
			route := r.Method + " " + routeOf(r.URL.Path)
			start := time.Now()
			panicked := true

			defer func() {
				took := time.Since(start)
				status := rw.status
				if status == 0 && !panicked {
					status = http.StatusOK
				}
				kv := []any{
					"request_id", id,
					"route", route,
					"status", status,
					"bytes", rw.bytes,
					"duration_ms", float64(took.Microseconds()) / 1000.0,
				}
				switch {
				case panicked:
					zap.S().Errorw("request_panicked", kv...)
				case took >= slow:
					zap.S().Warnw("slow_request", kv...)
				default:
					zap.S().Debugw("request", kv...)
				}
				rec.Observe(perf.Sample{
					Source: perf.SourceRequest,
					Op:     route,
					Status: status,
					Failed: panicked,
					Took:   took,
					At:     start,
				})
			}()

			next.ServeHTTP(rw, r)
			panicked = false
		})
	}
}

// routeOf collapses activity names so samples group by route.
func routeOf(path string) string {
	rest, ok := strings.CutPrefix(path, "/activities/")
	if !ok || rest == "new" {
		return path
	}
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		return "/activities/{name}" + rest[i:]
	}
	return "/activities/{name}"
}
