// Package backend is the HTTP client for the mentorship REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"mentorship/internal/adapters/http/perf"
	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/profile"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// ErrMalformedResponse is returned when a 2xx body is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed backend response")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
}

// CurrentUser is the decoded /users/current response.
type CurrentUser struct {
	User        profile.User
	Permissions []string
	// ProfileName and ProfileIcon come from the optional profile_info object.
	ProfileName string
	ProfileIcon string
}

// Client calls the backend on behalf of one dashboard session.
// INVARIANT: each Client owns its cookie jar, so backend sessions never cross browsers
type Client struct {
	base      *url.URL
	http      *http.Client
	collector *perf.Collector
}

// NewClient creates a client with a fresh cookie jar.
// PRE: baseURL is an absolute http(s) URL
// POST: Requests carry no client-side timeout
func NewClient(baseURL string, collector *perf.Collector) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		base:      u,
		http:      &http.Client{Jar: jar},
		collector: collector,
	}, nil
}

// ListActivities fetches the full activity mapping in backend key order.
// POST: Returns a catalog ordered as the JSON object keys
func (c *Client) ListActivities(ctx context.Context) (activity.Catalog, error) {
	body, err := c.do(ctx, http.MethodGet, "/activities", nil, nil)
	if err != nil {
		return activity.Catalog{}, err
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return activity.Catalog{}, fmt.Errorf("%w: activities is not an object", ErrMalformedResponse)
	}

	var list []activity.Activity
	res.ForEach(func(key, value gjson.Result) bool {
		list = append(list, parseActivity(key.String(), value))
		return true
	})
	return activity.NewCatalog(list...), nil
}

func parseActivity(name string, v gjson.Result) activity.Activity {
	a := activity.Activity{
		Name:            name,
		Description:     v.Get("description").String(),
		Schedule:        v.Get("schedule").String(),
		MaxParticipants: int(v.Get("max_participants").Int()),
	}
	v.Get("participants").ForEach(func(_, p gjson.Result) bool {
		// Older backends list bare email strings.
		if p.Type == gjson.String {
			a.Participants = append(a.Participants, activity.Participant{Name: p.String(), Email: p.String()})
			return true
		}
		a.Participants = append(a.Participants, activity.Participant{
			Name:  p.Get("name").String(),
			Email: p.Get("email").String(),
		})
		return true
	})
	return a
}

// CreateActivity posts a new activity.
// PRE: in has passed Validate
// POST: Returns the backend message
func (c *Client) CreateActivity(ctx context.Context, in activity.NewActivityInput) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"name":             in.Name,
		"description":      in.Description,
		"schedule":         in.Schedule(),
		"max_participants": in.MaxParticipants,
	})
	if err != nil {
		return "", fmt.Errorf("encode activity: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/activities", nil, payload)
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// DeleteActivity deletes an activity by name.
func (c *Client) DeleteActivity(ctx context.Context, name string) (string, error) {
	body, err := c.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(name), nil, nil)
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// Signup enrolls a participant. A nil who sends an empty request so the
// backend uses the session identity.
func (c *Client) Signup(ctx context.Context, name string, who *activity.Participant) (string, error) {
	var q url.Values
	if who != nil {
		q = url.Values{"name": {who.Name}, "email": {who.Email}}
	}
	body, err := c.do(ctx, http.MethodPost, "/activities/"+url.PathEscape(name)+"/signup", q, nil)
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// Cancel removes a participant. An empty email omits the query parameter so
// the backend uses the session identity.
func (c *Client) Cancel(ctx context.Context, name, email string) (string, error) {
	var q url.Values
	if email != "" {
		q = url.Values{"email": {email}}
	}
	body, err := c.do(ctx, http.MethodDelete, "/activities/"+url.PathEscape(name)+"/cancel", q, nil)
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// CurrentUser fetches the session identity and permission tokens.
func (c *Client) CurrentUser(ctx context.Context) (CurrentUser, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/current", nil, nil)
	if err != nil {
		return CurrentUser{}, err
	}
	res := gjson.ParseBytes(body)
	if !res.Get("user").IsObject() {
		return CurrentUser{}, fmt.Errorf("%w: missing user", ErrMalformedResponse)
	}
	cu := CurrentUser{
		User: profile.User{
			Name:    res.Get("user.name").String(),
			Email:   res.Get("user.email").String(),
			Profile: res.Get("user.profile").String(),
		},
		ProfileName: res.Get("profile_info.name").String(),
		ProfileIcon: res.Get("profile_info.icon").String(),
	}
	for _, p := range res.Get("permissions").Array() {
		cu.Permissions = append(cu.Permissions, p.String())
	}
	return cu, nil
}

// Profiles fetches the selectable profiles in backend key order.
func (c *Client) Profiles(ctx context.Context) ([]profile.Profile, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/profiles", nil, nil)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(body)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: profiles is not an object", ErrMalformedResponse)
	}
	var out []profile.Profile
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, profile.Profile{
			Key:  key.String(),
			Name: value.Get("name").String(),
			Icon: value.Get("icon").String(),
		})
		return true
	})
	return out, nil
}

// SwitchProfile changes the active backend profile for this session.
func (c *Client) SwitchProfile(ctx context.Context, key string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/users/switch-profile", url.Values{"profile_name": {key}}, nil)
	if err != nil {
		return "", err
	}
	return message(body), nil
}

// do performs one request and returns the 2xx body.
// POST: non-2xx responses return *APIError; transport failures are wrapped
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	unescaped, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	u.Path = unescaped
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.record(method, path, status, start, err)
	if err != nil {
		zap.S().Warnw("backend_call_failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Detail: detail(body)}
		zap.S().Infow("backend_call_rejected", "method", method, "path", path, "status", resp.StatusCode, "detail", apiErr.Detail)
		return nil, apiErr
	}
	if len(body) > 0 && !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s %s", ErrMalformedResponse, method, path)
	}
	return body, nil
}

func (c *Client) record(method, path string, status int, start time.Time, err error) {
	took := time.Since(start)
	zap.S().Debugw("backend_call", "method", method, "path", path, "status", status, "duration_ms", float64(took.Microseconds())/1000.0)
	c.collector.Observe(perf.Sample{
		Source: perf.SourceBackend,
		Op:     method + " " + routeOf(path),
		Status: status,
		Failed: err != nil,
		Took:   took,
		At:     start,
	})
}

// routeOf collapses activity names so perf stats group by endpoint.
func routeOf(path string) string {
	if !strings.HasPrefix(path, "/activities/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/activities/")
	if i := strings.Index(rest, "/"); i >= 0 {
		return "/activities/{name}" + rest[i:]
	}
	return "/activities/{name}"
}

// detail extracts the user-facing error message from an error body.
func detail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	d := gjson.GetBytes(body, "detail")
	if d.IsArray() {
		var msgs []string
		for _, item := range d.Array() {
			if m := item.Get("msg").String(); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return d.String()
}

func message(body []byte) string {
	return gjson.GetBytes(body, "message").String()
}
