package state

import (
	"strings"
	"sync"

	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/profile"
)

// Availability restricts the grid by remaining capacity.
type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilityFull      Availability = "full"
)

// ParseAvailability maps a query value onto Availability.
// POST: unknown or empty values map to AvailabilityAll
func ParseAvailability(v string) Availability {
	switch Availability(strings.ToLower(strings.TrimSpace(v))) {
	case AvailabilityAvailable:
		return AvailabilityAvailable
	case AvailabilityFull:
		return AvailabilityFull
	default:
		return AvailabilityAll
	}
}

// Criteria is the transient search and filter state.
type Criteria struct {
	Search       string
	Availability Availability
}

// Snapshot is an immutable view of the dashboard at one instant.
type Snapshot struct {
	Activities  activity.Catalog
	Criteria    Criteria
	User        profile.User
	Permissions profile.Permissions
	Profiles    []profile.Profile
	UserLoaded  bool
}

// Listener is notified with the new catalog after every activity replacement.
type Listener func(activity.Catalog)

// Dashboard is the per-session client state cache.
// INVARIANT: every mutation replaces one slice of state wholesale under mu
type Dashboard struct {
	mu          sync.RWMutex
	activities  activity.Catalog
	criteria    Criteria
	user        profile.User
	permissions profile.Permissions
	profiles    []profile.Profile
	userLoaded  bool

	listenersMu sync.Mutex
	listeners   map[uint64]Listener
	nextID      uint64
}

// NewDashboard creates an empty dashboard with the "all" filter.
func NewDashboard() *Dashboard {
	return &Dashboard{
		activities:  activity.NewCatalog(),
		criteria:    Criteria{Availability: AvailabilityAll},
		permissions: profile.NewPermissions(),
		listeners:   make(map[uint64]Listener),
	}
}

// ReplaceAll overwrites the activity cache with a freshly fetched catalog.
// POST: listeners are notified with c
func (d *Dashboard) ReplaceAll(c activity.Catalog) {
	d.mu.Lock()
	d.activities = c
	d.mu.Unlock()
	d.notify(c)
}

// ReplaceOne overwrites a single activity, keeping its position.
// PRE: a.Name is non-empty
// POST: listeners are notified with the updated catalog
func (d *Dashboard) ReplaceOne(a activity.Activity) {
	d.mu.Lock()
	d.activities = d.activities.WithActivity(a)
	c := d.activities
	d.mu.Unlock()
	d.notify(c)
}

// SetCurrentUser replaces identity, permissions and selectable profiles together.
// POST: UserLoaded is true
func (d *Dashboard) SetCurrentUser(u profile.User, perms profile.Permissions, profiles []profile.Profile) {
	cp := make([]profile.Profile, len(profiles))
	copy(cp, profiles)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.user = u
	d.permissions = perms
	d.profiles = cp
	d.userLoaded = true
}

// SetCriteria replaces the search and filter state.
func (d *Dashboard) SetCriteria(c Criteria) {
	if c.Availability == "" {
		c.Availability = AvailabilityAll
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.criteria = c
}

// Snapshot returns a consistent, immutable copy of the state.
func (d *Dashboard) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	profiles := make([]profile.Profile, len(d.profiles))
	copy(profiles, d.profiles)
	return Snapshot{
		Activities:  d.activities,
		Criteria:    d.criteria,
		User:        d.user,
		Permissions: d.permissions,
		Profiles:    profiles,
		UserLoaded:  d.userLoaded,
	}
}

// Subscription is a disposable listener registration.
type Subscription struct {
	once  sync.Once
	close func()
}

// Close removes the listener. Safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(s.close)
}

// Subscribe registers l for activity-cache replacements.
// POST: l is called synchronously after each ReplaceAll and ReplaceOne until Close
func (d *Dashboard) Subscribe(l Listener) *Subscription {
	d.listenersMu.Lock()
	d.nextID++
	id := d.nextID
	d.listeners[id] = l
	d.listenersMu.Unlock()

	return &Subscription{close: func() {
		d.listenersMu.Lock()
		delete(d.listeners, id)
		d.listenersMu.Unlock()
	}}
}

// notify calls listeners outside the state lock so they may read a Snapshot.
func (d *Dashboard) notify(c activity.Catalog) {
	d.listenersMu.Lock()
	ls := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		ls = append(ls, l)
	}
	d.listenersMu.Unlock()

	for _, l := range ls {
		l(c)
	}
}
