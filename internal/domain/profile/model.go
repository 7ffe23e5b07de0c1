package profile

import (
	"errors"
	"strings"
)

// Permission is a capability token granted to the current profile.
type Permission string

// The closed set of capabilities the dashboard understands.
const (
	PermRead               Permission = "read"
	PermCreate             Permission = "create"
	PermDelete             Permission = "delete"
	PermManageParticipants Permission = "manage_participants"
	PermSelfManage         Permission = "self_manage"
)

// Known lists every recognised permission.
var Known = []Permission{PermRead, PermCreate, PermDelete, PermManageParticipants, PermSelfManage}

// Profile keys the backend ships with.
const (
	KeyCoordinator = "coordinator"
	KeyMentor      = "mentor"
	KeyParticipant = "participant"
)

// ErrEmptyProfile is returned when a profile switch names no profile.
var ErrEmptyProfile = errors.New("profile name cannot be empty")

// ParsePermission maps a backend token onto the closed set.
// PRE: none
// POST: ok is false for unknown tokens
func ParsePermission(token string) (Permission, bool) {
	p := Permission(strings.TrimSpace(token))
	for _, k := range Known {
		if k == p {
			return p, true
		}
	}
	return "", false
}

// Permissions is an immutable set of capabilities.
type Permissions struct {
	set map[Permission]struct{}
}

// NewPermissions builds a set from already-parsed permissions.
func NewPermissions(perms ...Permission) Permissions {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return Permissions{set: set}
}

// ParsePermissions builds a set from backend tokens and returns the tokens it did not recognise.
// PRE: none
// POST: only Known permissions are in the set
func ParsePermissions(tokens []string) (Permissions, []string) {
	var perms []Permission
	var unknown []string
	for _, tok := range tokens {
		if p, ok := ParsePermission(tok); ok {
			perms = append(perms, p)
			continue
		}
		unknown = append(unknown, tok)
	}
	return NewPermissions(perms...), unknown
}

// Has reports whether p is granted.
func (ps Permissions) Has(p Permission) bool {
	_, ok := ps.set[p]
	return ok
}

// Len returns the number of granted capabilities.
func (ps Permissions) Len() int {
	return len(ps.set)
}

// List returns granted permissions in Known order.
func (ps Permissions) List() []Permission {
	out := make([]Permission, 0, len(ps.set))
	for _, k := range Known {
		if ps.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// SelfManaged reports whether the acting identity is always the logged-in user.
func (ps Permissions) SelfManaged() bool {
	return ps.Has(PermSelfManage)
}

// CanCreate reports whether new activities may be created.
func (ps Permissions) CanCreate() bool {
	return ps.Has(PermCreate)
}

// CanDelete reports whether activities may be deleted.
func (ps Permissions) CanDelete() bool {
	return ps.Has(PermDelete)
}

// CanEnroll reports whether the enrollment form is offered.
func (ps Permissions) CanEnroll() bool {
	return ps.Has(PermManageParticipants) || ps.Has(PermCreate) || ps.Has(PermSelfManage)
}

// CanRemove reports whether participantEmail may be removed by user.
// Self-managed users may only remove themselves.
func (ps Permissions) CanRemove(participantEmail string, user User) bool {
	if ps.Has(PermManageParticipants) || ps.Has(PermDelete) {
		return true
	}
	return ps.Has(PermSelfManage) && user.Email != "" && strings.EqualFold(participantEmail, user.Email)
}

// User is the identity the backend reports for the current session.
type User struct {
	Name    string
	Email   string
	Profile string
}

// HasIdentity reports whether both name and email are known.
func (u User) HasIdentity() bool {
	return strings.TrimSpace(u.Name) != "" && strings.TrimSpace(u.Email) != ""
}

// Profile is a selectable role.
type Profile struct {
	Key  string
	Name string
	Icon string
}

// Find returns the profile with the given key.
func Find(profiles []Profile, key string) (Profile, bool) {
	for _, p := range profiles {
		if p.Key == key {
			return p, true
		}
	}
	return Profile{}, false
}
