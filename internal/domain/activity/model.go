package activity

import (
	"errors"
	"math"
	"strings"
)

// NearFullThreshold is the occupancy ratio from which a not-yet-full activity counts as near full.
const NearFullThreshold = 0.8

// Participant is one entry of an activity roster.
type Participant struct {
	Name  string
	Email string
}

// Activity mirrors a mentorship cohort as reported by the backend.
// The client never invents an Activity; capacity is enforced server-side.
type Activity struct {
	Name            string
	Description     string
	Schedule        string
	MaxParticipants int
	Participants    []Participant
}

// Enrolled returns the number of participants on the roster.
// INVARIANT: Activity fields are not mutated
func (a Activity) Enrolled() int {
	return len(a.Participants)
}

// SpotsLeft returns remaining capacity. Negative when upstream data exceeds capacity.
// INVARIANT: Activity fields are not mutated
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// IsFull reports whether no capacity remains.
// INVARIANT: Activity fields are not mutated
func (a Activity) IsFull() bool {
	return a.SpotsLeft() <= 0
}

// Ratio returns participants / max_participants, or 0 when capacity is not positive.
// INVARIANT: Activity fields are not mutated
func (a Activity) Ratio() float64 {
	if a.MaxParticipants <= 0 {
		return 0
	}
	return float64(len(a.Participants)) / float64(a.MaxParticipants)
}

// ProgressPercent returns round(ratio × 100). It is not clamped: a value above 100
// means the backend reported more participants than capacity.
// INVARIANT: Activity fields are not mutated
func (a Activity) ProgressPercent() int {
	return int(math.Round(a.Ratio() * 100))
}

// IsNearFull reports whether occupancy lies in [0.8, 1.0).
// INVARIANT: Activity fields are not mutated
func (a Activity) IsNearFull() bool {
	r := a.Ratio()
	return r >= NearFullThreshold && r < 1.0
}

// HasParticipant reports whether email is on the roster (case-insensitive).
// INVARIANT: Activity fields are not mutated
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if strings.EqualFold(p.Email, email) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can never alias a cached roster.
func (a Activity) Clone() Activity {
	out := a
	if a.Participants != nil {
		out.Participants = make([]Participant, len(a.Participants))
		copy(out.Participants, a.Participants)
	}
	return out
}

var (
	ErrEmptyName = errors.New("activity name cannot be empty")
	ErrNotFound  = errors.New("activity not found")
)
