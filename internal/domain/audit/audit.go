package audit

import (
	"time"

	"github.com/google/uuid"
)

// Intent names a user-initiated dashboard action.
type Intent string

const (
	IntentEnroll        Intent = "enroll"
	IntentCancel        Intent = "cancel"
	IntentCreate        Intent = "create"
	IntentDelete        Intent = "delete"
	IntentSwitchProfile Intent = "switch_profile"
)

// Intents lists every audited intent.
var Intents = []Intent{IntentEnroll, IntentCancel, IntentCreate, IntentDelete, IntentSwitchProfile}

// Outcome classifies how an intent ended.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeRejected   Outcome = "rejected"
	OutcomeTransport  Outcome = "transport"
	OutcomeValidation Outcome = "validation"
)

// Outcomes lists every outcome.
var Outcomes = []Outcome{OutcomeOK, OutcomeRejected, OutcomeTransport, OutcomeValidation}

// Event is a single audit log entry for a dispatched intent.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Intent       Intent    `json:"intent"`
	Outcome      Outcome   `json:"outcome"`
	ActorName    string    `json:"actor_name"`
	ActorEmail   string    `json:"actor_email"`
	ActorProfile string    `json:"actor_profile"`
	Activity     string    `json:"activity"`
	Subject      string    `json:"subject"`
	Detail       string    `json:"detail"`
}

// NewEvent creates an event stamped with now and a fresh id.
// PRE: intent is non-empty
// POST: Returns an Event with OutcomeOK; use WithOutcome to record failures
func NewEvent(intent Intent, actorName, actorEmail, actorProfile string, now time.Time) Event {
	return Event{
		ID:           uuid.New().String(),
		Timestamp:    now,
		Intent:       intent,
		Outcome:      OutcomeOK,
		ActorName:    actorName,
		ActorEmail:   actorEmail,
		ActorProfile: actorProfile,
	}
}

// WithActivity sets the activity the intent targeted.
func (e Event) WithActivity(name string) Event {
	e.Activity = name
	return e
}

// WithSubject sets the participant or profile the intent acted on.
func (e Event) WithSubject(subject string) Event {
	e.Subject = subject
	return e
}

// WithOutcome records the result and the user-facing message.
// POST: Event outcome and detail are set
func (e Event) WithOutcome(o Outcome, detail string) Event {
	e.Outcome = o
	e.Detail = detail
	return e
}

// Succeeded reports whether the backend acknowledged the intent.
func (e Event) Succeeded() bool {
	return e.Outcome == OutcomeOK
}
