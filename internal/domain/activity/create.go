package activity

import (
	"errors"
	"strings"
)

// Capacity bounds offered by the create form.
const (
	MinCapacity     = 5
	MaxCapacity     = 50
	DefaultCapacity = 20
)

// Weekdays are the day options of the create form, in display order.
var Weekdays = []string{"Mondays", "Tuesdays", "Wednesdays", "Thursdays", "Fridays", "Saturdays", "Sundays"}

// StartTimes are the start-time options of the create form.
var StartTimes = []string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00", "18:00", "18:30", "19:00", "19:30", "20:00"}

// EndTimes are the end-time options of the create form.
var EndTimes = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30", "12:00",
	"15:00", "15:30", "16:00", "16:30", "17:00", "17:30", "18:00", "18:30",
	"19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00",
}

// Create-activity validation errors.
var (
	ErrMissingSchedule  = errors.New("Please fill in all schedule fields")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrInvalidCapacity  = errors.New("capacity must be between 5 and 50")
	ErrEndBeforeStart   = errors.New("end time must be after start time")
	ErrUnknownWeekday   = errors.New("day of the week is not recognised")
)

// NewActivityInput carries the fields of the create-activity form.
type NewActivityInput struct {
	Name            string
	Description     string
	Day             string
	StartTime       string
	EndTime         string
	MaxParticipants int
}

// Validate checks the form before any network call.
// PRE: none
// POST: Returns nil if every required field is present and consistent
func (in NewActivityInput) Validate() error {
	if strings.TrimSpace(in.Day) == "" || strings.TrimSpace(in.StartTime) == "" || strings.TrimSpace(in.EndTime) == "" {
		return ErrMissingSchedule
	}
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrEmptyDescription
	}
	if !contains(Weekdays, in.Day) {
		return ErrUnknownWeekday
	}
	if in.MaxParticipants < MinCapacity || in.MaxParticipants > MaxCapacity {
		return ErrInvalidCapacity
	}
	// HH:MM strings compare lexically in time order.
	if in.EndTime <= in.StartTime {
		return ErrEndBeforeStart
	}
	return nil
}

// Schedule composes the schedule text the backend stores, e.g. "Mondays das 19:00 às 20:30".
// PRE: Validate returned nil
func (in NewActivityInput) Schedule() string {
	return in.Day + " das " + in.StartTime + " às " + in.EndTime
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
