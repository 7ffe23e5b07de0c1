package projections

import (
	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
	"mentorship/internal/domain/profile"
)

// ProfileOption is one entry of the profile selector.
type ProfileOption struct {
	Key      string
	Name     string
	Icon     string
	Selected bool
}

// Header is the view model for the top bar.
type Header struct {
	UserName    string
	UserEmail   string
	ProfileName string
	ProfileIcon string
	Options     []ProfileOption
	ShowCreate  bool
	ShowAdmin   bool
}

// BuildHeader renders the user badge and profile selector.
// POST: ShowCreate iff create is granted; ShowAdmin iff delete is granted
func BuildHeader(snap state.Snapshot) Header {
	h := Header{
		UserName:    snap.User.Name,
		UserEmail:   snap.User.Email,
		ProfileName: snap.User.Profile,
		ShowCreate:  snap.Permissions.CanCreate(),
		ShowAdmin:   snap.Permissions.CanDelete(),
	}
	if p, ok := profile.Find(snap.Profiles, snap.User.Profile); ok {
		h.ProfileName = p.Name
		h.ProfileIcon = p.Icon
	}
	for _, p := range snap.Profiles {
		h.Options = append(h.Options, ProfileOption{
			Key:      p.Key,
			Name:     p.Name,
			Icon:     p.Icon,
			Selected: p.Key == snap.User.Profile,
		})
	}
	return h
}

// CreateForm is the view model for the new-activity dialog.
type CreateForm struct {
	Weekdays        []string
	StartTimes      []string
	EndTimes        []string
	MinCapacity     int
	MaxCapacity     int
	DefaultCapacity int
	// Values re-populates the form after a validation failure.
	Values activity.NewActivityInput
}

// BuildCreateForm returns the option lists and capacity bounds for creating an activity.
func BuildCreateForm(values activity.NewActivityInput) CreateForm {
	if values.MaxParticipants == 0 {
		values.MaxParticipants = activity.DefaultCapacity
	}
	return CreateForm{
		Weekdays:        activity.Weekdays,
		StartTimes:      activity.StartTimes,
		EndTimes:        activity.EndTimes,
		MinCapacity:     activity.MinCapacity,
		MaxCapacity:     activity.MaxCapacity,
		DefaultCapacity: activity.DefaultCapacity,
		Values:          values,
	}
}
