package projections

import "mentorship/internal/domain/activity"

// Card status values.
const (
	StatusAvailable = "available"
	StatusFull      = "full"
)

// Card is the view model for one grid entry.
type Card struct {
	Name            string
	Description     string
	Schedule        string
	Enrolled        int
	Capacity        int
	SpotsLeft       int
	Status          string
	ProgressPercent int
}

// Full reports whether the card renders in the full state.
func (c Card) Full() bool {
	return c.Status == StatusFull
}

// CardGrid is the full replacement for the activity grid.
type CardGrid struct {
	Empty       bool
	Placeholder string
	Cards       []Card
}

// BuildCardGrid renders the filtered catalog into a grid view model.
// PRE: none
// POST: Empty is true with a placeholder iff filtered has no entries
func BuildCardGrid(filtered activity.Catalog) CardGrid {
	if filtered.Len() == 0 {
		return CardGrid{Empty: true, Placeholder: LabelNoMentorships}
	}
	cards := make([]Card, 0, filtered.Len())
	for _, a := range filtered.All() {
		cards = append(cards, buildCard(a))
	}
	return CardGrid{Cards: cards}
}

func buildCard(a activity.Activity) Card {
	status := StatusAvailable
	if a.IsFull() {
		status = StatusFull
	}
	return Card{
		Name:            a.Name,
		Description:     a.Description,
		Schedule:        a.Schedule,
		Enrolled:        a.Enrolled(),
		Capacity:        a.MaxParticipants,
		SpotsLeft:       a.SpotsLeft(),
		Status:          status,
		ProgressPercent: a.ProgressPercent(),
	}
}
