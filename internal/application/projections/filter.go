package projections

import (
	"strings"

	"mentorship/internal/application/state"
	"mentorship/internal/domain/activity"
)

// FilterActivities projects the cache through the search and availability criteria.
// PRE: none
// POST: Returns a new catalog in source order; c is not modified
// INVARIANT: Pure; identical inputs yield identical output
func FilterActivities(c activity.Catalog, criteria state.Criteria) activity.Catalog {
	term := strings.ToLower(criteria.Search)
	var kept []activity.Activity
	for _, a := range c.All() {
		if term != "" && !strings.Contains(strings.ToLower(a.Name), term) {
			continue
		}
		if !matchesAvailability(a, criteria.Availability) {
			continue
		}
		kept = append(kept, a)
	}
	return activity.NewCatalog(kept...)
}

func matchesAvailability(a activity.Activity, av state.Availability) bool {
	switch av {
	case state.AvailabilityAvailable:
		return a.SpotsLeft() > 0
	case state.AvailabilityFull:
		return a.SpotsLeft() <= 0
	default:
		return true
	}
}
