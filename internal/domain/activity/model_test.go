package activity_test

import (
	"testing"

	"mentorship/internal/domain/activity"
)

func roster(n int) []activity.Participant {
	out := make([]activity.Participant, n)
	for i := range out {
		out[i] = activity.Participant{Name: "P", Email: string(rune('a'+i)) + "@x.org"}
	}
	return out
}

// TestActivity_Capacity tests spots, fullness, progress and near-full classification.
func TestActivity_Capacity(t *testing.T) {
	tests := []struct {
		name         string
		enrolled     int
		max          int
		wantSpots    int
		wantFull     bool
		wantProgress int
		wantNearFull bool
	}{
		{name: "empty", enrolled: 0, max: 10, wantSpots: 10, wantFull: false, wantProgress: 0, wantNearFull: false},
		{name: "half", enrolled: 5, max: 10, wantSpots: 5, wantFull: false, wantProgress: 50, wantNearFull: false},
		{name: "eight of ten is near full", enrolled: 8, max: 10, wantSpots: 2, wantFull: false, wantProgress: 80, wantNearFull: true},
		{name: "ten of ten is full not near full", enrolled: 10, max: 10, wantSpots: 0, wantFull: true, wantProgress: 100, wantNearFull: false},
		{name: "over capacity is unclamped", enrolled: 12, max: 10, wantSpots: -2, wantFull: true, wantProgress: 120, wantNearFull: false},
		{name: "rounds to nearest", enrolled: 1, max: 3, wantSpots: 2, wantFull: false, wantProgress: 33, wantNearFull: false},
		{name: "rounds half up", enrolled: 1, max: 8, wantSpots: 7, wantFull: false, wantProgress: 13, wantNearFull: false},
		{name: "zero capacity", enrolled: 0, max: 0, wantSpots: 0, wantFull: true, wantProgress: 0, wantNearFull: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := activity.Activity{Name: "A", MaxParticipants: tt.max, Participants: roster(tt.enrolled)}
			if got := a.SpotsLeft(); got != tt.wantSpots {
				t.Errorf("SpotsLeft() = %d, want %d", got, tt.wantSpots)
			}
			if got := a.IsFull(); got != tt.wantFull {
				t.Errorf("IsFull() = %v, want %v", got, tt.wantFull)
			}
			if got := a.ProgressPercent(); got != tt.wantProgress {
				t.Errorf("ProgressPercent() = %d, want %d", got, tt.wantProgress)
			}
			if got := a.IsNearFull(); got != tt.wantNearFull {
				t.Errorf("IsNearFull() = %v, want %v", got, tt.wantNearFull)
			}
		})
	}
}

// TestActivity_HasParticipant tests case-insensitive roster lookup.
func TestActivity_HasParticipant(t *testing.T) {
	a := activity.Activity{Participants: []activity.Participant{{Name: "Ana", Email: "Ana@X.org"}}}
	if !a.HasParticipant("ana@x.org") {
		t.Error("expected ana@x.org to be found")
	}
	if a.HasParticipant("bia@x.org") {
		t.Error("expected bia@x.org to be absent")
	}
}

// TestActivity_Clone tests that clones never share the roster backing array.
func TestActivity_Clone(t *testing.T) {
	a := activity.Activity{Participants: []activity.Participant{{Name: "Ana", Email: "ana@x.org"}}}
	b := a.Clone()
	b.Participants[0].Name = "Changed"
	if a.Participants[0].Name != "Ana" {
		t.Errorf("clone aliased original roster: %q", a.Participants[0].Name)
	}
}

// TestCatalog_PreservesOrder tests that names come back in insertion order.
func TestCatalog_PreservesOrder(t *testing.T) {
	c := activity.NewCatalog(
		activity.Activity{Name: "Zeta"},
		activity.Activity{Name: "Alpha"},
		activity.Activity{Name: "Mid"},
	)
	got := c.Names()
	want := []string{"Zeta", "Alpha", "Mid"}
	if len(got) != len(want) {
		t.Fatalf("Names() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// TestCatalog_WithActivity tests targeted replacement keeps position and leaves the receiver intact.
func TestCatalog_WithActivity(t *testing.T) {
	orig := activity.NewCatalog(
		activity.Activity{Name: "A", MaxParticipants: 10},
		activity.Activity{Name: "B", MaxParticipants: 10},
	)
	updated := orig.WithActivity(activity.Activity{Name: "A", MaxParticipants: 10, Participants: roster(1)})

	if a, _ := orig.Get("A"); a.Enrolled() != 0 {
		t.Errorf("receiver mutated: A enrolled = %d", a.Enrolled())
	}
	if a, _ := updated.Get("A"); a.Enrolled() != 1 {
		t.Errorf("updated A enrolled = %d, want 1", a.Enrolled())
	}
	if names := updated.Names(); names[0] != "A" || names[1] != "B" {
		t.Errorf("order changed: %v", names)
	}

	appended := orig.WithActivity(activity.Activity{Name: "C"})
	if appended.Len() != 3 || appended.Names()[2] != "C" {
		t.Errorf("expected C appended, got %v", appended.Names())
	}
}

// TestCatalog_WithoutActivity tests removal.
func TestCatalog_WithoutActivity(t *testing.T) {
	orig := activity.NewCatalog(activity.Activity{Name: "A"}, activity.Activity{Name: "B"})
	got := orig.WithoutActivity("A")
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
	if _, ok := got.Get("A"); ok {
		t.Error("A should be gone")
	}
	if orig.Len() != 2 {
		t.Errorf("receiver mutated: Len() = %d", orig.Len())
	}
}

// TestCatalog_GetReturnsCopy tests that callers cannot mutate cached rosters.
func TestCatalog_GetReturnsCopy(t *testing.T) {
	c := activity.NewCatalog(activity.Activity{Name: "A", Participants: roster(1)})
	a, _ := c.Get("A")
	a.Participants[0].Name = "Mutated"
	again, _ := c.Get("A")
	if again.Participants[0].Name == "Mutated" {
		t.Error("Get leaked a shared roster")
	}
}

// TestNewActivityInput_Validate tests create-form validation.
func TestNewActivityInput_Validate(t *testing.T) {
	valid := activity.NewActivityInput{
		Name:            "Remote Team Management",
		Description:     "Lead distributed teams",
		Day:             "Mondays",
		StartTime:       "19:00",
		EndTime:         "20:30",
		MaxParticipants: 20,
	}

	tests := []struct {
		name    string
		mutate  func(in *activity.NewActivityInput)
		wantErr error
	}{
		{name: "valid", mutate: func(in *activity.NewActivityInput) {}, wantErr: nil},
		{name: "missing day", mutate: func(in *activity.NewActivityInput) { in.Day = "" }, wantErr: activity.ErrMissingSchedule},
		{name: "missing start", mutate: func(in *activity.NewActivityInput) { in.StartTime = "" }, wantErr: activity.ErrMissingSchedule},
		{name: "missing end", mutate: func(in *activity.NewActivityInput) { in.EndTime = " " }, wantErr: activity.ErrMissingSchedule},
		{name: "empty name", mutate: func(in *activity.NewActivityInput) { in.Name = "" }, wantErr: activity.ErrEmptyName},
		{name: "empty description", mutate: func(in *activity.NewActivityInput) { in.Description = "" }, wantErr: activity.ErrEmptyDescription},
		{name: "unknown day", mutate: func(in *activity.NewActivityInput) { in.Day = "Someday" }, wantErr: activity.ErrUnknownWeekday},
		{name: "capacity too small", mutate: func(in *activity.NewActivityInput) { in.MaxParticipants = 4 }, wantErr: activity.ErrInvalidCapacity},
		{name: "capacity too large", mutate: func(in *activity.NewActivityInput) { in.MaxParticipants = 51 }, wantErr: activity.ErrInvalidCapacity},
		{name: "end equals start", mutate: func(in *activity.NewActivityInput) { in.EndTime = "19:00" }, wantErr: activity.ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			if err := in.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestNewActivityInput_Schedule tests the schedule text sent to the backend.
func TestNewActivityInput_Schedule(t *testing.T) {
	in := activity.NewActivityInput{Day: "Wednesdays", StartTime: "18:30", EndTime: "20:00"}
	if got, want := in.Schedule(), "Wednesdays das 18:30 às 20:00"; got != want {
		t.Errorf("Schedule() = %q, want %q", got, want)
	}
}
