package apple

import (
	"testing"
	"time"

	"calbridge/internal/model"
)

func TestExpandOccurrences(t *testing.T) {
	a := testAdapter()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday
	ev := model.UniversalEvent{
		ID:         "standup",
		Summary:    "Standup",
		Start:      model.NewDateTime(base, "UTC"),
		End:        model.NewDateTime(base.Add(30*time.Minute), "UTC"),
		Recurrence: []string{"RRULE:FREQ=DAILY;COUNT=10"},
	}

	window := model.Interval{
		Start: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	}

	occs := a.expandOccurrences(ev, window)
	if len(occs) != 3 {
		t.Fatalf("expanded to %d occurrences, want 3: %+v", len(occs), occs)
	}
	for i, occ := range occs {
		if occ.Recurrence != nil {
			t.Errorf("occurrence %d still carries a recurrence rule", i)
		}
		want := time.Date(2026, 3, 4+i, 9, 0, 0, 0, time.UTC)
		if !occ.Start.DateTime.Equal(want) {
			t.Errorf("occurrence %d starts %v, want %v", i, occ.Start.DateTime, want)
		}
		if got := occ.End.DateTime.Sub(occ.Start.DateTime); got != 30*time.Minute {
			t.Errorf("occurrence %d duration = %v", i, got)
		}
	}
}

func TestExpandOccurrencesPassThrough(t *testing.T) {
	a := testAdapter()
	ev := model.UniversalEvent{
		Summary: "one-off",
		Start:   model.NewDateTime(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), "UTC"),
		End:     model.NewDateTime(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), "UTC"),
	}
	occs := a.expandOccurrences(ev, model.Interval{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	if len(occs) != 1 || occs[0].Summary != "one-off" {
		t.Fatalf("pass-through gave %+v", occs)
	}
}

func TestExpandOccurrencesOutsideWindow(t *testing.T) {
	a := testAdapter()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ev := model.UniversalEvent{
		ID:         "short",
		Summary:    "Short series",
		Start:      model.NewDateTime(base, "UTC"),
		End:        model.NewDateTime(base.Add(time.Hour), "UTC"),
		Recurrence: []string{"RRULE:FREQ=DAILY;COUNT=2"},
	}
	window := model.Interval{
		Start: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC),
	}
	if occs := a.expandOccurrences(ev, window); len(occs) != 0 {
		t.Fatalf("series ending in March produced %d April occurrences", len(occs))
	}
}
