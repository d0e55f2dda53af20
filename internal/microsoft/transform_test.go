package microsoft

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"calbridge/internal/model"
)

func testAdapter() *Adapter {
	return NewAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTimedEventRoundTrip(t *testing.T) {
	a := testAdapter()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}

	ev := model.UniversalEvent{
		Summary:     "Planning",
		Description: "Quarterly planning session",
		Location:    "Room 4",
		Start:       model.NewDateTime(time.Date(2026, 2, 2, 10, 0, 0, 0, loc), "America/New_York"),
		End:         model.NewDateTime(time.Date(2026, 2, 2, 11, 0, 0, 0, loc), "America/New_York"),
		Attendees: []model.Attendee{
			{Email: "ana@example.com", DisplayName: "Ana", ResponseStatus: model.ResponseAccepted},
			{Email: "bo@example.com", ResponseStatus: model.ResponseNeedsAction},
		},
	}

	msEvent, err := a.ToProviderFormat(ev)
	if err != nil {
		t.Fatalf("ToProviderFormat: %v", err)
	}
	if msEvent.Subject != "Planning" {
		t.Errorf("Subject = %q", msEvent.Subject)
	}
	if msEvent.IsAllDay {
		t.Error("IsAllDay set on a timed event")
	}
	if msEvent.Start.DateTime != "2026-02-02T10:00:00" || msEvent.Start.TimeZone != "America/New_York" {
		t.Errorf("Start = %+v", msEvent.Start)
	}
	if got := msEvent.Attendees[1].Status.Response; got != "none" {
		t.Errorf("needsAction mapped to %q, want %q", got, "none")
	}

	back, err := a.FromProviderFormat(msEvent)
	if err != nil {
		t.Fatalf("FromProviderFormat: %v", err)
	}
	if back.Summary != ev.Summary || back.Description != ev.Description || back.Location != ev.Location {
		t.Errorf("round trip lost fields: %+v", back)
	}
	if !back.Start.DateTime.Equal(ev.Start.DateTime) {
		t.Errorf("Start = %v, want %v", back.Start.DateTime, ev.Start.DateTime)
	}
	if back.Attendees[0].ResponseStatus != model.ResponseAccepted {
		t.Errorf("attendee 0 status = %q", back.Attendees[0].ResponseStatus)
	}
	if back.Attendees[1].ResponseStatus != model.ResponseNeedsAction {
		t.Errorf("attendee 1 status = %q", back.Attendees[1].ResponseStatus)
	}
}

func TestAllDayRoundTrip(t *testing.T) {
	a := testAdapter()
	ev := model.UniversalEvent{
		Summary: "Company holiday",
		Start:   model.NewDate("2026-02-25"),
		End:     model.NewDate("2026-02-26"),
	}

	msEvent, err := a.ToProviderFormat(ev)
	if err != nil {
		t.Fatalf("ToProviderFormat: %v", err)
	}
	if !msEvent.IsAllDay {
		t.Error("IsAllDay not set")
	}
	if msEvent.Start.DateTime != "2026-02-25T00:00:00" {
		t.Errorf("Start.DateTime = %q", msEvent.Start.DateTime)
	}
	if msEvent.End.DateTime != "2026-02-26T00:00:00" {
		t.Errorf("End.DateTime = %q", msEvent.End.DateTime)
	}

	back, err := a.FromProviderFormat(msEvent)
	if err != nil {
		t.Fatalf("FromProviderFormat: %v", err)
	}
	if !back.Start.IsDateOnly() || back.Start.Date != "2026-02-25" {
		t.Errorf("Start = %+v", back.Start)
	}
	if back.End.Date != "2026-02-26" {
		t.Errorf("End = %+v", back.End)
	}
}

func TestFractionalSecondsTrimmed(t *testing.T) {
	a := testAdapter()
	back, err := a.FromProviderFormat(&Event{
		Subject: "x",
		Start:   &DateTimeTimeZone{DateTime: "2026-02-02T10:00:00.0000000", TimeZone: "UTC"},
		End:     &DateTimeTimeZone{DateTime: "2026-02-02T11:00:00.0000000", TimeZone: "UTC"},
	})
	if err != nil {
		t.Fatalf("FromProviderFormat: %v", err)
	}
	want := time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
	if !back.Start.DateTime.Equal(want) {
		t.Errorf("Start = %v, want %v", back.Start.DateTime, want)
	}
}

func TestOnlyFirstRecurrenceRuleKept(t *testing.T) {
	a := testAdapter()
	ev := model.UniversalEvent{
		Summary: "series",
		Start:   model.NewDateTime(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), "UTC"),
		End:     model.NewDateTime(time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC), "UTC"),
		Recurrence: []string{
			"RRULE:FREQ=WEEKLY;BYDAY=MO",
			"RRULE:FREQ=DAILY;COUNT=3",
		},
	}
	msEvent, err := a.ToProviderFormat(ev)
	if err != nil {
		t.Fatalf("ToProviderFormat: %v", err)
	}
	if msEvent.Recurrence == nil || msEvent.Recurrence.Pattern.Type != "weekly" {
		t.Fatalf("Recurrence = %+v, want the first rule's weekly pattern", msEvent.Recurrence)
	}
}

func TestCancelledEvent(t *testing.T) {
	a := testAdapter()
	back, err := a.FromProviderFormat(&Event{
		Subject:     "gone",
		IsCancelled: true,
		Start:       &DateTimeTimeZone{DateTime: "2026-02-02T10:00:00", TimeZone: "UTC"},
		End:         &DateTimeTimeZone{DateTime: "2026-02-02T11:00:00", TimeZone: "UTC"},
	})
	if err != nil {
		t.Fatalf("FromProviderFormat: %v", err)
	}
	if back.Status != model.StatusCancelled {
		t.Errorf("Status = %q", back.Status)
	}
}

func TestCategoriesRoundTrip(t *testing.T) {
	a := testAdapter()

	// Raw categories travel verbatim; the first one derives the color id.
	back, err := a.FromProviderFormat(&Event{
		Subject:    "lecture",
		Start:      &DateTimeTimeZone{DateTime: "2026-02-02T10:00:00", TimeZone: "UTC"},
		End:        &DateTimeTimeZone{DateTime: "2026-02-02T11:00:00", TimeZone: "UTC"},
		Categories: []string{"School", "Urgent"},
	})
	if err != nil {
		t.Fatalf("FromProviderFormat: %v", err)
	}
	if back.ColorID != "2" {
		t.Errorf("ColorID = %q, want %q", back.ColorID, "2")
	}
	if !reflect.DeepEqual(back.RawProviderCategories, []string{"School", "Urgent"}) {
		t.Errorf("RawProviderCategories = %v", back.RawProviderCategories)
	}

	msEvent, err := a.ToProviderFormat(back)
	if err != nil {
		t.Fatalf("ToProviderFormat: %v", err)
	}
	if !reflect.DeepEqual(msEvent.Categories, []string{"School", "Urgent"}) {
		t.Errorf("Categories = %v, want the raw names back", msEvent.Categories)
	}
}

func TestColorToCategoryFallback(t *testing.T) {
	a := testAdapter()
	ev := model.UniversalEvent{
		Summary: "work thing",
		Start:   model.NewDateTime(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), "UTC"),
		End:     model.NewDateTime(time.Date(2026, 2, 2, 11, 0, 0, 0, time.UTC), "UTC"),
		ColorID: "10",
	}
	msEvent, err := a.ToProviderFormat(ev)
	if err != nil {
		t.Fatalf("ToProviderFormat: %v", err)
	}
	if !reflect.DeepEqual(msEvent.Categories, []string{"Work"}) {
		t.Errorf("Categories = %v, want [Work]", msEvent.Categories)
	}
}

func TestCategoryColorTables(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"school", "2"},
		{"Deadline", "11"},
		{"private", "9"},
		{"business", "10"},
		{"appointment", "5"},
		{"party", "3"},
		{"trip", "6"},
		{"holiday", "4"},
		{"family", "7"},
		{"no-such-category", "1"},
	}
	for _, tc := range tests {
		if got := categoryToColor(tc.category); got != tc.want {
			t.Errorf("categoryToColor(%q) = %q, want %q", tc.category, got, tc.want)
		}
	}

	if got := colorToCategory("11"); got != "Important" {
		t.Errorf("colorToCategory(11) = %q", got)
	}
	if got := colorToCategory("99"); got != "General" {
		t.Errorf("colorToCategory(99) = %q", got)
	}
}

func TestGraphResponseMapping(t *testing.T) {
	tests := []struct {
		in   string
		want model.ResponseStatus
	}{
		{"accepted", model.ResponseAccepted},
		{"declined", model.ResponseDeclined},
		{"tentativelyAccepted", model.ResponseTentativelyAccepted},
		{"tentative", model.ResponseTentativelyAccepted},
		{"notResponded", model.ResponseNeedsAction},
		{"none", model.ResponseNeedsAction},
		{"organizer", model.ResponseAccepted},
		{"", model.ResponseNeedsAction},
	}
	for _, tc := range tests {
		if got := fromGraphResponse(tc.in); got != tc.want {
			t.Errorf("fromGraphResponse(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
