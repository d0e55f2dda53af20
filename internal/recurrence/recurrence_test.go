package recurrence

import (
	"strings"
	"testing"
	"time"
)

func TestParseRoundTrip(t *testing.T) {
	// Canonical rules should survive Parse then String unchanged.
	rules := []string{
		"RRULE:FREQ=DAILY",
		"RRULE:FREQ=DAILY;INTERVAL=3",
		"RRULE:FREQ=WEEKLY;BYDAY=TU,TH",
		"RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE,FR;COUNT=10",
		"RRULE:FREQ=MONTHLY;BYMONTHDAY=15",
		"RRULE:FREQ=MONTHLY;INTERVAL=2;UNTIL=20261231",
		"RRULE:FREQ=YEARLY;UNTIL=20270101T000000Z",
		"RRULE:FREQ=DAILY;COUNT=5",
	}
	for _, rule := range rules {
		spec, err := Parse(rule)
		if err != nil {
			t.Errorf("Parse(%q): %v", rule, err)
			continue
		}
		if got := spec.String(); got != rule {
			t.Errorf("Parse(%q).String() = %q", rule, got)
		}
	}
}

func TestParseWithoutPrefix(t *testing.T) {
	spec, err := Parse("FREQ=WEEKLY;BYDAY=MO")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Freq != Weekly {
		t.Errorf("Freq = %v, want Weekly", spec.Freq)
	}
	if want := "RRULE:FREQ=WEEKLY;BYDAY=MO"; spec.String() != want {
		t.Errorf("String() = %q, want %q", spec.String(), want)
	}
}

func TestParseDefaults(t *testing.T) {
	spec, err := Parse("RRULE:FREQ=DAILY")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Interval != 1 {
		t.Errorf("Interval = %d, want 1", spec.Interval)
	}
	if !spec.Unbounded() {
		t.Error("rule without UNTIL or COUNT should be unbounded")
	}
}

func TestParseIgnoresUnknownKeys(t *testing.T) {
	// Keys outside the supported grammar, like WKST, are dropped silently.
	spec, err := Parse("RRULE:FREQ=WEEKLY;WKST=SU;BYDAY=FR")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if want := "RRULE:FREQ=WEEKLY;BYDAY=FR"; spec.String() != want {
		t.Errorf("String() = %q, want %q", spec.String(), want)
	}
}

func TestParseUntilForms(t *testing.T) {
	dateOnly, err := Parse("RRULE:FREQ=DAILY;UNTIL=20260615")
	if err != nil {
		t.Fatalf("Parse date-only UNTIL: %v", err)
	}
	if !dateOnly.UntilDateOnly {
		t.Error("UntilDateOnly = false for a date-only UNTIL")
	}
	if want := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC); !dateOnly.Until.Equal(want) {
		t.Errorf("Until = %v, want %v", dateOnly.Until, want)
	}

	timed, err := Parse("RRULE:FREQ=DAILY;UNTIL=20260615T120000Z")
	if err != nil {
		t.Fatalf("Parse timed UNTIL: %v", err)
	}
	if timed.UntilDateOnly {
		t.Error("UntilDateOnly = true for a timed UNTIL")
	}
	if want := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC); !timed.Until.Equal(want) {
		t.Errorf("Until = %v, want %v", timed.Until, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		rule string
	}{
		{"empty", ""},
		{"no freq", "RRULE:INTERVAL=2"},
		{"unsupported freq", "RRULE:FREQ=HOURLY"},
		{"bad interval", "RRULE:FREQ=DAILY;INTERVAL=0"},
		{"non-numeric interval", "RRULE:FREQ=DAILY;INTERVAL=x"},
		{"bad day code", "RRULE:FREQ=WEEKLY;BYDAY=XX"},
		{"positional byday", "RRULE:FREQ=MONTHLY;BYDAY=2MO"},
		{"bad month day", "RRULE:FREQ=MONTHLY;BYMONTHDAY=32"},
		{"bymonthday on weekly", "RRULE:FREQ=WEEKLY;BYMONTHDAY=5"},
		{"until and count", "RRULE:FREQ=DAILY;UNTIL=20261231;COUNT=3"},
		{"bad until", "RRULE:FREQ=DAILY;UNTIL=notadate"},
		{"bad count", "RRULE:FREQ=DAILY;COUNT=0"},
		{"malformed part", "RRULE:FREQ=DAILY;NOVALUE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.rule); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tc.rule)
			}
		})
	}
}

func TestDayCodes(t *testing.T) {
	for code, want := range map[string]time.Weekday{
		"MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday,
		"TH": time.Thursday, "FR": time.Friday, "SA": time.Saturday, "SU": time.Sunday,
	} {
		got, err := ParseDayCode(code)
		if err != nil {
			t.Fatalf("ParseDayCode(%q): %v", code, err)
		}
		if got != want {
			t.Errorf("ParseDayCode(%q) = %v, want %v", code, got, want)
		}
		if back := DayCode(got); back != code {
			t.Errorf("DayCode(%v) = %q, want %q", got, back, code)
		}
	}
	if _, err := ParseDayCode("QQ"); err == nil {
		t.Error("ParseDayCode accepted an unknown code")
	}
}

func TestStringCanonicalOrder(t *testing.T) {
	// Parts arrive in arbitrary order but render canonically.
	spec, err := Parse("RRULE:COUNT=4;BYDAY=WE;INTERVAL=2;FREQ=WEEKLY")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := spec.String()
	want := "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=WE;COUNT=4"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(got, "RRULE:FREQ=") {
		t.Errorf("String() does not start with FREQ: %q", got)
	}
}
