// Package recurrence translates between canonical RRULE strings and the
// structured RecurrenceSpec the provider adapters build their native
// encodings from. Only the grammar subset the surrounding pipeline produces
// is supported: FREQ, INTERVAL, BYDAY, BYMONTHDAY, UNTIL, COUNT.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Freq is the repetition frequency of a rule.
type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
	Yearly
)

func (f Freq) String() string {
	switch f {
	case Daily:
		return "DAILY"
	case Weekly:
		return "WEEKLY"
	case Monthly:
		return "MONTHLY"
	case Yearly:
		return "YEARLY"
	}
	return fmt.Sprintf("Freq(%d)", int(f))
}

const (
	untilDateLayout     = "20060102"
	untilDateTimeLayout = "20060102T150405Z"
)

// Spec is the structured form of a supported RRULE. Until and Count are
// mutually exclusive; both zero means the recurrence is unbounded.
type Spec struct {
	Freq     Freq
	Interval int // always >= 1
	ByDay    []time.Weekday
	// ByMonthDay is 0 when unset. Valid for monthly rules only.
	ByMonthDay int
	Until      time.Time
	// UntilDateOnly records whether UNTIL was the date-only form, so
	// formatting restores the original shape.
	UntilDateOnly bool
	Count         int
}

var dayCodes = map[string]time.Weekday{
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
	"SU": time.Sunday,
}

var codeByDay = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// DayCode returns the two-letter RRULE code for a weekday.
func DayCode(w time.Weekday) string {
	return codeByDay[w]
}

// ParseDayCode maps a two-letter RRULE day code onto a weekday.
func ParseDayCode(code string) (time.Weekday, error) {
	w, ok := dayCodes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return 0, fmt.Errorf("unknown day code %q", code)
	}
	return w, nil
}

// Parse reads an RRULE string (with or without the "RRULE:" prefix) into a
// Spec. Keys outside the supported grammar are ignored; unsupported values
// for supported keys are errors.
func Parse(rule string) (Spec, error) {
	rule = strings.TrimSpace(rule)
	rule = strings.TrimPrefix(rule, "RRULE:")
	if rule == "" {
		return Spec{}, fmt.Errorf("empty rule")
	}

	spec := Spec{Interval: 1}
	var haveFreq, haveUntil, haveCount bool

	for _, part := range strings.Split(rule, ";") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Spec{}, fmt.Errorf("malformed rule part %q", part)
		}
		switch strings.ToUpper(key) {
		case "FREQ":
			haveFreq = true
			switch strings.ToUpper(value) {
			case "DAILY":
				spec.Freq = Daily
			case "WEEKLY":
				spec.Freq = Weekly
			case "MONTHLY":
				spec.Freq = Monthly
			case "YEARLY":
				spec.Freq = Yearly
			default:
				return Spec{}, fmt.Errorf("unsupported frequency %q", value)
			}
		case "INTERVAL":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return Spec{}, fmt.Errorf("invalid interval %q", value)
			}
			spec.Interval = n
		case "BYDAY":
			for _, code := range strings.Split(value, ",") {
				w, err := ParseDayCode(code)
				if err != nil {
					return Spec{}, err
				}
				spec.ByDay = append(spec.ByDay, w)
			}
		case "BYMONTHDAY":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 || n > 31 {
				return Spec{}, fmt.Errorf("invalid month day %q", value)
			}
			spec.ByMonthDay = n
		case "UNTIL":
			haveUntil = true
			t, dateOnly, err := parseUntil(value)
			if err != nil {
				return Spec{}, err
			}
			spec.Until = t
			spec.UntilDateOnly = dateOnly
		case "COUNT":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return Spec{}, fmt.Errorf("invalid count %q", value)
			}
			spec.Count = n
			haveCount = true
		default:
			// Keys outside the supported grammar are ignored on read and
			// never fabricated on write.
		}
	}

	if !haveFreq {
		return Spec{}, fmt.Errorf("rule %q has no FREQ", rule)
	}
	if haveUntil && haveCount {
		return Spec{}, fmt.Errorf("UNTIL and COUNT are mutually exclusive")
	}
	if spec.ByMonthDay != 0 && spec.Freq != Monthly {
		return Spec{}, fmt.Errorf("BYMONTHDAY is only valid with FREQ=MONTHLY")
	}
	return spec, nil
}

func parseUntil(value string) (time.Time, bool, error) {
	if len(value) == len(untilDateLayout) {
		t, err := time.ParseInLocation(untilDateLayout, value, time.UTC)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid UNTIL %q: %w", value, err)
		}
		return t, true, nil
	}
	t, err := time.Parse(untilDateTimeLayout, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid UNTIL %q: %w", value, err)
	}
	return t, false, nil
}

// String renders the spec as a canonical RRULE string with the "RRULE:"
// prefix. INTERVAL is omitted when 1.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString("RRULE:FREQ=")
	b.WriteString(s.Freq.String())
	if s.Interval > 1 {
		fmt.Fprintf(&b, ";INTERVAL=%d", s.Interval)
	}
	if len(s.ByDay) > 0 {
		codes := make([]string, len(s.ByDay))
		for i, w := range s.ByDay {
			codes[i] = DayCode(w)
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(codes, ","))
	}
	if s.ByMonthDay != 0 {
		fmt.Fprintf(&b, ";BYMONTHDAY=%d", s.ByMonthDay)
	}
	if !s.Until.IsZero() {
		if s.UntilDateOnly {
			fmt.Fprintf(&b, ";UNTIL=%s", s.Until.UTC().Format(untilDateLayout))
		} else {
			fmt.Fprintf(&b, ";UNTIL=%s", s.Until.UTC().Format(untilDateTimeLayout))
		}
	}
	if s.Count > 0 {
		fmt.Fprintf(&b, ";COUNT=%d", s.Count)
	}
	return b.String()
}

// Unbounded reports whether the rule has neither UNTIL nor COUNT.
func (s Spec) Unbounded() bool {
	return s.Until.IsZero() && s.Count == 0
}
