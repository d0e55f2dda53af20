package microsoft

import (
	"fmt"
	"time"

	"calbridge/internal/model"
	"calbridge/internal/recurrence"
)

var graphDayNames = map[time.Weekday]string{
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
	time.Sunday:    "sunday",
}

var weekdaysByGraphName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// recurrenceToGraph maps a canonical RRULE onto the Graph pattern/range pair.
// The rule is interpreted relative to the event's start date: a weekly rule
// without BYDAY recurs on the start date's weekday, and monthly/yearly rules
// anchor to the start date's day and month.
func recurrenceToGraph(rule string, start model.TimePoint) (*PatternedRecurrence, error) {
	spec, err := recurrence.Parse(rule)
	if err != nil {
		return nil, err
	}

	startDate, startDay, err := startAnchor(start)
	if err != nil {
		return nil, err
	}

	pattern := RecurrencePattern{
		Interval:       spec.Interval,
		FirstDayOfWeek: "sunday",
	}

	switch spec.Freq {
	case recurrence.Daily:
		pattern.Type = "daily"
	case recurrence.Weekly:
		pattern.Type = "weekly"
		if len(spec.ByDay) > 0 {
			for _, w := range spec.ByDay {
				pattern.DaysOfWeek = append(pattern.DaysOfWeek, graphDayNames[w])
			}
		} else {
			// Weekly rules without BYDAY recur on the start date's weekday,
			// not on Monday.
			pattern.DaysOfWeek = []string{graphDayNames[startDay.Weekday()]}
		}
	case recurrence.Monthly:
		pattern.Type = "absoluteMonthly"
		if spec.ByMonthDay != 0 {
			pattern.DayOfMonth = spec.ByMonthDay
		} else {
			pattern.DayOfMonth = startDay.Day()
		}
	case recurrence.Yearly:
		pattern.Type = "absoluteYearly"
		pattern.Month = int(startDay.Month())
		pattern.DayOfMonth = startDay.Day()
	default:
		return nil, fmt.Errorf("unsupported frequency %s", spec.Freq)
	}

	rng := RecurrenceRange{Type: "noEnd", StartDate: startDate}
	switch {
	case !spec.Until.IsZero():
		rng.Type = "endDate"
		rng.EndDate = spec.Until.UTC().Format(graphDateLayout)
	case spec.Count > 0:
		rng.Type = "numbered"
		rng.NumberOfOccurrences = spec.Count
	}

	return &PatternedRecurrence{Pattern: pattern, Range: rng}, nil
}

// recurrenceFromGraph is the inverse mapping. Pattern types outside the
// supported set (relativeMonthly and friends) are errors, never a silent
// default.
func recurrenceFromGraph(rec *PatternedRecurrence) (string, error) {
	spec := recurrence.Spec{Interval: rec.Pattern.Interval}
	if spec.Interval < 1 {
		spec.Interval = 1
	}

	switch rec.Pattern.Type {
	case "daily":
		spec.Freq = recurrence.Daily
	case "weekly":
		spec.Freq = recurrence.Weekly
		for _, name := range rec.Pattern.DaysOfWeek {
			w, ok := weekdaysByGraphName[name]
			if !ok {
				return "", fmt.Errorf("unknown day of week %q", name)
			}
			spec.ByDay = append(spec.ByDay, w)
		}
	case "absoluteMonthly":
		spec.Freq = recurrence.Monthly
		spec.ByMonthDay = rec.Pattern.DayOfMonth
	case "absoluteYearly":
		spec.Freq = recurrence.Yearly
	default:
		return "", fmt.Errorf("unsupported recurrence pattern type %q", rec.Pattern.Type)
	}

	switch rec.Range.Type {
	case "", "noEnd":
	case "endDate":
		until, err := time.ParseInLocation(graphDateLayout, rec.Range.EndDate, time.UTC)
		if err != nil {
			return "", fmt.Errorf("invalid range endDate %q: %w", rec.Range.EndDate, err)
		}
		spec.Until = until
		spec.UntilDateOnly = true
	case "numbered":
		if rec.Range.NumberOfOccurrences < 1 {
			return "", fmt.Errorf("numbered range with %d occurrences", rec.Range.NumberOfOccurrences)
		}
		spec.Count = rec.Range.NumberOfOccurrences
	default:
		return "", fmt.Errorf("unsupported recurrence range type %q", rec.Range.Type)
	}

	return spec.String(), nil
}

func startAnchor(start model.TimePoint) (string, time.Time, error) {
	if start.IsDateOnly() {
		day, err := time.Parse(graphDateLayout, start.Date)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("invalid start date %q: %w", start.Date, err)
		}
		return start.Date, day, nil
	}
	if start.DateTime.IsZero() {
		return "", time.Time{}, fmt.Errorf("recurrence requires a start date")
	}
	local := start.DateTime.In(start.Location())
	return local.Format(graphDateLayout), local, nil
}
