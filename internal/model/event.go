package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"calbridge/internal/recurrence"
)

// Provider identifies one of the supported calendar backends.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderApple     Provider = "apple"
	ProviderMicrosoft Provider = "microsoft"
)

func (p Provider) String() string {
	return string(p)
}

// ParseProvider maps a user-supplied name onto a Provider.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google":
		return ProviderGoogle, nil
	case "apple", "icloud":
		return ProviderApple, nil
	case "microsoft", "outlook":
		return ProviderMicrosoft, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	StatusConfirmed EventStatus = "confirmed"
	StatusTentative EventStatus = "tentative"
	StatusCancelled EventStatus = "cancelled"
)

// ResponseStatus is an attendee's reply to an invitation.
type ResponseStatus string

const (
	ResponseNeedsAction         ResponseStatus = "needsAction"
	ResponseAccepted            ResponseStatus = "accepted"
	ResponseDeclined            ResponseStatus = "declined"
	ResponseTentativelyAccepted ResponseStatus = "tentativelyAccepted"
)

// Attendee is a participant on an event.
type Attendee struct {
	Email          string         `json:"email"`
	DisplayName    string         `json:"displayName,omitempty"`
	ResponseStatus ResponseStatus `json:"responseStatus,omitempty"`
}

const dateLayout = "2006-01-02"

// TimePoint is either a date-only value (all-day events) or a timed
// instant with an IANA timezone. Exactly one of Date and DateTime is set.
type TimePoint struct {
	Date     string
	DateTime time.Time
	TimeZone string
}

// NewDate builds a date-only TimePoint from a "2006-01-02" string.
func NewDate(date string) TimePoint {
	return TimePoint{Date: date}
}

// NewDateTime builds a timed TimePoint. An empty timeZone defaults to UTC.
func NewDateTime(t time.Time, timeZone string) TimePoint {
	if timeZone == "" {
		timeZone = "UTC"
	}
	return TimePoint{DateTime: t, TimeZone: timeZone}
}

// IsDateOnly reports whether the point carries a date-only value.
func (tp TimePoint) IsDateOnly() bool {
	return tp.Date != ""
}

// IsZero reports whether neither form is populated.
func (tp TimePoint) IsZero() bool {
	return tp.Date == "" && tp.DateTime.IsZero()
}

// Location resolves the point's timezone, falling back to UTC when the
// name is missing or unknown.
func (tp TimePoint) Location() *time.Location {
	if tp.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tp.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (tp TimePoint) validate() error {
	if tp.Date != "" && !tp.DateTime.IsZero() {
		return fmt.Errorf("time point has both date and dateTime")
	}
	if tp.Date == "" && tp.DateTime.IsZero() {
		return fmt.Errorf("time point has neither date nor dateTime")
	}
	if tp.Date != "" {
		if _, err := time.Parse(dateLayout, tp.Date); err != nil {
			return fmt.Errorf("invalid date %q: %w", tp.Date, err)
		}
	}
	return nil
}

type timePointJSON struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

func (tp TimePoint) MarshalJSON() ([]byte, error) {
	out := timePointJSON{Date: tp.Date, TimeZone: tp.TimeZone}
	if !tp.DateTime.IsZero() {
		out.DateTime = tp.DateTime.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

func (tp *TimePoint) UnmarshalJSON(data []byte) error {
	var in timePointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	tp.Date = in.Date
	tp.TimeZone = in.TimeZone
	tp.DateTime = time.Time{}
	if in.DateTime != "" {
		t, err := time.Parse(time.RFC3339, in.DateTime)
		if err != nil {
			return fmt.Errorf("invalid dateTime %q: %w", in.DateTime, err)
		}
		if in.TimeZone != "" {
			if loc, lerr := time.LoadLocation(in.TimeZone); lerr == nil {
				t = t.In(loc)
			}
		}
		tp.DateTime = t
	}
	return nil
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// UniversalEvent is the canonical, provider-agnostic event representation.
// Instances are handed to the sync engine by value and never mutated in
// place; adapters build new provider structures from them.
type UniversalEvent struct {
	ID          string      `json:"id,omitempty"`
	Summary     string      `json:"summary"`
	Description string      `json:"description,omitempty"`
	Location    string      `json:"location,omitempty"`
	Status      EventStatus `json:"status,omitempty"`
	Start       TimePoint   `json:"start"`
	End         TimePoint   `json:"end"`
	Recurrence  []string    `json:"recurrence,omitempty"`
	Attendees   []Attendee  `json:"attendees,omitempty"`
	ColorID     string      `json:"colorId,omitempty"`

	// RawProviderCategories carries provider-native category names verbatim
	// when the event originated from a category-bearing provider. When set it
	// wins over ColorID on write paths.
	RawProviderCategories []string `json:"rawProviderCategories,omitempty"`
}

// Validate checks the data-model invariants. A validation failure makes the
// event untranslatable for every provider.
func (e UniversalEvent) Validate() error {
	switch e.Status {
	case "", StatusConfirmed, StatusTentative, StatusCancelled:
	default:
		return fmt.Errorf("invalid status %q", e.Status)
	}

	if err := e.Start.validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if err := e.End.validate(); err != nil {
		return fmt.Errorf("end: %w", err)
	}

	if e.Start.IsDateOnly() != e.End.IsDateOnly() {
		return fmt.Errorf("start and end must both be date-only or both be timed")
	}
	if e.Start.IsDateOnly() {
		if e.End.Date < e.Start.Date {
			return fmt.Errorf("end date %s before start date %s", e.End.Date, e.Start.Date)
		}
	} else if !e.End.DateTime.After(e.Start.DateTime) {
		return fmt.Errorf("end %s not after start %s", e.End.DateTime, e.Start.DateTime)
	}

	for _, r := range e.Recurrence {
		if _, err := recurrence.Parse(r); err != nil {
			return fmt.Errorf("recurrence %q: %w", r, err)
		}
	}

	seen := make(map[string]struct{}, len(e.Attendees))
	for _, a := range e.Attendees {
		if !strings.Contains(a.Email, "@") {
			return fmt.Errorf("invalid attendee email %q", a.Email)
		}
		if _, dup := seen[a.Email]; dup {
			return fmt.Errorf("duplicate attendee email %q", a.Email)
		}
		seen[a.Email] = struct{}{}
	}

	if e.ColorID != "" {
		if !validColorID(e.ColorID) {
			return fmt.Errorf("invalid colorId %q", e.ColorID)
		}
	}
	return nil
}

func validColorID(id string) bool {
	switch id {
	case "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11":
		return true
	}
	return false
}

// Interval reduces the event to its half-open occupancy interval. All-day
// events are normalized to [midnight(start), midnight(end exclusive)) in the
// event's timezone frame; end.date equal to start.date spans one day, any
// later end.date is treated as the exclusive bound.
func (e UniversalEvent) Interval() (Interval, error) {
	if e.Start.IsDateOnly() {
		loc := e.Start.Location()
		start, err := time.ParseInLocation(dateLayout, e.Start.Date, loc)
		if err != nil {
			return Interval{}, fmt.Errorf("start date: %w", err)
		}
		end, err := time.ParseInLocation(dateLayout, e.End.Date, loc)
		if err != nil {
			return Interval{}, fmt.Errorf("end date: %w", err)
		}
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		return Interval{Start: start, End: end}, nil
	}

	if e.Start.DateTime.IsZero() || e.End.DateTime.IsZero() {
		return Interval{}, fmt.Errorf("event has no usable start/end")
	}
	return Interval{Start: e.Start.DateTime, End: e.End.DateTime}, nil
}
