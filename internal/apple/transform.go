package apple

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"calbridge/internal/model"
	"calbridge/internal/provider"
	"calbridge/internal/recurrence"
)

const (
	prodID         = "-//calbridge//EN"
	icalDateLayout = "20060102"
)

// ToProviderFormat builds a VCALENDAR wrapping a single VEVENT. A UID is
// generated when the event has no id yet, and DTSTAMP is the creation
// timestamp in UTC.
func (a *Adapter) ToProviderFormat(ev model.UniversalEvent) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	ve := ical.NewComponent(ical.CompEvent)

	uid := ev.ID
	if uid == "" {
		uid = uuid.New().String()
	}
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, ev.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, a.now().UTC())

	status := ev.Status
	if status == "" {
		status = model.StatusConfirmed
	}
	ve.Props.SetText(ical.PropStatus, strings.ToUpper(string(status)))

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}

	if err := setTimeProp(ve, ical.PropDateTimeStart, ev.Start); err != nil {
		return nil, &provider.TransformError{Provider: model.ProviderApple, Reason: "start", Err: err}
	}
	if err := setTimeProp(ve, ical.PropDateTimeEnd, ev.End); err != nil {
		return nil, &provider.TransformError{Provider: model.ProviderApple, Reason: "end", Err: err}
	}

	for _, r := range ev.Recurrence {
		spec, err := recurrence.Parse(r)
		if err != nil {
			return nil, &provider.TransformError{Provider: model.ProviderApple, Reason: "recurrence", Err: err}
		}
		p := ical.NewProp(ical.PropRecurrenceRule)
		p.Value = strings.TrimPrefix(spec.String(), "RRULE:")
		ve.Props.Add(p)
	}

	for _, at := range ev.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", at.Email))
		if at.DisplayName != "" {
			p.Params.Set(ical.ParamCommonName, at.DisplayName)
		}
		p.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		p.Params.Set(ical.ParamParticipationStatus, toPartStat(at.ResponseStatus))
		ve.Props.Add(p)
	}

	cal.Children = append(cal.Children, ve)
	return cal, nil
}

// FromProviderFormat converts a single VEVENT component back to the
// universal shape, branching on whether DTSTART carries a date or a
// datetime to decide all-day vs timed.
func (a *Adapter) FromProviderFormat(ve *ical.Component) (model.UniversalEvent, error) {
	if ve.Name != ical.CompEvent {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderApple, Reason: fmt.Sprintf("component %s is not a VEVENT", ve.Name)}
	}

	ev := model.UniversalEvent{Status: model.StatusConfirmed}

	if p := ve.Props.Get(ical.PropUID); p != nil {
		ev.ID = p.Value
	}
	if p := ve.Props.Get(ical.PropSummary); p != nil {
		ev.Summary, _ = p.Text()
	}
	if p := ve.Props.Get(ical.PropDescription); p != nil {
		ev.Description, _ = p.Text()
	}
	if p := ve.Props.Get(ical.PropLocation); p != nil {
		ev.Location, _ = p.Text()
	}
	if p := ve.Props.Get(ical.PropStatus); p != nil {
		switch strings.ToLower(p.Value) {
		case "confirmed":
			ev.Status = model.StatusConfirmed
		case "tentative":
			ev.Status = model.StatusTentative
		case "cancelled":
			ev.Status = model.StatusCancelled
		}
	}

	var err error
	if ev.Start, err = timePointFromProp(ve.Props.Get(ical.PropDateTimeStart)); err != nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderApple, Reason: "DTSTART", Err: err}
	}
	if ev.End, err = timePointFromProp(ve.Props.Get(ical.PropDateTimeEnd)); err != nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderApple, Reason: "DTEND", Err: err}
	}

	for _, p := range ve.Props.Values(ical.PropRecurrenceRule) {
		spec, perr := recurrence.Parse(p.Value)
		if perr != nil {
			return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderApple, Reason: "RRULE", Err: perr}
		}
		ev.Recurrence = append(ev.Recurrence, spec.String())
	}

	for _, p := range ve.Props.Values(ical.PropAttendee) {
		email := strings.TrimPrefix(p.Value, "mailto:")
		at := model.Attendee{
			Email:          email,
			DisplayName:    p.Params.Get(ical.ParamCommonName),
			ResponseStatus: fromPartStat(p.Params.Get(ical.ParamParticipationStatus)),
		}
		ev.Attendees = append(ev.Attendees, at)
	}

	return ev, nil
}

// EventsFromCalendar extracts every VEVENT from a calendar payload. A single
// CalDAV response item can expand to multiple VEVENTs; events that fail to
// parse are skipped so one bad component does not hide the rest.
func (a *Adapter) EventsFromCalendar(cal *ical.Calendar) []model.UniversalEvent {
	var events []model.UniversalEvent
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		ev, err := a.FromProviderFormat(child)
		if err != nil {
			a.logger.Warn("skipping unparsable VEVENT", "error", err)
			continue
		}
		events = append(events, ev)
	}
	return events
}

func setTimeProp(ve *ical.Component, name string, tp model.TimePoint) error {
	if tp.IsDateOnly() {
		t, err := time.Parse("2006-01-02", tp.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", tp.Date, err)
		}
		p := ical.NewProp(name)
		p.SetDate(t)
		ve.Props.Set(p)
		return nil
	}
	if tp.DateTime.IsZero() {
		return fmt.Errorf("time point is empty")
	}
	p := ical.NewProp(name)
	p.SetDateTime(tp.DateTime.In(tp.Location()))
	ve.Props.Set(p)
	return nil
}

func timePointFromProp(p *ical.Prop) (model.TimePoint, error) {
	if p == nil {
		return model.TimePoint{}, fmt.Errorf("property missing")
	}
	// Date-only values carry VALUE=DATE, or at minimum no time part.
	if p.ValueType() == ical.ValueDate || !strings.Contains(p.Value, "T") {
		t, err := time.Parse(icalDateLayout, p.Value)
		if err != nil {
			return model.TimePoint{}, fmt.Errorf("invalid date value %q: %w", p.Value, err)
		}
		return model.NewDate(t.Format("2006-01-02")), nil
	}

	t, err := p.DateTime(time.UTC)
	if err != nil {
		return model.TimePoint{}, fmt.Errorf("invalid datetime value %q: %w", p.Value, err)
	}
	tz := p.Params.Get(ical.ParamTimezoneID)
	if tz == "" {
		tz = "UTC"
	}
	return model.NewDateTime(t, tz), nil
}

func toPartStat(rs model.ResponseStatus) string {
	switch rs {
	case model.ResponseAccepted:
		return "ACCEPTED"
	case model.ResponseDeclined:
		return "DECLINED"
	case model.ResponseTentativelyAccepted:
		return "TENTATIVE"
	default:
		return "NEEDS-ACTION"
	}
}

func fromPartStat(s string) model.ResponseStatus {
	switch strings.ToUpper(s) {
	case "ACCEPTED":
		return model.ResponseAccepted
	case "DECLINED":
		return model.ResponseDeclined
	case "TENTATIVE":
		return model.ResponseTentativelyAccepted
	default:
		return model.ResponseNeedsAction
	}
}
