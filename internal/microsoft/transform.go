package microsoft

import (
	"fmt"
	"strings"
	"time"

	"calbridge/internal/model"
	"calbridge/internal/provider"
)

const (
	graphDateTimeLayout = "2006-01-02T15:04:05"
	graphDateLayout     = "2006-01-02"
)

// ToProviderFormat converts a universal event to the Graph wire shape. The
// API has no pure date-only representation, so all-day events set isAllDay
// and synthesize midnight-local dateTime strings from the date fields.
func (a *Adapter) ToProviderFormat(ev model.UniversalEvent) (*Event, error) {
	out := &Event{
		Subject: ev.Summary,
		Body: &ItemBody{
			ContentType: "text",
			Content:     ev.Description,
		},
	}

	if ev.Location != "" {
		out.Location = &Location{DisplayName: ev.Location}
	}

	if ev.Start.IsDateOnly() {
		out.IsAllDay = true
		out.Start = &DateTimeTimeZone{DateTime: ev.Start.Date + "T00:00:00", TimeZone: timeZoneOrUTC(ev.Start)}
		out.End = &DateTimeTimeZone{DateTime: ev.End.Date + "T00:00:00", TimeZone: timeZoneOrUTC(ev.End)}
	} else {
		if ev.Start.DateTime.IsZero() || ev.End.DateTime.IsZero() {
			return nil, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "event has no usable start/end"}
		}
		out.Start = toDateTimeTimeZone(ev.Start)
		out.End = toDateTimeTimeZone(ev.End)
	}

	for _, at := range ev.Attendees {
		name := at.DisplayName
		if name == "" {
			name = at.Email
		}
		out.Attendees = append(out.Attendees, Attendee{
			EmailAddress: EmailAddress{Address: at.Email, Name: name},
			Type:         "required",
			Status:       &ResponseStatus{Response: toGraphResponse(at.ResponseStatus)},
		})
	}

	if len(ev.Recurrence) > 0 {
		// Graph events carry exactly one recurrence; additional rules are
		// dropped.
		if len(ev.Recurrence) > 1 {
			a.logger.Debug("dropping extra recurrence rules", "kept", ev.Recurrence[0], "dropped", len(ev.Recurrence)-1)
		}
		rec, err := recurrenceToGraph(ev.Recurrence[0], ev.Start)
		if err != nil {
			return nil, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "recurrence", Err: err}
		}
		out.Recurrence = rec
	}

	// Raw categories win over the derived color mapping so round trips stay
	// lossless when the event originated here.
	if len(ev.RawProviderCategories) > 0 {
		out.Categories = append([]string(nil), ev.RawProviderCategories...)
	} else if ev.ColorID != "" {
		out.Categories = []string{colorToCategory(ev.ColorID)}
	}

	return out, nil
}

// FromProviderFormat converts a Graph event back to the universal shape,
// stripping synthesized all-day dateTimes back to date-only values.
func (a *Adapter) FromProviderFormat(msEvent *Event) (model.UniversalEvent, error) {
	ev := model.UniversalEvent{
		ID:      msEvent.ID,
		Summary: msEvent.Subject,
		Status:  model.StatusConfirmed,
	}
	if msEvent.IsCancelled {
		ev.Status = model.StatusCancelled
	}
	if msEvent.Body != nil {
		ev.Description = msEvent.Body.Content
	}
	if msEvent.Location != nil {
		ev.Location = msEvent.Location.DisplayName
	}

	if msEvent.Start == nil || msEvent.End == nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "event has no start/end"}
	}

	if msEvent.IsAllDay {
		start, ok1 := dateOf(msEvent.Start.DateTime)
		end, ok2 := dateOf(msEvent.End.DateTime)
		if !ok1 || !ok2 {
			return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: fmt.Sprintf("invalid all-day dateTime %q/%q", msEvent.Start.DateTime, msEvent.End.DateTime)}
		}
		ev.Start = model.NewDate(start)
		ev.End = model.NewDate(end)
	} else {
		var err error
		if ev.Start, err = fromDateTimeTimeZone(msEvent.Start); err != nil {
			return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "start", Err: err}
		}
		if ev.End, err = fromDateTimeTimeZone(msEvent.End); err != nil {
			return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "end", Err: err}
		}
	}

	for _, at := range msEvent.Attendees {
		response := ""
		if at.Status != nil {
			response = at.Status.Response
		}
		ev.Attendees = append(ev.Attendees, model.Attendee{
			Email:          at.EmailAddress.Address,
			DisplayName:    at.EmailAddress.Name,
			ResponseStatus: fromGraphResponse(response),
		})
	}

	if msEvent.Recurrence != nil {
		rule, err := recurrenceFromGraph(msEvent.Recurrence)
		if err != nil {
			return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "recurrence", Err: err}
		}
		ev.Recurrence = []string{rule}
	}

	if len(msEvent.Categories) > 0 {
		ev.RawProviderCategories = append([]string(nil), msEvent.Categories...)
		ev.ColorID = categoryToColor(msEvent.Categories[0])
	}

	return ev, nil
}

func timeZoneOrUTC(tp model.TimePoint) string {
	if tp.TimeZone != "" {
		return tp.TimeZone
	}
	return "UTC"
}

func toDateTimeTimeZone(tp model.TimePoint) *DateTimeTimeZone {
	return &DateTimeTimeZone{
		DateTime: tp.DateTime.In(tp.Location()).Format(graphDateTimeLayout),
		TimeZone: timeZoneOrUTC(tp),
	}
}

func fromDateTimeTimeZone(dtz *DateTimeTimeZone) (model.TimePoint, error) {
	value := dtz.DateTime
	// Graph may include fractional seconds.
	if i := strings.IndexByte(value, '.'); i >= 0 {
		value = value[:i]
	}
	tz := dtz.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, tz = time.UTC, "UTC"
	}
	t, err := time.ParseInLocation(graphDateTimeLayout, value, loc)
	if err != nil {
		return model.TimePoint{}, fmt.Errorf("invalid dateTime %q: %w", dtz.DateTime, err)
	}
	return model.NewDateTime(t, tz), nil
}

func dateOf(dateTime string) (string, bool) {
	if len(dateTime) < len(graphDateLayout) {
		return "", false
	}
	date := dateTime[:len(graphDateLayout)]
	if _, err := time.Parse(graphDateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

var graphResponses = map[string]model.ResponseStatus{
	"accepted":            model.ResponseAccepted,
	"declined":            model.ResponseDeclined,
	"tentativelyaccepted": model.ResponseTentativelyAccepted,
	"tentative":           model.ResponseTentativelyAccepted,
	"notresponded":        model.ResponseNeedsAction,
	"none":                model.ResponseNeedsAction,
	"organizer":           model.ResponseAccepted,
}

func fromGraphResponse(s string) model.ResponseStatus {
	if rs, ok := graphResponses[strings.ToLower(s)]; ok {
		return rs
	}
	return model.ResponseNeedsAction
}

func toGraphResponse(rs model.ResponseStatus) string {
	switch rs {
	case model.ResponseAccepted:
		return "accepted"
	case model.ResponseDeclined:
		return "declined"
	case model.ResponseTentativelyAccepted:
		return "tentativelyAccepted"
	default:
		return "none"
	}
}
