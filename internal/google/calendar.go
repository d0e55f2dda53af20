// Package google implements the Google Calendar adapter. The provider format
// is already close to the canonical shape, so translation is near-identity
// plus attendee and response-status normalization.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"calbridge/internal/conflict"
	"calbridge/internal/model"
	"calbridge/internal/provider"
	"calbridge/internal/recurrence"
)

// Adapter talks to the Google Calendar API.
type Adapter struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewAdapter creates a Google Calendar adapter.
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{
		logger:  logger,
		timeout: provider.DefaultTimeout,
	}
}

func (a *Adapter) Provider() model.Provider {
	return model.ProviderGoogle
}

func (a *Adapter) service(ctx context.Context, creds provider.Credentials) (*calendar.Service, error) {
	if creds.Token == nil {
		return nil, &provider.APIError{Provider: model.ProviderGoogle, Op: "auth", Err: errors.New("missing bearer token")}
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(creds.Token))
	client.Timeout = a.timeout
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// ToProviderFormat converts a universal event to the Google wire shape.
// Recurrence rules are re-rendered canonically so unsupported grammar is
// rejected here instead of by the remote API.
func (a *Adapter) ToProviderFormat(ev model.UniversalEvent) (*calendar.Event, error) {
	out := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Status:      string(ev.Status),
		ColorId:     ev.ColorID,
	}

	var err error
	if out.Start, err = toEventDateTime(ev.Start); err != nil {
		return nil, &provider.TransformError{Provider: model.ProviderGoogle, Reason: "start", Err: err}
	}
	if out.End, err = toEventDateTime(ev.End); err != nil {
		return nil, &provider.TransformError{Provider: model.ProviderGoogle, Reason: "end", Err: err}
	}

	for _, r := range ev.Recurrence {
		spec, perr := recurrence.Parse(r)
		if perr != nil {
			return nil, &provider.TransformError{Provider: model.ProviderGoogle, Reason: "recurrence", Err: perr}
		}
		out.Recurrence = append(out.Recurrence, spec.String())
	}

	for _, at := range ev.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{
			Email:          at.Email,
			DisplayName:    at.DisplayName,
			ResponseStatus: toGoogleResponse(at.ResponseStatus),
		})
	}
	return out, nil
}

// FromProviderFormat converts a Google event back to the universal shape.
func (a *Adapter) FromProviderFormat(item *calendar.Event) (model.UniversalEvent, error) {
	ev := model.UniversalEvent{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Status:      model.EventStatus(item.Status),
		ColorID:     item.ColorId,
	}
	if ev.Status == "" {
		ev.Status = model.StatusConfirmed
	}

	var err error
	if ev.Start, err = fromEventDateTime(item.Start); err != nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderGoogle, Reason: "start", Err: err}
	}
	if ev.End, err = fromEventDateTime(item.End); err != nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderGoogle, Reason: "end", Err: err}
	}

	for _, r := range item.Recurrence {
		spec, perr := recurrence.Parse(r)
		if perr != nil {
			// The list may carry EXDATE/EXRULE entries outside the supported
			// grammar; those are ignored on read.
			continue
		}
		ev.Recurrence = append(ev.Recurrence, spec.String())
	}

	for _, at := range item.Attendees {
		ev.Attendees = append(ev.Attendees, model.Attendee{
			Email:          at.Email,
			DisplayName:    at.DisplayName,
			ResponseStatus: fromGoogleResponse(at.ResponseStatus),
		})
	}
	return ev, nil
}

// CreateEvent inserts the event into the given calendar.
func (a *Adapter) CreateEvent(ctx context.Context, creds provider.Credentials, calendarID string, ev model.UniversalEvent) (model.UniversalEvent, error) {
	svc, err := a.service(ctx, creds)
	if err != nil {
		return model.UniversalEvent{}, err
	}
	gev, err := a.ToProviderFormat(ev)
	if err != nil {
		return model.UniversalEvent{}, err
	}

	created, err := svc.Events.Insert(calendarID, gev).Context(ctx).Do()
	if err != nil {
		return model.UniversalEvent{}, a.apiError("create event", err)
	}
	a.logger.Info("created google event", "calendarID", calendarID, "eventID", created.Id)
	return a.FromProviderFormat(created)
}

// ListEvents fetches events intersecting the window, with recurring events
// expanded to single instances by the API.
func (a *Adapter) ListEvents(ctx context.Context, creds provider.Credentials, calendarID string, window model.Interval) ([]model.UniversalEvent, error) {
	svc, err := a.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	res, err := svc.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, a.apiError("list events", err)
	}

	events := make([]model.UniversalEvent, 0, len(res.Items))
	for _, item := range res.Items {
		ev, cerr := a.FromProviderFormat(item)
		if cerr != nil {
			a.logger.Warn("skipping untranslatable google event", "eventID", item.Id, "error", cerr)
			continue
		}
		events = append(events, ev)
	}
	a.logger.Debug("fetched google events", "calendarID", calendarID, "count", len(events))
	return events, nil
}

// CheckConflicts queries free/busy for the interval. The API returns opaque
// busy periods, so the result is a reduced universal shape carrying only the
// interval.
func (a *Adapter) CheckConflicts(ctx context.Context, creds provider.Credentials, calendarID string, interval model.Interval) ([]model.UniversalEvent, error) {
	svc, err := a.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	res, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: interval.Start.Format(time.RFC3339),
		TimeMax: interval.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, a.apiError("freebusy query", err)
	}

	cal, ok := res.Calendars[calendarID]
	if !ok {
		return nil, nil
	}

	busy := make([]model.UniversalEvent, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, serr := time.Parse(time.RFC3339, period.Start)
		end, eerr := time.Parse(time.RFC3339, period.End)
		if serr != nil || eerr != nil {
			a.logger.Warn("skipping unparsable busy period", "start", period.Start, "end", period.End)
			continue
		}
		busy = append(busy, model.UniversalEvent{
			Status: model.StatusConfirmed,
			Start:  model.NewDateTime(start, "UTC"),
			End:    model.NewDateTime(end, "UTC"),
		})
	}
	return conflict.Overlapping(interval, busy), nil
}

func (a *Adapter) apiError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &provider.APIError{Provider: model.ProviderGoogle, Op: op, StatusCode: gerr.Code, Err: err}
	}
	return &provider.APIError{Provider: model.ProviderGoogle, Op: op, Err: err}
}

func toEventDateTime(tp model.TimePoint) (*calendar.EventDateTime, error) {
	if tp.IsDateOnly() {
		return &calendar.EventDateTime{Date: tp.Date}, nil
	}
	if tp.DateTime.IsZero() {
		return nil, fmt.Errorf("time point is empty")
	}
	return &calendar.EventDateTime{
		DateTime: tp.DateTime.In(tp.Location()).Format(time.RFC3339),
		TimeZone: tp.TimeZone,
	}, nil
}

func fromEventDateTime(edt *calendar.EventDateTime) (model.TimePoint, error) {
	if edt == nil {
		return model.TimePoint{}, fmt.Errorf("missing start/end")
	}
	if edt.Date != "" {
		return model.NewDate(edt.Date), nil
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return model.TimePoint{}, fmt.Errorf("invalid dateTime %q: %w", edt.DateTime, err)
	}
	tz := edt.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	if loc, lerr := time.LoadLocation(tz); lerr == nil {
		t = t.In(loc)
	}
	return model.NewDateTime(t, tz), nil
}

// Google uses "tentative" where the canonical vocabulary says
// "tentativelyAccepted"; everything else passes through.
func toGoogleResponse(rs model.ResponseStatus) string {
	if rs == model.ResponseTentativelyAccepted {
		return "tentative"
	}
	return string(rs)
}

func fromGoogleResponse(s string) model.ResponseStatus {
	switch s {
	case "tentative":
		return model.ResponseTentativelyAccepted
	case "accepted":
		return model.ResponseAccepted
	case "declined":
		return model.ResponseDeclined
	case "":
		return model.ResponseNeedsAction
	default:
		return model.ResponseNeedsAction
	}
}
