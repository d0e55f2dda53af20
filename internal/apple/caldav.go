// Package apple implements the Apple Calendar adapter on top of CalDAV and
// iCalendar. The protocol has no server-side conflict query, so conflict
// checks fetch a bounded window and run the shared detector locally,
// expanding recurring events first.
package apple

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/teambition/rrule-go"

	"calbridge/internal/conflict"
	"calbridge/internal/model"
	"calbridge/internal/provider"
)

const defaultEndpoint = "https://caldav.icloud.com/"

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.Username, t.Password)
	req.Header.Set("User-Agent", "calbridge/1.0")
	return t.Transport.RoundTrip(req)
}

// Adapter talks to a CalDAV server. Credentials are injected per call, so one
// adapter serves concurrent batches for different users.
type Adapter struct {
	logger   *slog.Logger
	endpoint string
	timeout  time.Duration
	now      func() time.Time
}

// NewAdapter creates a CalDAV adapter. An empty endpoint selects iCloud.
func NewAdapter(logger *slog.Logger, endpoint string) *Adapter {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Adapter{
		logger:   logger,
		endpoint: endpoint,
		timeout:  provider.DefaultTimeout,
		now:      time.Now,
	}
}

func (a *Adapter) Provider() model.Provider {
	return model.ProviderApple
}

func (a *Adapter) clients(creds provider.Credentials) (*caldav.Client, *webdav.Client, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, nil, &provider.APIError{Provider: model.ProviderApple, Op: "auth", Err: errors.New("missing basic-auth credentials")}
	}
	httpClient := &http.Client{
		Timeout: a.timeout,
		Transport: &customTransport{
			Username:  creds.Username,
			Password:  creds.Password,
			Transport: http.DefaultTransport,
		},
	}
	caldavClient, err := caldav.NewClient(httpClient, a.endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	webdavClient, err := webdav.NewClient(httpClient, a.endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create webdav client: %w", err)
	}
	return caldavClient, webdavClient, nil
}

// CreateEvent writes the event as a new .ics resource in the calendar.
// CalDAV does not echo the created event back, so the returned value is the
// input with the generated UID as its id.
func (a *Adapter) CreateEvent(ctx context.Context, creds provider.Credentials, calendarID string, ev model.UniversalEvent) (model.UniversalEvent, error) {
	caldavClient, webdavClient, err := a.clients(creds)
	if err != nil {
		return model.UniversalEvent{}, err
	}

	cal, err := a.ToProviderFormat(ev)
	if err != nil {
		return model.UniversalEvent{}, err
	}
	uid := cal.Children[0].Props.Get(ical.PropUID).Value

	calPath, err := a.resolveCalendar(ctx, caldavClient, calendarID)
	if err != nil {
		return model.UniversalEvent{}, err
	}

	eventPath := path.Join(calPath, fmt.Sprintf("%s.ics", uid))
	writer, err := webdavClient.Create(ctx, eventPath)
	if err != nil {
		return model.UniversalEvent{}, a.apiError("create event", err)
	}
	defer writer.Close()

	if err := ical.NewEncoder(writer).Encode(cal); err != nil {
		return model.UniversalEvent{}, a.apiError("encode event", err)
	}

	a.logger.Info("created caldav event", "calendar", calendarID, "uid", uid)
	created := ev
	created.ID = uid
	return created, nil
}

// ListEvents issues a calendar-range query over the window and parses every
// VEVENT in the response.
func (a *Adapter) ListEvents(ctx context.Context, creds provider.Credentials, calendarID string, window model.Interval) ([]model.UniversalEvent, error) {
	caldavClient, _, err := a.clients(creds)
	if err != nil {
		return nil, err
	}
	calPath, err := a.resolveCalendar(ctx, caldavClient, calendarID)
	if err != nil {
		return nil, err
	}
	return a.queryWindow(ctx, caldavClient, calPath, window)
}

// CheckConflicts fetches the window, expands recurring events into concrete
// occurrences, drops cancelled events, and applies the shared detector.
func (a *Adapter) CheckConflicts(ctx context.Context, creds provider.Credentials, calendarID string, interval model.Interval) ([]model.UniversalEvent, error) {
	caldavClient, _, err := a.clients(creds)
	if err != nil {
		return nil, err
	}
	calPath, err := a.resolveCalendar(ctx, caldavClient, calendarID)
	if err != nil {
		return nil, err
	}

	events, err := a.queryWindow(ctx, caldavClient, calPath, interval)
	if err != nil {
		return nil, err
	}

	var candidates []model.UniversalEvent
	for _, ev := range events {
		candidates = append(candidates, a.expandOccurrences(ev, interval)...)
	}
	return conflict.Overlapping(interval, candidates), nil
}

func (a *Adapter) queryWindow(ctx context.Context, c *caldav.Client, calPath string, window model.Interval) ([]model.UniversalEvent, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: window.Start,
				End:   window.End,
			}},
		},
	}

	objs, err := c.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return nil, a.apiError("calendar query", err)
	}

	var events []model.UniversalEvent
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		events = append(events, a.EventsFromCalendar(obj.Data)...)
	}
	a.logger.Debug("fetched caldav events", "path", calPath, "count", len(events))
	return events, nil
}

// expandOccurrences turns a recurring event into reduced per-occurrence
// copies inside the window, preserving the base event's duration. Events
// without recurrence pass through unchanged.
func (a *Adapter) expandOccurrences(ev model.UniversalEvent, window model.Interval) []model.UniversalEvent {
	if len(ev.Recurrence) == 0 {
		return []model.UniversalEvent{ev}
	}

	iv, err := ev.Interval()
	if err != nil {
		a.logger.Warn("cannot expand event without interval", "uid", ev.ID, "error", err)
		return nil
	}
	dur := iv.End.Sub(iv.Start)

	r, err := rrule.StrToRRule(strings.TrimPrefix(ev.Recurrence[0], "RRULE:"))
	if err != nil {
		a.logger.Warn("cannot expand recurrence", "uid", ev.ID, "rrule", ev.Recurrence[0], "error", err)
		return []model.UniversalEvent{ev}
	}
	r.DTStart(iv.Start)

	// Reach back one duration so occurrences straddling the window start are
	// still considered.
	starts := r.Between(window.Start.Add(-dur), window.End, true)

	occurrences := make([]model.UniversalEvent, 0, len(starts))
	for _, start := range starts {
		occ := ev
		occ.Recurrence = nil
		occ.Start = model.NewDateTime(start, ev.Start.TimeZone)
		occ.End = model.NewDateTime(start.Add(dur), ev.End.TimeZone)
		occurrences = append(occurrences, occ)
	}
	return occurrences
}

// resolveCalendar turns a calendar id into a collection path. Ids starting
// with "/" are taken as paths; anything else is matched against the
// discovered calendars' display names.
func (a *Adapter) resolveCalendar(ctx context.Context, c *caldav.Client, calendarID string) (string, error) {
	if strings.HasPrefix(calendarID, "/") {
		return calendarID, nil
	}

	principal, err := c.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", a.apiError("find principal", err)
	}
	homeSet, err := c.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", a.apiError("find home set", err)
	}
	calendars, err := c.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", a.apiError("find calendars", err)
	}

	for _, cal := range calendars {
		if cal.Name == calendarID {
			return cal.Path, nil
		}
	}
	return "", &provider.APIError{
		Provider:   model.ProviderApple,
		Op:         "resolve calendar",
		StatusCode: http.StatusNotFound,
		Err:        fmt.Errorf("no calendar named %q", calendarID),
	}
}

// The library's HTTP error type is not exported, so the status code is
// recovered from the "HTTP error: NNN ..." message it formats.
var webdavStatusRe = regexp.MustCompile(`HTTP error: (\d{3})`)

func (a *Adapter) apiError(op string, err error) error {
	apiErr := &provider.APIError{Provider: model.ProviderApple, Op: op, Err: err}
	if m := webdavStatusRe.FindStringSubmatch(err.Error()); m != nil {
		apiErr.StatusCode, _ = strconv.Atoi(m[1])
	}
	return apiErr
}
