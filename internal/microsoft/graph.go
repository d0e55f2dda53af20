// Package microsoft implements the Microsoft Graph calendar adapter. Graph
// has the most distant wire shape of the three providers: subject/body
// instead of summary/description, no date-only representation, its own
// response-status vocabulary, and a pattern/range recurrence encoding.
package microsoft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"calbridge/internal/conflict"
	"calbridge/internal/model"
	"calbridge/internal/provider"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	pageSize       = 100
)

// Adapter talks to the Graph events API.
type Adapter struct {
	logger  *slog.Logger
	baseURL string
	timeout time.Duration
}

// NewAdapter creates a Microsoft Graph adapter.
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{
		logger:  logger,
		baseURL: defaultBaseURL,
		timeout: provider.DefaultTimeout,
	}
}

func (a *Adapter) Provider() model.Provider {
	return model.ProviderMicrosoft
}

func (a *Adapter) httpClient(ctx context.Context, creds provider.Credentials) (*http.Client, error) {
	if creds.Token == nil {
		return nil, &provider.APIError{Provider: model.ProviderMicrosoft, Op: "auth", Err: errors.New("missing bearer token")}
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(creds.Token))
	client.Timeout = a.timeout
	return client, nil
}

// eventsURL scopes requests to a named calendar, with "" and "primary"
// meaning the user's default calendar.
func (a *Adapter) eventsURL(calendarID string) string {
	if calendarID == "" || calendarID == "primary" {
		return a.baseURL + "/me/events"
	}
	return fmt.Sprintf("%s/me/calendars/%s/events", a.baseURL, url.PathEscape(calendarID))
}

func (a *Adapter) calendarViewURL(calendarID string, window model.Interval) string {
	base := a.baseURL + "/me/calendarView"
	if calendarID != "" && calendarID != "primary" {
		base = fmt.Sprintf("%s/me/calendars/%s/calendarView", a.baseURL, url.PathEscape(calendarID))
	}
	params := url.Values{}
	params.Set("startDateTime", window.Start.UTC().Format(time.RFC3339))
	params.Set("endDateTime", window.End.UTC().Format(time.RFC3339))
	params.Set("$top", fmt.Sprint(pageSize))
	return base + "?" + params.Encode()
}

// CreateEvent posts the event and returns the provider's echo of it.
func (a *Adapter) CreateEvent(ctx context.Context, creds provider.Credentials, calendarID string, ev model.UniversalEvent) (model.UniversalEvent, error) {
	client, err := a.httpClient(ctx, creds)
	if err != nil {
		return model.UniversalEvent{}, err
	}

	msEvent, err := a.ToProviderFormat(ev)
	if err != nil {
		return model.UniversalEvent{}, err
	}

	body, err := json.Marshal(msEvent)
	if err != nil {
		return model.UniversalEvent{}, &provider.TransformError{Provider: model.ProviderMicrosoft, Reason: "encode event", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.eventsURL(calendarID), bytes.NewReader(body))
	if err != nil {
		return model.UniversalEvent{}, &provider.APIError{Provider: model.ProviderMicrosoft, Op: "create event", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var created Event
	if err := a.do(client, req, "create event", &created); err != nil {
		return model.UniversalEvent{}, err
	}
	a.logger.Info("created graph event", "calendarID", calendarID, "eventID", created.ID)
	return a.FromProviderFormat(&created)
}

// ListEvents fetches the calendar view for the window; Graph expands
// recurring series into instances server-side.
func (a *Adapter) ListEvents(ctx context.Context, creds provider.Credentials, calendarID string, window model.Interval) ([]model.UniversalEvent, error) {
	client, err := a.httpClient(ctx, creds)
	if err != nil {
		return nil, err
	}

	next := a.calendarViewURL(calendarID, window)
	var events []model.UniversalEvent
	for next != "" {
		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
		if rerr != nil {
			return nil, &provider.APIError{Provider: model.ProviderMicrosoft, Op: "list events", Err: rerr}
		}

		var page eventList
		if err := a.do(client, req, "list events", &page); err != nil {
			return nil, err
		}
		for i := range page.Value {
			ev, cerr := a.FromProviderFormat(&page.Value[i])
			if cerr != nil {
				a.logger.Warn("skipping untranslatable graph event", "eventID", page.Value[i].ID, "error", cerr)
				continue
			}
			events = append(events, ev)
		}
		next = page.NextLink
	}
	a.logger.Debug("fetched graph events", "calendarID", calendarID, "count", len(events))
	return events, nil
}

// CheckConflicts lists the window and applies the shared detector; instances
// arrive pre-expanded from the calendar view.
func (a *Adapter) CheckConflicts(ctx context.Context, creds provider.Credentials, calendarID string, interval model.Interval) ([]model.UniversalEvent, error) {
	events, err := a.ListEvents(ctx, creds, calendarID, interval)
	if err != nil {
		return nil, err
	}
	return conflict.Overlapping(interval, events), nil
}

func (a *Adapter) do(client *http.Client, req *http.Request, op string, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return &provider.APIError{Provider: model.ProviderMicrosoft, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &provider.APIError{
			Provider:   model.ProviderMicrosoft,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(msg)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &provider.APIError{Provider: model.ProviderMicrosoft, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
