// Package provider defines the adapter contract the sync engine drives and
// the error taxonomy shared by all provider implementations.
package provider

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"calbridge/internal/model"
)

// DefaultTimeout bounds every adapter network call.
const DefaultTimeout = 30 * time.Second

// Credentials is an already-valid credential for one provider. REST providers
// use the bearer token; CalDAV uses the basic-auth pair. Token refresh happens
// outside the engine.
type Credentials struct {
	Token    *oauth2.Token
	Username string
	Password string
}

// CredentialProvider hands out valid credentials per user and provider.
// Implementations live outside the engine.
type CredentialProvider interface {
	Get(ctx context.Context, userID string, p model.Provider) (Credentials, error)
}

// Adapter is the per-provider synchronization surface. Adapters are stateless
// with respect to users: credentials are injected per call, so concurrent
// batches for different users can share one adapter.
//
// Each concrete adapter additionally exports ToProviderFormat and
// FromProviderFormat with its native event type.
type Adapter interface {
	Provider() model.Provider

	// CreateEvent materializes the event remotely and returns the provider's
	// view of it, including the assigned remote id.
	CreateEvent(ctx context.Context, creds Credentials, calendarID string, ev model.UniversalEvent) (model.UniversalEvent, error)

	// ListEvents returns the events intersecting the half-open window.
	ListEvents(ctx context.Context, creds Credentials, calendarID string, window model.Interval) ([]model.UniversalEvent, error)

	// CheckConflicts returns existing events overlapping the interval. The
	// returned events may be reduced shapes carrying only the interval,
	// depending on what the provider's query exposes.
	CheckConflicts(ctx context.Context, creds Credentials, calendarID string, interval model.Interval) ([]model.UniversalEvent, error)
}
