package apple

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emersion/go-webdav"

	"calbridge/internal/provider"
)

func TestAPIErrorStatusFromWebdav(t *testing.T) {
	a := testAdapter()

	err := a.apiError("calendar query", webdav.NewHTTPError(429, errors.New("slow down")))
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 429 {
		t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
	}
	if !apiErr.Retryable() {
		t.Error("429 should be retryable")
	}

	err = a.apiError("create event", webdav.NewHTTPError(404, nil))
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Retryable() {
		t.Error("404 should not be retryable")
	}
}

func TestAPIErrorStatusFromWrappedError(t *testing.T) {
	a := testAdapter()

	wrapped := fmt.Errorf("query calendar: %w", webdav.NewHTTPError(503, errors.New("busy")))
	err := a.apiError("calendar query", wrapped)
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 503 {
		t.Errorf("StatusCode = %d, want 503", apiErr.StatusCode)
	}
}

func TestAPIErrorTransportFailure(t *testing.T) {
	a := testAdapter()

	err := a.apiError("calendar query", errors.New("connection refused"))
	var apiErr *provider.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0 for transport failures", apiErr.StatusCode)
	}
	if apiErr.Retryable() {
		t.Error("transport failures should not be retryable")
	}
}
