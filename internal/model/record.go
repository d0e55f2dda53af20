package model

import (
	"errors"
	"time"
)

// ErrDuplicateRecord is returned by repositories when a sync record for the
// same (universal event, provider) pair already exists. The orchestrator
// treats it as proof that another run already created the remote event.
var ErrDuplicateRecord = errors.New("sync record already exists")

// SyncRecord maps a universal event to the remote event it materialized as on
// one provider. Created exactly once per successful remote creation and
// immutable thereafter; (UniversalEventID, Provider) is the unique key.
type SyncRecord struct {
	UniversalEventID string
	Provider         Provider
	ProviderEventID  string
	CalendarID       string
	SyncedAt         time.Time
}
