package sqlite

import (
	"fmt"
	"time"

	"calbridge/internal/model"
)

const timeLayout = time.RFC3339

type syncRecord struct {
	UniversalEventID string `db:"universal_event_id"`
	Provider         string `db:"provider"`
	ProviderEventID  string `db:"provider_event_id"`
	CalendarID       string `db:"calendar_id"`
	SyncedAt         string `db:"synced_at"`
}

func (r syncRecord) Convert() (*model.SyncRecord, error) {
	syncedAt, err := time.Parse(timeLayout, r.SyncedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: invalid synced_at %q: %w", r.SyncedAt, err)
	}
	return &model.SyncRecord{
		UniversalEventID: r.UniversalEventID,
		Provider:         model.Provider(r.Provider),
		ProviderEventID:  r.ProviderEventID,
		CalendarID:       r.CalendarID,
		SyncedAt:         syncedAt,
	}, nil
}
