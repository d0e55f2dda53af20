package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"calbridge/internal/model"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord() *model.SyncRecord {
	return &model.SyncRecord{
		UniversalEventID: "evt-1",
		Provider:         model.ProviderGoogle,
		ProviderEventID:  "g-abc",
		CalendarID:       "primary",
		SyncedAt:         time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestPutAndGet(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	rec := testRecord()
	if err := s.Put(ctx, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, rec.UniversalEventID, rec.Provider)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for an existing record")
	}
	if got.ProviderEventID != rec.ProviderEventID || got.CalendarID != rec.CalendarID {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if !got.SyncedAt.Equal(rec.SyncedAt) {
		t.Errorf("SyncedAt = %v, want %v", got.SyncedAt, rec.SyncedAt)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStorage(t)
	got, err := s.Get(context.Background(), "nope", model.ProviderApple)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get returned %+v for a missing record", got)
	}
}

func TestPutRejectsDuplicates(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	if err := s.Put(ctx, testRecord()); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	dup := testRecord()
	dup.ProviderEventID = "g-other"
	err := s.Put(ctx, dup)
	if !errors.Is(err, model.ErrDuplicateRecord) {
		t.Errorf("second Put = %v, want ErrDuplicateRecord", err)
	}

	// The original record wins.
	got, err := s.Get(ctx, "evt-1", model.ProviderGoogle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ProviderEventID != "g-abc" {
		t.Errorf("ProviderEventID = %q, want the first write", got.ProviderEventID)
	}
}

func TestSameEventDifferentProviders(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	google := testRecord()
	if err := s.Put(ctx, google); err != nil {
		t.Fatalf("Put google: %v", err)
	}

	apple := testRecord()
	apple.Provider = model.ProviderApple
	apple.ProviderEventID = "uid-xyz"
	if err := s.Put(ctx, apple); err != nil {
		t.Fatalf("Put apple: %v", err)
	}

	got, err := s.Get(ctx, "evt-1", model.ProviderApple)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ProviderEventID != "uid-xyz" {
		t.Errorf("ProviderEventID = %q", got.ProviderEventID)
	}
}
