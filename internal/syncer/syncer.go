// Package syncer drives batches of universal events through the
// conflict-check → create → record pipeline for one provider and calendar.
// Batches are partial-failure tolerant: every input event ends in exactly one
// terminal outcome and no individual failure aborts the run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"calbridge/internal/conflict"
	"calbridge/internal/model"
	"calbridge/internal/provider"
)

// ErrEmptyBatch is returned when Sync is called with no events; an empty
// batch is a caller bug, not a per-event failure.
var ErrEmptyBatch = errors.New("syncer: empty batch")

// Outcome is the terminal state of one event within a batch.
type Outcome string

const (
	OutcomeAlreadySynced   Outcome = "alreadySynced"
	OutcomeConflictSkipped Outcome = "conflictSkipped"
	OutcomeCreated         Outcome = "created"
	OutcomeFailed          Outcome = "failed"
)

// Result pairs an event with its outcome. Conflicts is populated for
// conflict skips so the caller can resolve them manually; Err is populated
// for failures.
type Result struct {
	Event     model.UniversalEvent
	Outcome   Outcome
	Record    *model.SyncRecord
	Conflicts []model.UniversalEvent
	Err       error
}

// Repository is the sync ledger. Put must reject duplicate
// (universal event, provider) pairs with model.ErrDuplicateRecord.
type Repository interface {
	Get(ctx context.Context, universalEventID string, p model.Provider) (*model.SyncRecord, error)
	Put(ctx context.Context, rec *model.SyncRecord) error
}

// Syncer orchestrates one provider's synchronization.
type Syncer struct {
	logger  *slog.Logger
	adapter provider.Adapter
	creds   provider.CredentialProvider
	repo    Repository

	// DryRun reports what would be created without remote writes or ledger
	// updates.
	DryRun bool

	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

// New creates a Syncer for one adapter.
func New(logger *slog.Logger, adapter provider.Adapter, creds provider.CredentialProvider, repo Repository) *Syncer {
	return &Syncer{
		logger:      logger,
		adapter:     adapter,
		creds:       creds,
		repo:        repo,
		maxAttempts: provider.DefaultMaxAttempts,
		backoff:     provider.DefaultBackoff,
		now:         time.Now,
	}
}

// Sync processes the batch sequentially and returns one result per event.
// It errors only on batch-level preconditions (empty batch, no credentials)
// or context cancellation; per-event problems land in the results.
//
// Events are processed one at a time on purpose: conflict detection must see
// siblings created earlier in the same batch, and remote query APIs may not
// reflect just-created events yet.
func (s *Syncer) Sync(ctx context.Context, userID, calendarID string, events []model.UniversalEvent) ([]Result, error) {
	if len(events) == 0 {
		return nil, ErrEmptyBatch
	}

	creds, err := s.creds.Get(ctx, userID, s.adapter.Provider())
	if err != nil {
		var authErr *provider.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &provider.AuthError{UserID: userID, Provider: s.adapter.Provider(), Err: err}
	}

	s.logger.Info("starting sync batch",
		"provider", s.adapter.Provider(),
		"calendarID", calendarID,
		"events", len(events),
	)

	results := make([]Result, 0, len(events))
	var createdSiblings []model.UniversalEvent

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			// Already-written records stay valid; a retried batch resumes
			// through the ledger check.
			return results, err
		}

		res := s.syncEvent(ctx, creds, calendarID, ev, createdSiblings)
		if res.Outcome == OutcomeCreated {
			createdSiblings = append(createdSiblings, res.Event)
		}
		results = append(results, res)
	}

	s.logger.Info("sync batch finished", "provider", s.adapter.Provider(), "results", len(results))
	return results, nil
}

func (s *Syncer) syncEvent(ctx context.Context, creds provider.Credentials, calendarID string, ev model.UniversalEvent, siblings []model.UniversalEvent) Result {
	// The ledger key must exist before anything else; events arriving without
	// an id get one here and keep it through the returned result.
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	rec, err := s.repo.Get(ctx, ev.ID, s.adapter.Provider())
	if err != nil {
		return Result{Event: ev, Outcome: OutcomeFailed, Err: fmt.Errorf("ledger lookup: %w", err)}
	}
	if rec != nil {
		s.logger.Debug("event already synced", "eventID", ev.ID, "providerEventID", rec.ProviderEventID)
		return Result{Event: ev, Outcome: OutcomeAlreadySynced, Record: rec}
	}

	if err := ev.Validate(); err != nil {
		return Result{Event: ev, Outcome: OutcomeFailed, Err: &provider.TransformError{
			Provider: s.adapter.Provider(),
			Reason:   "invalid event",
			Err:      err,
		}}
	}

	interval, err := ev.Interval()
	if err != nil {
		return Result{Event: ev, Outcome: OutcomeFailed, Err: &provider.TransformError{
			Provider: s.adapter.Provider(),
			Reason:   "event interval",
			Err:      err,
		}}
	}

	var existing []model.UniversalEvent
	err = provider.Retry(ctx, s.maxAttempts, s.backoff, func() error {
		var cerr error
		existing, cerr = s.adapter.CheckConflicts(ctx, creds, calendarID, interval)
		return cerr
	})
	if err != nil {
		return Result{Event: ev, Outcome: OutcomeFailed, Err: err}
	}

	// Union the remote view with siblings created earlier in this batch; the
	// remote query may not reflect them yet.
	candidates := append(existing, siblings...)
	if conflicts := conflict.Overlapping(interval, candidates); len(conflicts) > 0 {
		s.logger.Info("skipping conflicting event", "eventID", ev.ID, "summary", ev.Summary, "conflicts", len(conflicts))
		return Result{Event: ev, Outcome: OutcomeConflictSkipped, Conflicts: conflicts}
	}

	if s.DryRun {
		s.logger.Info("[DRY RUN] would create event", "eventID", ev.ID, "summary", ev.Summary)
		return Result{Event: ev, Outcome: OutcomeCreated}
	}

	var created model.UniversalEvent
	err = provider.Retry(ctx, s.maxAttempts, s.backoff, func() error {
		var cerr error
		created, cerr = s.adapter.CreateEvent(ctx, creds, calendarID, ev)
		return cerr
	})
	if err != nil {
		return Result{Event: ev, Outcome: OutcomeFailed, Err: err}
	}

	providerEventID := created.ID
	if providerEventID == "" {
		providerEventID = ev.ID
	}
	rec = &model.SyncRecord{
		UniversalEventID: ev.ID,
		Provider:         s.adapter.Provider(),
		ProviderEventID:  providerEventID,
		CalendarID:       calendarID,
		SyncedAt:         s.now().UTC(),
	}

	if err := s.repo.Put(ctx, rec); err != nil {
		if errors.Is(err, model.ErrDuplicateRecord) {
			// A concurrent run won the race; its record is authoritative.
			existing, gerr := s.repo.Get(ctx, ev.ID, s.adapter.Provider())
			if gerr != nil {
				s.logger.Warn("duplicate ledger write but lookup failed", "eventID", ev.ID, "error", gerr)
			}
			return Result{Event: ev, Outcome: OutcomeAlreadySynced, Record: existing}
		}
		s.logger.Error("remote event created but ledger write failed", "eventID", ev.ID, "providerEventID", providerEventID, "error", err)
		return Result{Event: ev, Outcome: OutcomeFailed, Err: fmt.Errorf("ledger write: %w", err)}
	}

	s.logger.Info("event created", "eventID", ev.ID, "providerEventID", providerEventID, "summary", ev.Summary)
	return Result{Event: ev, Outcome: OutcomeCreated, Record: rec}
}
