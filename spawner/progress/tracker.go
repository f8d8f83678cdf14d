// Package progress persists the spawn progress record and enforces that it only
// ever moves forward.
package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/kvstore"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// AttemptRecorder receives a history row every time a record is cleared.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *store.SpawnAttempt) error
}

// Tracker reads and writes the progress record under a single fixed key.
type Tracker struct {
	store    kvstore.Store
	attempts AttemptRecorder
	logger   zerolog.Logger
}

// NewTracker creates a tracker. attempts may be nil when no history is kept.
func NewTracker(s kvstore.Store, attempts AttemptRecorder, logger zerolog.Logger) *Tracker {
	return &Tracker{
		store:    s,
		attempts: attempts,
		logger:   logger.With().Str("component", "progress_tracker").Logger(),
	}
}

// Load returns the current record, or nil when none exists.
func (t *Tracker) Load(ctx context.Context) (*Record, error) {
	raw, found, err := t.store.Get(ctx, constant.CurrentRequestKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress record: %w", err)
	}
	if !found {
		return nil, nil
	}
	return DecodeRecord(raw)
}

// Create writes a fresh record in the first state. It refuses to overwrite an
// existing record.
func (t *Tracker) Create(ctx context.Context, requestID string) (*Record, error) {
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}
	existing, err := t.Load(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("progress record %s already exists in state %s", existing.RequestID, existing.State)
	}

	rec := &Record{
		RequestID: requestID,
		State:     StateValidatorCreationIssued,
	}
	if err := t.save(ctx, rec); err != nil {
		return nil, err
	}

	t.logger.Info().
		Str("request_id", requestID).
		Str("state", rec.State.String()).
		Msg("progress record created")
	return rec, nil
}

// Advance moves rec to next, which must directly follow its current state,
// merges update into its metadata and persists it. rec is only modified once
// the write succeeded.
func (t *Tracker) Advance(ctx context.Context, rec *Record, next State, update Metadata) error {
	if rec == nil {
		return fmt.Errorf("no progress record to advance")
	}
	if !next.Valid() || rec.State.Next() != next {
		return fmt.Errorf("invalid transition from %s to %s", rec.State, next)
	}

	updated := *rec
	updated.State = next
	updated.Metadata = rec.Metadata.Merge(update)
	if err := t.save(ctx, &updated); err != nil {
		return err
	}
	*rec = updated

	t.logger.Info().
		Str("request_id", rec.RequestID).
		Str("state", next.String()).
		Msg("progress record advanced")
	return nil
}

// IncrementErrorCount re-reads the stored record, bumps its error counter and
// writes it back without touching any other field. It returns the new count,
// or zero when there is no record.
func (t *Tracker) IncrementErrorCount(ctx context.Context) (int, error) {
	rec, err := t.Load(ctx)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}

	rec.ErrorCount++
	if err := t.save(ctx, rec); err != nil {
		return 0, err
	}

	t.logger.Warn().
		Str("request_id", rec.RequestID).
		Str("state", rec.State.String()).
		Int("error_count", rec.ErrorCount).
		Msg("error counted against progress record")
	return rec.ErrorCount, nil
}

// Clear deletes the record, if any, and appends it to the attempt history with
// the given outcome and reason. It returns the record that was removed.
func (t *Tracker) Clear(ctx context.Context, outcome, reason string) (*Record, error) {
	rec, err := t.Load(ctx)
	if err != nil {
		// An unreadable record is still removed so the next run can start over.
		t.logger.Warn().Err(err).Msg("clearing unreadable progress record")
		rec = nil
	}

	if err := t.store.Delete(ctx, constant.CurrentRequestKey); err != nil {
		return nil, fmt.Errorf("failed to delete progress record: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	t.logger.Info().
		Str("request_id", rec.RequestID).
		Str("state", rec.State.String()).
		Str("outcome", outcome).
		Str("reason", reason).
		Msg("progress record cleared")

	if t.attempts != nil {
		attempt := t.attemptRow(rec, outcome, reason)
		// History is best effort; the record itself is already gone.
		if err := t.attempts.RecordAttempt(ctx, attempt); err != nil {
			t.logger.Error().Err(err).Str("request_id", rec.RequestID).Msg("failed to record attempt history")
		}
	}
	return rec, nil
}

// attemptRow builds the history row for a cleared record. Metadata that cannot
// be encoded is stored without its unknown keys.
func (t *Tracker) attemptRow(rec *Record, outcome, reason string) *store.SpawnAttempt {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		t.logger.Error().Err(err).Str("request_id", rec.RequestID).Msg("failed to encode metadata for attempt history")
		known := rec.Metadata
		known.Extra = nil
		meta, _ = json.Marshal(known)
	}
	return &store.SpawnAttempt{
		RequestID:  rec.RequestID,
		LastState:  string(rec.State),
		Outcome:    outcome,
		Reason:     reason,
		ErrorCount: rec.ErrorCount,
		Metadata:   string(meta),
	}
}

func (t *Tracker) save(ctx context.Context, rec *Record) error {
	raw, err := rec.Encode()
	if err != nil {
		return err
	}
	if err := t.store.Put(ctx, constant.CurrentRequestKey, raw); err != nil {
		return fmt.Errorf("failed to write progress record: %w", err)
	}
	return nil
}
