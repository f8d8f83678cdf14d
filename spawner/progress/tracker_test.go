package progress

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/db"
	"github.com/pushchain/validator-spawner/spawner/kvstore"
	"github.com/pushchain/validator-spawner/spawner/store"
)

func setupTracker(t *testing.T) (*Tracker, kvstore.Store, *db.AttemptLog) {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	s := kvstore.NewSQLStore(database.Client())
	attempts := db.NewAttemptLog(database)
	return NewTracker(s, attempts, zerolog.Nop()), s, attempts
}

func TestTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tracker, _, attempts := setupTracker(t)

	rec, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = tracker.Create(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, StateValidatorCreationIssued, rec.State)
	assert.Equal(t, 0, rec.ErrorCount)

	_, err = tracker.Create(ctx, "req-2")
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, tracker.Advance(ctx, rec, StateValidatorCreationConfirmed, Metadata{
		RegisterValidatorData: "0x01",
		DepositData:           &DepositData{Pubkey: "0xaa", Signature: "0xbb", DepositDataRoot: "0xcc"},
		SharesData:            "0x02",
	}))
	require.NoError(t, tracker.Advance(ctx, rec, StateRegisterTransactionBroadcast, Metadata{ValidatorRegistrationTx: "0xtx1"}))

	loaded, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", loaded.RequestID)
	assert.Equal(t, StateRegisterTransactionBroadcast, loaded.State)
	assert.Equal(t, "0x01", loaded.Metadata.RegisterValidatorData)
	assert.Equal(t, "0xtx1", loaded.Metadata.ValidatorRegistrationTx)

	cleared, err := tracker.Clear(ctx, store.OutcomeCompleted, "completed")
	require.NoError(t, err)
	require.NotNil(t, cleared)
	assert.Equal(t, "req-1", cleared.RequestID)

	rec, err = tracker.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	history, err := attempts.RecentAttempts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "req-1", history[0].RequestID)
	assert.Equal(t, string(StateRegisterTransactionBroadcast), history[0].LastState)
	assert.Equal(t, store.OutcomeCompleted, history[0].Outcome)
	assert.Contains(t, history[0].Metadata, "0xtx1")
}

func TestTracker_AdvanceRejectsBackwardMoves(t *testing.T) {
	ctx := context.Background()
	tracker, _, _ := setupTracker(t)

	rec, err := tracker.Create(ctx, "req-1")
	require.NoError(t, err)
	require.NoError(t, tracker.Advance(ctx, rec, StateValidatorCreationConfirmed, Metadata{}))

	err = tracker.Advance(ctx, rec, StateValidatorCreationIssued, Metadata{})
	assert.ErrorContains(t, err, "invalid transition")
	err = tracker.Advance(ctx, rec, StateValidatorCreationConfirmed, Metadata{})
	assert.ErrorContains(t, err, "invalid transition")
	err = tracker.Advance(ctx, rec, StateAbsent, Metadata{})
	assert.ErrorContains(t, err, "invalid transition")
	err = tracker.Advance(ctx, rec, StateDepositConfirmed, Metadata{})
	assert.ErrorContains(t, err, "invalid transition")
	err = tracker.Advance(ctx, rec, StateValidatorRegistered, Metadata{})
	assert.ErrorContains(t, err, "invalid transition")
	assert.Equal(t, StateValidatorCreationConfirmed, rec.State)

	loaded, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateValidatorCreationConfirmed, loaded.State)
}

func TestTracker_IncrementErrorCount(t *testing.T) {
	ctx := context.Background()
	tracker, _, _ := setupTracker(t)

	count, err := tracker.IncrementErrorCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	rec, err := tracker.Create(ctx, "req-1")
	require.NoError(t, err)
	require.NoError(t, tracker.Advance(ctx, rec, StateValidatorCreationConfirmed, Metadata{SharesData: "0x02"}))

	for want := 1; want <= 3; want++ {
		count, err = tracker.IncrementErrorCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	loaded, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.ErrorCount)
	assert.Equal(t, StateValidatorCreationConfirmed, loaded.State)
	assert.Equal(t, "0x02", loaded.Metadata.SharesData)

	// Transitions keep the counter.
	require.NoError(t, tracker.Advance(ctx, loaded, StateRegisterTransactionBroadcast, Metadata{ValidatorRegistrationTx: "0x1"}))
	reloaded, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.ErrorCount)
}

func TestTracker_ClearWithoutRecord(t *testing.T) {
	ctx := context.Background()
	tracker, _, attempts := setupTracker(t)

	cleared, err := tracker.Clear(ctx, store.OutcomeReset, "manual reset")
	require.NoError(t, err)
	assert.Nil(t, cleared)

	history, err := attempts.RecentAttempts(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTracker_ClearUnreadableRecord(t *testing.T) {
	ctx := context.Background()
	tracker, s, _ := setupTracker(t)

	require.NoError(t, s.Put(ctx, constant.CurrentRequestKey, "{garbage"))

	_, err := tracker.Load(ctx)
	require.Error(t, err)

	cleared, err := tracker.Clear(ctx, store.OutcomeReset, "manual reset")
	require.NoError(t, err)
	assert.Nil(t, cleared)

	rec, err := tracker.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestTracker_NilAttemptRecorder(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(kvstore.NewMemoryStore(), nil, zerolog.Nop())

	_, err := tracker.Create(ctx, "req-1")
	require.NoError(t, err)
	cleared, err := tracker.Clear(ctx, store.OutcomeDiscarded, "errors have reached the threshold")
	require.NoError(t, err)
	assert.Equal(t, "req-1", cleared.RequestID)
}

func TestTracker_AttemptRowMetadata(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	rec := &Record{
		RequestID:  "req-1",
		State:      StateValidatorRegistered,
		ErrorCount: 2,
		Metadata: Metadata{
			SharesData: "0x02",
			Extra:      map[string]json.RawMessage{"note": json.RawMessage(`"kept"`)},
		},
	}
	row := tracker.attemptRow(rec, store.OutcomeDiscarded, "reason")
	assert.Equal(t, "validator_registered", row.LastState)
	assert.Equal(t, 2, row.ErrorCount)
	assert.JSONEq(t, `{"sharesData":"0x02","note":"kept"}`, row.Metadata)

	rec.Metadata.Extra = map[string]json.RawMessage{"broken": json.RawMessage(`{not json`)}
	row = tracker.attemptRow(rec, store.OutcomeDiscarded, "reason")
	assert.JSONEq(t, `{"sharesData":"0x02"}`, row.Metadata)
}
