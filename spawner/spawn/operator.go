// Package spawn drives a validator from creation request to funded deposit,
// one persisted step at a time, so that any run can be resumed after a crash.
package spawn

import (
	"context"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pushchain/validator-spawner/spawner/constant"
	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// Outcome is how a single Operate run ended.
type Outcome string

const (
	// OutcomeCompleted means the deposit was confirmed and the record removed.
	OutcomeCompleted Outcome = "completed"
	// OutcomePreconditionUnmet means there was not enough stake to start.
	OutcomePreconditionUnmet Outcome = "precondition_unmet"
	// OutcomeStopped means the validator is registered and staking is disabled.
	OutcomeStopped Outcome = "stopped"
	// OutcomeAbandoned means the error budget was spent and the record discarded.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeNotReady means the provisioning service never reported ready.
	OutcomeNotReady Outcome = "not_ready"
	// OutcomeFailed means the run returned a counted error.
	OutcomeFailed Outcome = "failed"
	// OutcomeCanceled means the context ended the run.
	OutcomeCanceled Outcome = "canceled"
)

// ThresholdReason annotates records discarded for exhausting the error budget.
const ThresholdReason = "errors have reached the threshold"

// Config holds the dependencies and tunables of an Operator.
type Config struct {
	Tracker     *progress.Tracker
	Provisioner Provisioner
	Stake       StakeChecker
	Tx          TxSubmitter
	Recorder    Recorder
	Logger      zerolog.Logger

	// Owner is the NodeDelegator: SSV owner, fee recipient and stake holder.
	Owner ethcommon.Address
	// WithdrawalAddress receives validator withdrawals (the EigenPod).
	WithdrawalAddress     ethcommon.Address
	OperationalPeriodDays int

	ErrorThreshold int
	PollAttempts   int
	PollDelay      time.Duration
	LoopInterval   time.Duration

	// NewRequestID generates request ids. Defaults to random UUIDs.
	NewRequestID func() string
}

// RunOptions are the per-invocation switches of Operate.
type RunOptions struct {
	// Clear discards any existing record before anything else.
	Clear bool
	// Stake submits the deposit once the validator is registered.
	Stake bool
}

// Operator runs the spawn state machine against a single progress record.
// Only one Operator may use a given store at a time.
type Operator struct {
	tracker     *progress.Tracker
	provisioner Provisioner
	stake       StakeChecker
	tx          TxSubmitter
	recorder    Recorder
	logger      zerolog.Logger

	owner                 ethcommon.Address
	withdrawalAddress     ethcommon.Address
	operationalPeriodDays int

	errorThreshold int
	pollAttempts   int
	pollDelay      time.Duration
	loopInterval   time.Duration
	newRequestID   func() string
}

// NewOperator creates an Operator, filling in defaults for unset tunables.
func NewOperator(cfg Config) *Operator {
	op := &Operator{
		tracker:               cfg.Tracker,
		provisioner:           cfg.Provisioner,
		stake:                 cfg.Stake,
		tx:                    cfg.Tx,
		recorder:              cfg.Recorder,
		logger:                cfg.Logger.With().Str("component", "spawn_operator").Logger(),
		owner:                 cfg.Owner,
		withdrawalAddress:     cfg.WithdrawalAddress,
		operationalPeriodDays: cfg.OperationalPeriodDays,
		errorThreshold:        cfg.ErrorThreshold,
		pollAttempts:          cfg.PollAttempts,
		pollDelay:             cfg.PollDelay,
		loopInterval:          cfg.LoopInterval,
		newRequestID:          cfg.NewRequestID,
	}
	if op.recorder == nil {
		op.recorder = nopRecorder{}
	}
	if op.errorThreshold <= 0 {
		op.errorThreshold = constant.DefaultErrorThreshold
	}
	if op.pollAttempts <= 0 {
		op.pollAttempts = constant.DefaultPollAttempts
	}
	if op.operationalPeriodDays <= 0 {
		op.operationalPeriodDays = constant.DefaultOperationalPeriod
	}
	if op.newRequestID == nil {
		op.newRequestID = uuid.NewString
	}
	return op
}

// Operate performs one invocation of the spawn sequence. It resumes from the
// persisted state and runs until the deposit is confirmed, staking is
// disabled at the registered state, or an error occurs. Errors are counted
// against the record and returned tagged with the state they occurred in.
func (o *Operator) Operate(ctx context.Context, opts RunOptions) (outcome Outcome, err error) {
	defer func() {
		o.recorder.RecordOperateRun(string(outcome))
	}()

	if opts.Clear {
		removed, err := o.tracker.Clear(ctx, store.OutcomeReset, "cleared on request")
		if err != nil {
			return OutcomeFailed, spawnerrors.NewDatabaseError("failed to clear progress record", err)
		}
		if removed != nil {
			o.recorder.RecordCleared(store.OutcomeReset)
		}
		o.recorder.SetErrorCount(0)
	}

	rec, err := o.tracker.Load(ctx)
	if err != nil {
		// A record that cannot be read cannot be counted against either.
		return OutcomeFailed, spawnerrors.NewDatabaseError("failed to load progress record", err)
	}

	if rec != nil && rec.ErrorCount >= o.errorThreshold {
		o.logger.Warn().
			Str("request_id", rec.RequestID).
			Str("state", rec.State.String()).
			Int("error_count", rec.ErrorCount).
			Int("threshold", o.errorThreshold).
			Msg("error threshold reached, discarding spawn attempt")
		if _, err := o.tracker.Clear(ctx, store.OutcomeDiscarded, ThresholdReason); err != nil {
			return OutcomeFailed, spawnerrors.NewDatabaseError("failed to clear progress record", err)
		}
		o.recorder.RecordCleared(store.OutcomeDiscarded)
		o.recorder.SetErrorCount(0)
		return OutcomeAbandoned, nil
	}

	outcome, err = o.run(ctx, rec, opts)
	if err == nil {
		return outcome, nil
	}
	return o.handleRunError(ctx, err)
}

// handleRunError applies the error policy to a failed run.
func (o *Operator) handleRunError(ctx context.Context, runErr error) (Outcome, error) {
	state := spawnerrors.StateOf(runErr)

	if spawnerrors.Is(runErr, spawnerrors.ErrValidatorNotReady) {
		return OutcomeNotReady, runErr
	}
	if ctx.Err() != nil && (spawnerrors.Is(runErr, context.Canceled) || spawnerrors.Is(runErr, context.DeadlineExceeded)) {
		o.logger.Info().Str("state", state).Msg("spawn run interrupted")
		return OutcomeCanceled, runErr
	}

	// The count is persisted even if the caller's context is gone.
	count, err := o.tracker.IncrementErrorCount(context.WithoutCancel(ctx))
	if err != nil {
		o.logger.Error().Err(err).Str("state", state).Msg("failed to persist error count")
	}
	o.recorder.RecordError(state, count)
	o.recorder.SetErrorCount(count)

	o.logger.Error().
		Err(runErr).
		Str("state", state).
		Int("error_count", count).
		Int("threshold", o.errorThreshold).
		Msg("spawn run failed")
	return OutcomeFailed, runErr
}

// run is the state loop. rec is nil when no record exists.
func (o *Operator) run(ctx context.Context, rec *progress.Record, opts RunOptions) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return OutcomeCanceled, spawnerrors.WithState(err, currentState(rec).String())
		}

		state := currentState(rec)
		next, done, outcome, err := o.step(ctx, rec, opts)
		if err != nil {
			return OutcomeFailed, spawnerrors.WithState(err, state.String())
		}
		if done {
			return outcome, nil
		}
		rec = next

		if err := sleep(ctx, o.loopInterval); err != nil {
			return OutcomeCanceled, spawnerrors.WithState(err, currentState(rec).String())
		}
	}
}

// step executes the transition for the record's current state. It returns the
// record to continue with, or done with the final outcome.
func (o *Operator) step(ctx context.Context, rec *progress.Record, opts RunOptions) (*progress.Record, bool, Outcome, error) {
	switch currentState(rec) {
	case progress.StateAbsent:
		next, ok, err := o.issueCreation(ctx)
		if err != nil {
			return nil, false, "", err
		}
		if !ok {
			return nil, true, OutcomePreconditionUnmet, nil
		}
		return next, false, "", nil

	case progress.StateValidatorCreationIssued:
		return rec, false, "", o.awaitCreation(ctx, rec)

	case progress.StateValidatorCreationConfirmed:
		return rec, false, "", o.submitRegistration(ctx, rec)

	case progress.StateRegisterTransactionBroadcast:
		return rec, false, "", o.confirmRegistration(ctx, rec)

	case progress.StateValidatorRegistered:
		if !opts.Stake {
			o.logger.Info().
				Str("request_id", rec.RequestID).
				Str("state", rec.State.String()).
				Msg("validator registered, staking disabled")
			return rec, true, OutcomeStopped, nil
		}
		return rec, false, "", o.submitDeposit(ctx, rec)

	case progress.StateDepositTransactionBroadcast:
		return rec, false, "", o.confirmDeposit(ctx, rec)

	case progress.StateDepositConfirmed:
		return nil, true, OutcomeCompleted, o.complete(ctx, rec)

	default:
		return nil, false, "", spawnerrors.NewInternalError("unknown progress state "+string(rec.State), nil)
	}
}

func currentState(rec *progress.Record) progress.State {
	if rec == nil {
		return progress.StateAbsent
	}
	return rec.State
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
