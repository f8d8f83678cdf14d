package spawn

import (
	"context"
	"fmt"

	"github.com/pushchain/validator-spawner/spawner/chains/evm"
	"github.com/pushchain/validator-spawner/spawner/constant"
	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/provisioning"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// issueCreation checks the stake precondition and asks the provisioning
// service for a new validator. ok is false when there is not enough stake; in
// that case nothing is written and no request is sent.
func (o *Operator) issueCreation(ctx context.Context) (*progress.Record, bool, error) {
	available, err := o.stake.AvailableStake(ctx, o.owner)
	if err != nil {
		return nil, false, err
	}
	required := evm.StakeUnit()
	if available.Cmp(required) < 0 {
		o.logger.Info().
			Str("owner", o.owner.Hex()).
			Str("available_eth", evm.FormatEther(available)).
			Str("required_eth", evm.FormatEther(required)).
			Msg("not enough stake to spawn a validator")
		return nil, false, nil
	}

	requestID := o.newRequestID()
	req := provisioning.CreateRequest{
		ValidatorsCount:       constant.ValidatorsPerRequest,
		ID:                    requestID,
		WithdrawalAddress:     o.withdrawalAddress.Hex(),
		FeeRecipientAddress:   o.owner.Hex(),
		SSVOwnerAddress:       o.owner.Hex(),
		Type:                  constant.ProvisioningRequestType,
		OperationPeriodInDays: o.operationalPeriodDays,
	}
	if err := o.provisioner.CreateRequest(ctx, req); err != nil {
		return nil, false, err
	}

	rec, err := o.tracker.Create(ctx, requestID)
	if err != nil {
		return nil, false, spawnerrors.NewDatabaseError("failed to create progress record", err)
	}
	o.recorder.RecordTransition(string(rec.State))
	o.logger.Info().
		Str("request_id", requestID).
		Str("state", rec.State.String()).
		Str("available_eth", evm.FormatEther(available)).
		Msg("validator creation requested")
	return rec, true, nil
}

// awaitCreation polls the provisioning service until the validator is ready.
// Running out of attempts discards the record and returns ErrValidatorNotReady.
func (o *Operator) awaitCreation(ctx context.Context, rec *progress.Record) error {
	notReady := 0
	for {
		result, err := o.provisioner.PollStatus(ctx, rec.RequestID)
		if err != nil {
			return err
		}

		if result.Ready() {
			update, err := creationMetadata(result)
			if err != nil {
				return err
			}
			return o.advance(ctx, rec, progress.StateValidatorCreationConfirmed, update)
		}

		notReady++
		o.logger.Debug().
			Str("request_id", rec.RequestID).
			Str("status", result.Status).
			Int("attempt", notReady).
			Msg("validator not ready yet")

		if notReady > o.pollAttempts {
			reason := fmt.Sprintf("validator not ready after %d status checks", notReady)
			if _, err := o.tracker.Clear(ctx, store.OutcomeDiscarded, reason); err != nil {
				return spawnerrors.NewDatabaseError("failed to clear progress record", err)
			}
			o.recorder.RecordCleared(store.OutcomeDiscarded)
			o.recorder.SetErrorCount(0)
			o.logger.Warn().
				Str("request_id", rec.RequestID).
				Int("attempt", notReady).
				Msg("gave up waiting for validator, attempt discarded")
			return spawnerrors.NewSpawnError(spawnerrors.ErrCodeTimeout, "", reason, spawnerrors.ErrValidatorNotReady)
		}

		if err := sleep(ctx, o.pollDelay); err != nil {
			return err
		}
	}
}

// creationMetadata extracts the registration payload and deposit material from
// a ready status result.
func creationMetadata(result *provisioning.StatusResult) (progress.Metadata, error) {
	data := result.RegistrationData()
	if data == "" {
		return progress.Metadata{}, spawnerrors.NewValidationError("ready status carries no validator registration transaction")
	}
	deposit := result.FirstDepositData()
	if deposit == nil {
		return progress.Metadata{}, spawnerrors.NewValidationError("ready status carries no deposit data")
	}
	shares := result.SharesData()
	if shares == "" {
		return progress.Metadata{}, spawnerrors.NewValidationError("ready status carries no encrypted shares")
	}
	return progress.Metadata{
		RegisterValidatorData: data,
		DepositData: &progress.DepositData{
			Pubkey:          deposit.Pubkey,
			Signature:       deposit.Signature,
			DepositDataRoot: deposit.DepositDataRoot,
		},
		SharesData: shares,
	}, nil
}

// submitRegistration decodes the stored registration payload and submits
// registerSsvValidator. The public key and shares come from the deposit data
// and encrypted shares; the copies inside the payload are not used.
func (o *Operator) submitRegistration(ctx context.Context, rec *progress.Record) error {
	meta := rec.Metadata
	reg, err := evm.DecodeRegistration(meta.RegisterValidatorData)
	if err != nil {
		return spawnerrors.NewSpawnError(spawnerrors.ErrCodeValidation, "", "failed to decode registration payload", err)
	}
	if meta.DepositData == nil || meta.DepositData.Pubkey == "" {
		return spawnerrors.NewValidationError("public key not found in deposit data")
	}
	if meta.SharesData == "" {
		return spawnerrors.NewValidationError("shares data not found in metadata")
	}
	pubkey, err := evm.DecodeHex(meta.DepositData.Pubkey)
	if err != nil {
		return spawnerrors.NewSpawnError(spawnerrors.ErrCodeValidation, "", "invalid public key", err)
	}
	shares, err := evm.DecodeHex(meta.SharesData)
	if err != nil {
		return spawnerrors.NewSpawnError(spawnerrors.ErrCodeValidation, "", "invalid shares data", err)
	}

	call := evm.NewRegisterSsvValidatorCall(pubkey, reg.OperatorIDs, shares, reg.Amount, reg.Cluster)
	hash, err := o.tx.Submit(ctx, call)
	if err != nil {
		return err
	}
	o.recorder.RecordSubmitted(call.Method)
	o.logger.Info().
		Str("request_id", rec.RequestID).
		Str("method", call.Method).
		Str("tx_hash", hash.Hex()).
		Uints64("operator_ids", reg.OperatorIDs).
		Msg("registration transaction submitted")

	return o.advance(ctx, rec, progress.StateRegisterTransactionBroadcast, progress.Metadata{
		ValidatorRegistrationTx: hash.Hex(),
	})
}

func (o *Operator) confirmRegistration(ctx context.Context, rec *progress.Record) error {
	if err := o.waitFor(ctx, rec, rec.Metadata.ValidatorRegistrationTx); err != nil {
		return err
	}
	return o.advance(ctx, rec, progress.StateValidatorRegistered, progress.Metadata{})
}

// submitDeposit submits stakeEth for the validator's deposit data.
func (o *Operator) submitDeposit(ctx context.Context, rec *progress.Record) error {
	dd := rec.Metadata.DepositData
	if dd == nil {
		return spawnerrors.NewValidationError("deposit data not found in metadata")
	}
	stake, err := evm.ParseValidatorStake(dd.Pubkey, dd.Signature, dd.DepositDataRoot)
	if err != nil {
		return spawnerrors.NewSpawnError(spawnerrors.ErrCodeValidation, "", "invalid deposit data", err)
	}

	call := evm.NewStakeEthCall(stake)
	hash, err := o.tx.Submit(ctx, call)
	if err != nil {
		return err
	}
	o.recorder.RecordSubmitted(call.Method)
	o.logger.Info().
		Str("request_id", rec.RequestID).
		Str("method", call.Method).
		Str("tx_hash", hash.Hex()).
		Msg("deposit transaction submitted")

	return o.advance(ctx, rec, progress.StateDepositTransactionBroadcast, progress.Metadata{
		DepositTx: hash.Hex(),
	})
}

func (o *Operator) confirmDeposit(ctx context.Context, rec *progress.Record) error {
	if err := o.waitFor(ctx, rec, rec.Metadata.DepositTx); err != nil {
		return err
	}
	return o.advance(ctx, rec, progress.StateDepositConfirmed, progress.Metadata{})
}

// complete removes the finished record.
func (o *Operator) complete(ctx context.Context, rec *progress.Record) error {
	if _, err := o.tracker.Clear(ctx, store.OutcomeCompleted, "completed"); err != nil {
		return spawnerrors.NewDatabaseError("failed to clear progress record", err)
	}
	o.recorder.RecordCleared(store.OutcomeCompleted)
	o.recorder.SetErrorCount(0)
	o.logger.Info().
		Str("request_id", rec.RequestID).
		Str("registration_tx", rec.Metadata.ValidatorRegistrationTx).
		Str("deposit_tx", rec.Metadata.DepositTx).
		Msg("validator spawned")
	return nil
}

// waitFor blocks until the stored transaction hash is mined successfully.
func (o *Operator) waitFor(ctx context.Context, rec *progress.Record, txHash string) error {
	if txHash == "" {
		return spawnerrors.NewValidationError("transaction hash not found in metadata")
	}
	hash, err := evm.ParseHash(txHash)
	if err != nil {
		return spawnerrors.NewSpawnError(spawnerrors.ErrCodeValidation, "", "invalid transaction hash", err)
	}

	o.logger.Info().
		Str("request_id", rec.RequestID).
		Str("state", rec.State.String()).
		Str("tx_hash", txHash).
		Msg("waiting for transaction confirmation")
	receipt, err := o.tx.WaitForConfirmation(ctx, hash)
	if err != nil {
		return err
	}
	event := o.logger.Info().
		Str("request_id", rec.RequestID).
		Str("tx_hash", txHash)
	if receipt != nil && receipt.BlockNumber != nil {
		event = event.Uint64("block", receipt.BlockNumber.Uint64())
	}
	event.Msg("transaction confirmed")
	return nil
}

func (o *Operator) advance(ctx context.Context, rec *progress.Record, next progress.State, update progress.Metadata) error {
	if err := o.tracker.Advance(ctx, rec, next, update); err != nil {
		return spawnerrors.NewDatabaseError("failed to advance progress record", err)
	}
	o.recorder.RecordTransition(string(next))
	return nil
}
