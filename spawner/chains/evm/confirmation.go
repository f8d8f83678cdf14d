package evm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
)

// ConfirmationWaiter blocks until a broadcast transaction is mined.
type ConfirmationWaiter struct {
	rpcClient       *RPCClient
	pollInterval    time.Duration
	timeout         time.Duration
	notFoundRetries int
	logger          zerolog.Logger
}

// NewConfirmationWaiter creates a waiter. A zero timeout waits until the
// transaction is mined, found missing or ctx is cancelled.
func NewConfirmationWaiter(
	rpcClient *RPCClient,
	pollInterval time.Duration,
	timeout time.Duration,
	notFoundRetries int,
	logger zerolog.Logger,
) *ConfirmationWaiter {
	if notFoundRetries <= 0 {
		notFoundRetries = 1
	}
	return &ConfirmationWaiter{
		rpcClient:       rpcClient,
		pollInterval:    pollInterval,
		timeout:         timeout,
		notFoundRetries: notFoundRetries,
		logger:          logger.With().Str("component", "confirmation_waiter").Logger(),
	}
}

// WaitForConfirmation polls for the receipt of hash. It fails with
// ErrTransactionNotFound when the node knows neither a receipt nor the
// transaction for notFoundRetries consecutive polls, and with
// ErrTransactionReverted when the transaction was mined but failed.
func (cw *ConfirmationWaiter) WaitForConfirmation(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error) {
	waitCtx := ctx
	if cw.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cw.timeout)
		defer cancel()
	}

	log := cw.logger.With().Str("tx_hash", hash.Hex()).Logger()
	log.Info().Msg("waiting for transaction to be mined")

	missing := 0
	for attempt := 1; ; attempt++ {
		receipt, err := cw.rpcClient.GetTransactionReceipt(waitCtx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, spawnerrors.NewTransactionError(
					fmt.Sprintf("transaction %s mined in block %s with failed status", hash.Hex(), receipt.BlockNumber),
					spawnerrors.ErrTransactionReverted)
			}
			log.Info().
				Uint64("block", receipt.BlockNumber.Uint64()).
				Uint64("gas_used", receipt.GasUsed).
				Msg("transaction confirmed")
			return receipt, nil

		case err == nil || errors.Is(err, ethereum.NotFound):
			_, pending, txErr := cw.rpcClient.GetTransactionByHash(waitCtx, hash)
			switch {
			case txErr == nil:
				missing = 0
				log.Debug().Bool("pending", pending).Int("attempt", attempt).Msg("transaction not yet mined")
			case errors.Is(txErr, ethereum.NotFound):
				missing++
				log.Debug().Int("missing", missing).Int("attempt", attempt).Msg("transaction not known to node")
				if missing >= cw.notFoundRetries {
					return nil, spawnerrors.NewTransactionError(
						fmt.Sprintf("transaction %s not found after %d checks", hash.Hex(), missing),
						spawnerrors.ErrTransactionNotFound)
				}
			default:
				log.Warn().Err(txErr).Msg("failed to look up transaction, will retry")
			}

		default:
			if waitCtx.Err() == nil {
				log.Warn().Err(err).Msg("failed to fetch receipt, will retry")
			}
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, spawnerrors.NewTimeoutError(
				fmt.Sprintf("transaction %s not confirmed within %s", hash.Hex(), cw.timeout))
		case <-time.After(cw.pollInterval):
		}
	}
}
