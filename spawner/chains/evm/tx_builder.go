package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
)

// gasLimitBufferPercent is added on top of the node's gas estimate.
const gasLimitBufferPercent = 20

// TxBuilder signs NodeDelegator calls with the operator key and broadcasts them.
type TxBuilder struct {
	rpcClient     *RPCClient
	privateKey    *ecdsa.PrivateKey
	from          ethcommon.Address
	nodeDelegator ethcommon.Address
	chainID       *big.Int
	logger        zerolog.Logger
}

// ParsePrivateKey parses a hex encoded secp256k1 key, with or without 0x.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("signer private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}
	return key, nil
}

// NewTxBuilder creates a builder sending to the NodeDelegator on chainID.
func NewTxBuilder(
	rpcClient *RPCClient,
	privateKey *ecdsa.PrivateKey,
	nodeDelegator ethcommon.Address,
	chainID int64,
	logger zerolog.Logger,
) (*TxBuilder, error) {
	if rpcClient == nil {
		return nil, fmt.Errorf("rpcClient is required")
	}
	if privateKey == nil {
		return nil, fmt.Errorf("privateKey is required")
	}
	if nodeDelegator == (ethcommon.Address{}) {
		return nil, fmt.Errorf("node delegator address is required")
	}

	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	return &TxBuilder{
		rpcClient:     rpcClient,
		privateKey:    privateKey,
		from:          from,
		nodeDelegator: nodeDelegator,
		chainID:       big.NewInt(chainID),
		logger: logger.With().
			Str("component", "evm_tx_builder").
			Str("from", from.Hex()).
			Logger(),
	}, nil
}

// From returns the signer address.
func (tb *TxBuilder) From() ethcommon.Address {
	return tb.from
}

// Submit encodes, signs and broadcasts call and returns the transaction hash
// without waiting for it to be mined.
func (tb *TxBuilder) Submit(ctx context.Context, call Call) (ethcommon.Hash, error) {
	data, err := call.Pack()
	if err != nil {
		return ethcommon.Hash{}, spawnerrors.NewValidationError(err.Error())
	}

	nonce, err := tb.rpcClient.GetPendingNonce(ctx, tb.from)
	if err != nil {
		return ethcommon.Hash{}, spawnerrors.NewRPCError("failed to get nonce", err)
	}

	gasPrice, err := tb.rpcClient.GetGasPrice(ctx)
	if err != nil {
		return ethcommon.Hash{}, spawnerrors.NewRPCError("failed to get gas price", err)
	}

	to := tb.nodeDelegator
	gas, err := tb.rpcClient.EstimateGas(ctx, ethereum.CallMsg{
		From: tb.from,
		To:   &to,
		Data: data,
	})
	if err != nil {
		if isRevert(err) {
			return ethcommon.Hash{}, spawnerrors.NewTransactionError(
				fmt.Sprintf("%s would revert", call.Method), err)
		}
		return ethcommon.Hash{}, spawnerrors.NewRPCError("failed to estimate gas", err)
	}
	gasLimit := gas + gas*gasLimitBufferPercent/100

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)

	signer := types.NewEIP155Signer(tb.chainID)
	signedTx, err := types.SignTx(tx, signer, tb.privateKey)
	if err != nil {
		return ethcommon.Hash{}, spawnerrors.NewInternalError("failed to sign transaction", err)
	}

	hash, err := tb.rpcClient.BroadcastTransaction(ctx, signedTx)
	if err != nil {
		return ethcommon.Hash{}, spawnerrors.NewRPCError(
			fmt.Sprintf("failed to broadcast %s", call.Method), err).
			WithContext("tx_hash", signedTx.Hash().Hex())
	}

	tb.logger.Info().
		Str("method", call.Method).
		Str("tx_hash", hash.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas_limit", gasLimit).
		Str("gas_price", gasPrice.String()).
		Msg("transaction broadcast successfully")
	return hash, nil
}
