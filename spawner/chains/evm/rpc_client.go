package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// EthClient is the subset of *ethclient.Client used by the spawner.
type EthClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account ethcommon.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error)
	TransactionByHash(ctx context.Context, hash ethcommon.Hash) (*types.Transaction, bool, error)
	Close()
}

// RPCClient provides EVM RPC operations with round-robin failover across endpoints.
type RPCClient struct {
	clients []EthClient
	index   uint64
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// NewRPCClient dials every RPC URL and keeps the endpoints serving the expected chain.
func NewRPCClient(rpcURLs []string, expectedChainID int64, logger zerolog.Logger) (*RPCClient, error) {
	if len(rpcURLs) == 0 {
		return nil, fmt.Errorf("no RPC URLs provided")
	}

	log := logger.With().Str("component", "evm_rpc_client").Logger()
	clients := make([]EthClient, 0, len(rpcURLs))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, url := range rpcURLs {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to connect to RPC endpoint, skipping")
			continue
		}

		clientChainID, err := client.ChainID(ctx)
		if err != nil {
			log.Warn().
				Err(err).
				Str("url", url).
				Int64("expected_chain_id", expectedChainID).
				Msg("failed to verify chain ID, proceeding with client anyway")
			clients = append(clients, client)
			continue
		}

		if clientChainID.Int64() != expectedChainID {
			client.Close()
			log.Warn().
				Str("url", url).
				Int64("expected_chain_id", expectedChainID).
				Int64("actual_chain_id", clientChainID.Int64()).
				Msg("chain ID mismatch, closing client")
			continue
		}

		clients = append(clients, client)
		log.Info().Str("url", url).Msg("connected to RPC endpoint")
	}

	if len(clients) == 0 {
		return nil, fmt.Errorf("failed to connect to any valid RPC endpoints")
	}

	return &RPCClient{
		clients: clients,
		logger:  log,
	}, nil
}

// NewRPCClientFromClients wraps already connected clients.
func NewRPCClientFromClients(clients []EthClient, logger zerolog.Logger) *RPCClient {
	return &RPCClient{
		clients: clients,
		logger:  logger.With().Str("component", "evm_rpc_client").Logger(),
	}
}

// executeWithFailover runs fn against each endpoint in turn until one succeeds.
// The returned error wraps the last endpoint's error.
func (rc *RPCClient) executeWithFailover(ctx context.Context, operation string, fn func(EthClient) error) error {
	rc.mu.RLock()
	clients := rc.clients
	rc.mu.RUnlock()

	if len(clients) == 0 {
		return fmt.Errorf("no RPC clients available for %s", operation)
	}

	var lastErr error
	maxAttempts := len(clients)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		index := atomic.AddUint64(&rc.index, 1) - 1
		client := clients[index%uint64(len(clients))]
		if client == nil {
			continue
		}

		err := fn(client)
		if err == nil {
			return nil
		}
		lastErr = err

		rc.logger.Debug().
			Str("operation", operation).
			Int("attempt", attempt+1).
			Err(err).
			Msg("operation failed, trying next endpoint")
	}

	if lastErr == nil {
		return fmt.Errorf("operation %s failed: no usable endpoints", operation)
	}
	return fmt.Errorf("operation %s failed after trying %d endpoints: %w", operation, maxAttempts, lastErr)
}

// GetLatestBlock returns the latest block number
func (rc *RPCClient) GetLatestBlock(ctx context.Context) (uint64, error) {
	var blockNum uint64
	err := rc.executeWithFailover(ctx, "get_block_number", func(client EthClient) error {
		var innerErr error
		blockNum, innerErr = client.BlockNumber(ctx)
		return innerErr
	})
	return blockNum, err
}

// GetBalance returns the latest native balance of account in wei.
func (rc *RPCClient) GetBalance(ctx context.Context, account ethcommon.Address) (*big.Int, error) {
	var balance *big.Int
	err := rc.executeWithFailover(ctx, "get_balance", func(client EthClient) error {
		var innerErr error
		balance, innerErr = client.BalanceAt(ctx, account, nil)
		return innerErr
	})
	return balance, err
}

// CallContract executes a read-only call at the latest block.
func (rc *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := rc.executeWithFailover(ctx, "call_contract", func(client EthClient) error {
		var innerErr error
		out, innerErr = client.CallContract(ctx, msg, nil)
		return innerErr
	})
	return out, err
}

// GetPendingNonce returns the next nonce for account including pending transactions.
func (rc *RPCClient) GetPendingNonce(ctx context.Context, account ethcommon.Address) (uint64, error) {
	var nonce uint64
	err := rc.executeWithFailover(ctx, "get_pending_nonce", func(client EthClient) error {
		var innerErr error
		nonce, innerErr = client.PendingNonceAt(ctx, account)
		return innerErr
	})
	return nonce, err
}

// GetGasPrice fetches the current gas price
func (rc *RPCClient) GetGasPrice(ctx context.Context) (*big.Int, error) {
	var gasPrice *big.Int
	err := rc.executeWithFailover(ctx, "get_gas_price", func(client EthClient) error {
		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		var innerErr error
		gasPrice, innerErr = client.SuggestGasPrice(callCtx)
		return innerErr
	})
	return gasPrice, err
}

// EstimateGas estimates the gas needed for msg. A revert is returned from the
// first endpoint without failing over.
func (rc *RPCClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	var revertErr error
	err := rc.executeWithFailover(ctx, "estimate_gas", func(client EthClient) error {
		var innerErr error
		gas, innerErr = client.EstimateGas(ctx, msg)
		if innerErr != nil && isRevert(innerErr) {
			revertErr = innerErr
			return nil
		}
		return innerErr
	})
	if revertErr != nil {
		return 0, revertErr
	}
	return gas, err
}

// BroadcastTransaction sends a signed transaction. An endpoint that already
// knows the transaction counts as success.
func (rc *RPCClient) BroadcastTransaction(ctx context.Context, tx *types.Transaction) (ethcommon.Hash, error) {
	err := rc.executeWithFailover(ctx, "send_transaction", func(client EthClient) error {
		innerErr := client.SendTransaction(ctx, tx)
		if innerErr != nil && strings.Contains(strings.ToLower(innerErr.Error()), "already known") {
			return nil
		}
		return innerErr
	})
	if err != nil {
		return ethcommon.Hash{}, err
	}
	return tx.Hash(), nil
}

// GetTransactionReceipt fetches a transaction receipt. ethereum.NotFound is
// preserved in the error chain.
func (rc *RPCClient) GetTransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := rc.executeWithFailover(ctx, "get_transaction_receipt", func(client EthClient) error {
		var innerErr error
		receipt, innerErr = client.TransactionReceipt(ctx, txHash)
		return innerErr
	})
	return receipt, err
}

// GetTransactionByHash reports whether a transaction is known and still pending.
func (rc *RPCClient) GetTransactionByHash(ctx context.Context, txHash ethcommon.Hash) (*types.Transaction, bool, error) {
	var (
		tx        *types.Transaction
		isPending bool
	)
	err := rc.executeWithFailover(ctx, "get_transaction_by_hash", func(client EthClient) error {
		var innerErr error
		tx, isPending, innerErr = client.TransactionByHash(ctx, txHash)
		return innerErr
	})
	return tx, isPending, err
}

// Close closes all RPC connections
func (rc *RPCClient) Close() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for _, client := range rc.clients {
		if client != nil {
			client.Close()
		}
	}
	rc.clients = nil
}

func isRevert(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}
