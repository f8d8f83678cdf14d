// Package core wires the spawner's storage, chain access and orchestrator
// together from a loaded config.
package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/pushchain/validator-spawner/spawner/api"
	"github.com/pushchain/validator-spawner/spawner/chains/evm"
	"github.com/pushchain/validator-spawner/spawner/config"
	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/db"
	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
	"github.com/pushchain/validator-spawner/spawner/kvstore"
	"github.com/pushchain/validator-spawner/spawner/metrics"
	"github.com/pushchain/validator-spawner/spawner/progress"
	"github.com/pushchain/validator-spawner/spawner/provisioning"
	"github.com/pushchain/validator-spawner/spawner/spawn"
	"github.com/pushchain/validator-spawner/spawner/store"
)

// Node owns every long-lived resource of the spawner. Storage is opened
// eagerly; chain access is only set up by the commands that need it.
type Node struct {
	cfg     config.Config
	network config.NetworkConfig
	logger  zerolog.Logger

	database *db.DB
	store    kvstore.Store
	attempts *db.AttemptLog
	tracker  *progress.Tracker
	metrics  *metrics.Metrics

	mu         sync.Mutex
	rpc        *evm.RPCClient
	transactor *evm.Transactor
	operator   *spawn.Operator
}

// NewNode opens the node's storage under cfg.NodeHome.
func NewNode(cfg config.Config, logger zerolog.Logger) (*Node, error) {
	network, err := cfg.ActiveNetwork()
	if err != nil {
		return nil, spawnerrors.NewConfigError(err.Error())
	}

	database, err := db.OpenFileDB(filepath.Join(cfg.NodeHome, constant.DatabasesSubdir), constant.DatabaseFileName, true)
	if err != nil {
		return nil, spawnerrors.NewDatabaseError("failed to open database", err)
	}

	n := &Node{
		cfg:      cfg,
		network:  network,
		logger:   logger,
		database: database,
		attempts: db.NewAttemptLog(database),
		metrics:  metrics.New(),
	}

	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		dir := filepath.Join(cfg.NodeHome, constant.FileStoreSubdir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_ = database.Close()
			return nil, spawnerrors.NewDatabaseError("failed to create store directory", err)
		}
		n.store = kvstore.NewFileStore(filepath.Join(dir, constant.FileStoreFileName))
	default:
		n.store = kvstore.NewSQLStore(database.Client())
	}

	n.tracker = progress.NewTracker(n.store, n.attempts, logger)

	logger.Debug().
		Str("home", cfg.NodeHome).
		Str("network", cfg.Network).
		Str("store_backend", string(cfg.StoreBackend)).
		Msg("node storage opened")
	return n, nil
}

func (n *Node) Config() config.Config { return n.cfg }
func (n *Node) Tracker() *progress.Tracker { return n.tracker }
func (n *Node) Attempts() *db.AttemptLog { return n.attempts }
func (n *Node) Metrics() *metrics.Metrics { return n.metrics }

// NodeDelegator returns the configured NodeDelegator contract address.
func (n *Node) NodeDelegator() (ethcommon.Address, error) {
	return parseAddress("node_delegator_address", n.network.NodeDelegatorAddress)
}

// RPC dials the network's RPC endpoints on first use.
func (n *Node) RPC() (*evm.RPCClient, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rpcLocked()
}

func (n *Node) rpcLocked() (*evm.RPCClient, error) {
	if n.rpc != nil {
		return n.rpc, nil
	}
	if len(n.network.RPCURLs) == 0 {
		return nil, spawnerrors.NewConfigError(fmt.Sprintf("no rpc_urls configured for network %s", n.cfg.Network))
	}
	rpc, err := evm.NewRPCClient(n.network.RPCURLs, n.network.ChainID, n.logger)
	if err != nil {
		return nil, spawnerrors.NewRPCError("failed to connect to RPC endpoints", err)
	}
	n.rpc = rpc
	return rpc, nil
}

// StakeChecker returns a checker for the network's WETH token.
func (n *Node) StakeChecker() (*evm.StakeChecker, error) {
	weth, err := parseAddress("weth_address", n.network.WETHAddress)
	if err != nil {
		return nil, err
	}
	rpc, err := n.RPC()
	if err != nil {
		return nil, err
	}
	return evm.NewStakeChecker(rpc, weth, n.logger), nil
}

// Transactor returns the signer-backed NodeDelegator transactor.
func (n *Node) Transactor() (*evm.Transactor, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transactorLocked()
}

func (n *Node) transactorLocked() (*evm.Transactor, error) {
	if n.transactor != nil {
		return n.transactor, nil
	}
	nodeDelegator, err := parseAddress("node_delegator_address", n.network.NodeDelegatorAddress)
	if err != nil {
		return nil, err
	}
	if n.cfg.SignerPrivateKey == "" {
		return nil, spawnerrors.NewConfigError("signer_private_key is not configured")
	}
	key, err := evm.ParsePrivateKey(n.cfg.SignerPrivateKey)
	if err != nil {
		return nil, spawnerrors.NewConfigError(err.Error())
	}

	rpc, err := n.rpcLocked()
	if err != nil {
		return nil, err
	}
	builder, err := evm.NewTxBuilder(rpc, key, nodeDelegator, n.network.ChainID, n.logger)
	if err != nil {
		return nil, spawnerrors.NewConfigError(err.Error())
	}
	waiter := evm.NewConfirmationWaiter(
		rpc,
		n.cfg.ConfirmationPollInterval(),
		n.cfg.ConfirmationTimeout(),
		n.cfg.NotFoundRetries,
		n.logger,
	)
	n.transactor = evm.NewTransactor(builder, waiter)
	return n.transactor, nil
}

// Operator builds the orchestrator. Every setting it needs is validated before
// any endpoint is dialed.
func (n *Node) Operator() (*spawn.Operator, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.operator != nil {
		return n.operator, nil
	}

	owner, err := parseAddress("node_delegator_address", n.network.NodeDelegatorAddress)
	if err != nil {
		return nil, err
	}
	weth, err := parseAddress("weth_address", n.network.WETHAddress)
	if err != nil {
		return nil, err
	}
	eigenPod, err := parseAddress("eigen_pod_address", n.network.EigenPodAddress)
	if err != nil {
		return nil, err
	}
	if n.cfg.P2PAPIKey == "" {
		return nil, spawnerrors.NewConfigError("p2p_api_key is not configured")
	}
	if n.network.P2PBaseURL == "" {
		return nil, spawnerrors.NewConfigError(fmt.Sprintf("p2p_base_url is not configured for network %s", n.cfg.Network))
	}

	tx, err := n.transactorLocked()
	if err != nil {
		return nil, err
	}

	n.operator = spawn.NewOperator(spawn.Config{
		Tracker:               n.tracker,
		Provisioner:           provisioning.NewClient(n.network.P2PBaseURL, n.cfg.P2PAPIKey, n.logger),
		Stake:                 evm.NewStakeChecker(n.rpc, weth, n.logger),
		Tx:                    tx,
		Recorder:              n.metrics,
		Logger:                n.logger,
		Owner:                 owner,
		WithdrawalAddress:     eigenPod,
		OperationalPeriodDays: n.cfg.OperationalPeriodDays,
		ErrorThreshold:        n.cfg.ErrorThreshold,
		PollAttempts:          n.cfg.PollAttempts,
		PollDelay:             n.cfg.PollDelay(),
		LoopInterval:          n.cfg.LoopInterval(),
	})
	return n.operator, nil
}

// Operate runs the orchestrator once.
func (n *Node) Operate(ctx context.Context, opts spawn.RunOptions) (spawn.Outcome, error) {
	op, err := n.Operator()
	if err != nil {
		return spawn.OutcomeFailed, err
	}
	return op.Operate(ctx, opts)
}

// Reset discards the in-flight record, if any.
func (n *Node) Reset(ctx context.Context) (*progress.Record, error) {
	removed, err := n.tracker.Clear(ctx, store.OutcomeReset, "cleared on request")
	if err != nil {
		return nil, spawnerrors.NewDatabaseError("failed to clear progress record", err)
	}
	if removed != nil {
		n.metrics.RecordCleared(store.OutcomeReset)
	}
	n.metrics.SetErrorCount(0)
	return removed, nil
}

// Run is the daemon loop: it serves queries, prunes history and invokes the
// orchestrator every OperateIntervalSeconds until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	op, err := n.Operator()
	if err != nil {
		return err
	}

	server := api.NewServer(n.logger, n.cfg.QueryServerPort, n.tracker, n.attempts, n.metrics.Handler())
	rpc, err := n.RPC()
	if err != nil {
		return err
	}
	server.SetChainReader(rpc)
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		if err := server.Stop(context.Background()); err != nil {
			n.logger.Warn().Err(err).Msg("failed to stop query server")
		}
	}()

	cleaner := db.NewAttemptCleaner(
		n.database,
		time.Duration(n.cfg.HistoryCleanupIntervalSeconds)*time.Second,
		time.Duration(n.cfg.HistoryRetentionPeriodSeconds)*time.Second,
		n.logger,
	)
	if err := cleaner.Start(ctx); err != nil {
		return err
	}
	defer cleaner.Stop()

	interval := time.Duration(n.cfg.OperateIntervalSeconds) * time.Second
	if interval <= 0 {
		return spawnerrors.NewConfigError("operate_interval_seconds must be positive")
	}
	n.logger.Info().
		Dur("operate_interval", interval).
		Bool("stake", n.cfg.Stake).
		Str("network", n.cfg.Network).
		Msg("validator spawner started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n.operateOnce(ctx, op)

		select {
		case <-ctx.Done():
			n.logger.Info().Msg("validator spawner stopping")
			return nil
		case <-ticker.C:
		}
	}
}

func (n *Node) operateOnce(ctx context.Context, op *spawn.Operator) {
	outcome, err := op.Operate(ctx, spawn.RunOptions{Stake: n.cfg.Stake})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Errors are already counted and logged by the operator; the next
		// tick resumes from the stored state.
		n.logger.Warn().Err(err).Str("outcome", string(outcome)).Msg("operate run ended with error")
		return
	}
	n.logger.Info().Str("outcome", string(outcome)).Msg("operate run finished")
}

// Close releases the RPC connections and the database.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.rpc != nil {
		n.rpc.Close()
	}
	return n.database.Close()
}

func parseAddress(field, value string) (ethcommon.Address, error) {
	if value == "" {
		return ethcommon.Address{}, spawnerrors.NewConfigError(field + " is not configured")
	}
	if !ethcommon.IsHexAddress(value) {
		return ethcommon.Address{}, spawnerrors.NewConfigError(fmt.Sprintf("%s %q is not a valid address", field, value))
	}
	return ethcommon.HexToAddress(value), nil
}
