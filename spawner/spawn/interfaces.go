package spawn

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/pushchain/validator-spawner/spawner/chains/evm"
	"github.com/pushchain/validator-spawner/spawner/provisioning"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Provisioner,StakeChecker,TxSubmitter

// Provisioner creates validators through the remote provisioning service.
type Provisioner interface {
	CreateRequest(ctx context.Context, req provisioning.CreateRequest) error
	PollStatus(ctx context.Context, requestID string) (*provisioning.StatusResult, error)
}

// StakeChecker reports how much stake the owner can put towards a validator.
type StakeChecker interface {
	AvailableStake(ctx context.Context, owner ethcommon.Address) (*big.Int, error)
}

// TxSubmitter signs and broadcasts NodeDelegator calls and waits for them to be mined.
type TxSubmitter interface {
	Submit(ctx context.Context, call evm.Call) (ethcommon.Hash, error)
	WaitForConfirmation(ctx context.Context, hash ethcommon.Hash) (*types.Receipt, error)
}

// Recorder receives progress events. metrics.Metrics implements it.
type Recorder interface {
	RecordTransition(state string)
	RecordError(state string, errorCount int)
	RecordCleared(outcome string)
	RecordSubmitted(method string)
	RecordOperateRun(result string)
	SetErrorCount(errorCount int)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(string) {}
func (nopRecorder) RecordError(string, int) {}
func (nopRecorder) RecordCleared(string) {}
func (nopRecorder) RecordSubmitted(string) {}
func (nopRecorder) RecordOperateRun(string) {}
func (nopRecorder) SetErrorCount(int) {}
