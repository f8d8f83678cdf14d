package evm

import (
	"context"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	spawnerrors "github.com/pushchain/validator-spawner/spawner/errors"
)

const weiDecimals = 18

// StakeUnit is the deposit required to activate one validator, 32 ETH in wei.
func StakeUnit() *big.Int {
	return sdkmath.NewInt(32).Mul(sdkmath.NewIntWithDecimal(1, weiDecimals)).BigInt()
}

// FormatEther renders a wei amount as a decimal ETH string.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return sdkmath.LegacyNewDecFromBigIntWithPrec(wei, weiDecimals).String()
}

// StakeChecker reports the ETH available for staking at an address: its
// native balance plus its WETH balance.
type StakeChecker struct {
	rpc    *RPCClient
	weth   ethcommon.Address
	logger zerolog.Logger
}

func NewStakeChecker(rpc *RPCClient, weth ethcommon.Address, logger zerolog.Logger) *StakeChecker {
	return &StakeChecker{
		rpc:    rpc,
		weth:   weth,
		logger: logger.With().Str("component", "stake_checker").Logger(),
	}
}

// AvailableStake returns native + WETH balance of owner in wei.
func (sc *StakeChecker) AvailableStake(ctx context.Context, owner ethcommon.Address) (*big.Int, error) {
	native, err := sc.rpc.GetBalance(ctx, owner)
	if err != nil {
		return nil, spawnerrors.NewRPCError("failed to fetch ETH balance", err)
	}

	data, err := balanceOfCallData(owner)
	if err != nil {
		return nil, spawnerrors.NewInternalError("failed to encode balanceOf", err)
	}
	weth := sc.weth
	out, err := sc.rpc.CallContract(ctx, ethereum.CallMsg{To: &weth, Data: data})
	if err != nil {
		return nil, spawnerrors.NewRPCError("failed to fetch WETH balance", err)
	}
	wrapped, err := unpackBalanceOf(out)
	if err != nil {
		return nil, spawnerrors.NewRPCError("failed to decode WETH balance", err)
	}

	total := sdkmath.NewIntFromBigInt(native).Add(sdkmath.NewIntFromBigInt(wrapped))

	sc.logger.Debug().
		Str("owner", owner.Hex()).
		Str("eth", FormatEther(native)).
		Str("weth", FormatEther(wrapped)).
		Str("total", FormatEther(total.BigInt())).
		Msg("fetched available stake")
	return total.BigInt(), nil
}
