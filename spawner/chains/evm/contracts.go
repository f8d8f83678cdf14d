package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Contract methods the spawner calls on the NodeDelegator.
const (
	MethodRegisterSsvValidator = "registerSsvValidator"
	MethodStakeEth             = "stakeEth"
)

const nodeDelegatorABIJSON = `[
  {
    "type": "function",
    "name": "registerSsvValidator",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "publicKey", "type": "bytes"},
      {"name": "operatorIds", "type": "uint64[]"},
      {"name": "sharesData", "type": "bytes"},
      {"name": "amount", "type": "uint256"},
      {
        "name": "cluster",
        "type": "tuple",
        "internalType": "struct Cluster",
        "components": [
          {"name": "validatorCount", "type": "uint32"},
          {"name": "networkFeeIndex", "type": "uint64"},
          {"name": "index", "type": "uint64"},
          {"name": "active", "type": "bool"},
          {"name": "balance", "type": "uint256"}
        ]
      }
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "stakeEth",
    "stateMutability": "nonpayable",
    "inputs": [
      {
        "name": "validators",
        "type": "tuple[]",
        "internalType": "struct ValidatorStakeData[]",
        "components": [
          {"name": "pubkey", "type": "bytes"},
          {"name": "signature", "type": "bytes"},
          {"name": "depositDataRoot", "type": "bytes32"}
        ]
      }
    ],
    "outputs": []
  }
]`

const erc20ABIJSON = `[
  {
    "type": "function",
    "name": "balanceOf",
    "stateMutability": "view",
    "inputs": [{"name": "account", "type": "address"}],
    "outputs": [{"name": "", "type": "uint256"}]
  }
]`

var (
	nodeDelegatorABI = mustParseABI(nodeDelegatorABIJSON)
	erc20ABI         = mustParseABI(erc20ABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid contract ABI: %v", err))
	}
	return parsed
}

// Cluster is the SSV cluster snapshot passed along with a validator registration.
type Cluster struct {
	ValidatorCount  uint32
	NetworkFeeIndex uint64
	Index           uint64
	Active          bool
	Balance         *big.Int
}

// ValidatorStake is one entry of a stakeEth call.
type ValidatorStake struct {
	Pubkey          []byte
	Signature       []byte
	DepositDataRoot [32]byte
}

// Call describes a NodeDelegator method invocation.
type Call struct {
	Method string
	Args   []interface{}
}

// Pack ABI-encodes the call including its selector.
func (c Call) Pack() ([]byte, error) {
	data, err := nodeDelegatorABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.Method, err)
	}
	return data, nil
}

// NewRegisterSsvValidatorCall builds registerSsvValidator(publicKey, operatorIds, sharesData, amount, cluster).
func NewRegisterSsvValidatorCall(publicKey []byte, operatorIDs []uint64, sharesData []byte, amount *big.Int, cluster Cluster) Call {
	return Call{
		Method: MethodRegisterSsvValidator,
		Args:   []interface{}{publicKey, operatorIDs, sharesData, amount, cluster},
	}
}

// NewStakeEthCall builds stakeEth([(pubkey, signature, depositDataRoot), ...]).
func NewStakeEthCall(stakes ...ValidatorStake) Call {
	return Call{
		Method: MethodStakeEth,
		Args:   []interface{}{stakes},
	}
}

// ParseValidatorStake converts hex deposit material into a stakeEth entry.
func ParseValidatorStake(pubkey, signature, depositDataRoot string) (ValidatorStake, error) {
	var stake ValidatorStake

	pk, err := DecodeHex(pubkey)
	if err != nil || len(pk) == 0 {
		return stake, fmt.Errorf("invalid pubkey %q", pubkey)
	}
	sig, err := DecodeHex(signature)
	if err != nil || len(sig) == 0 {
		return stake, fmt.Errorf("invalid signature %q", signature)
	}
	root, err := DecodeHex(depositDataRoot)
	if err != nil || len(root) != 32 {
		return stake, fmt.Errorf("invalid deposit data root %q", depositDataRoot)
	}

	stake.Pubkey = pk
	stake.Signature = sig
	copy(stake.DepositDataRoot[:], root)
	return stake, nil
}

// balanceOfCallData encodes ERC20.balanceOf(owner).
func balanceOfCallData(owner ethcommon.Address) ([]byte, error) {
	return erc20ABI.Pack("balanceOf", owner)
}

func unpackBalanceOf(out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf returned %d values", len(values))
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned %T", values[0])
	}
	return balance, nil
}
