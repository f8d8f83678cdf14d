package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// selectorLength is the size of the function selector prefixed to calldata.
const selectorLength = 4

// registrationArgs mirrors the argument layout of the registration calldata
// produced by the provisioning service.
var registrationArgs = mustRegistrationArgs()

func mustRegistrationArgs() abi.Arguments {
	bytesType := mustNewType("bytes", "", nil)
	uint64ArrayType := mustNewType("uint64[]", "", nil)
	uint256Type := mustNewType("uint256", "", nil)
	clusterType := mustNewType("tuple", "struct Cluster", []abi.ArgumentMarshaling{
		{Name: "validatorCount", Type: "uint32"},
		{Name: "networkFeeIndex", Type: "uint64"},
		{Name: "index", Type: "uint64"},
		{Name: "active", Type: "bool"},
		{Name: "balance", Type: "uint256"},
	})

	return abi.Arguments{
		{Name: "publicKey", Type: bytesType},
		{Name: "operatorIds", Type: uint64ArrayType},
		{Name: "sharesData", Type: bytesType},
		{Name: "amount", Type: uint256Type},
		{Name: "cluster", Type: clusterType},
	}
}

func mustNewType(t, internalType string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, internalType, components)
	if err != nil {
		panic(fmt.Sprintf("invalid abi type %s: %v", t, err))
	}
	return typ
}

// Registration is the decoded registerSsvValidator calldata.
type Registration struct {
	PublicKey   []byte
	OperatorIDs []uint64
	SharesData  []byte
	Amount      *big.Int
	Cluster     Cluster
}

// DecodeRegistration strips the selector from hex calldata and decodes the
// registerSsvValidator arguments.
func DecodeRegistration(calldata string) (*Registration, error) {
	raw, err := DecodeHex(calldata)
	if err != nil {
		return nil, fmt.Errorf("registration data is not hex: %w", err)
	}
	if len(raw) < selectorLength {
		return nil, fmt.Errorf("registration data too short: %d bytes", len(raw))
	}

	values, err := registrationArgs.Unpack(raw[selectorLength:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode registration data: %w", err)
	}
	if len(values) != len(registrationArgs) {
		return nil, fmt.Errorf("registration data decoded to %d values", len(values))
	}

	reg := &Registration{}
	var ok bool
	if reg.PublicKey, ok = values[0].([]byte); !ok {
		return nil, fmt.Errorf("unexpected publicKey type %T", values[0])
	}
	if reg.OperatorIDs, ok = values[1].([]uint64); !ok {
		return nil, fmt.Errorf("unexpected operatorIds type %T", values[1])
	}
	if reg.SharesData, ok = values[2].([]byte); !ok {
		return nil, fmt.Errorf("unexpected sharesData type %T", values[2])
	}
	if reg.Amount, ok = values[3].(*big.Int); !ok {
		return nil, fmt.Errorf("unexpected amount type %T", values[3])
	}
	cluster, ok := abi.ConvertType(values[4], new(Cluster)).(*Cluster)
	if !ok {
		return nil, fmt.Errorf("unexpected cluster type %T", values[4])
	}
	reg.Cluster = *cluster
	return reg, nil
}

// EncodeRegistration is the inverse of DecodeRegistration, prefixed with the
// registerSsvValidator selector.
func EncodeRegistration(reg *Registration) (string, error) {
	call := NewRegisterSsvValidatorCall(reg.PublicKey, reg.OperatorIDs, reg.SharesData, reg.Amount, reg.Cluster)
	data, err := call.Pack()
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(data), nil
}

// DecodeHex decodes a hex string with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// ParseHash parses a 32-byte transaction hash.
func ParseHash(s string) (ethcommon.Hash, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return ethcommon.Hash{}, err
	}
	if len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("hash must be %d bytes, got %d", ethcommon.HashLength, len(b))
	}
	return ethcommon.BytesToHash(b), nil
}
