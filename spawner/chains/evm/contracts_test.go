package evm

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRegistration() *Registration {
	balance, _ := new(big.Int).SetString("5997482766900000000", 10)
	return &Registration{
		PublicKey:   bytes.Repeat([]byte{0xb6}, 48),
		OperatorIDs: []uint64{192, 195, 200, 201},
		SharesData:  bytes.Repeat([]byte{0x86}, 200),
		Amount:      big.NewInt(2_000_000_000_000_000_000),
		Cluster: Cluster{
			ValidatorCount:  3,
			NetworkFeeIndex: 63383020962,
			Index:           61133914500,
			Active:          true,
			Balance:         balance,
		},
	}
}

func TestSelectors(t *testing.T) {
	register := crypto.Keccak256([]byte("registerSsvValidator(bytes,uint64[],bytes,uint256,(uint32,uint64,uint64,bool,uint256))"))[:4]
	assert.Equal(t, register, nodeDelegatorABI.Methods[MethodRegisterSsvValidator].ID)

	stake := crypto.Keccak256([]byte("stakeEth((bytes,bytes,bytes32)[])"))[:4]
	assert.Equal(t, stake, nodeDelegatorABI.Methods[MethodStakeEth].ID)

	balanceOf := crypto.Keccak256([]byte("balanceOf(address)"))[:4]
	assert.Equal(t, balanceOf, erc20ABI.Methods["balanceOf"].ID)
}

func TestDecodeRegistration_RoundTrip(t *testing.T) {
	want := sampleRegistration()

	calldata, err := EncodeRegistration(want)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(calldata, "0x"))

	got, err := DecodeRegistration(calldata)
	require.NoError(t, err)
	assert.Equal(t, want.PublicKey, got.PublicKey)
	assert.Equal(t, want.OperatorIDs, got.OperatorIDs)
	assert.Equal(t, want.SharesData, got.SharesData)
	assert.Equal(t, 0, want.Amount.Cmp(got.Amount))
	assert.Equal(t, want.Cluster.ValidatorCount, got.Cluster.ValidatorCount)
	assert.Equal(t, want.Cluster.NetworkFeeIndex, got.Cluster.NetworkFeeIndex)
	assert.Equal(t, want.Cluster.Index, got.Cluster.Index)
	assert.True(t, got.Cluster.Active)
	assert.Equal(t, 0, want.Cluster.Balance.Cmp(got.Cluster.Balance))
}

func TestDecodeRegistration_IgnoresSelectorValue(t *testing.T) {
	calldata, err := EncodeRegistration(sampleRegistration())
	require.NoError(t, err)

	// Any 4-byte prefix is stripped.
	altered := "0xdeadbeef" + calldata[10:]
	got, err := DecodeRegistration(altered)
	require.NoError(t, err)
	assert.Equal(t, []uint64{192, 195, 200, 201}, got.OperatorIDs)
}

func TestDecodeRegistration_Errors(t *testing.T) {
	_, err := DecodeRegistration("0xzz")
	assert.ErrorContains(t, err, "not hex")

	_, err = DecodeRegistration("0x0102")
	assert.ErrorContains(t, err, "too short")

	_, err = DecodeRegistration("0x01020304" + strings.Repeat("00", 31))
	assert.ErrorContains(t, err, "failed to decode registration data")
}

func TestParseValidatorStake(t *testing.T) {
	root := "0x571c988682ab057d4d81fc914a3ae52179f731b821608e68305916b40ded2e3d"
	stake, err := ParseValidatorStake("0xb61d", "0xb363", root)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xb6, 0x1d}, stake.Pubkey)
	assert.Equal(t, []byte{0xb3, 0x63}, stake.Signature)
	assert.Equal(t, "571c988682ab057d4d81fc914a3ae52179f731b821608e68305916b40ded2e3d", hex.EncodeToString(stake.DepositDataRoot[:]))

	_, err = ParseValidatorStake("", "0xb363", root)
	assert.ErrorContains(t, err, "invalid pubkey")
	_, err = ParseValidatorStake("0xb61d", "nothex", root)
	assert.ErrorContains(t, err, "invalid signature")
	_, err = ParseValidatorStake("0xb61d", "0xb363", "0x1234")
	assert.ErrorContains(t, err, "invalid deposit data root")
}

func TestStakeEthCall_Pack(t *testing.T) {
	stake, err := ParseValidatorStake("0xaa", "0xbb", "0x"+strings.Repeat("cc", 32))
	require.NoError(t, err)

	data, err := NewStakeEthCall(stake).Pack()
	require.NoError(t, err)
	assert.Equal(t, nodeDelegatorABI.Methods[MethodStakeEth].ID, data[:4])

	values, err := nodeDelegatorABI.Methods[MethodStakeEth].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, values, 1)
}

func TestCall_PackRejectsBadArgs(t *testing.T) {
	_, err := Call{Method: MethodStakeEth, Args: []interface{}{"not a slice"}}.Pack()
	assert.ErrorContains(t, err, "failed to encode stakeEth")

	_, err = Call{Method: "unknownMethod"}.Pack()
	assert.Error(t, err)
}

func TestParseHash(t *testing.T) {
	want := ethcommon.HexToHash("0xabc123")

	got, err := ParseHash(want.Hex())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseHash(strings.TrimPrefix(want.Hex(), "0x"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseHash("0x1234")
	assert.Error(t, err)

	_, err = ParseHash("0xzz")
	assert.Error(t, err)
}

func TestMustNewType(t *testing.T) {
	assert.Equal(t, "uint64[]", mustNewType("uint64[]", "", nil).String())
	assert.Panics(t, func() { mustNewType("notatype", "", nil) })
	assert.Panics(t, func() { mustNewType("tuple", "struct Bad", []abi.ArgumentMarshaling{{Name: "x", Type: "notatype"}}) })
}
