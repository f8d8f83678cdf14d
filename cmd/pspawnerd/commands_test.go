package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/validator-spawner/spawner/chains/evm"
	"github.com/pushchain/validator-spawner/spawner/config"
	"github.com/pushchain/validator-spawner/spawner/constant"
	"github.com/pushchain/validator-spawner/spawner/progress"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitCmd(t *testing.T) {
	home := t.TempDir()

	out, err := runCmd(t, "init", "--home", home, "--network", "goerli")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, constant.ConfigSubdir, constant.ConfigFileName))

	cfg, err := config.Load(home)
	require.NoError(t, err)
	assert.Equal(t, "goerli", cfg.Network)
	assert.Equal(t, home, cfg.NodeHome)

	_, err = runCmd(t, "init", "--home", home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runCmd(t, "init", "--home", home, "--force")
	require.NoError(t, err)
}

func TestStatusAndResetCmd(t *testing.T) {
	home := t.TempDir()
	_, err := runCmd(t, "init", "--home", home)
	require.NoError(t, err)

	out, err := runCmd(t, "status", "--home", home, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"in_progress": false`)
	assert.Contains(t, out, `"state": "absent"`)

	out, err = runCmd(t, "reset", "--home", home)
	require.NoError(t, err)
	assert.Contains(t, out, "no spawn in progress")

	out, err = runCmd(t, "history", "--home", home, "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestOperateCmd_RequiresEigenPod(t *testing.T) {
	home := t.TempDir()
	_, err := runCmd(t, "init", "--home", home)
	require.NoError(t, err)

	out, err := runCmd(t, "operate", "--home", home)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eigen_pod_address is not configured")
	assert.Contains(t, out, "outcome: failed")
}

func TestNewStatusOutput(t *testing.T) {
	rec := &progress.Record{
		RequestID:  "req-1",
		State:      progress.StateRegisterTransactionBroadcast,
		ErrorCount: 2,
		Metadata: progress.Metadata{
			DepositData:             &progress.DepositData{Pubkey: "0xb6"},
			ValidatorRegistrationTx: "0xabc",
		},
	}

	out := newStatusOutput(rec)
	assert.True(t, out.InProgress)
	assert.Equal(t, "register_transaction_broadcast", out.State)
	assert.Equal(t, 2, out.ErrorCount)
	assert.Equal(t, "0xb6", out.ValidatorPubkey)
	assert.Equal(t, "0xabc", out.ValidatorRegistrationTx)

	var buf bytes.Buffer
	require.NoError(t, printOutput(&buf, out, OutputFormatYAML))
	assert.Contains(t, buf.String(), "request_id: req-1")

	assert.Error(t, printOutput(&buf, out, "xml"))
}

func TestRegistrationFromFlags(t *testing.T) {
	reg, err := registrationFromFlags(defaultOperatorIDs, defaultRegistrationAmount, testCluster(), defaultClusterBalance)
	require.NoError(t, err)
	assert.Equal(t, []uint64{192, 195, 200, 201}, reg.OperatorIDs)
	assert.Equal(t, defaultRegistrationAmount, reg.Amount.String())
	assert.Equal(t, defaultClusterBalance, reg.Cluster.Balance.String())

	_, err = registrationFromFlags([]string{"x"}, "1", testCluster(), "1")
	assert.Error(t, err)
	_, err = registrationFromFlags(nil, "1", testCluster(), "1")
	assert.Error(t, err)
	_, err = registrationFromFlags([]string{"1"}, "-1", testCluster(), "1")
	assert.Error(t, err)
	_, err = registrationFromFlags([]string{"1"}, "1", testCluster(), "abc")
	assert.Error(t, err)
}

func testCluster() evm.Cluster {
	return evm.Cluster{
		ValidatorCount:  defaultClusterValidators,
		NetworkFeeIndex: defaultClusterNetworkIndex,
		Index:           defaultClusterIndex,
		Active:          true,
	}
}
