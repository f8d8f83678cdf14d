package main

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pushchain/validator-spawner/spawner/chains/evm"
)

// Registration defaults match the cluster snapshot used on the goerli test deployment.
const (
	defaultRegistrationAmount  = "2000000000000000000"
	defaultClusterBalance      = "5997482766900000000"
	defaultClusterValidators   = 3
	defaultClusterNetworkIndex = 63383020962
	defaultClusterIndex        = 61133914500
)

var defaultOperatorIDs = []string{"192", "195", "200", "201"}

func registerValidatorCmd() *cobra.Command {
	var (
		payload        string
		pubkey         string
		shares         string
		operatorIDs    []string
		amount         string
		clusterCount   uint32
		clusterFee     uint64
		clusterIndex   uint64
		clusterActive  bool
		clusterBalance string
		noWait         bool
	)

	cmd := &cobra.Command{
		Use:   "register-validator",
		Short: "Submit NodeDelegator.registerSsvValidator directly",
		Long: `Submits a single registerSsvValidator call outside the spawn sequence.
With --payload the operator ids, amount and cluster are decoded from the
provisioning service's registration calldata; otherwise they come from flags.
The public key and shares are always taken from --pubkey and --shares.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := evm.DecodeHex(pubkey)
			if err != nil || len(pk) == 0 {
				return fmt.Errorf("invalid --pubkey %q", pubkey)
			}
			sd, err := evm.DecodeHex(shares)
			if err != nil || len(sd) == 0 {
				return fmt.Errorf("invalid --shares")
			}

			var reg *evm.Registration
			if payload != "" {
				reg, err = evm.DecodeRegistration(payload)
				if err != nil {
					return err
				}
			} else {
				reg, err = registrationFromFlags(operatorIDs, amount, evm.Cluster{
					ValidatorCount:  clusterCount,
					NetworkFeeIndex: clusterFee,
					Index:           clusterIndex,
					Active:          clusterActive,
				}, clusterBalance)
				if err != nil {
					return err
				}
			}

			call := evm.NewRegisterSsvValidatorCall(pk, reg.OperatorIDs, sd, reg.Amount, reg.Cluster)
			return submitCall(cmd, call, noWait)
		},
	}

	cmd.Flags().StringVar(&payload, "payload", "", "Registration calldata from the provisioning service (hex)")
	cmd.Flags().StringVar(&pubkey, "pubkey", "", "Validator public key (hex)")
	cmd.Flags().StringVar(&shares, "shares", "", "Encrypted key shares (hex)")
	cmd.Flags().StringSliceVar(&operatorIDs, "operator-ids", defaultOperatorIDs, "SSV operator ids")
	cmd.Flags().StringVar(&amount, "amount", defaultRegistrationAmount, "SSV amount in wei")
	cmd.Flags().Uint32Var(&clusterCount, "cluster-validator-count", defaultClusterValidators, "Cluster validator count")
	cmd.Flags().Uint64Var(&clusterFee, "cluster-network-fee-index", defaultClusterNetworkIndex, "Cluster network fee index")
	cmd.Flags().Uint64Var(&clusterIndex, "cluster-index", defaultClusterIndex, "Cluster index")
	cmd.Flags().BoolVar(&clusterActive, "cluster-active", true, "Cluster active flag")
	cmd.Flags().StringVar(&clusterBalance, "cluster-balance", defaultClusterBalance, "Cluster balance in wei")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after broadcasting without waiting for confirmation")
	cmd.MarkFlagRequired("pubkey")
	cmd.MarkFlagRequired("shares")

	return cmd
}

func stakeEthCmd() *cobra.Command {
	var (
		pubkey    string
		signature string
		root      string
		noWait    bool
	)

	cmd := &cobra.Command{
		Use:   "stake-eth",
		Short: "Submit NodeDelegator.stakeEth for one validator directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			stake, err := evm.ParseValidatorStake(pubkey, signature, root)
			if err != nil {
				return err
			}
			return submitCall(cmd, evm.NewStakeEthCall(stake), noWait)
		},
	}

	cmd.Flags().StringVar(&pubkey, "pubkey", "", "Validator public key (hex)")
	cmd.Flags().StringVar(&signature, "signature", "", "Deposit signature (hex)")
	cmd.Flags().StringVar(&root, "deposit-data-root", "", "Deposit data root (hex, 32 bytes)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after broadcasting without waiting for confirmation")
	cmd.MarkFlagRequired("pubkey")
	cmd.MarkFlagRequired("signature")
	cmd.MarkFlagRequired("deposit-data-root")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the stake available to the NodeDelegator (ETH + WETH)",
		RunE: func(cmd *cobra.Command, args []string) error {
			node, _, err := loadNode(cmd)
			if err != nil {
				return err
			}
			defer node.Close()

			owner, err := node.NodeDelegator()
			if err != nil {
				return err
			}
			checker, err := node.StakeChecker()
			if err != nil {
				return err
			}

			available, err := checker.AvailableStake(cmd.Context(), owner)
			if err != nil {
				return err
			}
			unit := evm.StakeUnit()
			fmt.Fprintf(cmd.OutOrStdout(), "owner:      %s\n", owner.Hex())
			fmt.Fprintf(cmd.OutOrStdout(), "available:  %s ETH\n", evm.FormatEther(available))
			fmt.Fprintf(cmd.OutOrStdout(), "required:   %s ETH\n", evm.FormatEther(unit))
			fmt.Fprintf(cmd.OutOrStdout(), "sufficient: %t\n", available.Cmp(unit) >= 0)
			return nil
		},
	}
}

func submitCall(cmd *cobra.Command, call evm.Call, noWait bool) error {
	node, log, err := loadNode(cmd)
	if err != nil {
		return err
	}
	defer node.Close()

	tx, err := node.Transactor()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	hash, err := tx.Submit(ctx, call)
	if err != nil {
		return err
	}
	node.Metrics().RecordSubmitted(call.Method)
	fmt.Fprintf(cmd.OutOrStdout(), "%s submitted from %s: %s\n", call.Method, tx.From().Hex(), hash.Hex())
	if noWait {
		return nil
	}

	receipt, err := tx.WaitForConfirmation(ctx, hash)
	if err != nil {
		return err
	}
	log.Info().Str("tx_hash", hash.Hex()).Str("method", call.Method).Msg("transaction confirmed")
	fmt.Fprintf(cmd.OutOrStdout(), "confirmed in block %s\n", receipt.BlockNumber)
	return nil
}

func registrationFromFlags(operatorIDs []string, amount string, cluster evm.Cluster, clusterBalance string) (*evm.Registration, error) {
	ids := make([]uint64, 0, len(operatorIDs))
	for _, raw := range operatorIDs {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid operator id %q", raw)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one operator id is required")
	}

	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok || amt.Sign() < 0 {
		return nil, fmt.Errorf("invalid --amount %q", amount)
	}
	balance, ok := new(big.Int).SetString(clusterBalance, 10)
	if !ok || balance.Sign() < 0 {
		return nil, fmt.Errorf("invalid --cluster-balance %q", clusterBalance)
	}
	cluster.Balance = balance

	return &evm.Registration{
		OperatorIDs: ids,
		Amount:      amt,
		Cluster:     cluster,
	}, nil
}
