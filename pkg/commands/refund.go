package commands

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/spf13/cobra"

	"github.com/saddle-finance/multisig-ops/actions"
	"github.com/saddle-finance/multisig-ops/config"
	"github.com/saddle-finance/multisig-ops/multisig"
	"github.com/saddle-finance/multisig-ops/pkg/commands/flags"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

var (
	refundShort = "Refund a ledger of recipients from the multisig"

	refundLong = longDesc(`
		Transfers the token amount of every ledger entry from the multisig to its recipient.

		The ledger is checked before any call: every address must be valid and unique and every
		amount positive. The multisig balance must cover the total.
	`)

	refundExample = examples(`
		# Simulate the refund, then sign and hand it to co-signers
		multisig-ops refund --plan ./plans/refund.yaml

		# Apply the transfers on an anvil fork first
		multisig-ops refund --plan ./plans/refund.yaml --fork --fork-url http://127.0.0.1:8545
	`)
)

func newRefundCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refund",
		Short:   refundShort,
		Long:    refundLong,
		Example: refundExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := readActionFlags(cmd)

			plan, err := config.LoadRefundPlan(f.planPath)
			if err != nil {
				return err
			}
			if err = plan.Check(); err != nil {
				return err
			}
			actionCfg, err := plan.ActionConfig()
			if err != nil {
				return err
			}

			return runAction(cmd, cfg, f, plan.Header, func(lggr logger.Logger, caller bind.ContractCaller) multisig.Action {
				return actions.NewRefund(lggr, caller, actionCfg)
			})
		},
	}

	flags.Plan(cmd)
	flags.Fork(cmd)

	return cmd
}
