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
	gaugesShort = "Set gauge weights on the gauge controller"

	gaugesLong = longDesc(`
		Releases the vesting contracts of the plan, makes the plan transfers, then sets the weight
		of every gauge whose on-chain weight differs from the plan.

		The weight table must sum to 10000 within the tolerance of the plan, and the total weight
		of the controller is checked against the same band once every weight is set. Run with
		--fork to check the total against the state the batch produces.
	`)

	gaugesExample = examples(`
		# Simulate the weight vote
		multisig-ops gauges --plan ./plans/gauges.yaml

		# Apply the vote on the fork configured in fork_url
		multisig-ops gauges --plan ./plans/gauges.yaml --fork
	`)
)

func newGaugesCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gauges",
		Short:   gaugesShort,
		Long:    gaugesLong,
		Example: gaugesExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := readActionFlags(cmd)

			plan, err := config.LoadGaugePlan(f.planPath)
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
				return actions.NewGaugeVote(lggr, caller, actionCfg)
			})
		},
	}

	flags.Plan(cmd)
	flags.Fork(cmd)

	return cmd
}
