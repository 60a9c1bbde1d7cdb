package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saddle-finance/multisig-ops/actions"
	"github.com/saddle-finance/multisig-ops/config"
	"github.com/saddle-finance/multisig-ops/multisig"
	"github.com/saddle-finance/multisig-ops/pkg/commands/flags"
)

var (
	validateShort = "Validate a plan file without connecting to the network"

	validateLong = longDesc(`
		Checks the schema of a plan file, its addresses and amounts, and for a gauge vote that the
		weight table sums to the expected total. Nothing is read from the chain.
	`)

	validateExample = examples(`
		# Validate a gauge vote before running it
		multisig-ops validate --plan ./plans/gauges.yaml
	`)
)

func newValidateCmd(_ Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate",
		Short:   validateShort,
		Long:    validateLong,
		Example: validateExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.MustString(cmd.Flags().GetString("plan"))

			plan, err := config.LoadPlan(path)
			if err != nil {
				return err
			}
			if err = plan.Check(); err != nil {
				return err
			}

			return describePlan(cmd.OutOrStdout(), path, plan)
		},
	}

	flags.Plan(cmd)

	return cmd
}

// describePlan prints what a valid plan will do.
func describePlan(w io.Writer, path string, plan config.Plan) error {
	h := plan.PlanHeader()
	if _, err := fmt.Fprintf(w, "%s: valid %s plan for %s on %s at nonce %d\n",
		path, h.Kind, h.MultisigAddress().Hex(), h.Network, h.StartingNonce()); err != nil {
		return err
	}

	switch p := plan.(type) {
	case *config.RefundPlan:
		cfg, err := p.ActionConfig()
		if err != nil {
			return err
		}
		total, err := multisig.ValidateLedger(cfg.Recipients)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "  refund of %s tokens to %d recipients\n",
			actions.FormatUnits(total, cfg.Decimals), len(cfg.Recipients))

		return err
	case *config.GaugePlan:
		cfg, err := p.ActionConfig()
		if err != nil {
			return err
		}
		total, err := multisig.ValidateWeights(cfg.Weights, cfg.Band)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "  %d gauge weights summing to %d, %d vesting releases, %d transfers\n",
			len(cfg.Weights), total, len(cfg.Vesting), len(cfg.Transfers))

		return err
	default:
		return nil
	}
}
