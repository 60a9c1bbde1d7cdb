package commands

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/spf13/cobra"

	"github.com/saddle-finance/multisig-ops/config"
	"github.com/saddle-finance/multisig-ops/multisig"
	"github.com/saddle-finance/multisig-ops/operations"
	"github.com/saddle-finance/multisig-ops/pkg/commands/flags"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// actionFlags are the flags shared by the action commands.
type actionFlags struct {
	planPath string
	fork     bool
	forkURL  string
}

func readActionFlags(cmd *cobra.Command) actionFlags {
	return actionFlags{
		planPath: flags.MustString(cmd.Flags().GetString("plan")),
		fork:     flags.MustBool(cmd.Flags().GetBool("fork")),
		forkURL:  flags.MustString(cmd.Flags().GetString("fork-url")),
	}
}

// actionFactory builds the action reading chain state through caller.
type actionFactory func(lggr logger.Logger, caller bind.ContractCaller) multisig.Action

// runAction connects to the network of the plan and drives a session for the action.
func runAction(cmd *cobra.Command, cfg Config, f actionFlags, header config.Header, newAction actionFactory) error {
	ctx := cmd.Context()

	lggr, err := cfg.logger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = lggr.Sync() }()

	opCfg, err := cfg.Deps.ConfigLoader(mustFlag(cmd, "config"))
	if err != nil {
		return err
	}
	if err = opCfg.Validate(); err != nil {
		return fmt.Errorf("invalid operator config: %w", err)
	}

	selector, err := header.ChainSelector()
	if err != nil {
		return fmt.Errorf("%w: %w", multisig.ErrInvalidPayload, err)
	}

	chain, err := cfg.Deps.ChainLoader(ctx, lggr, selector, opCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", header.Network, err)
	}
	operator := "unknown"
	if chain.OperatorKey != nil {
		operator = chain.OperatorKey.From.Hex()
	}
	lggr.Infow("Connected", "network", chain.String(), "operator", operator)

	var (
		reader  bind.ContractCaller   = chain.Client
		backend multisig.CallBackend = multisig.NewDryRunBackend(chain.Client)
	)
	if f.fork {
		url := f.forkURL
		if url == "" {
			url = opCfg.ForkURL
		}
		if url == "" {
			return errors.New("--fork needs a fork url: set --fork-url or fork_url in the config")
		}

		fk, ferr := cfg.Deps.ForkLoader(ctx, lggr, selector, url)
		if ferr != nil {
			return ferr
		}
		// Reads go to the fork so that checks see the calls already applied.
		reader, backend = fk.Reader, multisig.NewForkBackend(fk.Executor)
		lggr.Infow("Using fork", "url", url)
	}

	action := newAction(lggr, reader)
	submitter := multisig.NewDirSubmitter(lggr, opCfg.ArtifactsDir)
	reporter, err := operations.NewFileReporter(submitter.ReportPath(multisig.Submission{
		Network: chain.Name(),
		Action:  action.Name(),
		Nonce:   header.StartingNonce(),
	}))
	if err != nil {
		return err
	}

	session, err := multisig.NewSession(multisig.SessionConfig{
		Logger:          lggr,
		Network:         chain.Name(),
		ChainSelector:   selector,
		MultisigAddress: header.MultisigAddress(),
		Nonce:           header.StartingNonce(),
		Backend:         backend,
		Nonces: multisig.NewNonceGuard(
			selector, header.MultisigAddress(), cfg.Deps.Inspector(chain.Client), submitter,
		),
		Signer:    multisig.NewSigner(chain.SignHash),
		Confirmer: cfg.Deps.Confirmer(cmd.InOrStdin(), cmd.OutOrStdout()),
		Submitter: submitter,
		Reporter:  reporter,
		Colored:   cfg.Deps.IsTerminal(cmd.OutOrStdout()),
	})
	if err != nil {
		return err
	}

	res, err := session.Run(ctx, action)
	if err != nil {
		if failed, cerr := operations.CountFailed(reporter); cerr == nil && failed > 0 {
			lggr.Errorw("Run aborted with failed calls", "failed", failed, "report", reporter.Path())
		}

		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nBatch handed to co-signers: %s\nAudit report: %s\n", res.Path, reporter.Path())

	return err
}
