// Package commands provides the multisig-ops CLI.
//
// The root command carries the operator configuration and the log level, and every governance
// action is a subcommand reading its vote data from a plan file:
//
//	multisig-ops refund --plan refund.yaml
//	multisig-ops gauges --plan gauges.yaml --fork
//	multisig-ops validate --plan gauges.yaml
//
// Dependencies can be injected for testing:
//
//	cmd := commands.NewCommand(commands.Config{
//	    Logger: lggr,
//	    Deps:   &commands.Deps{ChainLoader: myLoader},
//	})
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// DefaultConfigPath is the operator configuration read when --config is not given. A missing
// file is not an error: the configuration then comes from the environment.
const DefaultConfigPath = "multisig-ops.yaml"

// Config holds the configuration of the CLI.
type Config struct {
	// Optional: Logger is used for every run instead of the logger built from --log-level.
	Logger logger.Logger
	// Optional: Deps are the injectable dependencies. Nil values use production defaults.
	Deps *Deps
}

// deps applies the production defaults to the dependencies.
func (c *Config) deps() {
	if c.Deps == nil {
		c.Deps = &Deps{}
	}
	c.Deps.applyDefaults()
}

// logger returns the injected logger or builds one for the --log-level of cmd.
func (c Config) logger(cmd *cobra.Command) (logger.Logger, error) {
	if c.Logger != nil {
		return c.Logger, nil
	}

	level, err := zapcore.ParseLevel(mustFlag(cmd, "log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}

	return c.Deps.Logger(level)
}

var rootLong = longDesc(`
	Prepares governance batches for the protocol multisig.

	Every action validates its plan, applies each call as the multisig, either simulated with
	eth_call or on an anvil fork, checks the resulting state, then assembles a batch at the next
	free nonce, signs it with the operator key and, once approved, hands it to co-signers.
`)

// NewCommand creates the root command with all subcommands.
func NewCommand(cfg Config) *cobra.Command {
	cfg.deps()

	cmd := &cobra.Command{
		Use:           "multisig-ops",
		Short:         "Multisig governance operations",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", DefaultConfigPath, "Operator configuration file")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRefundCmd(cfg),
		newGaugesCmd(cfg),
		newValidateCmd(cfg),
	)

	return cmd
}

// mustFlag reads a string flag registered on cmd or one of its parents.
func mustFlag(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f.Value.String()
	}

	return ""
}
