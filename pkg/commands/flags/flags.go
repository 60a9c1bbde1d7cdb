// Package flags provides the flag helpers shared by the multisig-ops commands.
//
// Only flags used by more than one command live here, so that names and behavior stay the same
// across the CLI. Command specific flags are defined in the command file.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustBool returns the bool value, ignoring the error.
// Safe to use with registered flags where GetBool cannot fail.
func MustBool(b bool, _ error) bool { return b }

// Plan adds the required --plan/-p flag pointing to the plan file of an action.
// Also accepts the --file alias.
//
// Usage:
//
//	flags.Plan(cmd)
//	// later in RunE:
//	path, _ := cmd.Flags().GetString("plan")
func Plan(cmd *cobra.Command) {
	cmd.Flags().StringP("plan", "p", "", "Path to the plan file (required)")
	_ = cmd.MarkFlagRequired("plan")

	alias(cmd, "file", "plan")
}

// Fork adds the --fork and --fork-url flags. With --fork the batch is applied on an anvil fork
// instead of being simulated with eth_call.
//
// Usage:
//
//	flags.Fork(cmd)
//	// later in RunE:
//	useFork, _ := cmd.Flags().GetBool("fork")
//	url, _ := cmd.Flags().GetString("fork-url")
func Fork(cmd *cobra.Command) {
	cmd.Flags().Bool("fork", false, "Apply the batch on an anvil fork so later steps see earlier effects")
	cmd.Flags().String("fork-url", "", "Fork RPC URL, overrides fork_url from the config")
}

// alias normalizes the flag name from to the flag name to, keeping any normalizer already set.
func alias(cmd *cobra.Command, from, to string) {
	existingNormalize := cmd.Flags().GetNormalizeFunc()
	cmd.Flags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == from {
			return pflag.NormalizedName(to)
		}
		if existingNormalize != nil {
			return existingNormalize(f, name)
		}

		return pflag.NormalizedName(name)
	})
}
