/*
Package operations records every call issued while building a multisig batch.

An Operation wraps a handler with a versioned Definition. ExecuteOperation runs it exactly once,
turns the result into a Report (uuid, definition, input, output, error, timestamp) and hands the
report to the Bundle's Reporter. Handlers are never retried: a failed call is reported and the
error is returned unchanged.

Reporters:
  - MemoryReporter keeps reports for the lifetime of a run.
  - FileReporter appends each report as a JSON line to an audit file next to the proposal.

# Basic Usage

	op := operations.NewOperation("transfer", semver.MustParse("1.0.0"), "ERC20 transfer", handler)

	bundle := operations.NewBundle(ctx, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input)
*/
package operations
