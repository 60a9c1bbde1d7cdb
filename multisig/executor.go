package multisig

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/common"

	"github.com/saddle-finance/multisig-ops/operations"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// CallInput is the recorded input of one applied call.
type CallInput struct {
	Index int    `json:"index"`
	Step  string `json:"step"`
	From  string `json:"from"`
	Call  Call   `json:"call"`
}

type callDeps struct {
	backend CallBackend
	from    common.Address
}

var applyCallOp = operations.NewOperation(
	"multisig-apply-call",
	semver.MustParse("1.0.0"),
	"Apply one batch call as the multisig",
	func(b operations.Bundle, deps callDeps, input CallInput) (Receipt, error) {
		res, err := deps.backend.Apply(b.GetContext(), deps.from, input.Call)
		if err != nil {
			return Receipt{}, err
		}

		return Receipt{
			Index:      input.Index,
			Step:       input.Step,
			Call:       input.Call,
			ReturnData: res.ReturnData,
			TxHash:     res.TxHash,
			GasUsed:    res.GasUsed,
		}, nil
	},
)

// Executor runs steps in order, one call at a time, as the multisig.
type Executor struct {
	lggr     logger.Logger
	backend  CallBackend
	from     common.Address
	reporter operations.Reporter
}

// NewExecutor creates an executor applying calls through backend as from. Every applied call is
// recorded in reporter.
func NewExecutor(lggr logger.Logger, backend CallBackend, from common.Address, reporter operations.Reporter) *Executor {
	if reporter == nil {
		reporter = operations.NewMemoryReporter()
	}

	return &Executor{
		lggr:     lggr.Named("executor"),
		backend:  backend,
		from:     from,
		reporter: reporter,
	}
}

// Execute runs the steps sequentially and returns one receipt per issued call. Steps returning
// no call are skipped. The first failure stops the run and is returned as a
// *PartialExecutionError; nothing is retried.
func (e *Executor) Execute(ctx context.Context, steps []Step) ([]Receipt, error) {
	bundle := operations.NewBundle(func() context.Context { return ctx }, e.lggr, e.reporter)
	deps := callDeps{backend: e.backend, from: e.from}

	receipts := make([]Receipt, 0, len(steps))
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return receipts, e.partial(receipts, i, step, err)
		}

		call, err := step.Build(ctx)
		if err != nil {
			return receipts, e.partial(receipts, i, step, err)
		}
		if call == nil {
			e.lggr.Debugw("Step issued no call", "index", i, "step", step.Name())
			continue
		}

		report, err := operations.ExecuteOperation(bundle, applyCallOp, deps, CallInput{
			Index: len(receipts),
			Step:  step.Name(),
			From:  e.from.Hex(),
			Call:  *call,
		})
		if err != nil {
			return receipts, e.partial(receipts, i, step, err)
		}

		e.lggr.Infow("Call applied",
			"backend", e.backend.Name(), "index", report.Output.Index, "step", step.Name(), "to", call.To.Hex())
		receipts = append(receipts, report.Output)
	}

	return receipts, nil
}

func (e *Executor) partial(receipts []Receipt, index int, step Step, err error) error {
	e.lggr.Errorw("Step failed, aborting run",
		"backend", e.backend.Name(), "index", index, "step", step.Name(), "completed", len(receipts), "error", err)

	return &PartialExecutionError{
		Completed:   append([]Receipt(nil), receipts...),
		FailedIndex: index,
		Step:        step.Name(),
		Err:         err,
	}
}
