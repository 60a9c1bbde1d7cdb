package multisig

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/saddle-finance/multisig-ops/chain/evm/fork"
	"github.com/saddle-finance/multisig-ops/chain/evm/provider"
)

// CallResult is what a backend reports for one applied call.
type CallResult struct {
	ReturnData []byte
	TxHash     *common.Hash
	GasUsed    uint64
}

// CallBackend applies a single call as the multisig.
type CallBackend interface {
	Name() string
	// Mutates reports whether applied calls are visible to later reads.
	Mutates() bool
	Apply(ctx context.Context, from common.Address, call Call) (CallResult, error)
}

// ContractCaller is the eth_call subset of a chain client.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

var (
	_ CallBackend = (*DryRunBackend)(nil)
	_ CallBackend = (*ForkBackend)(nil)
)

// DryRunBackend simulates every call with eth_call against the latest block, with the multisig
// as sender. Nothing is written on-chain, so calls do not observe each other's effects.
type DryRunBackend struct {
	caller ContractCaller
}

func NewDryRunBackend(caller ContractCaller) *DryRunBackend {
	return &DryRunBackend{caller: caller}
}

func (*DryRunBackend) Name() string { return "dry-run" }

func (*DryRunBackend) Mutates() bool { return false }

func (b *DryRunBackend) Apply(ctx context.Context, from common.Address, call Call) (CallResult, error) {
	to := call.To
	out, err := b.caller.CallContract(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Data:  call.Data,
		Value: call.ValueOrZero(),
	}, nil)
	if err != nil {
		return CallResult{}, revertError(err)
	}

	return CallResult{ReturnData: out}, nil
}

// ForkExecutor applies a call on a forked node as an impersonated sender.
type ForkExecutor interface {
	Execute(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (*fork.Receipt, error)
}

// ForkBackend applies every call on an anvil fork, so later steps and post-conditions read the
// state the batch will produce.
type ForkBackend struct {
	client ForkExecutor
}

func NewForkBackend(client ForkExecutor) *ForkBackend {
	return &ForkBackend{client: client}
}

func (*ForkBackend) Name() string { return "fork" }

func (*ForkBackend) Mutates() bool { return true }

func (b *ForkBackend) Apply(ctx context.Context, from common.Address, call Call) (CallResult, error) {
	receipt, err := b.client.Execute(ctx, from, call.To, call.Data, call.ValueOrZero())
	if err != nil {
		if errors.Is(err, fork.ErrReverted) {
			return CallResult{}, fmt.Errorf("%w: %w", ErrCallReverted, err)
		}

		return CallResult{}, revertError(err)
	}

	hash := receipt.TxHash

	return CallResult{TxHash: &hash, GasUsed: uint64(receipt.GasUsed)}, nil
}

// revertError wraps err with ErrCallReverted and the decoded reason when it carries revert data.
func revertError(err error) error {
	if reason, ok := provider.RevertReason(err); ok {
		return fmt.Errorf("%w: %s", ErrCallReverted, reason)
	}

	return err
}
