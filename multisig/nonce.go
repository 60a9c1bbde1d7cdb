package multisig

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/mcms"
	mcmstypes "github.com/smartcontractkit/mcms/types"
)

// OpCountReader reads the number of operations a multisig has executed. It is satisfied by the
// mcms EVM inspector.
type OpCountReader interface {
	GetOpCount(ctx context.Context, mcmAddr string) (uint64, error)
}

// PendingLister lists proposals handed to co-signers that may not be executed yet.
type PendingLister interface {
	Pending(ctx context.Context) ([]*mcms.Proposal, error)
}

// NonceGuard makes sure a batch does not reuse a nonce, either one already consumed on-chain or
// one claimed by a pending proposal for the same multisig.
type NonceGuard struct {
	selector uint64
	mcm      common.Address
	opCounts OpCountReader
	pending  PendingLister
}

// NewNonceGuard creates a guard for the multisig at mcm. pending may be nil.
func NewNonceGuard(selector uint64, mcm common.Address, opCounts OpCountReader, pending PendingLister) *NonceGuard {
	return &NonceGuard{selector: selector, mcm: mcm, opCounts: opCounts, pending: pending}
}

// Check fails when [nonce, nonce+opsCount) cannot be used. It reads state once and does not retry.
func (g *NonceGuard) Check(ctx context.Context, nonce, opsCount uint64) error {
	if opsCount == 0 {
		return ErrEmptyBatch
	}

	opCount, err := g.opCounts.GetOpCount(ctx, g.mcm.Hex())
	if err != nil {
		return fmt.Errorf("failed to read op count of %s: %w", g.mcm.Hex(), err)
	}
	if nonce < opCount {
		return fmt.Errorf("%w: nonce %d is below the on-chain op count %d", ErrNonceUsed, nonce, opCount)
	}

	if g.pending == nil {
		return nil
	}

	proposals, err := g.pending.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending proposals: %w", err)
	}

	end := nonce + opsCount
	for _, p := range proposals {
		md, ok := p.ChainMetadata[mcmstypes.ChainSelector(g.selector)]
		if !ok || !strings.EqualFold(md.MCMAddress, g.mcm.Hex()) {
			continue
		}

		first, last, ok := NonceRange(p, g.selector)
		if !ok || last < opCount {
			// executed already, or nothing on this chain
			continue
		}
		if nonce <= last && first < end {
			return fmt.Errorf("%w: nonces %d..%d overlap pending proposal %q at %d..%d",
				ErrNoncePending, nonce, end-1, p.Description, first, last)
		}
	}

	return nil
}
