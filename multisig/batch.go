package multisig

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/mcms"
	mcmstypes "github.com/smartcontractkit/mcms/types"
)

// DefaultValidity is how long a batch stays valid for co-signers.
const DefaultValidity = 72 * time.Hour

// Assembler combines receipts into one multisig proposal. It never submits.
type Assembler struct {
	ChainSelector uint64
	MCMAddress    common.Address
	Description   string
	Validity      time.Duration

	now func() time.Time
}

// NewAssembler returns an assembler for the multisig at mcmAddress on the chain of selector.
func NewAssembler(selector uint64, mcmAddress common.Address, description string) *Assembler {
	return &Assembler{
		ChainSelector: selector,
		MCMAddress:    mcmAddress,
		Description:   description,
		Validity:      DefaultValidity,
		now:           time.Now,
	}
}

// Assemble builds the proposal holding one operation per receipt, in order, starting at nonce.
func (a *Assembler) Assemble(receipts []Receipt, nonce uint64) (*mcms.Proposal, error) {
	if len(receipts) == 0 {
		return nil, ErrEmptyBatch
	}

	validUntil := a.now().Add(a.Validity).Unix()
	if validUntil <= 0 || validUntil > math.MaxUint32 {
		return nil, fmt.Errorf("valid until %d does not fit the proposal", validUntil)
	}

	selector := mcmstypes.ChainSelector(a.ChainSelector)
	ops := make([]mcmstypes.Operation, 0, len(receipts))
	for _, r := range receipts {
		tx, err := toTransaction(r.Call)
		if err != nil {
			return nil, fmt.Errorf("receipt %d: %w", r.Index, err)
		}
		ops = append(ops, mcmstypes.Operation{
			ChainSelector: selector,
			Transaction:   tx,
		})
	}

	proposal := &mcms.Proposal{
		BaseProposal: mcms.BaseProposal{
			Version:     "v1",
			Kind:        mcmstypes.KindProposal,
			Description: a.Description,
			ValidUntil:  uint32(validUntil),
			ChainMetadata: map[mcmstypes.ChainSelector]mcmstypes.ChainMetadata{
				selector: {
					StartingOpCount: nonce,
					MCMAddress:      a.MCMAddress.Hex(),
				},
			},
		},
		Operations: ops,
	}

	if err := proposal.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate proposal: %w", err)
	}

	return proposal, nil
}

func toTransaction(call Call) (mcmstypes.Transaction, error) {
	fields, err := json.Marshal(struct {
		Value *big.Int `json:"value"`
	}{Value: call.ValueOrZero()})
	if err != nil {
		return mcmstypes.Transaction{}, err
	}

	return mcmstypes.Transaction{
		OperationMetadata: mcmstypes.OperationMetadata{
			ContractType: call.ContractType,
			Tags:         call.Tags,
		},
		To:               call.To.Hex(),
		Data:             call.Data,
		AdditionalFields: fields,
	}, nil
}

// NonceRange returns the first and last nonce the proposal occupies on the chain of selector.
func NonceRange(p *mcms.Proposal, selector uint64) (first, last uint64, ok bool) {
	md, found := p.ChainMetadata[mcmstypes.ChainSelector(selector)]
	if !found {
		return 0, 0, false
	}

	var count uint64
	for _, op := range p.Operations {
		if op.ChainSelector == mcmstypes.ChainSelector(selector) {
			count++
		}
	}
	if count == 0 {
		return md.StartingOpCount, md.StartingOpCount, false
	}

	return md.StartingOpCount, md.StartingOpCount + count - 1, true
}
