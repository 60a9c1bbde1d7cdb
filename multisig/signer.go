package multisig

import (
	"fmt"

	"github.com/smartcontractkit/mcms"
	mcmstypes "github.com/smartcontractkit/mcms/types"
)

// HashSigner signs a 32 byte hash with the operator key, returning a 65 byte [R || S || V]
// signature.
type HashSigner func(hash []byte) ([]byte, error)

// Signer adds the operator signature to a batch.
type Signer struct {
	signHash HashSigner
}

func NewSigner(signHash HashSigner) *Signer {
	return &Signer{signHash: signHash}
}

// Sign validates the proposal, signs its signing message and appends exactly one signature.
// A proposal that already carries signatures is rejected.
func (s *Signer) Sign(proposal *mcms.Proposal) (mcmstypes.Signature, error) {
	if len(proposal.Signatures) > 0 {
		return mcmstypes.Signature{}, ErrAlreadySigned
	}

	if err := proposal.Validate(); err != nil {
		return mcmstypes.Signature{}, fmt.Errorf("failed to validate proposal: %w", err)
	}

	payload, err := proposal.SigningMessage()
	if err != nil {
		return mcmstypes.Signature{}, fmt.Errorf("failed to compute signing message: %w", err)
	}

	raw, err := s.signHash(payload.Bytes())
	if err != nil {
		return mcmstypes.Signature{}, fmt.Errorf("failed to sign proposal: %w", err)
	}

	sig, err := mcmstypes.NewSignatureFromBytes(raw)
	if err != nil {
		return mcmstypes.Signature{}, fmt.Errorf("invalid signature: %w", err)
	}

	proposal.AppendSignature(sig)

	return sig, nil
}
