package multisig

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
)

// ValidateWeights checks a gauge weight table and returns its total. The table must be non
// empty, list each gauge once and sum to a total inside band.
func ValidateWeights(entries []GaugeWeightEntry, band WeightBand) (uint64, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: weight table is empty", ErrInvalidPayload)
	}

	seen := make(map[common.Address]struct{}, len(entries))
	var total uint64
	for i, e := range entries {
		if e.Gauge == (common.Address{}) {
			return 0, fmt.Errorf("%w: entry %d: gauge address is zero", ErrInvalidPayload, i)
		}
		if _, dup := seen[e.Gauge]; dup {
			return 0, fmt.Errorf("%w: entry %d: gauge %s listed twice", ErrInvalidPayload, i, e.Gauge.Hex())
		}
		seen[e.Gauge] = struct{}{}

		var carry uint64
		total, carry = bits.Add64(total, e.Weight, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: entry %d: total weight overflows", ErrInvalidPayload, i)
		}
	}

	if err := band.Check(total); err != nil {
		return total, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return total, nil
}

// ValidateLedger checks a refund ledger and returns the total amount. Every amount must be
// positive, every address non zero and listed once.
func ValidateLedger(entries []RecipientEntry) (*big.Int, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: ledger is empty", ErrInvalidPayload)
	}

	seen := make(map[common.Address]struct{}, len(entries))
	total := new(big.Int)
	for i, e := range entries {
		if e.Address == (common.Address{}) {
			return nil, fmt.Errorf("%w: entry %d: recipient address is zero", ErrInvalidPayload, i)
		}
		if e.Amount == nil || e.Amount.Sign() <= 0 {
			return nil, fmt.Errorf("%w: entry %d: amount for %s must be positive", ErrInvalidPayload, i, e.Address.Hex())
		}
		if _, dup := seen[e.Address]; dup {
			return nil, fmt.Errorf("%w: entry %d: recipient %s listed twice", ErrInvalidPayload, i, e.Address.Hex())
		}
		seen[e.Address] = struct{}{}

		total.Add(total, e.Amount)
	}

	return total, nil
}
