package multisig

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RecipientEntry is one line of a refund ledger. Amount is in the token's smallest unit.
type RecipientEntry struct {
	Address common.Address
	Amount  *big.Int
}

// GaugeWeightEntry is the target weight of one gauge. Weights are in basis points of the vote,
// a full table sums to 10000.
type GaugeWeightEntry struct {
	Gauge  common.Address
	Weight uint64
	Label  string
}

// WeightBand is the accepted range of a weight table total: Expected ± Tolerance.
type WeightBand struct {
	Expected  uint64
	Tolerance uint64
}

// DefaultWeightBand accepts totals in [9999, 10001].
var DefaultWeightBand = WeightBand{Expected: 10_000, Tolerance: 1}

func (b WeightBand) Min() uint64 {
	if b.Tolerance > b.Expected {
		return 0
	}

	return b.Expected - b.Tolerance
}

func (b WeightBand) Max() uint64 {
	return b.Expected + b.Tolerance
}

// Check fails with ErrWeightOutOfBand when total is outside the band.
func (b WeightBand) Check(total uint64) error {
	if total < b.Min() || total > b.Max() {
		return fmt.Errorf("%w: total weight must be %d±%d but is %d", ErrWeightOutOfBand, b.Expected, b.Tolerance, total)
	}

	return nil
}

// Call is a contract call to be issued as the multisig.
type Call struct {
	To           common.Address `json:"to"`
	Data         hexutil.Bytes  `json:"data"`
	Value        *big.Int       `json:"value,omitempty"`
	ContractType string         `json:"contractType"`
	Tags         []string       `json:"tags,omitempty"`
}

// ValueOrZero returns the call value, zero when unset.
func (c Call) ValueOrZero() *big.Int {
	if c.Value == nil {
		return new(big.Int)
	}

	return c.Value
}

// Receipt is the result of applying one call. Receipts are the inputs of the batch.
type Receipt struct {
	Index      int           `json:"index"`
	Step       string        `json:"step"`
	Call       Call          `json:"call"`
	ReturnData hexutil.Bytes `json:"returnData,omitempty"`
	TxHash     *common.Hash  `json:"txHash,omitempty"`
	GasUsed    uint64        `json:"gasUsed,omitempty"`
}
