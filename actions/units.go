package actions

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParseUnits converts a decimal amount such as "1552781.39214474" to base units of a token
// with the given decimals. Amounts with more fractional digits than decimals are rejected.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FormatUnits renders base units as a human readable decimal with thousands separators,
// e.g. "1,552,781.39214474".
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}

	d := decimal.NewFromBigInt(amount, -int32(decimals))
	whole := d.Truncate(0)
	out := humanize.BigComma(whole.BigInt())
	if d.Sign() < 0 && whole.IsZero() {
		out = "-" + out
	}

	if frac := d.Sub(whole).Abs(); !frac.IsZero() {
		out += strings.TrimPrefix(frac.String(), "0")
	}

	return out
}
