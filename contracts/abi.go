// Package contracts holds the minimal ABIs of the contracts the multisig operates on, with typed
// read helpers and call data packers.
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const ERC20ABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// GaugeControllerABI is the subset of the curve style gauge controller used for weight votes.
const GaugeControllerABI = `[
	{"type":"function","name":"get_gauge_weight","stateMutability":"view","inputs":[{"name":"addr","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"change_gauge_weight","stateMutability":"nonpayable","inputs":[{"name":"addr","type":"address"},{"name":"weight","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"get_total_weight","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"gauge_types","stateMutability":"view","inputs":[{"name":"_addr","type":"address"}],"outputs":[{"name":"","type":"int128"}]},
	{"type":"function","name":"get_type_weight","stateMutability":"view","inputs":[{"name":"type_id","type":"int128"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const LiquidityGaugeABI = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

// VestingABI covers vesting proxies that release vested tokens to their beneficiary.
const VestingABI = `[
	{"type":"function","name":"release","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

var (
	erc20ABI           = mustParse("ERC20", ERC20ABI)
	gaugeControllerABI = mustParse("GaugeController", GaugeControllerABI)
	liquidityGaugeABI  = mustParse("LiquidityGauge", LiquidityGaugeABI)
	vestingABI         = mustParse("Vesting", VestingABI)
)

func mustParse(name, def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("invalid %s ABI: %v", name, err))
	}

	return parsed
}

// Contract types recorded on every batch operation.
const (
	TypeERC20           = "ERC20"
	TypeGaugeController = "GaugeController"
	TypeLiquidityGauge  = "LiquidityGauge"
	TypeVesting         = "Vesting"
)

// ABIFor returns the parsed ABI of a contract type.
func ABIFor(contractType string) (abi.ABI, bool) {
	switch contractType {
	case TypeERC20:
		return erc20ABI, true
	case TypeGaugeController:
		return gaugeControllerABI, true
	case TypeLiquidityGauge:
		return liquidityGaugeABI, true
	case TypeVesting:
		return vestingABI, true
	default:
		return abi.ABI{}, false
	}
}

// DescribeCall renders call data as "method(arg, ...)" using the ABI of contractType. It falls
// back to the hex selector when the method is unknown.
func DescribeCall(contractType string, data []byte) string {
	if len(data) < 4 {
		return "0x"
	}

	parsed, ok := ABIFor(contractType)
	if !ok {
		return fmt.Sprintf("0x%x", data[:4])
	}

	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return fmt.Sprintf("0x%x", data[:4])
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return method.RawName + "(?)"
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}

	return fmt.Sprintf("%s(%s)", method.RawName, strings.Join(parts, ", "))
}
