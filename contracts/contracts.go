package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// reader wraps a read-only bound contract.
type reader struct {
	address  common.Address
	contract *bind.BoundContract
}

func newReader(address common.Address, parsed abi.ABI, caller bind.ContractCaller) reader {
	return reader{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, caller, nil, nil),
	}
}

// Address returns the contract address.
func (r reader) Address() common.Address {
	return r.address
}

func (r reader) call(ctx context.Context, method string, params ...any) ([]any, error) {
	var out []any
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, r.address.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty result from %s on %s", method, r.address.Hex())
	}

	return out, nil
}

func (r reader) callBig(ctx context.Context, method string, params ...any) (*big.Int, error) {
	out, err := r.call(ctx, method, params...)
	if err != nil {
		return nil, err
	}

	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

func (r reader) callString(ctx context.Context, method string, params ...any) (string, error) {
	out, err := r.call(ctx, method, params...)
	if err != nil {
		return "", err
	}

	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// ERC20 reads an ERC20 token.
type ERC20 struct {
	reader
}

func NewERC20(address common.Address, caller bind.ContractCaller) *ERC20 {
	return &ERC20{newReader(address, erc20ABI, caller)}
}

func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", account)
}

func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}

	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	return t.callString(ctx, "symbol")
}

// PackTransfer returns the call data of transfer(to, amount).
func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("transfer", to, amount)
}

// GaugeController reads a gauge controller.
type GaugeController struct {
	reader
}

func NewGaugeController(address common.Address, caller bind.ContractCaller) *GaugeController {
	return &GaugeController{newReader(address, gaugeControllerABI, caller)}
}

// GaugeWeight returns the current raw weight of gauge.
func (g *GaugeController) GaugeWeight(ctx context.Context, gauge common.Address) (*big.Int, error) {
	return g.callBig(ctx, "get_gauge_weight", gauge)
}

// TotalWeight returns the sum of gauge weights multiplied by their type weights, scaled by 1e18.
func (g *GaugeController) TotalWeight(ctx context.Context) (*big.Int, error) {
	return g.callBig(ctx, "get_total_weight")
}

func (g *GaugeController) GaugeType(ctx context.Context, gauge common.Address) (*big.Int, error) {
	return g.callBig(ctx, "gauge_types", gauge)
}

func (g *GaugeController) TypeWeight(ctx context.Context, typeID *big.Int) (*big.Int, error) {
	return g.callBig(ctx, "get_type_weight", typeID)
}

// PackChangeGaugeWeight returns the call data of change_gauge_weight(gauge, weight).
func PackChangeGaugeWeight(gauge common.Address, weight *big.Int) ([]byte, error) {
	return gaugeControllerABI.Pack("change_gauge_weight", gauge, weight)
}

// LiquidityGauge reads a liquidity gauge.
type LiquidityGauge struct {
	reader
}

func NewLiquidityGauge(address common.Address, caller bind.ContractCaller) *LiquidityGauge {
	return &LiquidityGauge{newReader(address, liquidityGaugeABI, caller)}
}

func (l *LiquidityGauge) Name(ctx context.Context) (string, error) {
	return l.callString(ctx, "name")
}

// PackRelease returns the call data of release() on a vesting contract.
func PackRelease() ([]byte, error) {
	return vestingABI.Pack("release")
}
