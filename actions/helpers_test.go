package actions

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/chain/evm/fork"
	"github.com/saddle-finance/multisig-ops/contracts"
	"github.com/saddle-finance/multisig-ops/contracts/contractstest"
)

var (
	testMultisig   = common.HexToAddress("0x3F8E527aF4e0c6e763e8f368AC679c44C45626aE")
	testToken      = common.HexToAddress("0xf1Dc500FdE233A4055e25e5BbF516372BC4F6871")
	testController = common.HexToAddress("0x99Cb6c36816dE2131eF2626bb5dEF7E5cc8b9B14")
	testVesting    = common.HexToAddress("0x5DFbCeea7A5F6556356C7A66d2A43332755D68A5")
	testDeployer   = common.HexToAddress("0x5BDb37d0Ddea3A90F233c7B7F6b9394B6b2eef34")
	recipientA     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	recipientB     = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	gaugeA         = common.HexToAddress("0xB2Ac3382dA625eb41Fc803b57743f941a484e2a6")
	gaugeB         = common.HexToAddress("0xc64F8A9fe7BabecA66D3997C9d15558BF4817bE3")
	gaugeC         = common.HexToAddress("0x953693DCB2E9DDC0c1398C1b540b81b63ceA5e16")
)

func units(t *testing.T, amount string) *big.Int {
	t.Helper()

	v, err := ParseUnits(amount, 18)
	require.NoError(t, err)

	return v
}

// fakeChain is a tiny in-memory chain: the token balances and the gauge weights are served to
// contract reads, and calls applied through Execute change them like the real contracts would.
type fakeChain struct {
	*contractstest.Caller

	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	weights    map[common.Address]*big.Int
	typeWeight *big.Int
	vested     *big.Int
	applied    []string
}

func newFakeChain(t *testing.T) *fakeChain {
	t.Helper()

	c := &fakeChain{
		Caller:     contractstest.NewCaller(),
		balances:   make(map[common.Address]*big.Int),
		weights:    make(map[common.Address]*big.Int),
		typeWeight: big.NewInt(1e18),
		vested:     new(big.Int),
	}

	c.Handle(testToken, contracts.TypeERC20, "decimals", contractstest.Returns(uint8(18)))
	c.Handle(testToken, contracts.TypeERC20, "symbol", contractstest.Returns("SDL"))
	c.Handle(testToken, contracts.TypeERC20, "balanceOf", func(args []any) ([]any, error) {
		return []any{c.balance(args[0].(common.Address))}, nil
	})
	c.Handle(testToken, contracts.TypeERC20, "transfer", contractstest.Returns(true))

	c.Handle(testController, contracts.TypeGaugeController, "get_gauge_weight", func(args []any) ([]any, error) {
		return []any{c.weight(args[0].(common.Address))}, nil
	})
	c.Handle(testController, contracts.TypeGaugeController, "gauge_types", contractstest.Returns(big.NewInt(0)))
	c.Handle(testController, contracts.TypeGaugeController, "get_type_weight", func([]any) ([]any, error) {
		return []any{c.typeWeight}, nil
	})
	c.Handle(testController, contracts.TypeGaugeController, "get_total_weight", func([]any) ([]any, error) {
		return []any{c.totalWeight()}, nil
	})
	c.Handle(testController, contracts.TypeGaugeController, "change_gauge_weight", contractstest.Returns())

	c.Handle(testVesting, contracts.TypeVesting, "release", contractstest.Returns())

	return c
}

func (c *fakeChain) setGauge(gauge common.Address, name string, weight int64) {
	c.Handle(gauge, contracts.TypeLiquidityGauge, "name", contractstest.Returns(name))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.weights[gauge] = big.NewInt(weight)
}

func (c *fakeChain) setBalance(account common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = new(big.Int).Set(amount)
}

func (c *fakeChain) balance(account common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b)
	}

	return new(big.Int)
}

func (c *fakeChain) weight(gauge common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.weights[gauge]; ok {
		return new(big.Int).Set(w)
	}

	return new(big.Int)
}

func (c *fakeChain) totalWeight() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	sum := new(big.Int)
	for _, w := range c.weights {
		sum.Add(sum, w)
	}

	return sum.Mul(sum, c.typeWeight)
}

// Execute applies a call to the in-memory state, as a fork node would.
func (c *fakeChain) Execute(_ context.Context, from, to common.Address, data []byte, _ *big.Int) (*fork.Receipt, error) {
	var contractType string
	switch to {
	case testToken:
		contractType = contracts.TypeERC20
	case testController:
		contractType = contracts.TypeGaugeController
	case testVesting:
		contractType = contracts.TypeVesting
	default:
		return nil, fork.ErrReverted
	}

	parsed, _ := contracts.ABIFor(contractType)
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.applied = append(c.applied, method.RawName)

	switch method.RawName {
	case "release":
		b := c.balances[from]
		if b == nil {
			b = new(big.Int)
		}
		c.balances[from] = new(big.Int).Add(b, c.vested)
	case "transfer":
		to, amount := args[0].(common.Address), args[1].(*big.Int)
		b := c.balances[from]
		if b == nil || b.Cmp(amount) < 0 {
			return nil, fork.ErrReverted
		}
		c.balances[from] = new(big.Int).Sub(b, amount)
		prev := c.balances[to]
		if prev == nil {
			prev = new(big.Int)
		}
		c.balances[to] = new(big.Int).Add(prev, amount)
	case "change_gauge_weight":
		c.weights[args[0].(common.Address)] = new(big.Int).Set(args[1].(*big.Int))
	}

	return &fork.Receipt{Status: 1}, nil
}

func (c *fakeChain) Applied() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.applied...)
}
