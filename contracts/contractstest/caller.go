// Package contractstest provides an in-memory bind.ContractCaller that answers calls to the
// contracts package ABIs from per method handlers.
package contractstest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/saddle-finance/multisig-ops/contracts"
)

var _ bind.ContractCaller = (*Caller)(nil)

// Handler answers one method call with its decoded arguments.
type Handler func(args []any) ([]any, error)

// Returns is a Handler that always answers with vals.
func Returns(vals ...any) Handler {
	return func([]any) ([]any, error) { return vals, nil }
}

// Fails is a Handler that always fails with err.
func Fails(err error) Handler {
	return func([]any) ([]any, error) { return nil, err }
}

// Call is a call received by the Caller.
type Call struct {
	From   common.Address
	To     common.Address
	Method string
	Args   []any
}

type deployed struct {
	abi      abi.ABI
	handlers map[string]Handler
}

// Caller is a fake contract backend.
type Caller struct {
	mu        sync.Mutex
	contracts map[common.Address]*deployed
	calls     []Call
}

func NewCaller() *Caller {
	return &Caller{contracts: make(map[common.Address]*deployed)}
}

// Handle registers h for method of the contract of contractType deployed at address.
func (c *Caller) Handle(address common.Address, contractType, method string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.contracts[address]
	if !ok {
		parsed, found := contracts.ABIFor(contractType)
		if !found {
			panic(fmt.Sprintf("unknown contract type %q", contractType))
		}
		d = &deployed{abi: parsed, handlers: make(map[string]Handler)}
		c.contracts[address] = d
	}
	d.handlers[method] = h
}

// Calls returns the recorded calls of method on address.
func (c *Caller) Calls(address common.Address, method string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Call
	for _, call := range c.calls {
		if call.To == address && call.Method == method {
			out = append(out, call)
		}
	}

	return out
}

// AllCalls returns every recorded call in order.
func (c *Caller) AllCalls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Call(nil), c.calls...)
}

func (c *Caller) CodeAt(_ context.Context, contract common.Address, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contracts[contract]; ok {
		return []byte{0x1}, nil
	}

	return nil, nil
}

func (c *Caller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil {
		return nil, fmt.Errorf("contract creation is not supported")
	}
	if len(msg.Data) < 4 {
		return nil, fmt.Errorf("call data too short")
	}

	c.mu.Lock()
	d, ok := c.contracts[*msg.To]
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}

	method, err := d.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, Call{From: msg.From, To: *msg.To, Method: method.RawName, Args: args})
	h, ok := d.handlers[method.RawName]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no handler for %s on %s", method.RawName, msg.To.Hex())
	}

	out, err := h(args)
	if err != nil {
		return nil, err
	}

	return method.Outputs.Pack(out...)
}
