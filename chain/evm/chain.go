package evm

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

// OnchainClient is an EVM chain client.
// For EVM specifically we can use existing geth interface to abstract chain clients.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Chain is the session object every workflow step receives: the network it is bound to, the
// client used to read state and the operator key.
type Chain struct {
	Selector uint64

	Client OnchainClient
	// OperatorKey is the local key that produces this operator's multisig signature.
	OperatorKey *bind.TransactOpts

	// SignHash signs arbitrary hashes with the operator key.
	SignHash func([]byte) ([]byte, error)
}

// ChainSelector returns the chain selector of the chain
func (c Chain) ChainSelector() uint64 {
	return c.Selector
}

// String returns chain name and selector "<name> (<selector>)"
func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.Name(), c.Selector)
}

// Name returns the name of the chain, falling back to the selector when it is unknown.
func (c Chain) Name() string {
	info, ok := chainsel.ChainBySelector(c.Selector)
	if !ok || info.Name == "" {
		return strconv.FormatUint(c.Selector, 10)
	}

	return info.Name
}

// Family returns the family of the chain
func (c Chain) Family() string {
	family, err := chainsel.GetSelectorFamily(c.Selector)
	if err != nil {
		return ""
	}

	return family
}

// ChainIDFromSelector resolves the EIP-155 chain id of an EVM selector.
func ChainIDFromSelector(selector uint64) (*big.Int, error) {
	chainIDStr, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID from selector %d: %w", selector, err)
	}

	chainID, ok := new(big.Int).SetString(chainIDStr, 10)
	if !ok {
		return nil, fmt.Errorf("failed to convert chain ID %s to big.Int", chainIDStr)
	}

	return chainID, nil
}
