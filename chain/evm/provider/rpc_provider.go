package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/saddle-finance/multisig-ops/chain/evm"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// ErrWrongNetwork is returned when the RPC endpoint reports a chain id different from the one
// of the requested network.
var ErrWrongNetwork = errors.New("rpc endpoint is connected to the wrong network")

// RPCChainProviderConfig configures an RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: OperatorSignerGen unlocks the operator key, see TransactorFromRaw and
	// TransactorFromKeystore.
	OperatorSignerGen SignerGenerator
	// Required: RPCs of the network, the first healthy one is the primary.
	RPCs []evm.RPC
	// Optional: ClientOpts configure the MultiClient.
	ClientOpts []func(client *evm.MultiClient)
	// Optional: Logger defaults to a no-op logger.
	Logger logger.Logger
}

func (c RPCChainProviderConfig) validate() error {
	var errs []error
	if c.OperatorSignerGen == nil {
		errs = append(errs, errors.New("operator signer generator is required"))
	}
	if len(c.RPCs) == 0 {
		errs = append(errs, errors.New("at least one RPC is required"))
	}

	return errors.Join(errs...)
}

// RPCChainProvider connects a network session: it dials the RPCs, makes sure they serve the
// network of the selector and unlocks the operator key.
type RPCChainProvider struct {
	selector uint64
	config   RPCChainProviderConfig

	chain *evm.Chain
}

func NewRPCChainProvider(selector uint64, config RPCChainProviderConfig) *RPCChainProvider {
	return &RPCChainProvider{selector: selector, config: config}
}

// Initialize returns the connected chain. The chain is built once and cached.
func (p *RPCChainProvider) Initialize(ctx context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil
	}

	if err := p.config.validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("invalid provider config: %w", err)
	}
	lggr := p.config.Logger
	if lggr == nil {
		lggr = logger.Nop()
	}

	expected, err := evm.ChainIDFromSelector(p.selector)
	if err != nil {
		return evm.Chain{}, err
	}

	key, err := p.config.OperatorSignerGen.Generate(expected)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to generate operator key: %w", err)
	}

	client, err := evm.NewMultiClient(lggr, evm.RPCConfig{ChainSelector: p.selector, RPCs: p.config.RPCs}, p.config.ClientOpts...)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to create multi-client: %w", err)
	}

	// Guards against an RPC of another network configured under this one.
	got, err := client.ChainID(ctx)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to read chain id: %w", err)
	}
	if got.Cmp(expected) != 0 {
		return evm.Chain{}, fmt.Errorf("%w: expected chain id %s, rpc reports %s", ErrWrongNetwork, expected, got)
	}

	p.chain = &evm.Chain{
		Selector:    p.selector,
		Client:      client,
		OperatorKey: key,
		SignHash:    p.config.OperatorSignerGen.SignHash,
	}
	lggr.Debugw("Network session ready", "chain", p.chain.String(), "operator", key.From.Hex())

	return *p.chain, nil
}

// ChainSelector returns the selector of the network.
func (p *RPCChainProvider) ChainSelector() uint64 {
	return p.selector
}
