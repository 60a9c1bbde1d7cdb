package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	mcmsevm "github.com/smartcontractkit/mcms/sdk/evm"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/saddle-finance/multisig-ops/chain/evm"
	"github.com/saddle-finance/multisig-ops/chain/evm/fork"
	"github.com/saddle-finance/multisig-ops/chain/evm/provider"
	"github.com/saddle-finance/multisig-ops/config"
	"github.com/saddle-finance/multisig-ops/multisig"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// LoggerFunc builds the logger of a run for the level given on the command line.
type LoggerFunc func(level zapcore.Level) (logger.Logger, error)

// ConfigLoaderFunc loads the operator configuration.
type ConfigLoaderFunc func(path string) (*config.OperatorConfig, error)

// ChainLoaderFunc connects to the network of selector and unlocks the operator key.
type ChainLoaderFunc func(
	ctx context.Context, lggr logger.Logger, selector uint64, cfg *config.OperatorConfig,
) (evm.Chain, error)

// Fork is an anvil fork: Reader answers reads against the fork, Executor applies calls on it.
type Fork struct {
	Reader   bind.ContractCaller
	Executor multisig.ForkExecutor
}

// ForkLoaderFunc connects to the fork node at url.
type ForkLoaderFunc func(ctx context.Context, lggr logger.Logger, selector uint64, url string) (Fork, error)

// InspectorFunc returns the reader of the multisig op count.
type InspectorFunc func(client evm.OnchainClient) multisig.OpCountReader

// ConfirmerFunc returns the confirmation gate bound to the command input and output.
type ConfirmerFunc func(in io.Reader, out io.Writer) multisig.Confirmer

// Deps holds the injectable dependencies of the action commands.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// Logger builds the run logger.
	// Default: console logger at the requested level
	Logger LoggerFunc

	// ConfigLoader loads the operator configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc

	// ChainLoader connects to the network.
	// Default: provider.RPCChainProvider with the configured RPCs and key
	ChainLoader ChainLoaderFunc

	// ForkLoader connects to the fork node.
	// Default: a MultiClient and a fork.Client on the fork url
	ForkLoader ForkLoaderFunc

	// Inspector reads the multisig op count.
	// Default: the mcms EVM inspector
	Inspector InspectorFunc

	// Confirmer asks the operator to approve the batch.
	// Default: multisig.ConsoleConfirmer
	Confirmer ConfirmerFunc

	// IsTerminal reports whether w is a terminal, which enables colors in the preview.
	// Default: term.IsTerminal on *os.File
	IsTerminal func(w io.Writer) bool
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.Logger == nil {
		d.Logger = defaultLogger
	}
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.ChainLoader == nil {
		d.ChainLoader = defaultChainLoader
	}
	if d.ForkLoader == nil {
		d.ForkLoader = defaultForkLoader
	}
	if d.Inspector == nil {
		d.Inspector = defaultInspector
	}
	if d.Confirmer == nil {
		d.Confirmer = defaultConfirmer
	}
	if d.IsTerminal == nil {
		d.IsTerminal = isTerminal
	}
}

func defaultLogger(level zapcore.Level) (logger.Logger, error) {
	cfg := logger.Config{Level: level, Console: true}

	return cfg.New()
}

func defaultChainLoader(
	ctx context.Context, lggr logger.Logger, selector uint64, cfg *config.OperatorConfig,
) (evm.Chain, error) {
	rpcs, err := cfg.EVMRPCs()
	if err != nil {
		return evm.Chain{}, err
	}

	return provider.NewRPCChainProvider(selector, provider.RPCChainProviderConfig{
		OperatorSignerGen: signerGenerator(cfg),
		RPCs:              rpcs,
		Logger:            lggr,
	}).Initialize(ctx)
}

// signerGenerator picks the operator key source. The keystore password is prompted for when the
// config does not carry it.
func signerGenerator(cfg *config.OperatorConfig) provider.SignerGenerator {
	if cfg.PrivateKey != "" {
		return provider.TransactorFromRaw(cfg.PrivateKey)
	}

	var passwords provider.PasswordProvider = provider.NewTerminalPassword()
	if cfg.Keystore.Password != "" {
		passwords = provider.StaticPassword(cfg.Keystore.Password)
	}

	return provider.TransactorFromKeystore(cfg.Keystore.Path, passwords)
}

func defaultForkLoader(_ context.Context, lggr logger.Logger, selector uint64, url string) (Fork, error) {
	reader, err := evm.NewMultiClient(lggr, evm.RPCConfig{
		ChainSelector: selector,
		RPCs: []evm.RPC{{
			Name:               "fork",
			HTTPURL:            url,
			PreferredURLScheme: evm.URLSchemePreferenceHTTP,
		}},
	})
	if err != nil {
		return Fork{}, fmt.Errorf("failed to connect to fork %s: %w", url, err)
	}

	return Fork{Reader: reader, Executor: fork.NewClient(url)}, nil
}

func defaultInspector(client evm.OnchainClient) multisig.OpCountReader {
	return mcmsevm.NewInspector(client)
}

func defaultConfirmer(in io.Reader, out io.Writer) multisig.Confirmer {
	return &multisig.ConsoleConfirmer{In: in, Out: out}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
