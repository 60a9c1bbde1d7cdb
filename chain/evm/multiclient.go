package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// Defaults of RetryConfig.
const (
	RPCDefaultRetryAttempts = 1
	RPCDefaultRetryDelay    = time.Second
	RPCDefaultRetryTimeout  = 10 * time.Second

	RPCDefaultDialRetryAttempts = 1
	RPCDefaultDialRetryDelay    = time.Second
	RPCDefaultDialTimeout       = 10 * time.Second

	RPCDefaultHealthCheckTimeout = 2 * time.Second
)

// RetryConfig controls how reads and dials are retried on each endpoint before moving to the
// next one.
type RetryConfig struct {
	Attempts     uint
	Delay        time.Duration
	Timeout      time.Duration
	DialAttempts uint
	DialDelay    time.Duration
	DialTimeout  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     RPCDefaultRetryAttempts,
		Delay:        RPCDefaultRetryDelay,
		Timeout:      RPCDefaultRetryTimeout,
		DialAttempts: RPCDefaultDialRetryAttempts,
		DialDelay:    RPCDefaultDialRetryDelay,
		DialTimeout:  RPCDefaultDialTimeout,
	}
}

// WithRetryConfig overrides the default retry configuration.
func WithRetryConfig(cfg RetryConfig) func(*MultiClient) {
	return func(mc *MultiClient) {
		mc.RetryConfig = cfg
	}
}

var _ OnchainClient = (*MultiClient)(nil)

// MultiClient reads chain state through a primary endpoint and its backups. Reads are retried
// and fail over to the backups, and the endpoint that answered becomes the primary. Writes go to
// the primary exactly once.
type MultiClient struct {
	*ethclient.Client
	Backups     []*ethclient.Client
	RetryConfig RetryConfig

	lggr      logger.Logger
	chainName string
	mu        sync.RWMutex
}

// NewMultiClient dials every RPC of rpcsCfg. Endpoints that cannot be dialed or fail the health
// check are skipped; at least one must remain.
func NewMultiClient(lggr logger.Logger, rpcsCfg RPCConfig, opts ...func(client *MultiClient)) (*MultiClient, error) {
	if len(rpcsCfg.RPCs) == 0 {
		return nil, errors.New("no RPCs provided, need at least one")
	}
	info, ok := chainsel.ChainBySelector(rpcsCfg.ChainSelector)
	if !ok {
		return nil, fmt.Errorf("chain with selector %d not found", rpcsCfg.ChainSelector)
	}

	mc := &MultiClient{
		RetryConfig: defaultRetryConfig(),
		lggr:        lggr.Named("multiclient"),
		chainName:   info.Name,
	}
	for _, opt := range opts {
		opt(mc)
	}

	var clients []*ethclient.Client
	for _, r := range rpcsCfg.RPCs {
		client, err := mc.dial(r)
		if err != nil {
			mc.lggr.Warnw("Skipping RPC, dial failed", "chain", mc.chainName, "rpc", r.Name, "error", err)

			continue
		}
		if err = healthCheck(client); err != nil {
			mc.lggr.Warnw("Skipping RPC, health check failed", "chain", mc.chainName, "rpc", r.Name, "error", err)
			client.Close()

			continue
		}
		clients = append(clients, client)
	}
	if len(clients) == 0 {
		return nil, errors.New("no valid RPC clients created")
	}

	mc.Client, mc.Backups = clients[0], clients[1:]

	return mc, nil
}

// healthCheck asks the endpoint for its head block.
func healthCheck(client *ethclient.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), RPCDefaultHealthCheckTimeout)
	defer cancel()

	if _, err := client.BlockNumber(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	return nil
}

// SendTransaction submits tx once to the primary endpoint.
func (mc *MultiClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return mc.endpoints()[0].SendTransaction(ctx, tx)
}

func (mc *MultiClient) ChainID(ctx context.Context) (*big.Int, error) {
	return failover(ctx, mc, "ChainID", func(ctx context.Context, c *ethclient.Client) (*big.Int, error) {
		return c.ChainID(ctx)
	})
}

func (mc *MultiClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return failover(ctx, mc, "CallContract", func(ctx context.Context, c *ethclient.Client) ([]byte, error) {
		return c.CallContract(ctx, msg, blockNumber)
	})
}

func (mc *MultiClient) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return failover(ctx, mc, "CodeAt", func(ctx context.Context, c *ethclient.Client) ([]byte, error) {
		return c.CodeAt(ctx, account, blockNumber)
	})
}

func (mc *MultiClient) NonceAt(ctx context.Context, account common.Address, block *big.Int) (uint64, error) {
	return failover(ctx, mc, "NonceAt", func(ctx context.Context, c *ethclient.Client) (uint64, error) {
		return c.NonceAt(ctx, account, block)
	})
}

func (mc *MultiClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return failover(ctx, mc, "HeaderByNumber", func(ctx context.Context, c *ethclient.Client) (*types.Header, error) {
		return c.HeaderByNumber(ctx, number)
	})
}

func (mc *MultiClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return failover(ctx, mc, "BalanceAt", func(ctx context.Context, c *ethclient.Client) (*big.Int, error) {
		return c.BalanceAt(ctx, account, blockNumber)
	})
}

func (mc *MultiClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return failover(ctx, mc, "EstimateGas", func(ctx context.Context, c *ethclient.Client) (uint64, error) {
		return c.EstimateGas(ctx, call)
	})
}

// failover runs read on each endpoint in turn, retrying it per RetryConfig, and returns the
// first answer. The endpoint that answered is promoted to primary.
func failover[T any](
	ctx context.Context, mc *MultiClient, op string, read func(context.Context, *ethclient.Client) (T, error),
) (T, error) {
	var (
		zero    T
		lastErr error
	)
	traceID := uuid.NewString()

	for i, client := range mc.endpoints() {
		out, err := retry.DoWithData(func() (T, error) {
			rctx, cancel := ensureTimeout(ctx, mc.RetryConfig.Timeout)
			defer cancel()

			return read(rctx, client)
		},
			retry.Context(ctx),
			retry.Attempts(mc.RetryConfig.Attempts),
			retry.Delay(mc.RetryConfig.Delay),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				mc.lggr.Debugw("Retrying read", "trace", traceID, "chain", mc.chainName, "op", op,
					"endpoint", i, "attempt", n+1, "error", describeRPCError(err))
			}),
		)
		if err == nil {
			mc.promote(i)

			return out, nil
		}

		lastErr = err
		mc.lggr.Warnw("Read failed, trying next endpoint", "trace", traceID, "chain", mc.chainName, "op", op,
			"endpoint", i, "error", describeRPCError(err))
	}

	return zero, errors.Join(lastErr, fmt.Errorf("all endpoints failed for chain %q", mc.chainName))
}

func (mc *MultiClient) dial(r RPC) (*ethclient.Client, error) {
	endpoint, err := r.ToEndpoint()
	if err != nil {
		return nil, err
	}

	client, err := retry.DoWithData(func() (*ethclient.Client, error) {
		ctx, cancel := context.WithTimeout(context.Background(), mc.RetryConfig.DialTimeout)
		defer cancel()

		return ethclient.DialContext(ctx, endpoint)
	},
		retry.Attempts(mc.RetryConfig.DialAttempts),
		retry.Delay(mc.RetryConfig.DialDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s of chain %s: %w", r.Name, mc.chainName, err)
	}
	mc.lggr.Debugw("Dialed RPC", "chain", mc.chainName, "rpc", r.Name)

	return client, nil
}

// ensureTimeout keeps the parent deadline when there is one, otherwise applies timeout.
func ensureTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok || timeout <= 0 {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, timeout)
}

// promote makes the endpoint at index i of endpoints() the primary. The endpoints that failed
// before it move to the back.
func (mc *MultiClient) promote(i int) {
	if i == 0 {
		return
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	all := append([]*ethclient.Client{mc.Client}, mc.Backups...)
	if i >= len(all) {
		return
	}
	rotated := make([]*ethclient.Client, 0, len(all))
	rotated = append(rotated, all[i:]...)
	rotated = append(rotated, all[:i]...)
	mc.Client, mc.Backups = rotated[0], rotated[1:]
}

func (mc *MultiClient) endpoints() []*ethclient.Client {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return append([]*ethclient.Client{mc.Client}, mc.Backups...)
}

// describeRPCError appends the error data of a JSON-RPC error, which carries the revert reason.
func describeRPCError(err error) string {
	var d rpc.DataError
	if errors.As(err, &d) && d.ErrorData() != nil {
		return fmt.Sprintf("%s: %v", d.Error(), d.ErrorData())
	}

	return err.Error()
}
