// Package fork drives an anvil node forked from a live network, so that a batch can be applied
// for real, as the multisig, before it is signed.
package fork

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
)

var oneEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ErrReverted is returned when a transaction is mined with a failed status.
var ErrReverted = errors.New("transaction reverted")

// RPCError is a JSON-RPC error object returned by the node. It exposes the same methods as the
// go-ethereum rpc error so revert data can be decoded the same way.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string  { return e.Message }
func (e *RPCError) ErrorCode() int { return e.Code }
func (e *RPCError) ErrorData() any { return e.Data }

// Receipt is the subset of a transaction receipt the fork client checks.
type Receipt struct {
	TxHash      common.Hash    `json:"transactionHash"`
	Status      hexutil.Uint64 `json:"status"`
	BlockNumber *hexutil.Big   `json:"blockNumber"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client operates the methods exposed by the Anvil node related to forking.
// For more information, see https://book.getfoundry.sh/reference/anvil/#custom-methods.
type Client struct {
	url    string
	client *resty.Client
	nextID atomic.Int64
}

// Option configures a Client.
type Option func(*resty.Client)

// WithTimeout sets the timeout of every request.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithHeaders sets headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *resty.Client) { c.SetHeaders(headers) }
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *resty.Client) { c.SetDebug(debug) }
}

// NewClient creates a new client for the anvil node at url.
func NewClient(url string, opts ...Option) *Client {
	rc := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
	for _, opt := range opts {
		opt(rc)
	}

	return &Client{url: url, client: rc}
}

// URL returns the node url.
func (c *Client) URL() string {
	return c.url
}

// Execute applies a call on the fork as if it were sent by from: the sender is impersonated and
// funded for gas, the transaction is sent and mined, and the receipt status is checked.
// A reverted call is never resent.
func (c *Client) Execute(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (*Receipt, error) {
	if err := c.ImpersonateAccount(ctx, from); err != nil {
		return nil, fmt.Errorf("failed to impersonate %s: %w", from, err)
	}

	if err := c.SetBalance(ctx, from, oneEth); err != nil {
		return nil, fmt.Errorf("failed to update balance of %s to 1 ETH: %w", from, err)
	}

	hash, err := c.SendTransaction(ctx, from, to, data, value)
	if err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	// Mine the transaction to properly update state.
	if err = c.Mine(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to mine transaction: %w", err)
	}

	receipt, err := c.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	if receipt.Status != 1 {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}

	return receipt, nil
}

// ImpersonateAccount lets the node accept unsigned transactions from account.
func (c *Client) ImpersonateAccount(ctx context.Context, account common.Address) error {
	return c.call(ctx, nil, "anvil_impersonateAccount", account.Hex())
}

// SetBalance updates the native balance of an account.
func (c *Client) SetBalance(ctx context.Context, account common.Address, balance *big.Int) error {
	return c.call(ctx, nil, "anvil_setBalance", account.Hex(), hexutil.EncodeBig(balance))
}

// SendTransaction sends an unsigned transaction from an impersonated account.
func (c *Client) SendTransaction(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = new(big.Int)
	}

	var hash common.Hash
	err := c.call(ctx, &hash, "eth_sendTransaction", map[string]string{
		"from":  from.Hex(),
		"to":    to.Hex(),
		"data":  hexutil.Encode(data),
		"value": hexutil.EncodeBig(value),
	})

	return hash, err
}

// Mine mines numBlocks blocks.
// Note: evm_setAutomine could be an alternative, but did not seem to be triggering state updates.
func (c *Client) Mine(ctx context.Context, numBlocks uint64) error {
	return c.call(ctx, nil, "anvil_mine", hexutil.EncodeUint64(numBlocks), hexutil.EncodeUint64(1))
}

// TransactionReceipt returns the receipt of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.call(ctx, &receipt, "eth_getTransactionReceipt", hash.Hex()); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, fmt.Errorf("no receipt for transaction %s", hash.Hex())
	}

	return receipt, nil
}

// call posts a JSON-RPC request and decodes the result into out when out is not nil.
func (c *Client) call(ctx context.Context, out any, method string, params ...any) error {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      c.nextID.Add(1),
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&rpcResponse{}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to call %s: http status %d", method, resp.StatusCode())
	}

	res, ok := resp.Result().(*rpcResponse)
	if !ok || res == nil {
		return fmt.Errorf("failed to call %s: unexpected response", method)
	}
	if res.Error != nil {
		return fmt.Errorf("%s: %w", method, res.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}

	return nil
}
