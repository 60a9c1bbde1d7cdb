package evm

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	chain_selectors "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/internal/testutils"
	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

var sepoliaSelector = chain_selectors.ETHEREUM_TESTNET_SEPOLIA.Selector

func newHealthyServer(t *testing.T) *testutils.RPCServer {
	t.Helper()

	return testutils.NewRPCServer(t, map[string]testutils.RPCHandler{
		"eth_blockNumber": testutils.Static("0x1"),
		"eth_chainId":     testutils.Static("0xaa36a7"),
	})
}

func httpRPC(name, url string) RPC {
	return RPC{Name: name, HTTPURL: url, PreferredURLScheme: URLSchemePreferenceHTTP}
}

func TestNewMultiClient(t *testing.T) {
	t.Parallel()

	srv := newHealthyServer(t)
	lggr := logger.Test(t)

	mc, err := NewMultiClient(lggr, RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{httpRPC("primary", srv.URL)}})
	require.NoError(t, err)

	assert.Equal(t, "ethereum-testnet-sepolia", mc.chainName)
	assert.Equal(t, uint(RPCDefaultRetryAttempts), mc.RetryConfig.Attempts)
	assert.Equal(t, RPCDefaultRetryDelay, mc.RetryConfig.Delay)
	assert.Equal(t, uint(RPCDefaultDialRetryAttempts), mc.RetryConfig.DialAttempts)
	assert.Empty(t, mc.Backups)

	mc, err = NewMultiClient(lggr, RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{
		httpRPC("primary", srv.URL),
		httpRPC("backup", srv.URL),
	}})
	require.NoError(t, err)
	require.Len(t, mc.Backups, 1)
}

func TestNewMultiClient_Errors(t *testing.T) {
	t.Parallel()

	srv := newHealthyServer(t)

	tests := []struct {
		name    string
		cfg     RPCConfig
		wantErr string
	}{
		{
			name:    "no rpcs",
			cfg:     RPCConfig{ChainSelector: sepoliaSelector},
			wantErr: "no RPCs provided",
		},
		{
			name:    "unknown selector",
			cfg:     RPCConfig{ChainSelector: 42, RPCs: []RPC{httpRPC("primary", srv.URL)}},
			wantErr: "chain with selector 42 not found",
		},
		{
			name:    "missing url",
			cfg:     RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{{Name: "empty"}}},
			wantErr: "no valid RPC clients created",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewMultiClient(logger.Test(t), tt.cfg)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMultiClient_HealthCheckSkipsBadRPC(t *testing.T) {
	t.Parallel()

	bad := testutils.NewRPCServer(t, map[string]testutils.RPCHandler{})
	good := newHealthyServer(t)

	mc, err := NewMultiClient(logger.Test(t), RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{
		httpRPC("bad", bad.URL),
		httpRPC("good", good.URL),
	}})
	require.NoError(t, err)
	require.Empty(t, mc.Backups)

	id, err := mc.ChainID(t.Context())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(11155111), id)
}

func TestMultiClient_ReadsFailOverToBackup(t *testing.T) {
	t.Parallel()

	primary := newHealthyServer(t)
	backup := newHealthyServer(t)
	primary.Handle("eth_getBalance", func([]json.RawMessage) (any, error) {
		return nil, errors.New("upstream unavailable")
	})
	backup.Handle("eth_getBalance", testutils.Static("0x64"))

	mc, err := NewMultiClient(logger.Test(t), RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{
		httpRPC("primary", primary.URL),
		httpRPC("backup", backup.URL),
	}}, WithRetryConfig(RetryConfig{Attempts: 1, Timeout: time.Second, DialAttempts: 1, DialTimeout: time.Second}))
	require.NoError(t, err)

	bal, err := mc.BalanceAt(t.Context(), common.HexToAddress("0x01"), nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), bal)

	// the backup that answered is now the primary
	_, err = mc.BalanceAt(t.Context(), common.HexToAddress("0x01"), nil)
	require.NoError(t, err)
	assert.Len(t, primary.Requests("eth_getBalance"), 1)
	assert.Len(t, backup.Requests("eth_getBalance"), 2)
}

func TestMultiClient_SendTransactionIsNotRetried(t *testing.T) {
	t.Parallel()

	primary := newHealthyServer(t)
	backup := newHealthyServer(t)
	primary.Handle("eth_sendRawTransaction", func([]json.RawMessage) (any, error) {
		return nil, errors.New("nonce too low")
	})
	backup.Handle("eth_sendRawTransaction", testutils.Static(common.Hash{}.Hex()))

	mc, err := NewMultiClient(logger.Test(t), RPCConfig{ChainSelector: sepoliaSelector, RPCs: []RPC{
		httpRPC("primary", primary.URL),
		httpRPC("backup", backup.URL),
	}})
	require.NoError(t, err)

	tx := types.NewTx(&types.LegacyTx{Nonce: 1, Gas: 21000, GasPrice: big.NewInt(1), Value: big.NewInt(0)})
	err = mc.SendTransaction(context.Background(), tx)
	require.ErrorContains(t, err, "nonce too low")

	assert.Len(t, primary.Requests("eth_sendRawTransaction"), 1)
	assert.Empty(t, backup.Requests("eth_sendRawTransaction"))
}

func TestRPC_ToEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rpc     RPC
		want    string
		wantErr string
	}{
		{
			name: "http",
			rpc:  RPC{Name: "a", HTTPURL: "http://localhost:8545", WSURL: "ws://localhost:8546", PreferredURLScheme: URLSchemePreferenceHTTP},
			want: "http://localhost:8545",
		},
		{
			name: "ws",
			rpc:  RPC{Name: "a", HTTPURL: "http://localhost:8545", WSURL: "ws://localhost:8546", PreferredURLScheme: URLSchemePreferenceWS},
			want: "ws://localhost:8546",
		},
		{
			name: "none defaults to http",
			rpc:  RPC{Name: "a", HTTPURL: "http://localhost:8545"},
			want: "http://localhost:8545",
		},
		{
			name:    "ws missing",
			rpc:     RPC{Name: "a", HTTPURL: "http://localhost:8545", PreferredURLScheme: URLSchemePreferenceWS},
			wantErr: `rpc "a" prefers ws but has no ws url`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.rpc.ToEndpoint()
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestURLSchemePreferenceFromString(t *testing.T) {
	t.Parallel()

	got, err := URLSchemePreferenceFromString("WS")
	require.NoError(t, err)
	assert.Equal(t, URLSchemePreferenceWS, got)

	got, err = URLSchemePreferenceFromString("")
	require.NoError(t, err)
	assert.Equal(t, URLSchemePreferenceHTTP, got)

	_, err = URLSchemePreferenceFromString("grpc")
	require.Error(t, err)
}
