package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/chain/evm"
)

const operatorYAML = `rpcs:
  - name: primary
    http_url: https://rpc.example.com
  - name: backup
    ws_url: wss://ws.example.com
keystore:
  path: /keys/deployer.json
artifacts_dir: /tmp/artifacts
`

func TestLoad(t *testing.T) { //nolint:paralleltest // uses t.Setenv
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(operatorYAML), 0o600))

	t.Run("file only", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "/keys/deployer.json", cfg.Keystore.Path)
		assert.Empty(t, cfg.Keystore.Password)
		assert.Equal(t, "/tmp/artifacts", cfg.ArtifactsDir)

		rpcs, err := cfg.EVMRPCs()
		require.NoError(t, err)
		require.Len(t, rpcs, 2)
		assert.Equal(t, evm.URLSchemePreferenceHTTP, rpcs[0].PreferredURLScheme)
		assert.Equal(t, evm.URLSchemePreferenceWS, rpcs[1].PreferredURLScheme)
	})

	t.Run("env overrides the file", func(t *testing.T) {
		t.Setenv("MULTISIG_OPS_KEYSTORE_PASSWORD", "hunter2")
		t.Setenv("MULTISIG_OPS_ARTIFACTS_DIR", "/var/artifacts")
		t.Setenv("MULTISIG_OPS_RPC_URLS", "http://localhost:8545,http://localhost:8546")
		t.Setenv("MULTISIG_OPS_FORK_URL", "http://localhost:8555")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "hunter2", cfg.Keystore.Password)
		assert.Equal(t, "/var/artifacts", cfg.ArtifactsDir)
		assert.Equal(t, "http://localhost:8555", cfg.ForkURL)
		assert.Equal(t, []string{"http://localhost:8545", "http://localhost:8546"}, cfg.RPCURLs)

		rpcs, err := cfg.EVMRPCs()
		require.NoError(t, err)
		require.Len(t, rpcs, 4)
		assert.Equal(t, "env-1", rpcs[3].Name)
	})

	t.Run("env only when the file is missing", func(t *testing.T) {
		t.Setenv("MULTISIG_OPS_PRIVATE_KEY", "0xabc")
		t.Setenv("MULTISIG_OPS_RPC_URLS", "http://localhost:8545")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultArtifactsDir, cfg.ArtifactsDir)
		assert.Equal(t, "0xabc", cfg.PrivateKey)
	})
}

func TestOperatorConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    OperatorConfig
		wantErr string
	}{
		{
			name: "valid",
			give: OperatorConfig{RPCURLs: []string{"http://localhost:8545"}, PrivateKey: "0x1"},
		},
		{
			name:    "no rpc",
			give:    OperatorConfig{PrivateKey: "0x1"},
			wantErr: "at least one RPC is required",
		},
		{
			name:    "rpc without url",
			give:    OperatorConfig{RPCs: []RPC{{Name: "empty"}}, PrivateKey: "0x1"},
			wantErr: "rpc 0 (empty): an http or ws url is required",
		},
		{
			name:    "no key",
			give:    OperatorConfig{RPCURLs: []string{"http://localhost:8545"}},
			wantErr: "an operator key is required",
		},
		{
			name: "both keys",
			give: OperatorConfig{
				RPCURLs:    []string{"http://localhost:8545"},
				PrivateKey: "0x1",
				Keystore:   KeystoreConfig{Path: "/k.json"},
			},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give.Validate()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOperatorConfig_EVMRPCsInvalidScheme(t *testing.T) {
	t.Parallel()

	cfg := OperatorConfig{RPCs: []RPC{{Name: "bad", HTTPURL: "http://x", PreferredURLScheme: "grpc"}}}
	_, err := cfg.EVMRPCs()
	require.ErrorContains(t, err, "rpc bad")
}
