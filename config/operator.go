// Package config loads the operator configuration (RPCs, signing key, artifacts directory) and
// the plan files that carry the vote data of an action.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/viper"

	"github.com/saddle-finance/multisig-ops/chain/evm"
)

// RPC is one endpoint of the network.
type RPC struct {
	Name               string `mapstructure:"name" yaml:"name"`
	HTTPURL            string `mapstructure:"http_url" yaml:"http_url"`
	WSURL              string `mapstructure:"ws_url" yaml:"ws_url"`
	PreferredURLScheme string `mapstructure:"preferred_url_scheme" yaml:"preferred_url_scheme"`
}

// KeystoreConfig points to the encrypted operator key.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type KeystoreConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`         // The path to the go-ethereum keystore JSON file
	Password string `mapstructure:"password" yaml:"password"` // Secret: The keystore password. Prompted for when empty.
}

// OperatorConfig is the configuration of the operator running the actions.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type OperatorConfig struct {
	RPCs []RPC `mapstructure:"rpcs" yaml:"rpcs"`
	// RPCURLs is a shortcut for HTTP only endpoints, mostly set through the environment.
	RPCURLs      []string       `mapstructure:"rpc_urls" yaml:"rpc_urls"`
	PrivateKey   string         `mapstructure:"private_key" yaml:"private_key"` // Secret: Raw hex operator key. Prefer the keystore.
	Keystore     KeystoreConfig `mapstructure:"keystore" yaml:"keystore"`
	ArtifactsDir string         `mapstructure:"artifacts_dir" yaml:"artifacts_dir"` // Where proposals and reports are written
	ForkURL      string         `mapstructure:"fork_url" yaml:"fork_url"`           // The anvil node used by --fork
}

// DefaultArtifactsDir is used when no artifacts directory is configured.
const DefaultArtifactsDir = "artifacts"

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
func Load(filePath string) (*OperatorConfig, error) {
	v := viper.New()
	v.SetDefault("artifacts_dir", DefaultArtifactsDir)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
			}
		}
	}

	cfg := &OperatorConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// envBindings maps config keys to the environment variables that can provide them.
var envBindings = map[string][]string{
	"rpc_urls":          {"MULTISIG_OPS_RPC_URLS"},
	"private_key":       {"MULTISIG_OPS_PRIVATE_KEY"},
	"keystore.path":     {"MULTISIG_OPS_KEYSTORE_PATH"},
	"keystore.password": {"MULTISIG_OPS_KEYSTORE_PASSWORD"},
	"artifacts_dir":     {"MULTISIG_OPS_ARTIFACTS_DIR"},
	"fork_url":          {"MULTISIG_OPS_FORK_URL"},
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that the operator can connect and sign.
func (c *OperatorConfig) Validate() error {
	if len(c.RPCs) == 0 && len(c.RPCURLs) == 0 {
		return errors.New("at least one RPC is required")
	}
	for i, rpc := range c.RPCs {
		if rpc.HTTPURL == "" && rpc.WSURL == "" {
			return fmt.Errorf("rpc %d (%s): an http or ws url is required", i, rpc.Name)
		}
	}
	if c.PrivateKey != "" && c.Keystore.Path != "" {
		return errors.New("private key and keystore are mutually exclusive")
	}
	if c.PrivateKey == "" && c.Keystore.Path == "" {
		return errors.New("an operator key is required: set a keystore path or a private key")
	}

	return nil
}

// EVMRPCs returns the configured endpoints, the file ones first.
func (c *OperatorConfig) EVMRPCs() ([]evm.RPC, error) {
	rpcs := make([]evm.RPC, 0, len(c.RPCs)+len(c.RPCURLs))
	for _, r := range c.RPCs {
		scheme, err := evm.URLSchemePreferenceFromString(r.PreferredURLScheme)
		if err != nil {
			return nil, fmt.Errorf("rpc %s: %w", r.Name, err)
		}
		if r.PreferredURLScheme == "" && r.HTTPURL == "" {
			scheme = evm.URLSchemePreferenceWS
		}
		rpcs = append(rpcs, evm.RPC{
			Name:               r.Name,
			HTTPURL:            r.HTTPURL,
			WSURL:              r.WSURL,
			PreferredURLScheme: scheme,
		})
	}
	for i, url := range c.RPCURLs {
		if url == "" {
			continue
		}
		rpcs = append(rpcs, evm.RPC{
			Name:               fmt.Sprintf("env-%d", i),
			HTTPURL:            url,
			PreferredURLScheme: evm.URLSchemePreferenceHTTP,
		})
	}

	return rpcs, nil
}
