package evm

import (
	"errors"
	"fmt"
	"strings"
)

// URLSchemePreference selects which endpoint of an RPC is dialed.
type URLSchemePreference int

const (
	URLSchemePreferenceNone URLSchemePreference = iota
	URLSchemePreferenceWS
	URLSchemePreferenceHTTP
)

// URLSchemePreferenceFromString converts "ws" or "http" to a URLSchemePreference.
func URLSchemePreferenceFromString(s string) (URLSchemePreference, error) {
	switch strings.ToLower(s) {
	case "ws":
		return URLSchemePreferenceWS, nil
	case "http", "":
		return URLSchemePreferenceHTTP, nil
	default:
		return URLSchemePreferenceNone, fmt.Errorf("invalid URL scheme preference: %q", s)
	}
}

// RPC is a single RPC endpoint of a network.
type RPC struct {
	Name               string
	WSURL              string
	HTTPURL            string
	PreferredURLScheme URLSchemePreference
}

// ToEndpoint returns the URL to dial according to the preferred scheme.
func (r RPC) ToEndpoint() (string, error) {
	switch r.PreferredURLScheme {
	case URLSchemePreferenceWS:
		if r.WSURL == "" {
			return "", fmt.Errorf("rpc %q prefers ws but has no ws url", r.Name)
		}

		return r.WSURL, nil
	case URLSchemePreferenceHTTP, URLSchemePreferenceNone:
		if r.HTTPURL == "" {
			return "", fmt.Errorf("rpc %q has no http url", r.Name)
		}

		return r.HTTPURL, nil
	default:
		return "", errors.New("unknown url scheme preference")
	}
}

// RPCConfig is the list of RPCs of one chain.
type RPCConfig struct {
	ChainSelector uint64
	RPCs          []RPC
}
