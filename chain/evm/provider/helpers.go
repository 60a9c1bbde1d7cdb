package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RevertReason extracts a human readable revert reason from an eth_call / eth_estimateGas
// error. It returns false when err carries no revert data.
func RevertReason(err error) (string, bool) {
	data, perr := getJSONErrorData(err)
	if perr != nil || data == "" {
		return "", false
	}

	raw, derr := hexutil.Decode(data)
	if derr != nil {
		return data, true
	}

	if reason, uerr := abi.UnpackRevert(raw); uerr == nil {
		return reason, true
	}

	return data, true
}

// getJSONErrorData extracts the error data from a JSON Error.
func getJSONErrorData(err error) (string, error) {
	if err == nil {
		return "", errors.New("cannot parse nil error")
	}

	// Define a custom interface that matches the structure of the JSON error because it is a
	// private type in go-ethereum.
	//
	// https://github.com/ethereum/go-ethereum/blob/0983cd789ee1905aedaed96f72793e5af8466f34/rpc/json.go#L140
	type jsonError interface {
		Error() string
		ErrorCode() int
		ErrorData() any
	}

	var jerr jsonError
	ok := errors.As(err, &jerr)
	if !ok {
		return "", fmt.Errorf("error must be of type jsonError: %w", err)
	}

	if jerr.ErrorData() == nil {
		if strings.Contains(jerr.Error(), "missing trie node") {
			return "", errors.New("missing trie node, likely due to not using an archive node")
		}

		return "", nil
	}

	return fmt.Sprintf("%s", jerr.ErrorData()), nil
}
