package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonError mirrors the private go-ethereum rpc error type.
type jsonError struct {
	Code    int
	Message string
	Data    any
}

func (e *jsonError) Error() string  { return e.Message }
func (e *jsonError) ErrorCode() int { return e.Code }
func (e *jsonError) ErrorData() any { return e.Data }

func encodeRevert(t *testing.T, reason string) string {
	t.Helper()

	stringTy, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringTy}}.Pack(reason)
	require.NoError(t, err)

	return hexutil.Encode(append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...))
}

func TestRevertReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		giveErr    error
		wantReason string
		wantOK     bool
	}{
		{
			name:       "Error(string) revert",
			giveErr:    &jsonError{Code: 3, Message: "execution reverted", Data: encodeRevert(t, "ERC20: transfer amount exceeds balance")},
			wantReason: "ERC20: transfer amount exceeds balance",
			wantOK:     true,
		},
		{
			name:       "wrapped revert",
			giveErr:    fmt.Errorf("call 1: %w", &jsonError{Code: 3, Message: "execution reverted", Data: encodeRevert(t, "only admin")}),
			wantReason: "only admin",
			wantOK:     true,
		},
		{
			name:       "custom error data is returned raw",
			giveErr:    &jsonError{Code: 3, Message: "execution reverted", Data: "0xdeadbeef"},
			wantReason: "0xdeadbeef",
			wantOK:     true,
		},
		{
			name:    "no data",
			giveErr: &jsonError{Code: -32000, Message: "execution reverted"},
		},
		{
			name:    "not a json error",
			giveErr: errors.New("connection refused"),
		},
		{
			name:    "nil",
			giveErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reason, ok := RevertReason(tt.giveErr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func Test_getJSONErrorData(t *testing.T) {
	t.Parallel()

	_, err := getJSONErrorData(&jsonError{Code: -32000, Message: "missing trie node abc"})
	require.EqualError(t, err, "missing trie node, likely due to not using an archive node")

	_, err = getJSONErrorData(errors.New("plain"))
	require.ErrorContains(t, err, "error must be of type jsonError")
}
