package multisig

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/smartcontractkit/mcms"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/chain/evm/fork"
	"github.com/saddle-finance/multisig-ops/chain/evm/provider"
	"github.com/saddle-finance/multisig-ops/contracts"
)

// first default anvil account
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var (
	testSelector = chainsel.ETHEREUM_MAINNET.Selector
	testMultisig = common.HexToAddress("0x3F8E527aF4e0c6e763e8f368AC679c44C45626aE")
	testToken    = common.HexToAddress("0xf1Dc500FdE233A4055e25e5BbF516372BC4F6871")
	recipientA   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	recipientB   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func transferCall(t *testing.T, to common.Address, amount int64) Call {
	t.Helper()

	data, err := contracts.PackTransfer(to, big.NewInt(amount))
	require.NoError(t, err)

	return Call{To: testToken, Data: data, ContractType: contracts.TypeERC20, Tags: []string{"refund"}}
}

func testReceipts(t *testing.T) []Receipt {
	t.Helper()

	return []Receipt{
		{Index: 0, Step: "transfer-0", Call: transferCall(t, recipientA, 100)},
		{Index: 1, Step: "transfer-1", Call: transferCall(t, recipientB, 200)},
	}
}

func testAssembler() *Assembler {
	a := NewAssembler(testSelector, testMultisig, "Refund affected LPs")
	a.now = func() time.Time { return time.Now().Add(time.Minute) }

	return a
}

func testProposal(t *testing.T, nonce uint64) *mcms.Proposal {
	t.Helper()

	p, err := testAssembler().Assemble(testReceipts(t), nonce)
	require.NoError(t, err)

	return p
}

func testSigner() *Signer {
	return NewSigner(provider.TransactorFromRaw(testPrivateKey).SignHash)
}

type fakeOpCounts struct {
	count uint64
	err   error
}

func (f fakeOpCounts) GetOpCount(context.Context, string) (uint64, error) {
	return f.count, f.err
}

type fakePending struct {
	proposals []*mcms.Proposal
	err       error
}

func (f fakePending) Pending(context.Context) ([]*mcms.Proposal, error) {
	return f.proposals, f.err
}

type forkCall struct {
	From common.Address
	To   common.Address
	Data []byte
}

// fakeFork records executed calls and fails the call at failAt (0 based) with err.
type fakeFork struct {
	mu     sync.Mutex
	calls  []forkCall
	failAt int
	err    error
}

func newFakeFork() *fakeFork {
	return &fakeFork{failAt: -1}
}

func (f *fakeFork) Execute(_ context.Context, from, to common.Address, data []byte, _ *big.Int) (*fork.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := len(f.calls)
	f.calls = append(f.calls, forkCall{From: from, To: to, Data: data})
	if idx == f.failAt {
		return nil, f.err
	}

	return &fork.Receipt{
		TxHash:  common.BigToHash(big.NewInt(int64(idx + 1))),
		Status:  1,
		GasUsed: hexutil.Uint64(21_000),
	}, nil
}

func (f *fakeFork) Calls() []forkCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]forkCall(nil), f.calls...)
}

func countLines(s, substr string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.Contains(line, substr) {
			n++
		}
	}

	return n
}
