package multisig

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

func TestDirSubmitter_SubmitAndPending(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	d := NewDirSubmitter(logger.Test(t), root)

	pending, err := d.Pending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending, "missing directory means nothing is pending")

	p := testProposal(t, 41)
	_, err = testSigner().Sign(p)
	require.NoError(t, err)

	s := Submission{Network: "ethereum-mainnet", Action: "Refund", Nonce: 41}
	path, err := d.Submit(context.Background(), s, p)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "proposals", "ethereum-mainnet-41-refund.json"), path)
	assert.Equal(t, filepath.Join(root, "reports", "ethereum-mainnet-41-refund.jsonl"), d.ReportPath(s))

	// stray files are ignored or skipped
	require.NoError(t, os.WriteFile(filepath.Join(d.ProposalsDir(), "notes.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(d.ProposalsDir(), "broken.json"), []byte("{"), 0o600))

	pending, err = d.Pending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p.Description, pending[0].Description)
	assert.Len(t, pending[0].Operations, 2)
	require.Len(t, pending[0].Signatures, 1)
	assert.Equal(t, p.Signatures[0], pending[0].Signatures[0])

	first, last, ok := NonceRange(pending[0], testSelector)
	require.True(t, ok)
	assert.Equal(t, uint64(41), first)
	assert.Equal(t, uint64(42), last)
}

func TestDirSubmitter_Errors(t *testing.T) {
	t.Parallel()

	t.Run("never overwrites", func(t *testing.T) {
		t.Parallel()

		d := NewDirSubmitter(logger.Test(t), t.TempDir())
		p := testProposal(t, 41)
		_, err := testSigner().Sign(p)
		require.NoError(t, err)

		s := Submission{Network: "ethereum-mainnet", Action: "refund", Nonce: 41}
		_, err = d.Submit(context.Background(), s, p)
		require.NoError(t, err)

		_, err = d.Submit(context.Background(), s, p)
		require.ErrorIs(t, err, os.ErrExist)
	})

	t.Run("failed write leaves no file", func(t *testing.T) {
		t.Parallel()

		d := NewDirSubmitter(logger.Test(t), t.TempDir())
		p := testProposal(t, 41)
		_, err := testSigner().Sign(p)
		require.NoError(t, err)

		fields := p.Operations[0].Transaction.AdditionalFields
		p.Operations[0].Transaction.AdditionalFields = json.RawMessage(`{"value":`)

		s := Submission{Network: "ethereum-mainnet", Action: "refund", Nonce: 41}
		_, err = d.Submit(context.Background(), s, p)
		require.ErrorContains(t, err, "failed to write proposal")
		assert.NoFileExists(t, d.ProposalPath(s))

		pending, err := d.Pending(context.Background())
		require.NoError(t, err)
		assert.Empty(t, pending)

		p.Operations[0].Transaction.AdditionalFields = fields
		path, err := d.Submit(context.Background(), s, p)
		require.NoError(t, err, "the nonce can be submitted again")
		assert.FileExists(t, path)
	})

	t.Run("unsigned batch", func(t *testing.T) {
		t.Parallel()

		d := NewDirSubmitter(logger.Test(t), t.TempDir())
		_, err := d.Submit(context.Background(), Submission{Network: "n", Action: "a"}, testProposal(t, 1))
		require.ErrorContains(t, err, "unsigned")
	})
}
