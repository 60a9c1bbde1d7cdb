package multisig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview_Render(t *testing.T) {
	t.Parallel()

	p := testProposal(t, 41)
	_, err := testSigner().Sign(p)
	require.NoError(t, err)
	hash, err := p.SigningHash()
	require.NoError(t, err)

	var out strings.Builder
	err = Preview{
		Action:        "refund",
		ChainSelector: testSelector,
		Proposal:      p,
		Summary:       []string{"Total: 300 SDL to 2 recipients"},
	}.Render(&out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, `Batch "Refund affected LPs"`)
	assert.Contains(t, got, "ethereum-mainnet")
	assert.Contains(t, got, testMultisig.Hex())
	assert.Contains(t, got, "41..42 (2 operations)")
	assert.Contains(t, got, hash.Hex())
	assert.Regexp(t, `Signatures:\s+1\n`, got)
	assert.Contains(t, got, "Total: 300 SDL to 2 recipients")
	assert.NotContains(t, got, "\x1b[", "colors are off")

	assert.Equal(t, 1, countLines(got, "transfer("+recipientA.Hex()+", 100)"))
	assert.Equal(t, 1, countLines(got, "transfer("+recipientB.Hex()+", 200)"))
	assert.Equal(t, 2, countLines(got, testToken.Hex()), "one row per operation")
}

func TestPreview_RenderWithoutOperations(t *testing.T) {
	t.Parallel()

	p := testProposal(t, 41)
	p.Operations = nil

	err := Preview{Action: "refund", ChainSelector: testSelector, Proposal: p}.Render(&strings.Builder{})
	require.ErrorIs(t, err, ErrEmptyBatch)
}
