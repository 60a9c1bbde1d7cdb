package multisig

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	chainsel "github.com/smartcontractkit/chain-selectors"
	"github.com/smartcontractkit/mcms"
	mcmstypes "github.com/smartcontractkit/mcms/types"

	"github.com/saddle-finance/multisig-ops/contracts"
)

// Preview is what the operator reviews before confirming a batch.
type Preview struct {
	Action        string
	ChainSelector uint64
	Proposal      *mcms.Proposal
	// Summary holds action specific lines, e.g. totals.
	Summary []string
	// Colored enables ANSI colors on the header lines.
	Colored bool
}

// Render writes the preview to w: the batch header followed by one table row per operation.
func (p Preview) Render(w io.Writer) error {
	first, last, ok := NonceRange(p.Proposal, p.ChainSelector)
	if !ok {
		return fmt.Errorf("%w: proposal has no operations for selector %d", ErrEmptyBatch, p.ChainSelector)
	}

	hash, err := p.Proposal.SigningHash()
	if err != nil {
		return fmt.Errorf("failed to compute signing hash: %w", err)
	}

	network := strconv.FormatUint(p.ChainSelector, 10)
	if c, exists := chainsel.ChainBySelector(p.ChainSelector); exists {
		network = c.Name
	}
	md := p.Proposal.ChainMetadata[mcmstypes.ChainSelector(p.ChainSelector)]
	validUntil := time.Unix(int64(p.Proposal.ValidUntil), 0)

	title := color.New(color.Bold, color.FgCyan)
	label := color.New(color.Bold)
	if !p.Colored {
		title.DisableColor()
		label.DisableColor()
	}

	var b strings.Builder
	b.WriteString(title.Sprintf("Batch %q", p.Proposal.Description) + "\n")
	header := [][2]string{
		{"Action", p.Action},
		{"Network", network},
		{"Multisig", md.MCMAddress},
		{"Nonce", fmt.Sprintf("%d..%d (%d operations)", first, last, last-first+1)},
		{"Valid until", fmt.Sprintf("%s (%s)", validUntil.UTC().Format(time.RFC3339), humanize.Time(validUntil))},
		{"Signing hash", hash.Hex()},
		{"Signatures", strconv.Itoa(len(p.Proposal.Signatures))},
	}
	for _, h := range header {
		fmt.Fprintf(&b, "%s %s\n", label.Sprintf("%-13s", h[0]+":"), h[1])
	}
	for _, line := range p.Summary {
		b.WriteString("  " + line + "\n")
	}

	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"#", "Nonce", "Target", "Contract", "Call", "Tags"})
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Right: true, Top: true, Bottom: true})
	for i, op := range p.Proposal.Operations {
		tx := op.Transaction
		table.Append([]string{
			strconv.Itoa(i),
			strconv.FormatUint(first+uint64(i), 10),
			tx.To,
			tx.ContractType,
			contracts.DescribeCall(tx.ContractType, tx.Data),
			strings.Join(tx.Tags, ","),
		})
	}
	table.Render()

	_, err = io.WriteString(w, b.String())

	return err
}
