package multisig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/smartcontractkit/mcms"

	"github.com/saddle-finance/multisig-ops/pkg/logger"
)

// Submission identifies a signed batch handed to co-signers.
type Submission struct {
	Network string
	Action  string
	Nonce   uint64
}

// Submitter hands a signed batch over to co-signers and knows which batches are still pending.
type Submitter interface {
	PendingLister
	Submit(ctx context.Context, s Submission, proposal *mcms.Proposal) (string, error)
}

var _ Submitter = (*DirSubmitter)(nil)

// DirSubmitter stores signed proposals as JSON files under <root>/proposals. The files are
// picked up by co-signers, and proposals found there count as pending for the nonce guard.
type DirSubmitter struct {
	root string
	lggr logger.Logger
}

func NewDirSubmitter(lggr logger.Logger, root string) *DirSubmitter {
	return &DirSubmitter{root: root, lggr: lggr.Named("submitter")}
}

// ProposalsDir returns the directory holding the proposal files.
func (d *DirSubmitter) ProposalsDir() string {
	return filepath.Join(d.root, "proposals")
}

// ProposalPath returns the file a submission is written to.
func (d *DirSubmitter) ProposalPath(s Submission) string {
	return filepath.Join(d.ProposalsDir(), fileName(s, ".json"))
}

// ReportPath returns the audit report file kept next to the proposal of s.
func (d *DirSubmitter) ReportPath(s Submission) string {
	return filepath.Join(d.root, "reports", fileName(s, ".jsonl"))
}

// Submit writes the proposal. An existing file is never overwritten.
func (d *DirSubmitter) Submit(ctx context.Context, s Submission, proposal *mcms.Proposal) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(proposal.Signatures) == 0 {
		return "", errors.New("refusing to submit an unsigned batch")
	}

	if err := os.MkdirAll(d.ProposalsDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create proposals directory: %w", err)
	}

	path := d.ProposalPath(s)
	if err := writeProposalFile(path, proposal); err != nil {
		return "", err
	}

	d.lggr.Infow("Batch handed to co-signers", "path", path, "nonce", s.Nonce, "operations", len(proposal.Operations))

	return path, nil
}

// writeProposalFile creates path exclusively. A partly written file is removed so that the nonce
// can be submitted again and Pending never sees it.
func writeProposalFile(path string, proposal *mcms.Proposal) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create proposal file: %w", err)
	}
	defer func() {
		cerr := f.Close()
		if err == nil && cerr != nil {
			err = fmt.Errorf("failed to close proposal file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err = mcms.WriteProposal(f, proposal); err != nil {
		return fmt.Errorf("failed to write proposal: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to flush proposal: %w", err)
	}

	return nil
}

// Pending returns every proposal stored in the proposals directory. Files that cannot be
// parsed are skipped with a warning.
func (d *DirSubmitter) Pending(ctx context.Context) ([]*mcms.Proposal, error) {
	entries, err := os.ReadDir(d.ProposalsDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	proposals := make([]*mcms.Proposal, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := readProposal(filepath.Join(d.ProposalsDir(), name))
		if err != nil {
			d.lggr.Warnw("Skipping unreadable proposal", "file", name, "error", err)
			continue
		}
		proposals = append(proposals, p)
	}

	return proposals, nil
}

func readProposal(path string) (*mcms.Proposal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return mcms.NewProposal(f)
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)

func fileName(s Submission, ext string) string {
	clean := func(v string) string {
		return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(v), "-"), "-")
	}

	return fmt.Sprintf("%s-%d-%s%s", clean(s.Network), s.Nonce, clean(s.Action), ext)
}
