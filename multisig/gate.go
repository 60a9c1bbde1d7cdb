package multisig

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
)

// Confirmer asks the operator to approve a batch after showing its preview.
type Confirmer interface {
	Confirm(ctx context.Context, preview string) (bool, error)
}

var (
	_ Confirmer = (*ConsoleConfirmer)(nil)
	_ Confirmer = StaticConfirmer(false)
)

// confirmLabel is rendered by promptui as "<label>? [y/N]".
const confirmLabel = "Submit this batch to co-signers"

// ConsoleConfirmer prints the preview to Out and asks for a yes/no answer on In. Only "y"
// approves; "n", an empty answer or a closed input declines.
type ConsoleConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (c *ConsoleConfirmer) Confirm(ctx context.Context, preview string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintln(c.Out, preview); err != nil {
		return false, err
	}

	// The prompt closes its streams when done; the command's streams outlive it.
	prompt := promptui.Prompt{
		Label:     confirmLabel,
		IsConfirm: true,
		Stdin:     io.NopCloser(c.In),
		Stdout:    nopWriteCloser{c.Out},
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrEOF):
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt):
		return false, fmt.Errorf("confirmation interrupted: %w", err)
	default:
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// StaticConfirmer always gives the same answer. It stands in for the operator in tests.
type StaticConfirmer bool

func (s StaticConfirmer) Confirm(context.Context, string) (bool, error) {
	return bool(s), nil
}
