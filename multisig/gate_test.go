package multisig

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedBuffer guards the output the prompt writes from its own goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestConsoleConfirmer_Confirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "y", input: "y\n", want: true},
		{name: "upper case Y", input: "Y\n", want: true},
		{name: "n", input: "n\n"},
		{name: "empty answer", input: "\n"},
		{name: "anything else", input: "sure\n"},
		{name: "closed input", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := &lockedBuffer{}
			c := &ConsoleConfirmer{In: strings.NewReader(tt.input), Out: out}

			got, err := c.Confirm(context.Background(), "PREVIEW")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, strings.HasPrefix(out.String(), "PREVIEW\n"), "preview is shown before the prompt")
		})
	}
}

func TestConsoleConfirmer_CanceledContext(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := &lockedBuffer{}
	c := &ConsoleConfirmer{In: pr, Out: out}
	ok, err := c.Confirm(ctx, "PREVIEW")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Empty(t, out.String(), "nothing is shown once the run is canceled")
}

func TestStaticConfirmer(t *testing.T) {
	t.Parallel()

	ok, err := StaticConfirmer(true).Confirm(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = StaticConfirmer(false).Confirm(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}
