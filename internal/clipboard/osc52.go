package clipboard

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
)

// OSC52Writer commits text to the system clipboard through the terminal's
// OSC 52 escape sequence. The hosting terminal applies its own permission
// policy, which is surfaced to the reader the same way a browser permission
// denial would be.
type OSC52Writer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewOSC52Writer creates a writer that emits escape sequences to out
// (normally the controlling TTY).
func NewOSC52Writer(out io.Writer) *OSC52Writer {
	return &OSC52Writer{out: out}
}

// WriteText implements Writer.
func (w *OSC52Writer) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := osc52.New(text).WriteTo(w.out); err != nil {
		return fmt.Errorf("emitting osc52 sequence: %w", err)
	}
	return nil
}

var _ Writer = (*OSC52Writer)(nil)
