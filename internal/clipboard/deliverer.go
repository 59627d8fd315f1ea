// Package clipboard delivers text payloads to the system clipboard,
// tolerating the platform rule that clipboard writes require the document
// (or terminal) to currently hold input focus. When focus is absent the
// deliverer parks the payload on a one-shot focus listener and writes once
// focus returns, bounded by a timeout.
//
// The deliverer renders no UI; callers surface success and failure as
// transient notifications.
package clipboard

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout bounds how long a delivery waits for focus to return.
	DefaultTimeout = 5 * time.Minute
	// DefaultSettle is the pause after focus returns before writing, to
	// avoid racing the platform's own focus handling.
	DefaultSettle = 100 * time.Millisecond
)

// Writer commits text to the system clipboard.
type Writer interface {
	WriteText(ctx context.Context, text string) error
}

// FocusSignal reports whether the surface that owns the clipboard currently
// holds input focus, and lets a delivery register for the next focus-gained
// event. Each registration is one-shot and independent: concurrent
// deliveries each get their own channel, and release detaches it.
type FocusSignal interface {
	HasFocus() bool
	FocusGained() (ch <-chan struct{}, release func())
}

// Deliverer implements the delivery protocol over a Writer and FocusSignal.
type Deliverer struct {
	writer Writer
	focus  FocusSignal
	logger *zap.Logger

	timeout time.Duration
	settle  time.Duration
}

// Option customizes a Deliverer.
type Option func(*Deliverer)

// WithTimeout overrides the focus-wait budget.
func WithTimeout(d time.Duration) Option {
	return func(dl *Deliverer) { dl.timeout = d }
}

// WithSettle overrides the post-focus settle delay.
func WithSettle(d time.Duration) Option {
	return func(dl *Deliverer) { dl.settle = d }
}

// NewDeliverer creates a deliverer. logger may be nil.
func NewDeliverer(writer Writer, focus FocusSignal, logger *zap.Logger, opts ...Option) *Deliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Deliverer{
		writer:  writer,
		focus:   focus,
		logger:  logger,
		timeout: DefaultTimeout,
		settle:  DefaultSettle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver writes text to the clipboard. If focus is held, the write happens
// immediately. Otherwise the call suspends until focus returns (plus the
// settle delay) or the timeout elapses.
//
// Returns *TimeoutError when focus never returns, *WriteError when the
// write itself rejects, or ctx.Err() when the caller cancels. Deliveries are
// independent; a second Deliver while a first is parked does not disturb
// the first's listener or timer.
func (d *Deliverer) Deliver(ctx context.Context, text string) error {
	if d.focus.HasFocus() {
		return d.write(ctx, text)
	}

	d.logger.Debug("clipboard write deferred until focus returns",
		zap.Duration("timeout", d.timeout))

	gained, release := d.focus.FocusGained()
	defer release()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case <-gained:
	case <-timer.C:
		return &TimeoutError{Waited: d.timeout}
	case <-ctx.Done():
		return ctx.Err()
	}

	// Let the platform finish its own focus handling before writing.
	settle := time.NewTimer(d.settle)
	defer settle.Stop()
	select {
	case <-settle.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	return d.write(ctx, text)
}

func (d *Deliverer) write(ctx context.Context, text string) error {
	if err := d.writer.WriteText(ctx, text); err != nil {
		return &WriteError{Err: err}
	}
	d.logger.Debug("clipboard write committed", zap.Int("bytes", len(text)))
	return nil
}
