// Package sidebar drives the annotation sidebar: it owns the selection
// pipeline from viewport events and hover callbacks down to the displayed
// suggestion, and exposes the three copy actions (original, current
// candidate, compressed) per message index.
package sidebar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptpane/internal/clipboard"
	"github.com/fyrsmithlabs/promptpane/internal/compression"
	"github.com/fyrsmithlabs/promptpane/internal/contextpack"
	"github.com/fyrsmithlabs/promptpane/internal/notify"
	"github.com/fyrsmithlabs/promptpane/internal/selection"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
	"github.com/fyrsmithlabs/promptpane/internal/transition"
	"github.com/fyrsmithlabs/promptpane/internal/viewport"
)

// Controller wires viewport resolution, hover state, and suggestion
// transitions together for one transcript at a time.
type Controller struct {
	mu                sync.Mutex
	conversationLogID string
	messages          []transcript.Message
	matched           map[int]*transcript.Suggestion
	epoch             uint64

	resolver    *viewport.Resolver
	machine     *selection.Machine
	coordinator *transition.Coordinator
	workflow    *compression.Workflow
	deliverer   *clipboard.Deliverer
	notifier    notify.Notifier
	logger      *zap.Logger

	cancelEvents func()
	done         chan struct{}
}

// NewController builds a controller. onDisplay receives every sidebar
// display change (phase and content) and must not block. workflow may be
// nil when compressed copies are unavailable (no server configured).
func NewController(
	resolver *viewport.Resolver,
	coordinator *transition.Coordinator,
	workflow *compression.Workflow,
	deliverer *clipboard.Deliverer,
	notifier notify.Notifier,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		resolver:    resolver,
		machine:     selection.NewMachine(nil),
		coordinator: coordinator,
		workflow:    workflow,
		deliverer:   deliverer,
		notifier:    notifier,
		logger:      logger,
		matched:     map[int]*transcript.Suggestion{},
		done:        make(chan struct{}),
	}

	events, cancel := resolver.Subscribe()
	c.cancelEvents = cancel
	go c.consume(events)

	return c
}

// SetTranscript replaces the transcript under the controller. Suggestions
// are bound to user messages by content, the resolver's tracked set is
// rebuilt, and any selection or pending transition from the previous
// transcript is discarded so no stale index survives the swap.
func (c *Controller) SetTranscript(conversationLogID string, messages []transcript.Message, suggestions []transcript.Suggestion) {
	c.mu.Lock()
	c.conversationLogID = conversationLogID
	c.messages = messages
	c.matched = transcript.MatchSuggestions(messages, suggestions)

	roleOf := func(index int) (transcript.Role, bool) {
		if index < 0 || index >= len(messages) {
			return "", false
		}
		return messages[index].Role, true
	}
	c.machine.Reset(roleOf)

	tracked := make([]int, 0, len(c.matched))
	for idx := range c.matched {
		tracked = append(tracked, idx)
	}
	// The epoch must advance under the same lock that swaps the messages:
	// consume discards any event stamped with an earlier generation, so a
	// resolution computed against the old transcript can never re-anchor
	// the selection machine after the swap.
	c.epoch = c.resolver.SetTracked(tracked)
	c.mu.Unlock()

	c.coordinator.SetTarget(nil)

	c.logger.Debug("transcript set",
		zap.String("conversation_log_id", conversationLogID),
		zap.Int("messages", len(messages)),
		zap.Int("matched_suggestions", len(tracked)))
}

// HoverEnter reports the pointer entering a message.
func (c *Controller) HoverEnter(index int) {
	c.mu.Lock()
	c.machine.HoverEnter(index)
	c.mu.Unlock()
	c.retarget()
}

// HoverLeave reports the pointer leaving the hovered message.
func (c *Controller) HoverLeave() {
	c.mu.Lock()
	c.machine.HoverLeave()
	c.mu.Unlock()
	c.retarget()
}

// ActiveIndex returns the resolved selection, if any.
func (c *Controller) ActiveIndex() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index, _, ok := c.machine.Resolve()
	return index, ok
}

// Display returns the sidebar's current display state.
func (c *Controller) Display() transition.Display {
	return c.coordinator.Display()
}

// SuggestionAt returns the suggestion bound to a message index, if any.
func (c *Controller) SuggestionAt(index int) *transcript.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return transcript.SuggestionFor(c.matched, index)
}

// Close detaches the resolver subscription and cancels pending transition
// timers. Copy deliveries already in flight are left to resolve on their
// own.
func (c *Controller) Close() {
	c.cancelEvents()
	<-c.done
	c.coordinator.Stop()
}

func (c *Controller) consume(events <-chan viewport.Event) {
	defer close(c.done)
	for ev := range events {
		c.mu.Lock()
		// An event emitted just before a transcript swap can arrive after
		// it. Its generation predates the current epoch, so it describes
		// resolution over the old transcript and must not touch the
		// selection machine at all: even a valid-looking index would
		// re-anchor the last-known selection to a message the reader
		// never viewed in this transcript.
		if ev.Seq < c.epoch {
			c.mu.Unlock()
			continue
		}
		if ev.Active && ev.Index >= 0 && ev.Index < len(c.messages) {
			index := ev.Index
			c.machine.ViewportChange(&index)
		} else {
			c.machine.ViewportChange(nil)
		}
		c.mu.Unlock()
		c.retarget()
	}
}

// retarget recomputes the selection and hands the winning suggestion to
// the transition coordinator.
func (c *Controller) retarget() {
	c.mu.Lock()
	index, _, ok := c.machine.Resolve()
	var target *transcript.Suggestion
	if ok {
		target = transcript.SuggestionFor(c.matched, index)
	}
	c.mu.Unlock()

	c.coordinator.SetTarget(target)
}

// CopyOriginal packages the conversation up to and including index with
// the message's own content as the task, and delivers it to the clipboard.
func (c *Controller) CopyOriginal(ctx context.Context, index int) error {
	prefix, ok := c.prefix(index)
	if !ok {
		return c.nothingToCopy()
	}
	text, err := contextpack.Package(prefix)
	if err != nil {
		if errors.Is(err, contextpack.ErrEmptyPackage) {
			return c.nothingToCopy()
		}
		return err
	}
	return c.deliver(ctx, text, "original prompt copied with history")
}

// CopyCurrent is CopyOriginal with the task replaced by the suggestion's
// leading improved candidate. Without a bound suggestion (or candidates)
// it falls back to the original content.
func (c *Controller) CopyCurrent(ctx context.Context, index int) error {
	suggestion := c.SuggestionAt(index)
	if suggestion == nil || len(suggestion.BetterCandidates) == 0 {
		return c.CopyOriginal(ctx, index)
	}
	prefix, ok := c.prefix(index)
	if !ok {
		return c.nothingToCopy()
	}
	text, err := contextpack.PackageWithTask(prefix, suggestion.BetterCandidates[0].Prompt)
	if err != nil {
		if errors.Is(err, contextpack.ErrEmptyPackage) {
			return c.nothingToCopy()
		}
		return err
	}
	return c.deliver(ctx, text, "improved prompt copied with history")
}

// CopyCompressed delivers a compressed package whose history was reduced
// to extracted facts by the server.
func (c *Controller) CopyCompressed(ctx context.Context, index int) error {
	c.mu.Lock()
	logID := c.conversationLogID
	messages := c.messages
	c.mu.Unlock()

	if c.workflow == nil {
		c.notifier.Notify(notify.LevelWarning, "compressed copy unavailable: no server configured")
		return fmt.Errorf("compression workflow not configured")
	}
	if index < 0 || index >= len(messages) {
		return c.nothingToCopy()
	}

	comp, err := c.workflow.Compose(ctx, logID, messages, index)
	if err != nil {
		c.notifier.Notify(notify.LevelError, "compressed copy failed: "+err.Error())
		return err
	}

	message := "compressed context copied"
	if comp.LimitExceeded {
		message = "compressed context copied (character budget exceeded, shortened version substituted)"
	}
	if err := c.deliver(ctx, comp.Text, message); err != nil {
		return err
	}
	if comp.LimitExceeded {
		// deliver already notified success; upgrade visibility of the budget miss.
		c.notifier.Notify(notify.LevelWarning, "requested character budget could not be honored")
	}
	return nil
}

func (c *Controller) prefix(index int) ([]transcript.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.messages) {
		return nil, false
	}
	return c.messages[:index+1], true
}

func (c *Controller) nothingToCopy() error {
	c.notifier.Notify(notify.LevelInfo, "nothing to copy")
	return contextpack.ErrEmptyPackage
}

// deliver writes text to the clipboard and converts the outcome into a
// notification. Delivery may suspend waiting for focus; callers run copy
// actions concurrently and independently.
func (c *Controller) deliver(ctx context.Context, text, successMessage string) error {
	err := c.deliverer.Deliver(ctx, text)
	switch {
	case err == nil:
		c.notifier.Notify(notify.LevelInfo, successMessage)
		return nil
	default:
		var timeoutErr *clipboard.TimeoutError
		var writeErr *clipboard.WriteError
		switch {
		case errors.As(err, &timeoutErr):
			c.notifier.Notify(notify.LevelError, "clipboard write timed out waiting for focus")
		case errors.As(err, &writeErr):
			c.notifier.Notify(notify.LevelError, "clipboard write failed: "+writeErr.Err.Error())
		default:
			c.notifier.Notify(notify.LevelError, "clipboard write failed: "+err.Error())
		}
		c.logger.Warn("clipboard delivery failed", zap.Error(err))
		return err
	}
}
