// Package transition sequences the sidebar's fade-out/fade-in when the
// active annotation changes. The coordinator is a two-state machine,
// Idle(display) -> Leaving(display, pending) -> Idle(pending), driven solely
// by resolved-target changes. The settle timer is a cancellable handle owned
// by the coordinator instance and released on Stop.
package transition

import (
	"sync"
	"time"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

// DefaultSettle is how long the leaving phase lasts before content swaps.
const DefaultSettle = 250 * time.Millisecond

// Phase identifies the coordinator's current state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLeaving Phase = "leaving"
)

// Display is a snapshot of what the sidebar should render.
type Display struct {
	Phase Phase
	// Current is the suggestion being shown. During PhaseLeaving it is the
	// outgoing suggestion, rendered faded/offset.
	Current *transcript.Suggestion
	// Entered is true for the first Idle snapshot after a swap, so renderers
	// can mark the content as entering.
	Entered bool
}

// Coordinator performs the two-phase content swap. Safe for concurrent use.
type Coordinator struct {
	settle   time.Duration
	onChange func(Display)

	mu      sync.Mutex
	display Display
	pending *transcript.Suggestion
	timer   *time.Timer
	stopped bool
}

// NewCoordinator creates a coordinator. onChange is invoked with each new
// display snapshot; it must not call back into the coordinator. A zero
// settle uses DefaultSettle.
func NewCoordinator(settle time.Duration, onChange func(Display)) *Coordinator {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if onChange == nil {
		onChange = func(Display) {}
	}
	return &Coordinator{settle: settle, onChange: onChange}
}

// Display returns the current snapshot.
func (c *Coordinator) Display() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// SetTarget reacts to the resolved active suggestion changing.
//
//   - Same suggestion as displayed (by OriginalPrompt identity): update
//     silently, no transition, so re-intersection of the same paragraph
//     never flickers.
//   - Nil target: clear immediately, no fade.
//   - No prior content: show immediately, skipping the leaving phase.
//   - Otherwise: enter Leaving, and after the settle duration swap to the
//     target. A change arriving mid-Leaving cancels the pending timer and
//     restarts the phase with the newest target.
func (c *Coordinator) SetTarget(target *transcript.Suggestion) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}

	current := c.display.Current
	if c.display.Phase == PhaseLeaving {
		// Compare against what the reader will see next, not the fading
		// content, so a bounce back to the pending target is not a new swap.
		current = c.pending
	}

	if sameSuggestion(current, target) {
		if c.display.Phase == PhaseIdle {
			c.display.Current = target
			c.display.Entered = false
			snapshot := c.display
			c.mu.Unlock()
			c.onChange(snapshot)
			return
		}
		c.pending = target
		c.mu.Unlock()
		return
	}

	c.cancelTimerLocked()

	switch {
	case target == nil:
		c.display = Display{Phase: PhaseIdle, Current: nil}
	case c.display.Current == nil && c.display.Phase == PhaseIdle:
		c.display = Display{Phase: PhaseIdle, Current: target, Entered: true}
	default:
		c.pending = target
		c.display = Display{Phase: PhaseLeaving, Current: c.display.Current}
		c.timer = time.AfterFunc(c.settle, c.completeSwap)
	}

	snapshot := c.display
	c.mu.Unlock()
	c.onChange(snapshot)
}

// completeSwap finishes the leaving phase.
func (c *Coordinator) completeSwap() {
	c.mu.Lock()
	if c.stopped || c.display.Phase != PhaseLeaving {
		c.mu.Unlock()
		return
	}
	c.display = Display{Phase: PhaseIdle, Current: c.pending, Entered: true}
	c.pending = nil
	c.timer = nil
	snapshot := c.display
	c.mu.Unlock()
	c.onChange(snapshot)
}

// Stop cancels any pending swap. Used on unmount so a late timer never
// updates a destroyed view.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.cancelTimerLocked()
}

func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// sameSuggestion compares by OriginalPrompt identity; two nils are the same.
func sameSuggestion(a, b *transcript.Suggestion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.OriginalPrompt == b.OriginalPrompt
}
