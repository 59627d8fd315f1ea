package clipboard

import "sync"

// FocusTracker is a FocusSignal fed by the UI layer's focus and blur events
// (terminal focus reporting, window focus callbacks). It broadcasts each
// focus gain to all one-shot listeners registered at that moment.
type FocusTracker struct {
	mu        sync.Mutex
	focused   bool
	listeners map[int]chan struct{}
	nextID    int
}

// NewFocusTracker creates a tracker with the given initial focus state.
func NewFocusTracker(focused bool) *FocusTracker {
	return &FocusTracker{
		focused:   focused,
		listeners: make(map[int]chan struct{}),
	}
}

// SetFocused records a focus change. A transition to focused closes every
// registered one-shot listener.
func (t *FocusTracker) SetFocused(focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	gained := focused && !t.focused
	t.focused = focused
	if !gained {
		return
	}
	for id, ch := range t.listeners {
		close(ch)
		delete(t.listeners, id)
	}
}

// HasFocus implements FocusSignal.
func (t *FocusTracker) HasFocus() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// FocusGained implements FocusSignal. The returned channel closes on the
// next focus gain; release detaches the listener if it has not fired.
func (t *FocusTracker) FocusGained() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	ch := make(chan struct{})
	t.listeners[id] = ch
	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}
