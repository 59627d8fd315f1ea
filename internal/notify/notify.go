// Package notify carries transient user-facing notifications from copy
// actions and other background work to whatever surface renders them. The
// hub fans notifications out to subscribers; a UI layer shows them as
// toasts, a CLI prints them.
package notify

import (
	"sync"
	"time"
)

// Level classifies a notification for rendering.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single transient message.
type Notification struct {
	Level   Level
	Message string
	Time    time.Time
}

// Notifier accepts notifications. Implementations must be safe for
// concurrent use and must never block the caller.
type Notifier interface {
	Notify(level Level, message string)
}

// Hub fans notifications out to subscriber channels. Slow subscribers drop
// notifications rather than blocking the producer.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int
	now    func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan Notification),
		now:  time.Now,
	}
}

// Notify implements Notifier.
func (h *Hub) Notify(level Level, message string) {
	n := Notification{Level: level, Message: message, Time: h.now()}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe registers a buffered channel for future notifications. The
// returned cancel func detaches and closes it.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Notification, 16)
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

// Recorder is a Notifier that retains everything it receives, for tests
// and for surfaces that render a scrollback of recent notifications.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, Notification{Level: level, Message: message, Time: time.Now()})
}

// All returns a copy of the recorded notifications in arrival order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notes))
	copy(out, r.notes)
	return out
}
