// Package viewport tracks which annotated message is most visible in the
// reading window. It is pure resolution logic over intersection-event
// batches: an adapter (browser observer bridge, terminal scroll mapper)
// reports per-element visibility and the resolver emits "active element
// changed" events to subscribers.
package viewport

import (
	"sort"
	"sync"
)

// Config controls the visibility window.
type Config struct {
	// BandTop and BandBottom bound the trigger band as fractions of the
	// viewport height measured from the top. Elements are observed relative
	// to this band.
	BandTop    float64
	BandBottom float64
	// MinRatio is the minimum intersection ratio for an element to qualify
	// as visible.
	MinRatio float64
}

// DefaultConfig returns the standard visibility window: the band from 20% to
// 40% of the viewport, requiring at least 10% of the element visible.
func DefaultConfig() Config {
	return Config{BandTop: 0.20, BandBottom: 0.40, MinRatio: 0.10}
}

// Entry reports one tracked element's visibility at observation time.
type Entry struct {
	Index        int
	Ratio        float64
	Intersecting bool
}

// Event is emitted when the active element changes. Active is false when no
// tracked element qualifies. Seq identifies the tracked-set generation the
// event was resolved against; SetTracked returns the generation it starts.
type Event struct {
	Index  int
	Active bool
	Seq    uint64
}

// Resolver resolves the most-visible tracked element from intersection
// batches. Safe for concurrent use.
type Resolver struct {
	cfg Config

	mu      sync.Mutex
	tracked map[int]Entry
	active  *int
	seq     uint64
	enabled bool
	nextSub int
	subs    map[int]chan Event
	closed  bool
}

// NewResolver creates a resolver with the given config. Zero-valued config
// fields fall back to DefaultConfig values.
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.BandTop == 0 && cfg.BandBottom == 0 {
		cfg.BandTop, cfg.BandBottom = def.BandTop, def.BandBottom
	}
	if cfg.MinRatio == 0 {
		cfg.MinRatio = def.MinRatio
	}
	return &Resolver{
		cfg:     cfg,
		tracked: make(map[int]Entry),
		enabled: true,
		subs:    make(map[int]chan Event),
	}
}

// Config returns the visibility window, for adapters that need the band
// geometry to compute ratios.
func (r *Resolver) Config() Config { return r.cfg }

// SetTracked replaces the tracked identifier set and returns the new
// generation. Any previously known visibility state is discarded, and
// events already in flight carry the old generation, so subscribers can
// tell resolution results for an earlier set from results for this one.
func (r *Resolver) SetTracked(indices []int) uint64 {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.tracked = make(map[int]Entry, len(indices))
	for _, i := range indices {
		r.tracked[i] = Entry{Index: i}
	}
	r.active = nil
	events := r.resolveLocked()
	r.mu.Unlock()
	r.emit(events)
	return seq
}

// SetEnabled suspends or resumes reporting. While disabled no element is
// active; re-enabling re-resolves from the last observed state.
func (r *Resolver) SetEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	events := r.resolveLocked()
	r.mu.Unlock()
	r.emit(events)
}

// Observe processes a visibility-change batch. Entries for untracked
// indices are ignored.
func (r *Resolver) Observe(entries []Entry) {
	r.mu.Lock()
	for _, e := range entries {
		if _, ok := r.tracked[e.Index]; ok {
			r.tracked[e.Index] = e
		}
	}
	events := r.resolveLocked()
	r.mu.Unlock()
	r.emit(events)
}

// Active returns the currently active index, if any.
func (r *Resolver) Active() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0, false
	}
	return *r.active, true
}

// resolveLocked recomputes the active element and returns events to emit.
// Ties in intersection ratio retain the previously active element; among
// other tied elements the earlier one in document order wins.
func (r *Resolver) resolveLocked() []Event {
	var next *int

	if r.enabled && len(r.tracked) > 0 {
		candidates := make([]int, 0, len(r.tracked))
		for i, e := range r.tracked {
			if e.Intersecting && e.Ratio >= r.cfg.MinRatio {
				candidates = append(candidates, i)
			}
		}
		sort.Ints(candidates)

		best := -1
		bestRatio := -1.0
		for _, i := range candidates {
			ratio := r.tracked[i].Ratio
			if ratio > bestRatio {
				best, bestRatio = i, ratio
			} else if ratio == bestRatio && r.active != nil && *r.active == i {
				// Stability bias: an exact tie retains the current element.
				best = i
			}
		}
		if best >= 0 {
			next = &best
		}
	}

	if equalIndex(r.active, next) {
		return nil
	}
	r.active = next

	if next == nil {
		return []Event{{Active: false, Seq: r.seq}}
	}
	return []Event{{Index: *next, Active: true, Seq: r.seq}}
}

func equalIndex(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Subscribe returns a channel of active-element events and a cancel
// function. The stream is lazy and restartable: each subscriber gets its own
// channel scoped to its mount, and cancel detaches it.
func (r *Resolver) Subscribe() (<-chan Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextSub
	r.nextSub++
	ch := make(chan Event, 16)
	if r.closed {
		close(ch)
		return ch, func() {}
	}
	r.subs[id] = ch
	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
}

// Close detaches all subscribers. Further Observe calls are no-ops for
// event delivery.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// emit fans events out to subscribers. Slow subscribers drop events rather
// than blocking the observation path.
func (r *Resolver) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	r.mu.Lock()
	subs := make([]chan Event, 0, len(r.subs))
	for _, ch := range r.subs {
		subs = append(subs, ch)
	}
	r.mu.Unlock()

	for _, ch := range subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
