package transition

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

const testSettle = 20 * time.Millisecond

// recorder captures display snapshots in order.
type recorder struct {
	mu        sync.Mutex
	snapshots []Display
}

func (r *recorder) record(d Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, d)
}

func (r *recorder) all() []Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Display, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

func sugg(prompt string) *transcript.Suggestion {
	return &transcript.Suggestion{OriginalPrompt: prompt, Analysis: "a"}
}

func waitIdle(t *testing.T, c *Coordinator) Display {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		d := c.Display()
		if d.Phase == PhaseIdle {
			return d
		}
		select {
		case <-deadline:
			t.Fatal("coordinator never settled")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCoordinator_InitialMountSkipsLeaving(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(testSettle, rec.record)

	c.SetTarget(sugg("first"))

	d := c.Display()
	assert.Equal(t, PhaseIdle, d.Phase)
	require.NotNil(t, d.Current)
	assert.Equal(t, "first", d.Current.OriginalPrompt)
	assert.True(t, d.Entered)
	assert.Len(t, rec.all(), 1, "no leaving snapshot on first content")
}

func TestCoordinator_TwoPhaseSwap(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(testSettle, rec.record)

	c.SetTarget(sugg("first"))
	c.SetTarget(sugg("second"))

	d := c.Display()
	require.Equal(t, PhaseLeaving, d.Phase)
	assert.Equal(t, "first", d.Current.OriginalPrompt, "outgoing content stays visible while leaving")

	d = waitIdle(t, c)
	require.NotNil(t, d.Current)
	assert.Equal(t, "second", d.Current.OriginalPrompt)
	assert.True(t, d.Entered)
}

func TestCoordinator_SameSuggestionSwapsSilently(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(testSettle, rec.record)

	c.SetTarget(sugg("only"))
	before := len(rec.all())

	// Same suggestion identity resolved again (e.g. re-intersection of the
	// same paragraph): no transition.
	c.SetTarget(sugg("only"))

	d := c.Display()
	assert.Equal(t, PhaseIdle, d.Phase)
	assert.False(t, d.Entered)
	assert.Equal(t, before+1, len(rec.all()))
}

func TestCoordinator_NilTargetClearsImmediately(t *testing.T) {
	c := NewCoordinator(testSettle, nil)
	c.SetTarget(sugg("x"))

	c.SetTarget(nil)

	d := c.Display()
	assert.Equal(t, PhaseIdle, d.Phase)
	assert.Nil(t, d.Current)
}

func TestCoordinator_MidLeavingChangeRestartsWithNewestTarget(t *testing.T) {
	c := NewCoordinator(50*time.Millisecond, nil)
	c.SetTarget(sugg("first"))
	c.SetTarget(sugg("second"))
	require.Equal(t, PhaseLeaving, c.Display().Phase)

	// Before the settle elapses, a newer target arrives.
	c.SetTarget(sugg("third"))

	d := waitIdle(t, c)
	require.NotNil(t, d.Current)
	assert.Equal(t, "third", d.Current.OriginalPrompt, "stale intermediate swap must never be shown")
}

func TestCoordinator_MidLeavingNilCancelsSwap(t *testing.T) {
	c := NewCoordinator(50*time.Millisecond, nil)
	c.SetTarget(sugg("first"))
	c.SetTarget(sugg("second"))

	c.SetTarget(nil)

	d := c.Display()
	assert.Equal(t, PhaseIdle, d.Phase)
	assert.Nil(t, d.Current)

	// The cancelled timer must not resurrect the pending suggestion.
	time.Sleep(80 * time.Millisecond)
	assert.Nil(t, c.Display().Current)
}

func TestCoordinator_StopCancelsPendingTimer(t *testing.T) {
	rec := &recorder{}
	c := NewCoordinator(30*time.Millisecond, rec.record)
	c.SetTarget(sugg("first"))
	c.SetTarget(sugg("second"))

	c.Stop()
	before := len(rec.all())
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, before, len(rec.all()), "no snapshot after Stop")
}
