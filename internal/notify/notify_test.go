package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FanOut(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Notify(LevelInfo, "copied")

	for _, ch := range []<-chan Notification{a, b} {
		select {
		case n := <-ch:
			assert.Equal(t, LevelInfo, n.Level)
			assert.Equal(t, "copied", n.Message)
		case <-time.After(time.Second):
			t.Fatal("notification not delivered")
		}
	}
}

func TestHub_CancelStopsDelivery(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	cancel()

	hub.Notify(LevelError, "late")

	_, open := <-ch
	assert.False(t, open, "cancel must close the channel")
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			hub.Notify(LevelInfo, "burst")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked on a slow subscriber")
	}
	assert.Len(t, ch, cap(ch))
}

func TestRecorder_RetainsOrder(t *testing.T) {
	var rec Recorder
	rec.Notify(LevelInfo, "first")
	rec.Notify(LevelWarning, "second")

	notes := rec.All()
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Message)
	assert.Equal(t, LevelWarning, notes[1].Level)
}
