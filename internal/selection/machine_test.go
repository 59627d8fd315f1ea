package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptpane/internal/transcript"
)

func rolesOf(msgs []transcript.Message) RoleFunc {
	return func(i int) (transcript.Role, bool) {
		if i < 0 || i >= len(msgs) {
			return "", false
		}
		return msgs[i].Role, true
	}
}

var conv = []transcript.Message{
	{Role: transcript.RoleUser, Content: "Q1"},
	{Role: transcript.RoleAssistant, Content: "A1"},
	{Role: transcript.RoleUser, Content: "Q2"},
}

func TestResolve_HoverOnUserWins(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(2))
	m.HoverEnter(0)

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, SourceHover, src)
}

func TestResolve_HoverOnAssistantDoesNotOverride(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(0))

	before, _, ok := m.Resolve()
	require.True(t, ok)

	m.HoverEnter(1) // assistant message

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, before, idx, "hovering a non-user index leaves resolution unchanged")
	assert.Equal(t, SourceViewport, src)
}

func TestResolve_ViewportWinsWithoutHover(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(1))

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, SourceViewport, src)
}

func TestResolve_FallsBackToLastKnown(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(0)) // user turn, refreshes anchor
	m.ViewportChange(nil)     // scrolled past everything

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, SourceLastKnown, src)
}

func TestViewportChange_AssistantDoesNotRefreshAnchor(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(0))
	m.ViewportChange(intp(1)) // assistant reply scrolls into view
	m.ViewportChange(nil)

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 0, idx, "anchor stays on the preceding user turn")
	assert.Equal(t, SourceLastKnown, src)
}

func TestHoverLeave_RevertsButKeepsAnchor(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(2))
	m.HoverEnter(0)
	m.HoverLeave()

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, SourceViewport, src)

	m.ViewportChange(nil)
	idx, src, ok = m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, SourceLastKnown, src)
}

func TestResolve_NoSignalsNoSelection(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	_, _, ok := m.Resolve()
	assert.False(t, ok)
}

func TestReset_ClearsEverySignal(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(2))
	m.HoverEnter(0)

	m.Reset(rolesOf(nil))

	_, _, ok := m.Resolve()
	assert.False(t, ok, "stale indices must not survive a transcript replacement")
}

func TestResolve_HoverOutOfRangeIgnored(t *testing.T) {
	m := NewMachine(rolesOf(conv))
	m.ViewportChange(intp(2))
	m.HoverEnter(99)

	idx, src, ok := m.Resolve()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, SourceViewport, src)
}

func intp(i int) *int { return &i }
