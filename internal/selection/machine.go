// Package selection resolves the single message index whose annotation the
// sidebar should show. Three asynchronously updated signals feed it: the
// hovered index, the viewport-resolved index, and the last index that was
// ever a valid user-role active index. Resolution is a pure function of the
// machine's state, which keeps it trivially unit-testable.
package selection

import "github.com/fyrsmithlabs/promptpane/internal/transcript"

// RoleFunc reports the role of the message at index, or ok=false when the
// index does not reference a message in the current transcript.
type RoleFunc func(index int) (transcript.Role, bool)

// State holds the three input signals.
type State struct {
	Hovered   *int
	Viewport  *int
	LastKnown *int
}

// Source identifies which signal produced the resolved index.
type Source string

const (
	SourceHover     Source = "hover"
	SourceViewport  Source = "viewport"
	SourceLastKnown Source = "lastKnown"
)

// Machine merges hover, viewport, and last-known-good signals into one
// authoritative active index. It never errors: absent data degrades to "no
// active selection".
type Machine struct {
	state  State
	roleOf RoleFunc
}

// NewMachine creates a machine that consults roleOf for user-role gating.
func NewMachine(roleOf RoleFunc) *Machine {
	return &Machine{roleOf: roleOf}
}

// Reset clears all signals. Called on transcript replacement so indices from
// the previous transcript cannot leak into the new one.
func (m *Machine) Reset(roleOf RoleFunc) {
	m.state = State{}
	if roleOf != nil {
		m.roleOf = roleOf
	}
}

// HoverEnter records a pointer entering the message at index.
func (m *Machine) HoverEnter(index int) {
	m.state.Hovered = &index
}

// HoverLeave removes hover priority. The last-known anchor is deliberately
// untouched, so resolution reverts to the viewport or last-known signal.
func (m *Machine) HoverLeave() {
	m.state.Hovered = nil
}

// ViewportChange records the viewport resolver's current index (nil when
// the resolver reports no active element). A user-role index also refreshes
// the last-known anchor, which keeps the sidebar pinned to the preceding
// user turn while the reader scrolls through assistant replies.
func (m *Machine) ViewportChange(index *int) {
	if index == nil {
		m.state.Viewport = nil
		return
	}
	i := *index
	m.state.Viewport = &i
	if role, ok := m.roleOf(i); ok && role == transcript.RoleUser {
		anchor := i
		m.state.LastKnown = &anchor
	}
}

// State returns a copy of the current input signals.
func (m *Machine) State() State {
	return copyState(m.state)
}

// Resolve returns the active index and its source. ok is false when no
// signal yields an index.
func (m *Machine) Resolve() (index int, source Source, ok bool) {
	return Resolve(m.state, m.roleOf)
}

// Resolve is the pure resolution function:
//
//  1. a hovered index wins if the hovered message has role user;
//  2. otherwise the viewport-resolved index wins;
//  3. otherwise the last known valid user-role index is used, preserving
//     sidebar content instead of collapsing to empty.
func Resolve(s State, roleOf RoleFunc) (int, Source, bool) {
	if s.Hovered != nil {
		if role, ok := roleOf(*s.Hovered); ok && role == transcript.RoleUser {
			return *s.Hovered, SourceHover, true
		}
	}
	if s.Viewport != nil {
		return *s.Viewport, SourceViewport, true
	}
	if s.LastKnown != nil {
		return *s.LastKnown, SourceLastKnown, true
	}
	return 0, "", false
}

func copyState(s State) State {
	out := State{}
	if s.Hovered != nil {
		v := *s.Hovered
		out.Hovered = &v
	}
	if s.Viewport != nil {
		v := *s.Viewport
		out.Viewport = &v
	}
	if s.LastKnown != nil {
		v := *s.LastKnown
		out.LastKnown = &v
	}
	return out
}
