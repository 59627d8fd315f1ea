package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/transcript"
	"github.com/fyrsmithlabs/promptpane/internal/transition"
	"github.com/fyrsmithlabs/promptpane/internal/viewport"
)

const sidebarWidth = 44

func parseAndGet(store blog.Store, id string) (*blog.PostDetail, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post id: %w", err)
	}
	return store.GetBlogPostWithPrompts(context.Background(), postID)
}

func (m *Model) enterReader(detail *blog.PostDetail) *Model {
	m.post = detail
	m.mode = modeReader
	m.offset = 0
	m.msgCursor = -1
	m.hovered = false

	m.deps.Controller.SetTranscript(
		detail.Post.ConversationLogID.String(),
		detail.ConversationMessages,
		detail.PromptSuggestions,
	)
	m.relayout()
	return m
}

// relayout renders the transcript into lines at the current pane width and
// records each message's line range, then re-reports visibility.
func (m *Model) relayout() {
	if m.post == nil {
		return
	}
	paneWidth := m.transcriptWidth()
	m.lines = m.lines[:0]
	m.spans = make([]span, len(m.post.ConversationMessages))

	for i, msg := range m.post.ConversationMessages {
		start := len(m.lines)
		m.lines = append(m.lines, roleHeading(msg.Role, i == m.msgCursor))
		for _, line := range wrapText(msg.Content, paneWidth-2) {
			m.lines = append(m.lines, "  "+line)
		}
		m.lines = append(m.lines, "")
		m.spans[i] = span{start: start, end: len(m.lines)}
	}

	m.clampOffset()
	m.observeViewport()
}

func (m *Model) transcriptWidth() int {
	w := m.width - sidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

func (m *Model) readerVisibleRows() int {
	rows := m.height - 3 // title, status bar, help
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) clampOffset() {
	maxOffset := len(m.lines) - m.readerVisibleRows()
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// observeViewport reports the intersection of every message with the
// reading band to the resolver, the terminal analogue of intersection
// observer callbacks.
func (m *Model) observeViewport() {
	rows := m.readerVisibleRows()
	cfg := m.deps.Resolver.Config()
	bandStart := m.offset + int(float64(rows)*cfg.BandTop)
	bandEnd := m.offset + int(float64(rows)*cfg.BandBottom)
	if bandEnd <= bandStart {
		bandEnd = bandStart + 1
	}

	entries := make([]viewport.Entry, 0, len(m.spans))
	for i, sp := range m.spans {
		height := sp.end - sp.start
		if height <= 0 {
			continue
		}
		overlap := intersectLen(sp.start, sp.end, bandStart, bandEnd)
		visible := intersectLen(sp.start, sp.end, m.offset, m.offset+rows)
		entries = append(entries, viewport.Entry{
			Index:        i,
			Ratio:        float64(overlap) / float64(height),
			Intersecting: visible > 0,
		})
	}
	m.deps.Resolver.Observe(entries)
}

func intersectLen(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

func (m *Model) updateReader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		m.cancelNotes()
		return m, tea.Quit

	case "q", "esc":
		if m.hovered {
			m.hovered = false
			m.msgCursor = -1
			m.deps.Controller.HoverLeave()
			m.relayout()
			return m, nil
		}
		m.mode = modePosts
		return m, nil

	case "j", "down":
		m.offset++
		m.clampOffset()
		m.observeViewport()

	case "k", "up":
		m.offset--
		m.clampOffset()
		m.observeViewport()

	case "pgdown", "d":
		m.offset += m.readerVisibleRows()
		m.clampOffset()
		m.observeViewport()

	case "pgup", "u":
		m.offset -= m.readerVisibleRows()
		m.clampOffset()
		m.observeViewport()

	case "g", "home":
		m.offset = 0
		m.observeViewport()

	case "G", "end":
		m.offset = len(m.lines)
		m.clampOffset()
		m.observeViewport()

	case "tab":
		m.hoverNext(1)

	case "shift+tab":
		m.hoverNext(-1)

	case "o":
		return m, m.copyCmd(m.deps.Controller.CopyOriginal)

	case "c":
		return m, m.copyCmd(m.deps.Controller.CopyCurrent)

	case "x":
		return m, m.copyCmd(m.deps.Controller.CopyCompressed)
	}
	return m, nil
}

// hoverNext moves the hover cursor to the next or previous user message,
// the keyboard analogue of pointer hover.
func (m *Model) hoverNext(dir int) {
	if m.post == nil || len(m.post.ConversationMessages) == 0 {
		return
	}
	messages := m.post.ConversationMessages
	start := m.msgCursor
	for i := 0; i < len(messages); i++ {
		start += dir
		if start < 0 {
			start = len(messages) - 1
		}
		if start >= len(messages) {
			start = 0
		}
		if messages[start].Role == transcript.RoleUser {
			m.msgCursor = start
			m.hovered = true
			m.deps.Controller.HoverEnter(start)
			m.scrollTo(start)
			m.relayout()
			return
		}
	}
}

func (m *Model) scrollTo(index int) {
	if index < 0 || index >= len(m.spans) {
		return
	}
	sp := m.spans[index]
	rows := m.readerVisibleRows()
	if sp.start < m.offset || sp.start >= m.offset+rows {
		m.offset = sp.start - rows/4
	}
	m.clampOffset()
}

// copyCmd runs a copy action off the update loop so a focus-wait cannot
// freeze the UI. Outcomes arrive as notifications through the hub.
func (m *Model) copyCmd(action func(context.Context, int) error) tea.Cmd {
	index, ok := m.copyTarget()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		_ = action(context.Background(), index)
		return copyDoneMsg{}
	}
}

func (m *Model) copyTarget() (int, bool) {
	if m.hovered && m.msgCursor >= 0 {
		return m.msgCursor, true
	}
	return m.deps.Controller.ActiveIndex()
}

func (m *Model) viewReader() string {
	if m.post == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.post.Post.Title))
	b.WriteString("\n")

	rows := m.readerVisibleRows()
	end := m.offset + rows
	if end > len(m.lines) {
		end = len(m.lines)
	}
	window := strings.Join(m.lines[m.offset:end], "\n")
	transcriptPane := lipgloss.NewStyle().
		Width(m.transcriptWidth()).
		Height(rows).
		Render(window)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, transcriptPane, m.viewSidebar(rows)))
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(" j/k scroll · tab hover prompt · c copy improved · o copy original · x copy compressed · esc back"))
	return b.String()
}

func (m *Model) viewSidebar(rows int) string {
	style := sidebarBorderStyle
	if m.display.Phase == transition.PhaseLeaving {
		style = sidebarLeavingStyle
	}
	style = style.Width(sidebarWidth - 2).Height(rows - 2)

	current := m.display.Current
	if current == nil {
		return style.Render(dimStyle.Render("No suggestion in view.\n\nScroll until an annotated prompt\nenters the reading band, or press\ntab to jump to one."))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Prompt suggestion"))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(truncateLine(current.OriginalPrompt, sidebarWidth-6)))
	b.WriteString("\n\n")
	b.WriteString(wrapJoin(current.Analysis, sidebarWidth-6))
	for _, cand := range current.BetterCandidates {
		b.WriteString("\n\n")
		b.WriteString(candidateTypeStyle.Render(cand.Type))
		b.WriteString("\n")
		b.WriteString(wrapJoin(cand.Prompt, sidebarWidth-6))
	}
	if current.ExpectedEffect != "" {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(wrapJoin(current.ExpectedEffect, sidebarWidth-6)))
	}
	return style.Render(b.String())
}

func roleHeading(role transcript.Role, hovered bool) string {
	style := assistantRoleStyle
	if role == transcript.RoleUser {
		style = userRoleStyle
	}
	heading := style.Render(" " + role.Label() + " ")
	if hovered {
		heading += " " + candidateTypeStyle.Render("*")
	}
	return heading
}

func wrapJoin(s string, width int) string {
	return strings.Join(wrapText(s, width), "\n")
}

// wrapText word-wraps s to the given width, preserving existing newlines.
func wrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}
