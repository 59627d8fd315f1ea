// Package tui is the terminal reader: a post list, a transcript pane, and
// the annotation sidebar. The transcript pane reports which tracked
// message sits in the reading band as the user scrolls; the sidebar
// controller turns that into displayed suggestions. Copy keys run the
// clipboard delivery protocol, with terminal focus events standing in for
// document focus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/promptpane/internal/blog"
	"github.com/fyrsmithlabs/promptpane/internal/clipboard"
	"github.com/fyrsmithlabs/promptpane/internal/notify"
	"github.com/fyrsmithlabs/promptpane/internal/sidebar"
	"github.com/fyrsmithlabs/promptpane/internal/transition"
	"github.com/fyrsmithlabs/promptpane/internal/viewport"
)

type mode int

const (
	modePosts mode = iota
	modeSearch
	modeReader
)

// Deps are the collaborators a reader model needs.
type Deps struct {
	Store      blog.Store
	Controller *sidebar.Controller
	Resolver   *viewport.Resolver
	Focus      *clipboard.FocusTracker
	Hub        *notify.Hub
}

// Model is the bubbletea model for the reader.
type Model struct {
	deps Deps

	notifications <-chan notify.Notification
	cancelNotes   func()
	displays      chan transition.Display

	mode   mode
	width  int
	height int

	// posts list
	posts       []blog.BlogPost
	filtered    []blog.BlogPost
	listCursor  int
	listOffset  int
	searchInput textinput.Model

	// reader
	post      *blog.PostDetail
	lines     []string
	spans     []span // line range per message, parallel to post messages
	offset    int
	msgCursor int   // hovered message, -1 when none
	hovered   bool

	display  transition.Display
	lastNote *notify.Notification
	quitting bool
}

// span is the half-open line range a message occupies in the rendered
// transcript.
type span struct {
	start, end int
}

type postsLoadedMsg struct {
	posts []blog.BlogPost
	err   error
}

type postLoadedMsg struct {
	id     string
	detail *blog.PostDetail
	err    error
}

type notificationMsg notify.Notification

type displayMsg transition.Display

type copyDoneMsg struct{}

// NewModel creates the reader model. The caller runs it with
// tea.WithReportFocus so focus and blur reach the clipboard focus
// tracker.
func NewModel(deps Deps) *Model {
	notes, cancel := deps.Hub.Subscribe()
	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 100
	m := &Model{
		deps:          deps,
		notifications: notes,
		cancelNotes:   cancel,
		displays:      make(chan transition.Display, 16),
		width:         120,
		height:        30,
		msgCursor:     -1,
		searchInput:   si,
	}
	return m
}

// applyFilter recomputes the visible post list from the search input.
func (m *Model) applyFilter() {
	search := strings.ToLower(m.searchInput.Value())
	m.filtered = m.filtered[:0]
	for _, p := range m.posts {
		if search != "" {
			haystack := strings.ToLower(p.Title + " " + p.Summary)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		m.filtered = append(m.filtered, p)
	}
	if m.listCursor >= len(m.filtered) {
		m.listCursor = len(m.filtered) - 1
	}
	if m.listCursor < 0 {
		m.listCursor = 0
	}
	m.clampListOffset()
}

// OnDisplay is the transition coordinator's change hook; wire it in when
// constructing the coordinator. It never blocks the coordinator's timer
// goroutine.
func (m *Model) OnDisplay(d transition.Display) {
	select {
	case m.displays <- d:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadPosts(), m.waitNotification(), m.waitDisplay())
}

func (m *Model) loadPosts() tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		var all []blog.BlogPost
		token := ""
		for {
			page, err := store.ListBlogPosts(context.Background(), blog.ListRequest{
				PageSize:  50,
				PageToken: token,
			})
			if err != nil {
				return postsLoadedMsg{err: err}
			}
			all = append(all, page.BlogPosts...)
			if page.NextPageToken == "" {
				return postsLoadedMsg{posts: all}
			}
			token = page.NextPageToken
		}
	}
}

func (m *Model) loadPost(id string) tea.Cmd {
	store := m.deps.Store
	return func() tea.Msg {
		post, err := parseAndGet(store, id)
		return postLoadedMsg{id: id, detail: post, err: err}
	}
}

func (m *Model) waitNotification() tea.Cmd {
	ch := m.notifications
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func (m *Model) waitDisplay() tea.Cmd {
	ch := m.displays
	return func() tea.Msg {
		return displayMsg(<-ch)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.mode == modeReader {
			m.relayout()
		}
		return m, nil

	case tea.FocusMsg:
		m.deps.Focus.SetFocused(true)
		return m, nil

	case tea.BlurMsg:
		m.deps.Focus.SetFocused(false)
		return m, nil

	case postsLoadedMsg:
		if msg.err != nil {
			m.lastNote = &notify.Notification{Level: notify.LevelError, Message: msg.err.Error()}
			return m, nil
		}
		m.posts = msg.posts
		m.applyFilter()
		return m, nil

	case postLoadedMsg:
		if msg.err != nil {
			m.lastNote = &notify.Notification{Level: notify.LevelError, Message: msg.err.Error()}
			return m, nil
		}
		return m.enterReader(msg.detail), nil

	case notificationMsg:
		n := notify.Notification(msg)
		m.lastNote = &n
		return m, m.waitNotification()

	case displayMsg:
		m.display = transition.Display(msg)
		return m, m.waitDisplay()

	case copyDoneMsg:
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modePosts:
			return m.updatePosts(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeReader:
			return m.updateReader(msg)
		}
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.applyFilter()
		m.mode = modePosts
		return m, nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modePosts
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) updatePosts(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		m.cancelNotes()
		return m, tea.Quit

	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
		m.clampListOffset()

	case "down", "j":
		if m.listCursor < len(m.filtered)-1 {
			m.listCursor++
		}
		m.clampListOffset()

	case "/":
		m.searchInput.Focus()
		m.mode = modeSearch
		return m, nil

	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		return m, m.loadPost(m.filtered[m.listCursor].ID.String())
	}
	return m, nil
}

func (m *Model) clampListOffset() {
	visible := m.listVisibleRows()
	if m.listCursor < m.listOffset {
		m.listOffset = m.listCursor
	}
	if m.listCursor >= m.listOffset+visible {
		m.listOffset = m.listCursor - visible + 1
	}
}

func (m *Model) listVisibleRows() int {
	rows := m.height - 4 // title, header, status bar, help
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.mode {
	case modeReader:
		return m.viewReader()
	default:
		return m.viewPosts()
	}
}

func (m *Model) viewPosts() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("promptpane"))
	b.WriteString("\n")
	if m.mode == modeSearch {
		b.WriteString(headerStyle.Width(m.width).Render("/" + m.searchInput.View()))
	} else {
		b.WriteString(headerStyle.Width(m.width).Render(fmt.Sprintf("%d posts", len(m.filtered))))
	}
	b.WriteString("\n")

	visible := m.listVisibleRows()
	end := m.listOffset + visible
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.listOffset; i < end; i++ {
		p := m.filtered[i]
		line := fmt.Sprintf("%-50s %s", truncateLine(p.Title, 50), dimStyle.Render(string(p.Status)))
		if i == m.listCursor {
			b.WriteString(selectedStyle.Width(m.width).Render(line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(" enter open · j/k move · / search · q quit"))
	return b.String()
}

func (m *Model) statusBar() string {
	if m.lastNote == nil {
		return statusBarStyle.Width(m.width).Render("")
	}
	var style lipgloss.Style
	switch m.lastNote.Level {
	case notify.LevelError:
		style = noteErrorStyle
	case notify.LevelWarning:
		style = noteWarnStyle
	default:
		style = noteInfoStyle
	}
	return statusBarStyle.Width(m.width).Render(style.Render(m.lastNote.Message))
}

func truncateLine(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
