package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gitune/twitter-list-scroller/internal/post"
	"github.com/gitune/twitter-list-scroller/internal/render"
	"github.com/gitune/twitter-list-scroller/internal/session"
	"github.com/gitune/twitter-list-scroller/internal/sim"
	"github.com/gitune/twitter-list-scroller/internal/surface"
)

// StatusFunc reports the session snapshot shown in the status line.
type StatusFunc func() session.Status

// ClearFunc wipes every persisted read position.
type ClearFunc func(context.Context) error

type surfaceEventMsg struct {
	ev surface.Event
}

type clearDoneMsg struct {
	err error
}

type clearStatusMsg struct {
	id int
}

type Model struct {
	surf   *sim.Surface
	labels post.Labels
	status StatusFunc
	clear  ClearFunc
	theme  Theme

	events <-chan surface.Event
	cancel func()

	width        int
	height       int
	scrollStep   float64
	confirmClear bool
	statusText   string
	statusID     int
	err          error
}

func NewModel(surf *sim.Surface, labels post.Labels, status StatusFunc, clear ClearFunc) Model {
	events, cancel := surf.Subscribe()
	return Model{
		surf:       surf,
		labels:     labels,
		status:     status,
		clear:      clear,
		theme:      DefaultTheme(),
		events:     events,
		cancel:     cancel,
		width:      80,
		height:     24,
		scrollStep: 120,
	}
}

func (m Model) Init() tea.Cmd {
	return m.listen()
}

// listen blocks on the surface event stream so any page activity, including
// the engine's own scrolling, triggers a redraw.
func (m Model) listen() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return surfaceEventMsg{ev: ev}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case surfaceEventMsg:
		return m, m.listen()
	case clearDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusID++
		m.statusText = "saved read positions cleared"
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusText = ""
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		switch msg.String() {
		case "y":
			m.confirmClear = false
			if m.clear == nil {
				return m, nil
			}
			return m, clearCmd(m.clear)
		case "n", "esc":
			m.confirmClear = false
		}
		return m, nil
	}

	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit
	case "down", "j":
		m.surf.UserScroll(m.scrollStep)
		return m, nil
	case "up", "k":
		m.surf.UserScroll(-m.scrollStep)
		return m, nil
	case "h":
		m.surf.Navigate("/home")
		return m, nil
	case "e":
		m.surf.Navigate("/explore")
		return m, nil
	case "x":
		if m.clear != nil {
			m.confirmClear = true
		}
		return m, nil
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		tabs := m.surf.Tabs()
		idx := int(key[0] - '1')
		if idx < len(tabs) {
			m.surf.ActivateTab(tabs[idx])
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("listnav"))
	if m.status != nil {
		st := m.status()
		b.WriteString("  ")
		b.WriteString(m.theme.PhasePill.Render(st.Phase.String()))
		if st.List != "" {
			b.WriteString("  " + m.theme.Author.Render(st.List))
		}
		if st.LastRestore != "" {
			b.WriteString("  " + m.theme.Footer.Render("restore: "+st.LastRestore))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderTimeline())
	b.WriteString("\n")
	b.WriteString(m.messagePanel())
	b.WriteString(m.footer())
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	if m.surf.Path() != "/home" {
		return m.theme.Footer.Render("away from the home timeline (" + m.surf.Path() + ")")
	}
	active, _ := m.surf.ActiveTab()
	parts := make([]string, 0, 4)
	for _, tab := range m.surf.Tabs() {
		if tab == active {
			parts = append(parts, m.theme.TabActive.Render(tab))
		} else {
			parts = append(parts, m.theme.TabIdle.Render(tab))
		}
	}
	if len(parts) == 0 {
		return m.theme.Footer.Render("no tabs")
	}
	return strings.Join(parts, " ")
}

func (m Model) renderTimeline() string {
	if m.surf.Path() != "/home" {
		return "Nothing to show here.\n"
	}
	if !m.surf.TimelineReady() {
		return "Loading timeline...\n"
	}

	viewportH := m.surf.ViewportHeight()
	highlighted := m.surf.HighlightedID()
	var b strings.Builder
	shown := 0
	for _, h := range m.surf.Posts() {
		if h.Bounds().VisibleRatio(viewportH) <= 0 {
			continue
		}
		b.WriteString(m.renderPost(h, highlighted))
		b.WriteString("\n")
		shown++
	}
	if shown == 0 {
		return "No posts in view.\n"
	}
	return b.String()
}

func (m Model) renderPost(h surface.PostHandle, highlightedID string) string {
	view := post.Classify(h.Article(), m.labels)
	gutter := "  "
	if view.ID != "" && view.ID == highlightedID {
		gutter = m.theme.Highlight.Render("> ")
	}
	lines := render.Lines(h.Article(), m.contentWidth())
	if len(lines) == 0 {
		lines = []string{"(empty post)"}
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(gutter)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) messagePanel() string {
	if m.err != nil {
		return m.theme.StatusWarn.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	if m.statusText != "" {
		return m.theme.StatusOK.Render(m.statusText) + "\n"
	}
	return ""
}

func (m Model) footer() string {
	if m.confirmClear {
		return m.theme.StatusWarn.Render("Clear all saved read positions? (y/n)")
	}
	return m.theme.Footer.Render("j/k: scroll | 1-9: switch list | h: home | e: away | x: clear positions | q: quit")
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

func clearCmd(clear ClearFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return clearDoneMsg{err: clear(ctx)}
	}
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}
