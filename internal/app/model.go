// Package app is the terminal inspector for a streamed document: a live tree
// outline beside the conversation transcript, with caller-driven undo/redo
// checkpoints. It consumes the engine strictly through its public handle and
// renders whatever version the last flush produced.
package app

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"canvas/internal/engine"
	"canvas/internal/history"
	"canvas/internal/tree"
)

const (
	tickInterval     = 100 * time.Millisecond
	minPaneWidth     = 20
	minContentHeight = 6
)

type focusPane int

const (
	focusOutline focusPane = iota
	focusTranscript
)

type Model struct {
	eng *engine.Engine

	outline    viewport.Model
	transcript viewport.Model
	focus      focusPane
	width      int
	height     int

	rows     []outlineRow
	selected int

	// lastTree is compared by reference: structural sharing means a new
	// version is a new pointer, so no deep diffing is needed here.
	lastTree    *tree.Tree
	lastTurns   int
	lastDraft   string
	status      string
	statusIsErr bool
}

func NewModel(eng *engine.Engine) Model {
	outline := viewport.New(viewport.WithWidth(minPaneWidth), viewport.WithHeight(minContentHeight))
	transcript := viewport.New(viewport.WithWidth(minPaneWidth), viewport.WithHeight(minContentHeight))
	outline.SetContent("Waiting for stream...")
	transcript.SetContent("")
	return Model{
		eng:        eng,
		outline:    outline,
		transcript: transcript,
	}
}

func Run(eng *engine.Engine) error {
	model := NewModel(eng)
	p := tea.NewProgram(&model)
	_, err := p.Run()
	return err
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tickCmd()
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshContent(true)
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == focusOutline {
			m.focus = focusTranscript
		} else {
			m.focus = focusOutline
		}
		return m, nil
	case "up", "k":
		if m.focus == focusOutline {
			if m.selected > 0 {
				m.selected--
				m.refreshContent(true)
			}
		} else {
			m.transcript.ScrollUp(1)
		}
		return m, nil
	case "down", "j":
		if m.focus == focusOutline {
			if m.selected < len(m.rows)-1 {
				m.selected++
				m.refreshContent(true)
			}
		} else {
			m.transcript.ScrollDown(1)
		}
		return m, nil
	case "c":
		m.eng.PushHistory()
		m.setStatus("checkpoint saved", false)
		return m, nil
	case "u":
		if !m.eng.Undo() {
			m.setStatus("nothing to undo", false)
			return m, nil
		}
		m.setStatus("undo", false)
		m.refresh()
		return m, nil
	case "ctrl+r":
		if !m.eng.Redo() {
			m.setStatus("nothing to redo", false)
			return m, nil
		}
		m.setStatus("redo", false)
		m.refresh()
		return m, nil
	case "y":
		m.copySelectedSubtree()
		return m, nil
	case "f":
		m.eng.FlushPatches()
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m *Model) copySelectedSubtree() {
	if m.selected < 0 || m.selected >= len(m.rows) {
		m.setStatus("nothing selected", true)
		return
	}
	row := m.rows[m.selected]
	text, err := subtreeJSON(m.eng.Tree(), row.key)
	if err != nil {
		m.setStatus("copy failed: "+err.Error(), true)
		return
	}
	if err := copyTextToClipboard(text); err != nil {
		m.setStatus("copy failed: "+err.Error(), true)
		return
	}
	m.setStatus("copied subtree "+row.key, false)
}

func (m *Model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusIsErr = isErr
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	paneHeight := max(minContentHeight, height-4)
	outlineWidth := max(minPaneWidth, width/2-2)
	transcriptWidth := max(minPaneWidth, width-outlineWidth-4)
	m.outline.SetWidth(outlineWidth)
	m.outline.SetHeight(paneHeight)
	m.transcript.SetWidth(transcriptWidth)
	m.transcript.SetHeight(paneHeight)
}

// refresh pulls engine state and re-renders only what actually changed.
func (m *Model) refresh() {
	current := m.eng.Tree()
	turns := m.eng.Conversation()
	draft := m.eng.Draft()

	treeChanged := current != m.lastTree
	transcriptChanged := len(turns) != m.lastTurns || draft != m.lastDraft
	if !treeChanged && !transcriptChanged {
		return
	}
	m.lastTree = current
	m.lastTurns = len(turns)
	m.lastDraft = draft

	if treeChanged {
		m.rows = buildOutline(current)
		if m.selected >= len(m.rows) {
			m.selected = max(0, len(m.rows)-1)
		}
	}
	m.renderPanes(treeChanged, transcriptChanged, turns, draft)
}

// refreshContent re-renders panes from already-known state, used after
// resize and selection moves.
func (m *Model) refreshContent(outlineOnly bool) {
	m.renderPanes(true, !outlineOnly, m.eng.Conversation(), m.eng.Draft())
}

func (m *Model) renderPanes(outlineChanged, transcriptChanged bool, turns []history.Turn, draft string) {
	if outlineChanged {
		m.outline.SetContent(renderOutline(m.rows, m.selected, m.outline.Width()))
	}
	if transcriptChanged {
		atBottom := m.transcript.AtBottom()
		m.transcript.SetContent(renderTranscript(turns, draft, m.transcript.Width()))
		if atBottom {
			m.transcript.GotoBottom()
		}
	}
}

func (m *Model) View() tea.View {
	header := headerStyle.Render("canvas") + " " + m.stateBadge()
	outlinePane := m.paneStyle(focusOutline).Render(m.outline.View())
	transcriptPane := m.paneStyle(focusTranscript).Render(m.transcript.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, outlinePane, transcriptPane)

	statusLine := statusStyle.Render(m.status)
	if m.statusIsErr {
		statusLine = statusErrStyle.Render(m.status)
	}
	help := helpStyle.Render("tab focus · j/k move · c checkpoint · u undo · ctrl+r redo · y copy · q quit")
	view := tea.NewView(header + "\n" + body + "\n" + statusLine + "\n" + help)
	view.AltScreen = true
	return view
}

func (m *Model) paneStyle(pane focusPane) lipgloss.Style {
	if m.focus == pane {
		return focusBorder
	}
	return unfocusedBorder
}

func (m *Model) stateBadge() string {
	state := m.eng.State()
	elements := fmt.Sprintf("%d elements", m.eng.Tree().Len())
	switch state {
	case engine.StateDone:
		return stateDoneStyle.Render("done") + " " + dividerStyle.Render("·") + " " + statusStyle.Render(elements)
	case engine.StateInterrupted:
		return stateWarnStyle.Render("interrupted") + " " + dividerStyle.Render("·") + " " + statusStyle.Render(elements)
	default:
		return stateLiveStyle.Render("streaming") + " " + dividerStyle.Render("·") + " " + statusStyle.Render(elements)
	}
}
