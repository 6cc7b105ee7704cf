// Package tui renders the chat directory and the open conversation in the
// terminal. It only reads snapshots pushed by the chat package and calls
// back into it; it holds no server state of its own.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/outreach/outreach-chat/internal/auth"
	"github.com/outreach/outreach-chat/internal/chat"
	"github.com/outreach/outreach-chat/internal/models"
)

const (
	sidebarWidth = 32
	chromeHeight = 4 // input line, status line, borders
)

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Model is the bubbletea model for the chat screen
type Model struct {
	ctx         context.Context
	directory   *chat.Directory
	controller  *chat.Controller
	credentials *auth.CredentialStore

	dir  chat.DirectorySnapshot
	conv chat.ControllerSnapshot

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	styles   Styles

	focus        focus
	cursor       int
	lastRevision uint64
	status       string
	expired      bool
	width        int
	height       int
}

// New creates the chat screen model from the current core state
func New(ctx context.Context, directory *chat.Directory, controller *chat.Controller, credentials *auth.CredentialStore) Model {
	input := textinput.New()
	input.Placeholder = "Ask about campaigns, leads or emails..."
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:         ctx,
		directory:   directory,
		controller:  controller,
		credentials: credentials,
		dir:         directory.Snapshot(),
		conv:        controller.Snapshot(),
		viewport:    viewport.New(80, 20),
		input:       input,
		spinner:     sp,
		styles:      DefaultStyles(),
	}
	m.lastRevision = m.conv.Revision
	m.viewport.SetContent(m.renderTranscript())
	return m
}

// Expired reports whether the program ended because the credentials were rejected
func (m Model) Expired() bool {
	return m.expired
}

// Init loads the session list and starts the cursor and spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.load(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case directoryMsg:
		m.dir = chat.DirectorySnapshot(msg)
		m.clampCursor()
		return m, nil

	case controllerMsg:
		m.applyController(chat.ControllerSnapshot(msg))
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.op, msg.err)
		} else {
			m.status = ""
		}
		if msg.op == "create" && msg.err == nil {
			m.cursor = 0
			m.setFocus(focusInput)
		}
		return m, nil

	case sendDoneMsg:
		switch {
		case msg.err == nil:
			m.status = ""
			if m.input.Value() == msg.text {
				m.input.SetValue("")
			}
		case errors.Is(msg.err, chat.ErrSendInFlight):
			m.status = "Still waiting for the previous reply..."
		default:
			m.status = fmt.Sprintf("send failed: %v", msg.err)
		}
		return m, nil

	case sessionExpiredMsg:
		m.expired = true
		m.controller.Reset()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+n":
		return m, m.create()
	case "tab":
		if m.focus == focusInput {
			m.setFocus(focusSidebar)
		} else {
			m.setFocus(focusInput)
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusSidebar {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.dir.Sessions)-1 {
				m.cursor++
			}
		case "enter":
			if m.cursor < len(m.dir.Sessions) {
				id := m.dir.Sessions[m.cursor].ID
				m.setFocus(focusInput)
				return m, m.selectSession(id)
			}
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		text := m.input.Value()
		if strings.TrimSpace(text) == "" || m.conv.Session == nil {
			return m, nil
		}
		return m, m.send(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.controller.SetInput(m.input.Value())
	return m, cmd
}

func (m *Model) applyController(s chat.ControllerSnapshot) {
	m.conv = s
	if s.Revision != m.lastRevision {
		m.lastRevision = s.Revision
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
	}
	if s.Session != nil {
		for i, summary := range m.dir.Sessions {
			if summary.ID == s.Session.ID {
				m.cursor = i
				break
			}
		}
	}
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.dir.Sessions) {
		m.cursor = len(m.dir.Sessions) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	m.width = width
	m.height = height

	transcriptWidth := width - sidebarWidth - 4
	if transcriptWidth < 10 {
		transcriptWidth = 10
	}
	transcriptHeight := height - chromeHeight
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	m.viewport.Width = transcriptWidth
	m.viewport.Height = transcriptHeight
	m.input.Width = width - 4

	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "load", err: m.directory.Load(m.ctx)}
	}
}

func (m Model) create() tea.Cmd {
	return func() tea.Msg {
		_, err := m.directory.Create(m.ctx, "")
		return opDoneMsg{op: "create", err: err}
	}
}

func (m Model) selectSession(id string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "select", err: m.directory.Select(m.ctx, id)}
	}
}

func (m Model) send(text string) tea.Cmd {
	return func() tea.Msg {
		return sendDoneMsg{text: text, err: m.controller.SendMessage(m.ctx, text)}
	}
}

// View renders the screen
func (m Model) View() string {
	sidebarStyle := m.styles.Sidebar
	if m.focus == focusSidebar {
		sidebarStyle = m.styles.SidebarFocused
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Width(sidebarWidth).Height(m.viewport.Height).Render(m.renderSidebar()),
		m.styles.Transcript.Render(m.viewport.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		panes,
		m.input.View(),
		m.renderStatus(),
	)
}

func (m Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Chats"))
	sb.WriteString(m.styles.Preview.Render("  ctrl+n new"))
	sb.WriteString("\n\n")

	if len(m.dir.Sessions) == 0 {
		if m.dir.Loading {
			sb.WriteString(m.styles.Muted.Render("Loading..."))
		} else {
			sb.WriteString(m.styles.Muted.Render("No chats yet"))
		}
		return sb.String()
	}

	activeID := ""
	if m.conv.Session != nil {
		activeID = m.conv.Session.ID
	}

	for i, s := range m.dir.Sessions {
		marker := "  "
		style := m.styles.Item
		if s.ID == activeID {
			marker = "▸ "
			style = m.styles.ItemActive
		}
		if m.focus == focusSidebar && i == m.cursor {
			style = style.Inherit(m.styles.ItemCursor)
		}
		sb.WriteString(style.Render(marker + truncate(s.Title, sidebarWidth-4)))
		sb.WriteString("\n  ")
		sb.WriteString(m.styles.Preview.Render(truncate(models.OneLine(s.Preview()), sidebarWidth-4)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderTranscript() string {
	s := m.conv.Session
	if s == nil {
		return m.styles.Muted.Render("Select a chat or press ctrl+n to start one.")
	}
	if len(s.Messages) == 0 {
		return m.styles.Muted.Render("No messages yet. Ask about your campaigns, leads or emails.")
	}

	body := lipgloss.NewStyle().Width(m.viewport.Width)
	var sb strings.Builder
	for i, msg := range s.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.roleLabel(msg.Role))
		if !msg.Timestamp.IsZero() {
			sb.WriteString(" ")
			sb.WriteString(m.styles.Timestamp.Render(msg.Timestamp.Local().Format("15:04")))
		}
		sb.WriteString("\n")
		sb.WriteString(body.Render(msg.Content))
	}
	return sb.String()
}

func (m Model) roleLabel(role models.Role) string {
	if role == models.RoleUser {
		return m.styles.UserLabel.Render(role.Label())
	}
	return m.styles.AssistantLabel.Render(role.Label())
}

func (m Model) renderStatus() string {
	var parts []string

	switch {
	case m.conv.State == chat.StateSending:
		parts = append(parts, m.spinner.View()+" Assistant is thinking...")
	case m.dir.Loading:
		parts = append(parts, m.spinner.View()+" Loading chats...")
	}

	switch {
	case m.status != "":
		parts = append(parts, m.styles.Error.Render(m.status))
	case m.conv.Err != nil:
		parts = append(parts, m.styles.Error.Render(m.conv.Err.Error()))
	case m.dir.Err != nil:
		parts = append(parts, m.styles.Error.Render(m.dir.Err.Error()))
	}

	if m.credentials != nil {
		if claims, err := m.credentials.Claims(); err == nil && claims.Email != "" {
			who := "signed in as " + claims.Email
			if left, ok := m.credentials.ExpiresIn(time.Now()); ok {
				who += fmt.Sprintf(" (%s left)", left.Truncate(time.Minute))
			}
			parts = append(parts, who)
		}
	}

	parts = append(parts, "tab focus · enter send · esc quit")
	return m.styles.Status.Render(strings.Join(parts, "  |  "))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
