package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gemchat/internal/app"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type submitDoneMsg struct {
	outcome app.Outcome
	err     error
}

type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// MainModel is the interactive chat view: a transcript viewport over the
// application's live buffer, an input box, and a typing indicator gated on
// the orchestrator's loading flag.
type MainModel struct {
	app   *app.Application
	theme Theme

	width  int
	height int
	ready  bool

	input  textarea.Model
	chatVP viewport.Model

	// notice holds a transient system/error line shown under the transcript
	// (limit reached, failed exchange, archived session).
	notice     string
	spinnerPos int
	waiting    bool
}

func New(application *app.Application) *MainModel {
	ta := textarea.New()
	ta.Placeholder = "Ask something. Enter sends, Ctrl+N starts a new chat."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	return &MainModel{
		app:    application,
		theme:  NewTheme(),
		width:  100,
		height: 30,
		input:  ta,
	}
}

func (m *MainModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatH := m.height - 6
		if chatH < 3 {
			chatH = 3
		}
		if !m.ready {
			m.chatVP = viewport.New(m.width, chatH)
			m.ready = true
		} else {
			m.chatVP.Width = m.width
			m.chatVP.Height = chatH
		}
		m.input.SetWidth(max(10, m.width-6))
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyCtrlN:
			if _, added := m.app.NewSession(); added {
				m.notice = "conversation archived."
			} else {
				m.notice = "new chat."
			}
			m.refreshTranscript()
			return m, nil

		case tea.KeyEnter:
			return m, m.onEnter()

		case tea.KeyPgUp:
			m.chatVP.ViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.chatVP.ViewDown()
			return m, nil
		}

	case submitDoneMsg:
		m.waiting = false
		switch msg.outcome {
		case app.OutcomeCompleted:
			m.notice = ""
		case app.OutcomeLimitReached:
			m.notice = "session limit reached — press Ctrl+N to start a new chat."
		case app.OutcomeUnauthenticated:
			m.notice = "not signed in."
		case app.OutcomeBusy:
			m.notice = "still waiting on the previous reply."
		case app.OutcomeFailed:
			m.notice = fmt.Sprintf("no reply: %v", msg.err)
		}
		m.refreshTranscript()
		m.chatVP.GotoBottom()
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.waiting {
			// The pending user turn lands in the transcript shortly after
			// submit; keep the view in step while waiting.
			m.refreshTranscript()
			m.chatVP.GotoBottom()
			return m, m.spinTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *MainModel) onEnter() tea.Cmd {
	val := strings.TrimSpace(m.input.Value())
	if val == "" {
		return nil
	}
	if m.waiting {
		m.notice = "still waiting on the previous reply."
		return nil
	}

	m.input.Reset()
	m.waiting = true
	m.notice = ""

	done := make(chan submitDoneMsg, 1)
	go func(prompt string) {
		outcome, err := m.app.Submit(context.Background(), prompt)
		done <- submitDoneMsg{outcome: outcome, err: err}
	}(val)

	m.refreshTranscript()
	m.chatVP.GotoBottom()

	wait := func() tea.Msg { return <-done }
	return tea.Batch(wait, m.spinTick())
}

func (m *MainModel) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(_ time.Time) tea.Msg { return spinMsg{} })
}

func (m *MainModel) refreshTranscript() {
	var b strings.Builder
	width := m.chatVP.Width - 2
	if width < 20 {
		width = 20
	}
	for _, msg := range m.app.Transcript.Snapshot() {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *MainModel) renderMessage(msg app.Message, width int) string {
	label := m.theme.RoleBot.Render("BOT")
	if msg.IsUser {
		label = m.theme.RoleYou.Render("YOU")
	}
	body := lipgloss.NewStyle().Width(width).Render(msg.Text)
	stamp := m.theme.RoleSys.Render(msg.Timestamp.Format("15:04"))
	return fmt.Sprintf("%s %s\n%s", label, stamp, body)
}

func (m *MainModel) View() string {
	if !m.ready {
		return "…"
	}

	user := m.app.Identity.User()
	if user == "" {
		user = "signed out"
	}
	top := m.theme.TopBar.Render(fmt.Sprintf("gemchat — %s", user))

	status := ""
	if m.waiting {
		status = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " typing…")
	} else if m.notice != "" {
		status = m.theme.RoleErr.Render(m.notice)
	}

	footer := m.theme.Footer.Render("Enter send · Ctrl+N new chat · PgUp/PgDn scroll · Ctrl+C quit")
	input := m.theme.InputBox.Width(m.width - 2).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, top, m.chatVP.View(), status, input, footer)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
