// Package tui is the terminal surface of the chat session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"

	"github.com/PabloGalante/chatrelay/internal/app/conversation"
	"github.com/PabloGalante/chatrelay/internal/domain"
	"github.com/PabloGalante/chatrelay/internal/observability"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	settingsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 5 // header, status, input, help, spacer
	eventBuffer   = 64
)

type eventMsg struct {
	event conversation.Event
}

type turnDoneMsg struct {
	outcome *conversation.TurnOutcome
	err     error
}

// Model is the bubbletea model driving one session from the terminal.
type Model struct {
	ctx     context.Context
	session *conversation.Session

	events      chan conversation.Event
	unsubscribe func()

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	busy   bool
	banner *conversation.Banner
}

func New(ctx context.Context, session *conversation.Session) Model {
	in := textinput.New()
	in.Placeholder = "What's on your mind? (/help for commands)"
	in.Prompt = "> "
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	vp := viewport.New(defaultWidth, defaultHeight-chromeHeight)
	// only page keys scroll; letters belong to the input line
	vp.KeyMap = viewport.KeyMap{
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
	}

	events := make(chan conversation.Event, eventBuffer)
	unsubscribe := session.Subscribe(func(ev conversation.Event) {
		select {
		case events <- ev:
		default:
		}
	})

	m := Model{
		ctx:         ctx,
		session:     session,
		events:      events,
		unsubscribe: unsubscribe,
		input:       in,
		viewport:    vp,
		spinner:     sp,
		width:       defaultWidth,
		height:      defaultHeight,
	}
	m.renderer = newRenderer(defaultWidth)
	m.refresh()
	return m
}

// Close detaches the model from the session.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the terminal program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, session *conversation.Session, opts ...tea.ProgramOption) error {
	m := New(ctx, session)
	defer m.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return errors.Wrap(err, "run terminal ui")
	}
	return nil
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		observability.Logger().Warn("markdown renderer unavailable", "error", err)
		return nil
	}
	return r
}

func waitForEvent(ch <-chan conversation.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func submitCmd(ctx context.Context, session *conversation.Session, text string) tea.Cmd {
	return func() tea.Msg {
		out, err := session.Submit(ctx, text)
		return turnDoneMsg{outcome: out, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleLine()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case eventMsg:
		m.applyEvent(msg.event)
		m.refresh()
		return m, waitForEvent(m.events)

	case turnDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.banner = &conversation.Banner{Level: conversation.BannerError, Message: msg.err.Error()}
		} else if n := len(msg.outcome.Banners); n > 0 {
			b := msg.outcome.Banners[n-1]
			m.banner = &b
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleLine() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	line := m.input.Value()
	if strings.TrimSpace(line) == "" {
		return m, nil
	}
	m.input.Reset()

	c, err := parseCommand(line)
	if err != nil {
		m.setBanner(conversation.BannerError, err.Error())
		return m, nil
	}

	switch c.kind {
	case cmdNone:
		m.busy = true
		m.banner = nil
		return m, submitCmd(m.ctx, m.session, c.arg)
	case cmdQuit:
		return m, tea.Quit
	case cmdClear:
		m.session.Clear()
		m.banner = nil
		m.refresh()
		return m, nil
	case cmdHelp:
		m.setBanner(conversation.BannerSuccess, helpText)
		return m, nil
	}

	settings, err := applySetting(m.session.Settings(), c)
	if err == nil {
		err = m.session.UpdateSettings(settings)
	}
	if err != nil {
		m.setBanner(conversation.BannerError, err.Error())
		return m, nil
	}
	m.setBanner(conversation.BannerSuccess, "Settings updated")
	return m, nil
}

func (m *Model) setBanner(level conversation.BannerLevel, msg string) {
	m.banner = &conversation.Banner{Level: level, Message: msg}
}

func (m *Model) applyEvent(ev conversation.Event) {
	switch ev.Kind {
	case conversation.EventBanner:
		m.banner = ev.Banner
	case conversation.EventCleared:
		m.banner = nil
	}
}

// refresh re-renders the transcript from the session snapshot.
func (m *Model) refresh() {
	snap := m.session.Snapshot()

	var b strings.Builder
	for i, t := range snap.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderTurn(t, snap.Settings.UserName))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderTurn(t domain.Turn, userName string) string {
	if t.Role == domain.RoleUser {
		return userLabelStyle.Render("You ("+userName+")") + "\n" + t.Content
	}

	body := t.Content
	if m.renderer != nil {
		if out, err := m.renderer.Render(t.Content); err == nil {
			body = strings.Trim(out, "\n")
		}
	}
	return botLabelStyle.Render("Assistant") + "\n" + body
}

func (m Model) View() string {
	s := m.session.Settings()
	header := headerStyle.Render("Chat with Groq") + "  " + settingsStyle.Render(fmt.Sprintf(
		"name=%s  model=%s  temperature=%.1f  max_tokens=%d",
		s.UserName, s.Generation.Model, s.Generation.Temperature, s.Generation.MaxTokens,
	))

	var status string
	switch {
	case m.busy:
		status = m.spinner.View() + " Thinking..."
	case m.banner != nil && m.banner.Level == conversation.BannerError:
		status = errorStyle.Render(m.banner.Message)
	case m.banner != nil:
		status = successStyle.Render(m.banner.Message)
	}

	return strings.Join([]string{
		header,
		m.viewport.View(),
		status,
		m.input.View(),
		helpStyle.Render("enter send • pgup/pgdown scroll • /help commands • esc quit"),
	}, "\n")
}
