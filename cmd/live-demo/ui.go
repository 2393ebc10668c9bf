package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	livesession "github.com/jonw15/Memorize-AI-Meta-Glasses-sub001/core"
	"github.com/muesli/reflow/wordwrap"
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	styleUser = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	styleAssistant = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleStatus = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleRecording = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

type connectedMsg struct{}
type transcriptDeltaMsg string
type transcriptDoneMsg string
type userTranscriptMsg string
type speechActivityMsg bool
type toolResultMsg string
type sessionErrMsg struct{ err error }

type demoModel struct {
	session *livesession.Session

	viewport viewport.Model
	input    textinput.Model

	transcript   []string
	partial      string
	userSpeaking bool
	status       string
	lastErr      error

	width  int
	height int
	ready  bool
}

func newDemoModel(session *livesession.Session, backendName string) demoModel {
	input := textinput.New()
	input.Placeholder = "type a message, enter to send"
	input.Prompt = "> "
	input.Focus()

	return demoModel{
		session: session,
		input:   input,
		status:  fmt.Sprintf("connecting to %s...", backendName),
	}
}

func (m demoModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m demoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.session.Disconnect()
			return m, tea.Quit
		case "ctrl+r":
			if m.session.IsRecording() {
				if err := m.session.StopRecording(); err != nil {
					m.lastErr = err
				}
			} else if err := m.session.StartRecording(); err != nil {
				m.lastErr = err
			}
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.session.SendText(text)
				m.transcript = append(m.transcript, styleUser.Render("you: ")+text)
				m.input.Reset()
				m.syncViewport()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.syncViewport()

	case connectedMsg:
		m.status = "connected, ctrl+r to talk"

	case transcriptDeltaMsg:
		m.partial += string(msg)
		m.syncViewport()

	case transcriptDoneMsg:
		m.partial = ""
		if text := strings.TrimSpace(string(msg)); text != "" {
			m.transcript = append(m.transcript, styleAssistant.Render("assistant: "+text))
		}
		m.syncViewport()

	case userTranscriptMsg:
		if text := strings.TrimSpace(string(msg)); text != "" {
			m.transcript = append(m.transcript, styleUser.Render("you (voice): ")+text)
		}
		m.syncViewport()

	case speechActivityMsg:
		m.userSpeaking = bool(msg)

	case toolResultMsg:
		m.transcript = append(m.transcript, styleStatus.Render("tool: "+string(msg)))
		m.syncViewport()

	case sessionErrMsg:
		m.lastErr = msg.err
	}

	var inputCmd, viewportCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	if m.ready {
		m.viewport, viewportCmd = m.viewport.Update(msg)
	}
	return m, tea.Batch(inputCmd, viewportCmd)
}

func (m *demoModel) syncViewport() {
	if !m.ready {
		return
	}

	lines := make([]string, 0, len(m.transcript)+1)
	lines = append(lines, m.transcript...)
	if m.partial != "" {
		lines = append(lines, styleAssistant.Render("assistant: "+m.partial))
	}

	m.viewport.SetContent(wordwrap.String(strings.Join(lines, "\n"), m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m demoModel) View() string {
	if !m.ready {
		return "starting..."
	}

	status := m.status
	if m.session.IsRecording() {
		status = styleRecording.Render("● recording") + " " + status
	}
	if m.userSpeaking {
		status += "  (speech detected)"
	}
	if m.lastErr != nil {
		status = styleError.Render(m.lastErr.Error())
	}

	return strings.Join([]string{
		styleHeader.Render("live session"),
		m.viewport.View(),
		styleStatus.Render(status),
		m.input.View(),
	}, "\n")
}
