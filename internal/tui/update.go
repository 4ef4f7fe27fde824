package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
//
//nolint:gocritic // hugeParam: Model must be value receiver to implement tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.messages = make([]MessageDisplay, 0)
			m.viewport.SetContent(m.renderMessages())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 8
		footerHeight := 3
		verticalMargins := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, msg.Height-verticalMargins)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = msg.Height - verticalMargins
		}
		m.viewport.SetContent(m.renderMessages())

	case tickMsg:
		m.lastUpdate = time.Time(msg)
		m.connected = m.client.Transport().IsConnected()
		m.connName = m.client.Transport().Name()
		cmds = append(cmds, tickCmd())

	case frameMsg:
		if msg.event.Err != nil {
			m.errorMessage = msg.event.Err.Error()
			m.errorCount++
		} else if display, ok := describeFrame(msg.event.Frame); ok {
			m.addMessage(display)
			m.viewport.SetContent(m.renderMessages())
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForEvent(msg.sub))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) addMessage(display MessageDisplay) {
	m.messages = append(m.messages, display)
	m.messageCount++

	if len(m.messages) > MaxMessages {
		m.messages = m.messages[len(m.messages)-MaxMessages:]
	}
}
